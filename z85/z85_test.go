// Copyright 2025 The zsock Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package z85

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Reference vector from https://rfc.zeromq.org/spec/32/Z85/.
var (
	helloData    = []byte{0x86, 0x4F, 0xD2, 0x6F, 0xB5, 0x59, 0xF7, 0x5B}
	helloEncoded = "HelloWorld"
)

func TestEncodeReferenceVector(t *testing.T) {
	s, err := EncodeToString(helloData)
	require.NoError(t, err)
	assert.Equal(t, helloEncoded, s)
}

func TestDecodeReferenceVector(t *testing.T) {
	data, err := DecodeString(helloEncoded)
	require.NoError(t, err)
	assert.Equal(t, helloData, data)
}

func TestRoundTrip(t *testing.T) {
	key := make([]byte, 32)
	_, err := rand.Read(key)
	require.NoError(t, err)

	s, err := EncodeToString(key)
	require.NoError(t, err)
	require.Len(t, s, 40)

	out, err := DecodeString(s)
	require.NoError(t, err)
	assert.Equal(t, key, out)
}

func TestEncodeInvalidLength(t *testing.T) {
	_, err := EncodeToString([]byte{1, 2, 3})
	require.ErrorIs(t, err, ErrInvalidLength)
}

func TestDecodeInvalidLength(t *testing.T) {
	_, err := DecodeString("abc")
	require.ErrorIs(t, err, ErrInvalidLength)
}

func TestDecodeInvalidChar(t *testing.T) {
	// '~' is not in the Z85 alphabet.
	_, err := DecodeString("~~~~~")
	require.ErrorIs(t, err, ErrInvalidChar)
}

func TestValidateString(t *testing.T) {
	assert.NoError(t, ValidateString(helloEncoded))
	assert.ErrorIs(t, ValidateString("abcd"), ErrInvalidLength)
	assert.ErrorIs(t, ValidateString("abcd~"), ErrInvalidChar)
}

func TestLengths(t *testing.T) {
	assert.Equal(t, 40, EncodedLen(32))
	assert.Equal(t, 32, DecodedLen(40))
}
