// Copyright 2025 The zsock Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package zsock

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetadataRoundTrip(t *testing.T) {
	in := Metadata{
		sysSockType: string(Pub),
		sysSockID:   "socket-007",
	}
	raw, err := in.Marshal()
	require.NoError(t, err)

	out := make(Metadata)
	require.NoError(t, out.Unmarshal(raw))
	assert.Equal(t, in, out)
}

func TestMetadataCaseFolding(t *testing.T) {
	// Property names are case-insensitive on the wire.
	raw := []byte{11, 'S', 'o', 'c', 'k', 'e', 't', '-', 'T', 'y', 'p', 'e', 0, 0, 0, 3, 'P', 'U', 'B'}

	md := make(Metadata)
	require.NoError(t, md.Unmarshal(raw))
	assert.Equal(t, "PUB", md[sysSockType])
}

func TestMetadataUnmarshalTruncated(t *testing.T) {
	md := make(Metadata)
	assert.Error(t, md.Unmarshal([]byte{5, 'a', 'b'}))
	assert.Error(t, md.Unmarshal([]byte{1, 'a', 0, 0, 0, 9, 'x'}))
}

func TestMetadataMarshalInvalidName(t *testing.T) {
	_, err := Metadata{":": "empty wire name"}.Marshal()
	require.Error(t, err)
}
