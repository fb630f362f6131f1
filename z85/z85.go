// Copyright 2025 The zsock Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package z85 provides ZeroMQ Base-85 encoding as specified by
// https://rfc.zeromq.org/spec/32/Z85/. It is used to represent
// 32-byte CURVE keys as printable 40-character strings.
package z85

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidLength = errors.New("z85: invalid input length")
	ErrInvalidChar   = errors.New("z85: invalid character")
)

// Z85 alphabet as defined in RFC 32.
const alphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ.-:+=^!/*?&<>()[]{}@%$#"

const invalid = 0xFF

var decoder [256]byte

func init() {
	for i := range decoder {
		decoder[i] = invalid
	}
	for i := 0; i < len(alphabet); i++ {
		decoder[alphabet[i]] = byte(i)
	}
}

// EncodedLen returns the Z85 encoded length for n source bytes.
func EncodedLen(n int) int { return n * 5 / 4 }

// DecodedLen returns the decoded length for n bytes of Z85 input.
func DecodedLen(n int) int { return n * 4 / 5 }

// Encode encodes src, writing EncodedLen(len(src)) bytes to dst.
// Z85 works on 4-byte groups, so len(src) must be divisible by 4.
func Encode(dst, src []byte) error {
	if len(src)%4 != 0 {
		return fmt.Errorf("%w: source length %d not divisible by 4", ErrInvalidLength, len(src))
	}
	if len(dst) < EncodedLen(len(src)) {
		return fmt.Errorf("z85: destination buffer too small: need %d, got %d", EncodedLen(len(src)), len(dst))
	}

	di := 0
	for si := 0; si < len(src); si += 4 {
		value := uint64(src[si])<<24 | uint64(src[si+1])<<16 | uint64(src[si+2])<<8 | uint64(src[si+3])
		for i := 4; i >= 0; i-- {
			dst[di+i] = alphabet[value%85]
			value /= 85
		}
		di += 5
	}
	return nil
}

// EncodeToString returns the Z85 encoding of src.
func EncodeToString(src []byte) (string, error) {
	dst := make([]byte, EncodedLen(len(src)))
	if err := Encode(dst, src); err != nil {
		return "", err
	}
	return string(dst), nil
}

// Decode decodes src, writing DecodedLen(len(src)) bytes to dst.
// Z85 works on 5-character groups, so len(src) must be divisible by 5.
func Decode(dst, src []byte) (int, error) {
	if len(src)%5 != 0 {
		return 0, fmt.Errorf("%w: source length %d not divisible by 5", ErrInvalidLength, len(src))
	}
	if len(dst) < DecodedLen(len(src)) {
		return 0, fmt.Errorf("z85: destination buffer too small: need %d, got %d", DecodedLen(len(src)), len(dst))
	}

	di := 0
	for si := 0; si < len(src); si += 5 {
		var value uint64
		for i := 0; i < 5; i++ {
			char := src[si+i]
			cv := decoder[char]
			if cv == invalid {
				return 0, fmt.Errorf("%w: character %q at position %d", ErrInvalidChar, char, si+i)
			}
			value = value*85 + uint64(cv)
		}
		if value > 0xFFFFFFFF {
			return 0, fmt.Errorf("z85: decoded value overflow at position %d", si)
		}
		dst[di] = byte(value >> 24)
		dst[di+1] = byte(value >> 16)
		dst[di+2] = byte(value >> 8)
		dst[di+3] = byte(value)
		di += 4
	}
	return di, nil
}

// DecodeString returns the bytes represented by the Z85 string s.
func DecodeString(s string) ([]byte, error) {
	dst := make([]byte, DecodedLen(len(s)))
	n, err := Decode(dst, []byte(s))
	if err != nil {
		return nil, err
	}
	return dst[:n], nil
}

// ValidateString checks whether s is a valid Z85 encoded string.
func ValidateString(s string) error {
	if len(s)%5 != 0 {
		return fmt.Errorf("%w: length %d not divisible by 5", ErrInvalidLength, len(s))
	}
	for i := 0; i < len(s); i++ {
		if decoder[s[i]] == invalid {
			return fmt.Errorf("%w: character %q at position %d", ErrInvalidChar, s[i], i)
		}
	}
	return nil
}
