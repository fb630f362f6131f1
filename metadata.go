// Copyright 2025 The zsock Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package zsock

import (
	"encoding/binary"
	"fmt"
	"sort"
)

// Metadata is the set of properties exchanged during the READY
// handshake. Property names are case-insensitive on the wire; they
// are stored lower-case.
type Metadata map[string]string

// Well-known metadata properties.
const (
	sysSockType = ":socket-type"
	sysSockID   = ":identity"
)

// Marshal encodes the metadata as a sequence of
// [name-size (1 octet)][name][value-size (4 octets, network order)][value]
// properties, in sorted name order for a deterministic wire form.
func (md Metadata) Marshal() ([]byte, error) {
	names := make([]string, 0, len(md))
	for k := range md {
		names = append(names, k)
	}
	sort.Strings(names)

	var buf []byte
	for _, name := range names {
		wire := name
		if len(wire) > 0 && wire[0] == ':' {
			wire = wire[1:]
		}
		if len(wire) == 0 || len(wire) > 255 {
			return nil, fmt.Errorf("zsock: invalid metadata property name %q", name)
		}
		value := md[name]
		buf = append(buf, byte(len(wire)))
		buf = append(buf, wire...)
		var vlen [4]byte
		binary.BigEndian.PutUint32(vlen[:], uint32(len(value)))
		buf = append(buf, vlen[:]...)
		buf = append(buf, value...)
	}
	return buf, nil
}

// Unmarshal decodes wire-form properties into md.
func (md Metadata) Unmarshal(data []byte) error {
	for len(data) > 0 {
		n := int(data[0])
		data = data[1:]
		if n == 0 || len(data) < n+4 {
			return fmt.Errorf("zsock: truncated metadata property")
		}
		name := lower(string(data[:n]))
		data = data[n:]
		vlen := int(binary.BigEndian.Uint32(data[:4]))
		data = data[4:]
		if len(data) < vlen {
			return fmt.Errorf("zsock: truncated metadata value for %q", name)
		}
		md[":"+name] = string(data[:vlen])
		data = data[vlen:]
	}
	return nil
}

func lower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if 'A' <= c && c <= 'Z' {
			b[i] = c + 'a' - 'A'
		}
	}
	return string(b)
}
