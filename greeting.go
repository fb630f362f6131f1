// Copyright 2025 The zsock Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package zsock

import (
	"fmt"
	"io"
)

// Connection greeting, exchanged before anything else flows on a
// fresh byte stream:
//
//	signature (10 octets) | version (2) | mechanism (20) |
//	as-server (1) | filler (31)
const (
	sigHeader = 0xFF
	sigFooter = 0x7F

	greetingSize = 64
)

var defaultVersion = [2]uint8{3, 1}

type greeting struct {
	Sig struct {
		Header byte
		_      [8]byte
		Footer byte
	}
	Version   [2]uint8
	Mechanism [20]byte
	Server    byte
}

func (g *greeting) write(w io.Writer) error {
	var buf [greetingSize]byte
	buf[0] = g.Sig.Header
	buf[9] = g.Sig.Footer
	buf[10] = g.Version[0]
	buf[11] = g.Version[1]
	copy(buf[12:32], g.Mechanism[:])
	buf[32] = g.Server
	_, err := w.Write(buf[:])
	return err
}

func (g *greeting) read(r io.Reader) error {
	var buf [greetingSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return err
	}
	g.Sig.Header = buf[0]
	g.Sig.Footer = buf[9]
	g.Version[0] = buf[10]
	g.Version[1] = buf[11]
	copy(g.Mechanism[:], buf[12:32])
	g.Server = buf[32]

	if g.Sig.Header != sigHeader || g.Sig.Footer != sigFooter {
		return fmt.Errorf("zsock: invalid greeting signature")
	}
	if g.Version[0] != defaultVersion[0] {
		return fmt.Errorf("zsock: unsupported protocol version %d.%d", g.Version[0], g.Version[1])
	}
	return nil
}

func asString(raw []byte) string {
	for i, b := range raw {
		if b == 0 {
			return string(raw[:i])
		}
	}
	return string(raw)
}

func asBool(b byte) (bool, error) {
	switch b {
	case 0:
		return false, nil
	case 1:
		return true, nil
	}
	return false, fmt.Errorf("zsock: invalid greeting as-server flag %#x", b)
}
