// Copyright 2025 The zsock Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package zsock

import (
	"fmt"
	"io"
)

// SecurityType denotes the security mechanism negotiated in the
// connection greeting.
type SecurityType string

const (
	// NullSecurity is the plain-text mechanism.
	NullSecurity SecurityType = "NULL"
	// PlainSecurity is the clear-text username/password mechanism.
	PlainSecurity SecurityType = "PLAIN"
	// CurveSecurity is the CurveZMQ encryption mechanism.
	CurveSecurity SecurityType = "CURVE"
)

// Security is the connection security mechanism. The mechanism drives
// the post-greeting handshake and transforms frame payloads on the
// wire.
type Security interface {
	// Type returns the mechanism name announced in the greeting.
	Type() SecurityType

	// Handshake performs the mechanism's handshake on a freshly
	// greeted connection. It must leave the peer's metadata in
	// conn.Peer.Meta.
	Handshake(conn *Conn, server bool) error

	// Encrypt writes the wire form of data to w.
	Encrypt(w io.Writer, data []byte) (int, error)

	// Decrypt writes the clear form of data to w.
	Decrypt(w io.Writer, data []byte) (int, error)
}

// nullSecurity implements the NULL mechanism: a READY command
// exchange carrying metadata, no payload transformation.
type nullSecurity struct{}

func (nullSecurity) Type() SecurityType { return NullSecurity }

func (nullSecurity) Handshake(conn *Conn, server bool) error {
	raw, err := conn.Meta.Marshal()
	if err != nil {
		return fmt.Errorf("zsock: could not marshal metadata: %w", err)
	}
	if err := conn.SendCmd(CmdReady, raw); err != nil {
		return fmt.Errorf("zsock: could not send READY: %w", err)
	}

	cmd, err := conn.RecvCmd()
	if err != nil {
		return fmt.Errorf("zsock: could not recv READY: %w", err)
	}
	switch cmd.Name {
	case CmdReady:
		// ok
	case CmdError:
		return fmt.Errorf("zsock: peer rejected connection: %s", cmd.Body)
	default:
		return fmt.Errorf("zsock: expected READY, got %q", cmd.Name)
	}
	if err := conn.Peer.Meta.Unmarshal(cmd.Body); err != nil {
		return fmt.Errorf("zsock: could not unmarshal peer metadata: %w", err)
	}
	return nil
}

func (nullSecurity) Encrypt(w io.Writer, data []byte) (int, error) {
	return w.Write(data)
}

func (nullSecurity) Decrypt(w io.Writer, data []byte) (int, error) {
	return w.Write(data)
}

var _ Security = (*nullSecurity)(nil)
