// Copyright 2025 The zsock Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package zsock

import "errors"

var (
	// ErrNoMessage is returned when the peer closed the connection
	// before producing a complete message.
	ErrNoMessage = errors.New("zsock: no message")

	// ErrUnexpectedMessage is returned when a received message does
	// not match the shape the pattern protocol requires.
	ErrUnexpectedMessage = errors.New("zsock: unexpected message")

	// ErrPeerNotFound is returned when operating on a peer identity
	// that is not (or no longer) registered. A peer disconnecting
	// during an in-flight operation is an expected race.
	ErrPeerNotFound = errors.New("zsock: peer not found")

	// ErrClosedConn is returned on read/write after the connection
	// was marked closed.
	ErrClosedConn = errors.New("zsock: read/write on closed connection")

	// ErrBadCmd is returned for a malformed protocol command.
	ErrBadCmd = errors.New("zsock: bad command")

	// ErrBadFrame is returned when a command frame was expected but
	// a data frame arrived, or vice versa.
	ErrBadFrame = errors.New("zsock: bad frame")

	errInvalidAddress = errors.New("zsock: invalid address")
	errOverflow       = errors.New("zsock: frame size overflows int64")
	errBadSec         = errors.New("zsock: peer security mechanism mismatch")
	errSecMech        = errors.New("zsock: security mechanism name too long")
)

// UnknownTransportError is returned when an endpoint names a
// transport scheme no driver is registered for.
type UnknownTransportError struct {
	Name string
}

func (e UnknownTransportError) Error() string {
	return "zsock: unknown transport \"" + e.Name + "\""
}
