// Copyright 2025 The zsock Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package zsock implements ZeroMQ-style messaging patterns on top of
// reliable byte streams.
//
// It provides topic-filtered broadcast (PUB/SUB) and lock-step
// request/reply (REQ/REP) sockets without requiring applications to
// manage framing, peer bookkeeping, or backpressure themselves.
package zsock

// Socket is the lock-step send/receive handle shared by the REQ and
// REP patterns. A well-behaved peer alternates Send and Recv; the
// library does not enforce that discipline itself.
type Socket interface {
	// Send writes one logical message carrying payload.
	Send(payload []byte) error

	// Recv reads one logical message and returns its payload.
	Recv() ([]byte, error)

	// Close closes the underlying connection.
	Close() error
}

// Sender is the non-blocking, fire-and-forget send side of a
// broadcast socket. Send never blocks the caller and never fails the
// whole broadcast because of one unreachable or slow peer.
type Sender interface {
	Send(msg Msg) error
}
