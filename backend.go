// Copyright 2025 The zsock Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package zsock

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Backend is the pattern-specific half of a socket. It is invoked by
// the connection glue on peer connect, peer disconnect, and inbound
// message arrival, and owns the peer registry. Each socket pattern is
// a Backend implementation; the registry and backpressure mechanics
// are shared untouched.
type Backend interface {
	// PeerConnected registers a newly connected peer and returns the
	// handles its pump goroutines consume: the bounded outbound queue
	// and the one-shot stop signal.
	PeerConnected(id PeerIdentity) (outbound <-chan Msg, stop <-chan struct{})

	// PeerDisconnected deregisters a peer. Side effect only; never
	// fatal.
	PeerDisconnected(id PeerIdentity)

	// MessageReceived handles one inbound message from the given
	// peer. Failures are swallowed at this layer: malformed control
	// frames are ignored, not fatal to the connection.
	MessageReceived(id PeerIdentity, msg Msg)

	// Type returns the socket type declared during the handshake.
	Type() SocketType

	// Shutdown clears the registry, terminating every peer's pump
	// goroutines.
	Shutdown()
}

// serveConn binds a handshaked connection to a backend: it registers
// the peer and starts its read and write pumps. The pumps terminate
// when the peer's stop signal fires, the context is canceled, or the
// connection errors; every exit path closes the connection and
// notifies the backend.
func serveConn(ctx context.Context, wg *sync.WaitGroup, backend Backend, conn *Conn, log *Logger) PeerIdentity {
	id := newPeerIdentity()
	outbound, stop := backend.PeerConnected(id)

	wg.Add(1)
	go func() {
		defer wg.Done()

		g, gctx := errgroup.WithContext(ctx)

		// read pump: inbound frames are processed in arrival order.
		g.Go(func() error {
			for {
				msg, err := conn.RecvMsg()
				if err != nil {
					return err
				}
				backend.MessageReceived(id, msg)
			}
		})

		// write pump: drains the bounded outbound queue, FIFO per peer.
		g.Go(func() error {
			for {
				select {
				case msg := <-outbound:
					if err := conn.SendMsg(msg); err != nil {
						return err
					}
				case <-stop:
					return nil
				case <-gctx.Done():
					return gctx.Err()
				}
			}
		})

		// closer: unblocks the read pump on teardown.
		g.Go(func() error {
			select {
			case <-stop:
			case <-gctx.Done():
			}
			conn.Close()
			return nil
		})

		if err := g.Wait(); err != nil {
			log.Debug("peer %s: pump stopped: %v", id, err)
		}
		conn.Close()
		backend.PeerDisconnected(id)
	}()

	return id
}
