// Copyright 2025 The zsock Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package zsock

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"
)

// frontend owns the accept/connect lifecycle of a multi-peer socket
// and delegates peer bookkeeping to its backend.
type frontend struct {
	cfg     config
	backend Backend

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	listener net.Listener
	ep       string

	wg sync.WaitGroup

	// onConnect, when set, runs after a peer is registered on either
	// the accept or the dial path. SUB sockets use it to push their
	// current topic set to a fresh publisher.
	onConnect func(id PeerIdentity)
}

func newFrontend(ctx context.Context, backend Backend, cfg config) *frontend {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	return &frontend{
		cfg:     cfg,
		backend: backend,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Listen starts accepting connections on the given endpoint. Each
// accepted connection is handshaked and handed to the backend.
// Stopping the listener does not tear down peers already connected.
func (f *frontend) Listen(endpoint string) error {
	network, addr, err := splitAddr(endpoint)
	if err != nil {
		return err
	}
	trans, ok := drivers.get(network)
	if !ok {
		return UnknownTransportError{Name: network}
	}

	l, err := trans.Listen(f.ctx, addr)
	if err != nil {
		return fmt.Errorf("zsock: could not listen to %q: %w", endpoint, err)
	}

	f.mu.Lock()
	f.listener = l
	f.ep = endpoint
	f.mu.Unlock()

	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		f.acceptLoop(l)
	}()
	return nil
}

func (f *frontend) acceptLoop(l net.Listener) {
	for {
		conn, err := l.Accept()
		if err != nil {
			if f.ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return
			}
			f.cfg.log.Warn("could not accept connection: %v", err)
			continue
		}

		zconn, err := Open(conn, f.cfg.sec, f.backend.Type(), f.cfg.id, true, nil)
		if err != nil {
			// One bad handshake aborts that connection only.
			f.cfg.log.Warn("could not handshake with %v: %v", conn.RemoteAddr(), err)
			conn.Close()
			continue
		}

		id := serveConn(f.ctx, &f.wg, f.backend, zconn, f.cfg.log)
		if f.onConnect != nil {
			f.onConnect(id)
		}
	}
}

// Dial connects to a remote endpoint and registers the resulting
// single peer with the backend exactly as the accept path does.
func (f *frontend) Dial(endpoint string) error {
	network, addr, err := splitAddr(endpoint)
	if err != nil {
		return err
	}
	trans, ok := drivers.get(network)
	if !ok {
		return UnknownTransportError{Name: network}
	}

	var conn net.Conn
	for retries := 0; ; retries++ {
		conn, err = trans.Dial(f.ctx, &f.cfg.dialer, addr)
		if err == nil {
			break
		}
		if (f.cfg.maxRetries == -1 || retries < f.cfg.maxRetries) && f.ctx.Err() == nil {
			time.Sleep(f.cfg.retry)
			continue
		}
		return fmt.Errorf("zsock: could not dial to %q (retry=%v): %w", endpoint, f.cfg.retry, err)
	}

	zconn, err := Open(conn, f.cfg.sec, f.backend.Type(), f.cfg.id, false, nil)
	if err != nil {
		conn.Close()
		return fmt.Errorf("zsock: could not open connection to %q: %w", endpoint, err)
	}

	id := serveConn(f.ctx, &f.wg, f.backend, zconn, f.cfg.log)
	if f.onConnect != nil {
		f.onConnect(id)
	}
	return nil
}

// Addr returns the listener's address, or nil if the socket isn't a
// listener.
func (f *frontend) Addr() net.Addr {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listener == nil {
		return nil
	}
	return f.listener.Addr()
}

// Close tears the socket down: it stops accepting, shuts the backend
// down (which fires every peer's stop signal), and waits for all peer
// pumps to finish. Resource release runs on every exit path.
func (f *frontend) Close() error {
	f.cancel()

	f.mu.Lock()
	l := f.listener
	ep := f.ep
	f.mu.Unlock()

	var err error
	if l != nil {
		err = l.Close()
	}

	f.backend.Shutdown()
	f.wg.Wait()

	// Remove the unix socket file if created by net.Listen.
	if l != nil && strings.HasPrefix(ep, "ipc://") {
		_ = removeIPCFile(ep)
	}
	return err
}
