// Copyright 2025 The zsock Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package zsock

import (
	"context"
	"fmt"
	"net"
	"os"
	"strings"
	"sync"
)

// Transport acquires raw byte streams for a given endpoint scheme.
type Transport interface {
	// Dial connects to the remote address.
	Dial(ctx context.Context, dialer *net.Dialer, addr string) (net.Conn, error)

	// Listen announces on the local address.
	Listen(ctx context.Context, addr string) (net.Listener, error)
}

type netTransport struct {
	prot string
}

func (trans netTransport) Dial(ctx context.Context, dialer *net.Dialer, addr string) (net.Conn, error) {
	return dialer.DialContext(ctx, trans.prot, addr)
}

func (trans netTransport) Listen(ctx context.Context, addr string) (net.Listener, error) {
	var cfg net.ListenConfig
	return cfg.Listen(ctx, trans.prot, addr)
}

type transports struct {
	mu sync.RWMutex
	db map[string]Transport
}

func (ts *transports) get(name string) (Transport, bool) {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	trans, ok := ts.db[name]
	return trans, ok
}

func (ts *transports) add(name string, trans Transport) error {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	if _, dup := ts.db[name]; dup {
		return fmt.Errorf("zsock: transport %q already registered", name)
	}
	ts.db[name] = trans
	return nil
}

var drivers = transports{
	db: map[string]Transport{
		"tcp": netTransport{prot: "tcp"},
		"ipc": netTransport{prot: "unix"},
	},
}

// RegisterTransport registers a new transport under the given
// endpoint scheme. It is an error to register a duplicate scheme.
func RegisterTransport(name string, trans Transport) error {
	return drivers.add(name, trans)
}

// splitAddr splits a "scheme://address" endpoint into its transport
// scheme and address parts.
func splitAddr(v string) (network, addr string, err error) {
	ep := strings.SplitN(v, "://", 2)
	if len(ep) != 2 || ep[0] == "" || ep[1] == "" {
		return "", "", errInvalidAddress
	}
	return ep[0], ep[1], nil
}

// removeIPCFile removes the unix socket file behind an ipc endpoint.
func removeIPCFile(ep string) error {
	return os.Remove(strings.TrimPrefix(ep, "ipc://"))
}
