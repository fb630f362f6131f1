// Copyright 2025 The zsock Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package testutil provides networking helpers for zsock tests.
package testutil

import (
	"net"
	"time"
)

// EndpointFromAddr turns a listener address into a dialable endpoint.
func EndpointFromAddr(addr net.Addr) string {
	return "tcp://" + addr.String()
}

// WaitFor polls cond until it returns true or the timeout expires.
func WaitFor(timeout time.Duration, cond func() bool) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return false
}
