// Copyright 2025 The zsock Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package zsock

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitAddr(t *testing.T) {
	for _, tc := range []struct {
		ep            string
		network, addr string
		ok            bool
	}{
		{"tcp://127.0.0.1:5555", "tcp", "127.0.0.1:5555", true},
		{"ipc:///tmp/sock", "ipc", "/tmp/sock", true},
		{"tcp://", "", "", false},
		{"://addr", "", "", false},
		{"no-scheme", "", "", false},
		{"", "", "", false},
	} {
		network, addr, err := splitAddr(tc.ep)
		if !tc.ok {
			assert.ErrorIs(t, err, errInvalidAddress, "endpoint %q", tc.ep)
			continue
		}
		require.NoError(t, err, "endpoint %q", tc.ep)
		assert.Equal(t, tc.network, network)
		assert.Equal(t, tc.addr, addr)
	}
}

func TestRegisterTransportDuplicate(t *testing.T) {
	require.Error(t, RegisterTransport("tcp", netTransport{prot: "tcp"}))
}

func TestIPCTransport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zsock-test.sock")
	ep := "ipc://" + path

	listener, err := ListenRep(context.Background(), ep, WithLogger(DevNullLogger))
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		rep, err := listener.Accept()
		if err != nil {
			return
		}
		defer rep.Close()
		payload, err := rep.Recv()
		if err != nil {
			return
		}
		rep.Send(payload)
	}()

	req := NewReq(context.Background(), WithLogger(DevNullLogger))
	require.NoError(t, req.Dial(ep))

	require.NoError(t, req.Send([]byte("over ipc")))
	reply, err := req.Recv()
	require.NoError(t, err)
	assert.Equal(t, []byte("over ipc"), reply)

	require.NoError(t, req.Close())
	<-done

	// Closing the listener removes the socket file.
	require.NoError(t, listener.Close())
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "socket file %s not removed", path)
}
