// Copyright 2025 The zsock Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package curve_test

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgelink/zsock"
	"github.com/edgelink/zsock/internal/testutil"
	"github.com/edgelink/zsock/security/curve"
)

func TestGenerateKeyPair(t *testing.T) {
	kp1, err := curve.GenerateKeyPair()
	require.NoError(t, err)
	kp2, err := curve.GenerateKeyPair()
	require.NoError(t, err)

	assert.NotEqual(t, kp1.Public, kp2.Public)
	assert.NotEqual(t, kp1.Public, kp1.Secret)
}

func TestKeyPairZ85RoundTrip(t *testing.T) {
	kp, err := curve.GenerateKeyPair()
	require.NoError(t, err)

	pub, err := kp.PublicKeyZ85()
	require.NoError(t, err)
	require.Len(t, pub, 40)
	sec, err := kp.SecretKeyZ85()
	require.NoError(t, err)

	out, err := curve.NewKeyPairFromZ85(pub, sec)
	require.NoError(t, err)
	assert.Equal(t, kp, out)
}

func TestDecodeKeyZ85Invalid(t *testing.T) {
	_, err := curve.DecodeKeyZ85("not-z85")
	require.Error(t, err)

	// Valid Z85 of the wrong decoded size.
	_, err = curve.DecodeKeyZ85("HelloWorld")
	require.ErrorIs(t, err, curve.ErrInvalidKey)
}

// tcpPair returns both ends of a loopback TCP connection.
func tcpPair(t *testing.T) (client, server net.Conn) {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()

	type accepted struct {
		conn net.Conn
		err  error
	}
	ch := make(chan accepted, 1)
	go func() {
		conn, err := l.Accept()
		ch <- accepted{conn, err}
	}()

	client, err = net.Dial("tcp", l.Addr().String())
	require.NoError(t, err)
	srv := <-ch
	require.NoError(t, srv.err)

	t.Cleanup(func() {
		client.Close()
		srv.conn.Close()
	})
	return client, srv.conn
}

func TestCurveHandshakeAndTraffic(t *testing.T) {
	serverKeys, err := curve.GenerateKeyPair()
	require.NoError(t, err)
	clientKeys, err := curve.GenerateKeyPair()
	require.NoError(t, err)

	craw, sraw := tcpPair(t)

	type opened struct {
		conn *zsock.Conn
		err  error
	}
	ch := make(chan opened, 1)
	go func() {
		conn, err := zsock.Open(sraw, curve.NewServerSecurity(serverKeys), zsock.Rep, nil, true, nil)
		ch <- opened{conn, err}
	}()

	client, err := zsock.Open(craw, curve.NewClientSecurity(clientKeys, serverKeys.Public), zsock.Req, nil, false, nil)
	require.NoError(t, err, "client handshake failed")
	defer client.Close()
	srv := <-ch
	require.NoError(t, srv.err, "server handshake failed")
	defer srv.conn.Close()

	// Traffic is boxed per frame once the handshake completed.
	require.NoError(t, client.SendMsg(zsock.NewMsgFrom([]byte{}, []byte("secret payload"))))
	msg, err := srv.conn.RecvMsg()
	require.NoError(t, err)
	require.Len(t, msg.Frames, 2)
	assert.Empty(t, msg.Frames[0])
	assert.Equal(t, []byte("secret payload"), msg.Frames[1])

	require.NoError(t, srv.conn.SendMsg(zsock.NewMsg([]byte("secret reply"))))
	msg, err = client.RecvMsg()
	require.NoError(t, err)
	assert.Equal(t, []byte("secret reply"), msg.Bytes())
}

func TestCurveHandshakeWrongServerKey(t *testing.T) {
	serverKeys, err := curve.GenerateKeyPair()
	require.NoError(t, err)
	clientKeys, err := curve.GenerateKeyPair()
	require.NoError(t, err)
	wrongKeys, err := curve.GenerateKeyPair()
	require.NoError(t, err)

	craw, sraw := tcpPair(t)

	errCh := make(chan error, 1)
	go func() {
		conn, err := zsock.Open(sraw, curve.NewServerSecurity(serverKeys), zsock.Rep, nil, true, nil)
		if err == nil {
			conn.Close()
		}
		errCh <- err
	}()

	// The client authenticates the server against the wrong public key,
	// so the WELCOME box must not open.
	_, err = zsock.Open(craw, curve.NewClientSecurity(clientKeys, wrongKeys.Public), zsock.Req, nil, false, nil)
	require.Error(t, err)
	craw.Close()
	require.Error(t, <-errCh)
}

func TestCurveReqRepEndToEnd(t *testing.T) {
	serverKeys, err := curve.GenerateKeyPair()
	require.NoError(t, err)
	clientKeys, err := curve.GenerateKeyPair()
	require.NoError(t, err)

	listener, err := zsock.ListenRep(context.Background(), "tcp://127.0.0.1:0",
		zsock.WithSecurity(curve.NewServerSecurity(serverKeys)),
		zsock.WithLogger(zsock.DevNullLogger),
	)
	require.NoError(t, err)
	defer listener.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		rep, err := listener.Accept()
		if err != nil {
			return
		}
		defer rep.Close()
		for {
			payload, err := rep.Recv()
			if err != nil {
				return
			}
			if err := rep.Send(append([]byte("echo: "), payload...)); err != nil {
				return
			}
		}
	}()

	req := zsock.NewReq(context.Background(),
		zsock.WithSecurity(curve.NewClientSecurity(clientKeys, serverKeys.Public)),
		zsock.WithLogger(zsock.DevNullLogger),
	)
	defer req.Close()
	require.NoError(t, req.Dial(testutil.EndpointFromAddr(listener.Addr())))

	require.NoError(t, req.Send([]byte("over curve")))
	reply, err := req.Recv()
	require.NoError(t, err)
	assert.Equal(t, []byte("echo: over curve"), reply)

	require.NoError(t, req.Close())
	<-done
}
