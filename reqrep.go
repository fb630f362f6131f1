// Copyright 2025 The zsock Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package zsock

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"time"
)

// The REQ/REP envelope is a strict two-frame unit: an empty delimiter
// frame with the continuation flag set, immediately followed by one
// final frame carrying the application payload. Payloads are never
// split across more than one data frame at this layer.

// sendEnvelope writes one logical message as a delimiter + payload
// pair in a single multipart write.
func sendEnvelope(conn *Conn, payload []byte) error {
	if conn == nil {
		return ErrClosedConn
	}
	msg := NewMsgFrom([]byte{}, payload)
	if err := conn.SendMsg(msg); err != nil {
		return fmt.Errorf("zsock: could not send message: %w", err)
	}
	return nil
}

// recvEnvelope reads one logical message. A stream that ends before a
// complete message yields ErrNoMessage; a message of the wrong shape
// yields ErrUnexpectedMessage, never partial data.
func recvEnvelope(conn *Conn) ([]byte, error) {
	if conn == nil {
		return nil, ErrClosedConn
	}
	msg, err := conn.RecvMsg()
	if err != nil {
		if isClosedErr(err) {
			return nil, ErrNoMessage
		}
		return nil, err
	}
	if msg.isCmd() || len(msg.Frames) != 2 || len(msg.Frames[0]) != 0 {
		return nil, ErrUnexpectedMessage
	}
	return msg.Frames[1], nil
}

func isClosedErr(err error) bool {
	return errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, net.ErrClosed) ||
		errors.Is(err, ErrClosedConn)
}

// ReqSocket is a REQ socket over a single connection. The caller is
// responsible for alternating Send and Recv; the socket does not
// track whether a reply is outstanding.
type ReqSocket struct {
	conn   *Conn
	cfg    config
	ctx    context.Context
	cancel context.CancelFunc
}

// NewReq creates a REQ socket. Dial must be called before Send/Recv.
func NewReq(ctx context.Context, opts ...Option) *ReqSocket {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	return &ReqSocket{
		cfg:    newConfig(opts...),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Dial connects to a REP endpoint, performing the connection
// handshake before the socket becomes usable.
func (req *ReqSocket) Dial(endpoint string) error {
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
		conn, err = trans.Dial(req.ctx, &req.cfg.dialer, addr)
		if err == nil {
			break
		}
		if (req.cfg.maxRetries == -1 || retries < req.cfg.maxRetries) && req.ctx.Err() == nil {
			time.Sleep(req.cfg.retry)
			continue
		}
		return fmt.Errorf("zsock: could not dial to %q (retry=%v): %w", endpoint, req.cfg.retry, err)
	}

	zconn, err := Open(conn, req.cfg.sec, Req, req.cfg.id, false, nil)
	if err != nil {
		conn.Close()
		return fmt.Errorf("zsock: could not open connection to %q: %w", endpoint, err)
	}
	req.conn = zconn
	return nil
}

// Send writes one request.
func (req *ReqSocket) Send(payload []byte) error {
	return sendEnvelope(req.conn, payload)
}

// Recv reads one reply.
func (req *ReqSocket) Recv() ([]byte, error) {
	return recvEnvelope(req.conn)
}

// Close closes the connection.
func (req *ReqSocket) Close() error {
	req.cancel()
	if req.conn == nil {
		return nil
	}
	return req.conn.Close()
}

// RepSocket is a REP socket serving one accepted connection.
type RepSocket struct {
	conn *Conn
}

// Send writes one reply.
func (rep *RepSocket) Send(payload []byte) error {
	return sendEnvelope(rep.conn, payload)
}

// Recv reads one request.
func (rep *RepSocket) Recv() ([]byte, error) {
	return recvEnvelope(rep.conn)
}

// Close closes the connection.
func (rep *RepSocket) Close() error {
	return rep.conn.Close()
}

// RepListener accepts REQ connections and serves each through its own
// RepSocket.
type RepListener struct {
	cfg      config
	ctx      context.Context
	cancel   context.CancelFunc
	listener net.Listener
	ep       string
}

// ListenRep announces on the given endpoint and returns a listener
// whose Accept yields one RepSocket per handshaked connection.
func ListenRep(ctx context.Context, endpoint string, opts ...Option) (*RepListener, error) {
	cfg := newConfig(opts...)
	network, addr, err := splitAddr(endpoint)
	if err != nil {
		return nil, err
	}
	trans, ok := drivers.get(network)
	if !ok {
		return nil, UnknownTransportError{Name: network}
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)

	l, err := trans.Listen(ctx, addr)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("zsock: could not listen to %q: %w", endpoint, err)
	}
	return &RepListener{
		cfg:      cfg,
		ctx:      ctx,
		cancel:   cancel,
		listener: l,
		ep:       endpoint,
	}, nil
}

// Accept waits for the next connection, performs the handshake
// declaring REP, and returns the socket serving it. A handshake
// failure aborts that connection only; accepting continues.
func (l *RepListener) Accept() (*RepSocket, error) {
	for {
		conn, err := l.listener.Accept()
		if err != nil {
			return nil, err
		}
		zconn, err := Open(conn, l.cfg.sec, Rep, l.cfg.id, true, nil)
		if err != nil {
			l.cfg.log.Warn("could not handshake with %v: %v", conn.RemoteAddr(), err)
			conn.Close()
			continue
		}
		return &RepSocket{conn: zconn}, nil
	}
}

// Addr returns the listener's address.
func (l *RepListener) Addr() net.Addr {
	return l.listener.Addr()
}

// Close stops accepting new connections. Sockets already accepted are
// unaffected.
func (l *RepListener) Close() error {
	l.cancel()
	err := l.listener.Close()
	if strings.HasPrefix(l.ep, "ipc://") {
		_ = removeIPCFile(l.ep)
	}
	return err
}

var (
	_ Socket = (*ReqSocket)(nil)
	_ Socket = (*RepSocket)(nil)
)
