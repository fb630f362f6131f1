// Copyright 2025 The zsock Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package zsock

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"sync/atomic"
)

// Frame header flags.
const (
	hasMoreBitFlag   = 0x1
	isLongBitFlag    = 0x2
	isCommandBitFlag = 0x4
)

const maxInt64 = 1<<63 - 1

type flag byte

func (fl flag) hasMore() bool   { return fl&hasMoreBitFlag == hasMoreBitFlag }
func (fl flag) isLong() bool    { return fl&isLongBitFlag == isLongBitFlag }
func (fl flag) isCommand() bool { return fl&isCommandBitFlag == isCommandBitFlag }

// Conn is a framed connection over a reliable byte stream. It encodes
// and decodes discrete message frames, preserving order, and carries
// the per-connection handshake state.
type Conn struct {
	typ    SocketType
	id     SocketIdentity
	rw     net.Conn
	sec    Security
	Server bool
	Meta   Metadata
	Peer   struct {
		Server bool
		Meta   Metadata
	}

	closed         int32
	onCloseErrorCB func(c *Conn)
}

// Open opens a framed connection over rw with the given security
// mechanism, socket type and identity. It performs the complete
// connection handshake: greeting, security exchange, and socket-type
// compatibility validation. An optional onCloseErrorCB is invoked
// once when the connection is detected closed.
func Open(rw net.Conn, sec Security, sockType SocketType, sockID SocketIdentity, server bool, onCloseErrorCB func(c *Conn)) (*Conn, error) {
	if rw == nil {
		return nil, fmt.Errorf("zsock: invalid nil read-writer")
	}
	if sec == nil {
		return nil, fmt.Errorf("zsock: invalid nil security")
	}

	conn := &Conn{
		typ:            sockType,
		id:             sockID,
		rw:             rw,
		sec:            sec,
		Server:         server,
		Meta:           make(Metadata),
		onCloseErrorCB: onCloseErrorCB,
	}
	conn.Meta[sysSockType] = string(conn.typ)
	conn.Meta[sysSockID] = conn.id.String()
	conn.Peer.Meta = make(Metadata)

	if err := conn.init(); err != nil {
		return nil, fmt.Errorf("zsock: could not initialize connection: %w", err)
	}
	return conn, nil
}

func (conn *Conn) init() error {
	if err := conn.greet(conn.Server); err != nil {
		return fmt.Errorf("zsock: could not exchange greetings: %w", err)
	}

	if err := conn.sec.Handshake(conn, conn.Server); err != nil {
		return fmt.Errorf("zsock: could not perform security handshake: %w", err)
	}

	peer := SocketType(conn.Peer.Meta[sysSockType])
	if !peer.IsCompatible(conn.typ) {
		return fmt.Errorf("zsock: peer=%q not compatible with %q", peer, conn.typ)
	}
	return nil
}

func (conn *Conn) greet(server bool) error {
	send := greeting{Version: defaultVersion}
	send.Sig.Header = sigHeader
	send.Sig.Footer = sigFooter
	kind := string(conn.sec.Type())
	if len(kind) > len(send.Mechanism) {
		return errSecMech
	}
	copy(send.Mechanism[:], kind)
	if server {
		send.Server = 1
	}

	if err := send.write(conn.rw); err != nil {
		conn.checkIO(err)
		return fmt.Errorf("zsock: could not send greeting: %w", err)
	}

	var recv greeting
	if err := recv.read(conn.rw); err != nil {
		conn.checkIO(err)
		return fmt.Errorf("zsock: could not recv greeting: %w", err)
	}

	if peerKind := asString(recv.Mechanism[:]); peerKind != kind {
		return errBadSec
	}

	var err error
	conn.Peer.Server, err = asBool(recv.Server)
	if err != nil {
		return fmt.Errorf("zsock: could not get peer server flag: %w", err)
	}
	return nil
}

// Type returns the socket type this connection was opened with.
func (c *Conn) Type() SocketType { return c.typ }

// Close closes the underlying byte stream.
func (c *Conn) Close() error {
	c.SetClosed()
	return c.rw.Close()
}

// SendCmd sends a protocol command over the wire.
func (c *Conn) SendCmd(name string, body []byte) error {
	if c.Closed() {
		return ErrClosedConn
	}
	cmd := Cmd{Name: name, Body: body}
	buf, err := cmd.marshal()
	if err != nil {
		return err
	}
	return c.send(true, buf, 0)
}

// RecvCmd receives a protocol command from the wire. Data frames are
// rejected with ErrBadFrame.
func (c *Conn) RecvCmd() (Cmd, error) {
	var cmd Cmd
	if c.Closed() {
		return cmd, ErrClosedConn
	}

	msg, err := c.read()
	if err != nil {
		return cmd, fmt.Errorf("zsock: could not read recv cmd: %w", err)
	}
	if !msg.isCmd() {
		return cmd, ErrBadFrame
	}
	if len(msg.Frames) != 1 {
		return cmd, fmt.Errorf("zsock: invalid length command")
	}
	if err := cmd.unmarshal(msg.Frames[0]); err != nil {
		return cmd, fmt.Errorf("zsock: could not unmarshal recv cmd: %w", err)
	}
	return cmd, nil
}

// SendMsg sends a message over the wire. Every frame but the last
// carries the continuation flag.
func (c *Conn) SendMsg(msg Msg) error {
	if c.Closed() {
		return ErrClosedConn
	}
	if msg.multipart {
		return c.sendMulti(msg)
	}

	nframes := len(msg.Frames)
	for i, frame := range msg.Frames {
		var fl byte
		if i < nframes-1 {
			fl ^= hasMoreBitFlag
		}
		if err := c.send(false, frame, fl); err != nil {
			return fmt.Errorf("zsock: error sending frame %d/%d: %w", i+1, nframes, err)
		}
	}
	return nil
}

// RecvMsg receives a complete message from the wire: all frames up to
// and including the first frame without the continuation flag.
func (c *Conn) RecvMsg() (Msg, error) {
	if c.Closed() {
		return Msg{}, ErrClosedConn
	}
	msg, err := c.read()
	if err != nil {
		return msg, fmt.Errorf("zsock: could not read recv msg: %w", err)
	}
	return msg, nil
}

// sendMulti writes all frames of msg as a single vectored write, so a
// multipart message hits the stream as one unit.
func (c *Conn) sendMulti(msg Msg) error {
	var buffers net.Buffers

	nframes := len(msg.Frames)
	for i, frame := range msg.Frames {
		var fl byte
		if i < nframes-1 {
			fl ^= hasMoreBitFlag
		}

		payload := frame
		if c.sec.Type() != NullSecurity {
			var secBuf bytes.Buffer
			if _, err := c.sec.Encrypt(&secBuf, frame); err != nil {
				return err
			}
			payload = secBuf.Bytes()
		}

		hdr, hsz := frameHeader(fl, len(payload))
		buffers = append(buffers, hdr[:hsz], payload)
	}

	if _, err := buffers.WriteTo(c.rw); err != nil {
		c.checkIO(err)
		return err
	}
	return nil
}

func (c *Conn) send(isCommand bool, body []byte, fl byte) error {
	payload := body
	if c.sec.Type() != NullSecurity {
		var secBuf bytes.Buffer
		if _, err := c.sec.Encrypt(&secBuf, body); err != nil {
			return err
		}
		payload = secBuf.Bytes()
	}

	if isCommand {
		fl ^= isCommandBitFlag
	}
	hdr, hsz := frameHeader(fl, len(payload))

	if _, err := c.rw.Write(hdr[:hsz]); err != nil {
		c.checkIO(err)
		return err
	}
	if len(payload) == 0 {
		return nil
	}
	if _, err := c.rw.Write(payload); err != nil {
		c.checkIO(err)
		return err
	}
	return nil
}

func frameHeader(fl byte, size int) ([9]byte, int) {
	isLong := size > 255
	if isLong {
		fl ^= isLongBitFlag
	}
	hdr := [9]byte{fl}
	if isLong {
		binary.BigEndian.PutUint64(hdr[1:], uint64(size))
		return hdr, 9
	}
	hdr[1] = uint8(size)
	return hdr, 2
}

// read reads one complete message off the wire.
func (c *Conn) read() (Msg, error) {
	var (
		header  [2]byte
		longHdr [8]byte
		msg     Msg

		hasMore = true
		isCmd   = false
	)

	for hasMore {
		if _, err := io.ReadFull(c.rw, header[:]); err != nil {
			c.checkIO(err)
			return msg, err
		}

		fl := flag(header[0])
		hasMore = fl.hasMore()
		isCmd = isCmd || fl.isCommand()

		size := uint64(header[1])
		if fl.isLong() {
			// The length is 8 octets; the first is already in hand.
			longHdr[0] = header[1]
			if _, err := io.ReadFull(c.rw, longHdr[1:]); err != nil {
				c.checkIO(err)
				return msg, err
			}
			size = binary.BigEndian.Uint64(longHdr[:])
		}
		if size > uint64(maxInt64) {
			return msg, errOverflow
		}

		body := make([]byte, size)
		if _, err := io.ReadFull(c.rw, body); err != nil {
			c.checkIO(err)
			return msg, err
		}

		if c.sec.Type() == NullSecurity {
			// fast path: no bytes.Buffer allocation
			msg.Frames = append(msg.Frames, body)
			continue
		}

		buf := new(bytes.Buffer)
		if _, err := c.sec.Decrypt(buf, body); err != nil {
			return msg, err
		}
		msg.Frames = append(msg.Frames, buf.Bytes())
	}
	if isCmd {
		msg.Type = CmdMsg
	}
	return msg, nil
}

// SetClosed marks the connection as closed and fires the close
// callback exactly once.
func (conn *Conn) SetClosed() {
	if atomic.CompareAndSwapInt32(&conn.closed, 0, 1) {
		conn.notifyOnCloseError()
	}
}

// Closed reports whether the connection was marked closed.
func (conn *Conn) Closed() bool {
	return atomic.LoadInt32(&conn.closed) == 1
}

func (conn *Conn) checkIO(err error) {
	if err == nil {
		return
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, net.ErrClosed) {
		conn.SetClosed()
		return
	}
	var e net.Error
	if errors.As(err, &e) && !e.Timeout() {
		conn.SetClosed()
	}
}

func (conn *Conn) notifyOnCloseError() {
	if conn.onCloseErrorCB == nil {
		return
	}
	conn.onCloseErrorCB(conn)
}
