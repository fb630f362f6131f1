// Copyright 2025 The zsock Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package zsock

import (
	"errors"
	"fmt"
)

// MsgType describes the type of a message.
type MsgType int

const (
	// DataMsg is an application data message.
	DataMsg MsgType = iota
	// CmdMsg is a protocol command message.
	CmdMsg
)

// Msg is a message carried over the wire: an ordered sequence of
// frames. Continuation flags are a wire-level concern; every frame of
// a Msg but the last is sent with the "more" bit set.
type Msg struct {
	Frames [][]byte
	Type   MsgType

	multipart bool
}

// NewMsg creates a message with a single frame.
func NewMsg(frame []byte) Msg {
	return Msg{Frames: [][]byte{frame}}
}

// NewMsgFrom creates a multipart message from a set of frames.
func NewMsgFrom(frames ...[]byte) Msg {
	msg := Msg{Frames: frames}
	msg.multipart = len(frames) > 1
	return msg
}

// Bytes returns the payload of the first frame, or nil for an empty
// message.
func (msg Msg) Bytes() []byte {
	if len(msg.Frames) == 0 {
		return nil
	}
	return msg.Frames[0]
}

// Clone returns a deep copy of msg. Broadcast fan-out enqueues clones
// so peers never share frame storage.
func (msg Msg) Clone() Msg {
	o := Msg{
		Frames:    make([][]byte, len(msg.Frames)),
		Type:      msg.Type,
		multipart: msg.multipart,
	}
	for i, frame := range msg.Frames {
		o.Frames[i] = append([]byte(nil), frame...)
	}
	return o
}

func (msg Msg) isCmd() bool { return msg.Type == CmdMsg }

// Cmd is a protocol command, used during the connection handshake.
type Cmd struct {
	Name string
	Body []byte
}

// Command names used by the handshake mechanisms.
const (
	CmdReady    = "READY"
	CmdError    = "ERROR"
	CmdHello    = "HELLO"
	CmdWelcome  = "WELCOME"
	CmdInitiate = "INITIATE"
)

var errEmptyCmdName = errors.New("zsock: empty command name")

// marshal encodes the command as [name-size][name][body].
func (cmd Cmd) marshal() ([]byte, error) {
	name := cmd.Name
	if len(name) == 0 {
		return nil, errEmptyCmdName
	}
	if len(name) > 255 {
		return nil, fmt.Errorf("zsock: command name too long (%d bytes)", len(name))
	}
	buf := make([]byte, 0, 1+len(name)+len(cmd.Body))
	buf = append(buf, byte(len(name)))
	buf = append(buf, name...)
	buf = append(buf, cmd.Body...)
	return buf, nil
}

func (cmd *Cmd) unmarshal(data []byte) error {
	if len(data) == 0 {
		return ErrBadCmd
	}
	n := int(data[0])
	if n == 0 || len(data) < 1+n {
		return ErrBadCmd
	}
	cmd.Name = string(data[1 : 1+n])
	cmd.Body = data[1+n:]
	return nil
}
