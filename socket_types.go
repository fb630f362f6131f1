// Copyright 2025 The zsock Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package zsock

import (
	uuid "github.com/satori/go.uuid"
)

// SocketType is a ZeroMQ-style socket type.
type SocketType string

const (
	Pair   SocketType = "PAIR"   // a PAIR socket
	Pub    SocketType = "PUB"    // a PUB socket
	Sub    SocketType = "SUB"    // a SUB socket
	Req    SocketType = "REQ"    // a REQ socket
	Rep    SocketType = "REP"    // a REP socket
	Dealer SocketType = "DEALER" // a DEALER socket
	Router SocketType = "ROUTER" // a ROUTER socket
	Pull   SocketType = "PULL"   // a PULL socket
	Push   SocketType = "PUSH"   // a PUSH socket
	XPub   SocketType = "XPUB"   // an XPUB socket
	XSub   SocketType = "XSUB"   // an XSUB socket
)

// IsCompatible checks whether two sockets can be connected together.
// Unknown socket types are compatible with nothing; the handshake
// rejects them instead of the process crashing.
func (sck SocketType) IsCompatible(peer SocketType) bool {
	switch sck {
	case Pair:
		return peer == Pair
	case Pub:
		switch peer {
		case Sub, XSub:
			return true
		}
	case Sub:
		switch peer {
		case Pub, XPub:
			return true
		}
	case Req:
		switch peer {
		case Rep, Router:
			return true
		}
	case Rep:
		switch peer {
		case Req, Dealer:
			return true
		}
	case Dealer:
		switch peer {
		case Rep, Dealer, Router:
			return true
		}
	case Router:
		switch peer {
		case Req, Dealer, Router:
			return true
		}
	case Pull:
		return peer == Push
	case Push:
		return peer == Pull
	case XPub:
		switch peer {
		case Sub, XSub:
			return true
		}
	case XSub:
		switch peer {
		case Pub, XPub:
			return true
		}
	}
	return false
}

// SocketIdentity is the metadata socket identity exchanged during the
// connection handshake.
type SocketIdentity []byte

func (id SocketIdentity) String() string {
	n := len(id)
	if n > 255 { // identities are 0*255 octets
		n = 255
	}
	return string(id[:n])
}

// PeerIdentity is an opaque token uniquely identifying one connection
// for the lifetime of that connection. It is generated at connect
// time and never reused while the connection is live.
type PeerIdentity string

func newPeerIdentity() PeerIdentity {
	return PeerIdentity(newUUID())
}

func newUUID() string {
	id, err := uuid.NewV4()
	if err != nil {
		// NewV4 only fails when the system entropy source does;
		// there is no useful recovery for a transport library.
		panic("zsock: could not generate UUID: " + err.Error())
	}
	return id.String()
}
