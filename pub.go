// Copyright 2025 The zsock Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package zsock

import (
	"bytes"
	"context"
	"sort"
)

// Subscription control discriminator, the first byte of a control
// message on the subscriber-to-publisher direction.
const (
	unsubscribeCtl byte = 0
	subscribeCtl   byte = 1
)

// pubBackend implements the PUB pattern: it records per-peer topic
// filters from inbound control messages and owns the peer registry
// the broadcast path fans out over.
type pubBackend struct {
	registry *peerRegistry
	log      *Logger
}

func (b *pubBackend) PeerConnected(id PeerIdentity) (<-chan Msg, <-chan struct{}) {
	return b.registry.register(id)
}

func (b *pubBackend) PeerDisconnected(id PeerIdentity) {
	b.log.Debug("subscriber disconnected: %s", id)
	b.registry.deregister(id)
}

// MessageReceived handles one subscription control message: first
// byte 1 appends the remaining bytes as a topic filter (duplicates
// are kept), 0 removes the first exact match (no-op if absent). Any
// other discriminator, an empty payload, or a command frame is
// ignored; the control channel is deliberately lenient.
func (b *pubBackend) MessageReceived(id PeerIdentity, msg Msg) {
	if msg.isCmd() {
		return
	}
	data := msg.Bytes()
	if len(data) == 0 {
		return
	}
	topic := append([]byte(nil), data[1:]...)

	switch data[0] {
	case subscribeCtl:
		err := b.registry.lookup(id, func(entry *peerEntry) {
			entry.subscriptions = append(entry.subscriptions, topic)
		})
		if err != nil {
			// The peer disconnected mid-flight; expected race.
			b.log.Debug("subscribe from unknown peer %s", id)
		}
	case unsubscribeCtl:
		_ = b.registry.lookup(id, func(entry *peerEntry) {
			for i, sub := range entry.subscriptions {
				if bytes.Equal(sub, topic) {
					entry.subscriptions = append(entry.subscriptions[:i], entry.subscriptions[i+1:]...)
					break
				}
			}
		})
	}
}

func (b *pubBackend) Type() SocketType { return Pub }

func (b *pubBackend) Shutdown() { b.registry.shutdown() }

// PubSocket is a PUB socket: a non-blocking, fire-and-forget
// broadcaster with per-peer prefix filtering.
type PubSocket struct {
	*frontend
	backend *pubBackend
}

// NewPub creates a PUB socket.
func NewPub(ctx context.Context, opts ...Option) *PubSocket {
	cfg := newConfig(opts...)
	backend := &pubBackend{
		registry: newPeerRegistry(cfg.queueSize),
		log:      cfg.log,
	}
	return &PubSocket{
		frontend: newFrontend(ctx, backend, cfg),
		backend:  backend,
	}
}

// Send broadcasts msg to every peer with a matching topic filter. For
// each peer the filters are checked in subscription order and the
// first match enqueues exactly one copy; peers with no subscriptions
// receive nothing. Send never blocks: a peer whose queue is full has
// its copy dropped without affecting delivery to other peers.
func (pub *PubSocket) Send(msg Msg) error {
	data := msg.Bytes()
	pub.backend.registry.forEach(func(id PeerIdentity, entry *peerEntry) {
		for _, filter := range entry.subscriptions {
			if !matchesFilter(filter, data) {
				continue
			}
			if !pub.backend.registry.enqueue(entry, msg.Clone()) {
				pub.cfg.log.Debug("dropping message for slow peer %s", id)
			}
			break
		}
	})
	return nil
}

// matchesFilter reports whether filter is a byte-for-byte prefix of
// data. The empty filter matches everything; data shorter than the
// filter never matches.
func matchesFilter(filter, data []byte) bool {
	return len(filter) <= len(data) && bytes.Equal(filter, data[:len(filter)])
}

// Topics returns the distinct topic filters currently subscribed
// across all peers, sorted.
func (pub *PubSocket) Topics() []string {
	keys := make(map[string]struct{})
	var topics []string
	pub.backend.registry.forEach(func(_ PeerIdentity, entry *peerEntry) {
		for _, sub := range entry.subscriptions {
			topic := string(sub)
			if _, dup := keys[topic]; dup {
				continue
			}
			keys[topic] = struct{}{}
			topics = append(topics, topic)
		}
	})
	sort.Strings(topics)
	return topics
}

var _ Backend = (*pubBackend)(nil)
var _ Sender = (*PubSocket)(nil)
