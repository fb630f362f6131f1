// Copyright 2025 The zsock Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package zsock

import (
	"bytes"
	"context"
	"sync"
)

// subBackend implements the SUB pattern: inbound data messages land
// on one bounded delivery queue the application drains with Recv.
type subBackend struct {
	registry *peerRegistry
	inbound  chan Msg
	log      *Logger
}

func (b *subBackend) PeerConnected(id PeerIdentity) (<-chan Msg, <-chan struct{}) {
	return b.registry.register(id)
}

func (b *subBackend) PeerDisconnected(id PeerIdentity) {
	b.log.Debug("publisher disconnected: %s", id)
	b.registry.deregister(id)
}

func (b *subBackend) MessageReceived(id PeerIdentity, msg Msg) {
	if msg.isCmd() {
		return
	}
	select {
	case b.inbound <- msg:
	default:
		// Same best-effort policy as the broadcast path: a reader
		// that cannot keep up loses messages, not the connection.
		b.log.Debug("dropping inbound message from %s: receive queue full", id)
	}
}

func (b *subBackend) Type() SocketType { return Sub }

func (b *subBackend) Shutdown() { b.registry.shutdown() }

// SubSocket is a SUB socket: it subscribes to topic prefixes on one
// or more publishers and receives the matching messages.
type SubSocket struct {
	*frontend
	backend *subBackend

	mu     sync.Mutex
	topics [][]byte
}

// NewSub creates a SUB socket.
func NewSub(ctx context.Context, opts ...Option) *SubSocket {
	cfg := newConfig(opts...)
	backend := &subBackend{
		registry: newPeerRegistry(cfg.queueSize),
		inbound:  make(chan Msg, cfg.queueSize),
		log:      cfg.log,
	}
	sub := &SubSocket{
		frontend: newFrontend(ctx, backend, cfg),
		backend:  backend,
	}
	// A publisher connecting after Subscribe was called still has to
	// learn the current topic set.
	sub.frontend.onConnect = sub.pushTopics
	return sub
}

// Subscribe adds a topic filter and announces it to every connected
// publisher. Subscribing the same topic twice keeps both entries.
func (sub *SubSocket) Subscribe(topic string) {
	sub.mu.Lock()
	sub.topics = append(sub.topics, []byte(topic))
	sub.mu.Unlock()

	sub.broadcastControl(subscribeCtl, []byte(topic))
}

// Unsubscribe removes the first matching topic filter and announces
// the removal. Unsubscribing a topic never subscribed is a no-op.
func (sub *SubSocket) Unsubscribe(topic string) {
	sub.mu.Lock()
	for i, t := range sub.topics {
		if bytes.Equal(t, []byte(topic)) {
			sub.topics = append(sub.topics[:i], sub.topics[i+1:]...)
			break
		}
	}
	sub.mu.Unlock()

	sub.broadcastControl(unsubscribeCtl, []byte(topic))
}

// Recv returns the next message delivered by any connected publisher.
// It blocks until a message arrives or the socket is closed.
func (sub *SubSocket) Recv() (Msg, error) {
	select {
	case msg := <-sub.backend.inbound:
		return msg, nil
	case <-sub.ctx.Done():
		return Msg{}, sub.ctx.Err()
	}
}

func (sub *SubSocket) broadcastControl(ctl byte, topic []byte) {
	payload := append([]byte{ctl}, topic...)
	sub.backend.registry.forEach(func(id PeerIdentity, entry *peerEntry) {
		if !sub.backend.registry.enqueue(entry, NewMsg(append([]byte(nil), payload...))) {
			sub.cfg.log.Debug("dropping control message for slow publisher %s", id)
		}
	})
}

// pushTopics enqueues the current topic set to a freshly connected
// publisher, so subscriptions made before Dial still take effect.
func (sub *SubSocket) pushTopics(id PeerIdentity) {
	sub.mu.Lock()
	topics := make([][]byte, len(sub.topics))
	for i, t := range sub.topics {
		topics[i] = append([]byte(nil), t...)
	}
	sub.mu.Unlock()

	err := sub.backend.registry.lookup(id, func(entry *peerEntry) {
		for _, topic := range topics {
			msg := NewMsg(append([]byte{subscribeCtl}, topic...))
			if !sub.backend.registry.enqueue(entry, msg) {
				sub.cfg.log.Debug("dropping subscription for slow publisher %s", id)
			}
		}
	})
	if err != nil {
		sub.cfg.log.Debug("publisher %s vanished before subscriptions were sent", id)
	}
}

var _ Backend = (*subBackend)(nil)
