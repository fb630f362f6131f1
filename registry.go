// Copyright 2025 The zsock Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package zsock

import (
	"hash/fnv"
	"sync"
)

// DefaultQueueSize is the per-peer outbound queue capacity. Enqueue
// is non-blocking: when a peer's queue is full, messages for that
// peer are dropped rather than stalling the sender or other peers.
const DefaultQueueSize = 100

const registryShards = 16

// peerEntry is the per-peer delivery state owned by the registry.
// Peer pump goroutines hold only the sendQueue receiver and the stop
// receiver; they never touch registry state directly.
type peerEntry struct {
	subscriptions [][]byte      // ordered prefix filters, duplicates allowed
	sendQueue     chan Msg      // bounded outbound queue
	stop          chan struct{} // closed exactly once on teardown
}

type registryShard struct {
	mu    sync.RWMutex
	peers map[PeerIdentity]*peerEntry
}

// peerRegistry is a sharded concurrent map from peer identity to
// per-peer delivery state. Sharding keeps broadcast iteration from
// blocking registration (and vice versa) behind a single table lock.
type peerRegistry struct {
	shards    [registryShards]registryShard
	queueSize int
}

func newPeerRegistry(queueSize int) *peerRegistry {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	r := &peerRegistry{queueSize: queueSize}
	for i := range r.shards {
		r.shards[i].peers = make(map[PeerIdentity]*peerEntry)
	}
	return r
}

func (r *peerRegistry) shard(id PeerIdentity) *registryShard {
	h := fnv.New32a()
	h.Write([]byte(id))
	return &r.shards[h.Sum32()%registryShards]
}

// register creates the entry for a newly connected peer and returns
// the handles its pump goroutines consume: the outbound queue and the
// one-shot stop signal. Registering an identity twice tears down the
// stale entry first.
func (r *peerRegistry) register(id PeerIdentity) (<-chan Msg, <-chan struct{}) {
	entry := &peerEntry{
		sendQueue: make(chan Msg, r.queueSize),
		stop:      make(chan struct{}),
	}

	sh := r.shard(id)
	sh.mu.Lock()
	if old, dup := sh.peers[id]; dup {
		close(old.stop)
	}
	sh.peers[id] = entry
	sh.mu.Unlock()

	return entry.sendQueue, entry.stop
}

// deregister removes the peer's entry and fires its stop signal.
// Deregistering an unknown peer is a no-op.
func (r *peerRegistry) deregister(id PeerIdentity) {
	sh := r.shard(id)
	sh.mu.Lock()
	if entry, ok := sh.peers[id]; ok {
		close(entry.stop)
		delete(sh.peers, id)
	}
	sh.mu.Unlock()
}

// lookup runs fn on the peer's entry under its shard's write lock.
func (r *peerRegistry) lookup(id PeerIdentity, fn func(*peerEntry)) error {
	sh := r.shard(id)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	entry, ok := sh.peers[id]
	if !ok {
		return ErrPeerNotFound
	}
	fn(entry)
	return nil
}

// forEach runs fn on every entry for broadcast-style iteration. fn
// must not block; enqueueing is non-blocking by construction.
func (r *peerRegistry) forEach(fn func(PeerIdentity, *peerEntry)) {
	for i := range r.shards {
		sh := &r.shards[i]
		sh.mu.RLock()
		for id, entry := range sh.peers {
			fn(id, entry)
		}
		sh.mu.RUnlock()
	}
}

// enqueue attempts a non-blocking delivery to the peer's outbound
// queue. It reports false when the queue is full and the message was
// dropped.
func (r *peerRegistry) enqueue(entry *peerEntry, msg Msg) bool {
	select {
	case entry.sendQueue <- msg:
		return true
	default:
		return false
	}
}

// size returns the number of registered peers.
func (r *peerRegistry) size() int {
	n := 0
	for i := range r.shards {
		sh := &r.shards[i]
		sh.mu.RLock()
		n += len(sh.peers)
		sh.mu.RUnlock()
	}
	return n
}

// shutdown clears every entry, firing each peer's stop signal. After
// shutdown the registry is empty but still usable.
func (r *peerRegistry) shutdown() {
	for i := range r.shards {
		sh := &r.shards[i]
		sh.mu.Lock()
		for id, entry := range sh.peers {
			close(entry.stop)
			delete(sh.peers, id)
		}
		sh.mu.Unlock()
	}
}
