// Copyright 2025 The zsock Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package zsock

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stopFired(stop <-chan struct{}) bool {
	select {
	case <-stop:
		return true
	default:
		return false
	}
}

func TestRegistryRegisterDeregister(t *testing.T) {
	r := newPeerRegistry(4)

	_, stop := r.register("peer-1")
	require.Equal(t, 1, r.size())
	require.False(t, stopFired(stop))

	r.deregister("peer-1")
	require.Equal(t, 0, r.size())
	require.True(t, stopFired(stop), "deregister must fire the stop signal")

	// Deregistering an unknown peer is a no-op.
	r.deregister("peer-1")
	require.Equal(t, 0, r.size())
}

func TestRegistryDuplicateRegister(t *testing.T) {
	r := newPeerRegistry(4)

	_, stale := r.register("peer-1")
	_, fresh := r.register("peer-1")

	require.Equal(t, 1, r.size())
	assert.True(t, stopFired(stale), "re-registering must tear down the stale entry")
	assert.False(t, stopFired(fresh))

	r.deregister("peer-1")
}

func TestRegistryLookupUnknown(t *testing.T) {
	r := newPeerRegistry(4)
	err := r.lookup("nobody", func(*peerEntry) {
		t.Fatal("lookup callback ran for an unknown peer")
	})
	require.ErrorIs(t, err, ErrPeerNotFound)
}

func TestRegistryEnqueueDropOnFull(t *testing.T) {
	r := newPeerRegistry(2)
	outbound, _ := r.register("peer-1")

	var entry *peerEntry
	require.NoError(t, r.lookup("peer-1", func(e *peerEntry) { entry = e }))

	require.True(t, r.enqueue(entry, NewMsg([]byte("one"))))
	require.True(t, r.enqueue(entry, NewMsg([]byte("two"))))
	require.False(t, r.enqueue(entry, NewMsg([]byte("three"))), "full queue must drop, not block")

	// The two enqueued messages are intact and in order.
	assert.Equal(t, []byte("one"), (<-outbound).Bytes())
	assert.Equal(t, []byte("two"), (<-outbound).Bytes())

	r.deregister("peer-1")
}

func TestRegistryShutdown(t *testing.T) {
	r := newPeerRegistry(4)

	var stops []<-chan struct{}
	for i := 0; i < 5; i++ {
		_, stop := r.register(PeerIdentity(fmt.Sprintf("peer-%d", i)))
		stops = append(stops, stop)
	}
	require.Equal(t, 5, r.size())

	r.shutdown()
	require.Equal(t, 0, r.size())
	for i, stop := range stops {
		assert.True(t, stopFired(stop), "peer %d stop not fired", i)
	}

	// The registry stays usable after shutdown.
	_, stop := r.register("peer-after")
	require.Equal(t, 1, r.size())
	require.False(t, stopFired(stop))
	r.shutdown()
}

func TestRegistryConcurrentAccess(t *testing.T) {
	r := newPeerRegistry(8)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := PeerIdentity(fmt.Sprintf("peer-%d", i))
			for j := 0; j < 100; j++ {
				r.register(id)
				_ = r.lookup(id, func(e *peerEntry) {
					e.subscriptions = append(e.subscriptions, []byte("t"))
				})
				r.deregister(id)
			}
		}(i)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for j := 0; j < 100; j++ {
			r.forEach(func(PeerIdentity, *peerEntry) {})
			r.size()
		}
	}()
	wg.Wait()

	r.shutdown()
	require.Equal(t, 0, r.size())
}
