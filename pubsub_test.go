// Copyright 2025 The zsock Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package zsock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgelink/zsock/internal/testutil"
)

const waitTimeout = 5 * time.Second

// recvTimeout drains one message from sub, reporting false when none
// arrives within d.
func recvTimeout(sub *SubSocket, d time.Duration) (Msg, bool) {
	ch := make(chan Msg, 1)
	go func() {
		msg, err := sub.Recv()
		if err != nil {
			return
		}
		ch <- msg
	}()
	select {
	case msg := <-ch:
		return msg, true
	case <-time.After(d):
		return Msg{}, false
	}
}

func listenPub(t *testing.T, pub *PubSocket) string {
	t.Helper()
	require.NoError(t, pub.Listen("tcp://127.0.0.1:0"))
	return testutil.EndpointFromAddr(pub.Addr())
}

func waitTopics(t *testing.T, pub *PubSocket, want int) {
	t.Helper()
	ok := testutil.WaitFor(waitTimeout, func() bool {
		return len(pub.Topics()) == want
	})
	require.True(t, ok, "timed out waiting for %d topics, have %v", want, pub.Topics())
}

func TestPubSubEndToEnd(t *testing.T) {
	ctx := context.Background()

	pub := NewPub(ctx, WithLogger(DevNullLogger))
	defer pub.Close()
	ep := listenPub(t, pub)

	newSub := func(topic string) *SubSocket {
		sub := NewSub(ctx, WithLogger(DevNullLogger))
		sub.Subscribe(topic)
		require.NoError(t, sub.Dial(ep))
		return sub
	}
	subA := newSub("a")
	defer subA.Close()
	subAll := newSub("")
	defer subAll.Close()
	subC := newSub("c")
	defer subC.Close()

	waitTopics(t, pub, 3)
	assert.Equal(t, []string{"", "a", "c"}, pub.Topics())

	require.NoError(t, pub.Send(NewMsg([]byte("ab-data"))))

	msg, ok := recvTimeout(subA, waitTimeout)
	require.True(t, ok, "prefix subscriber did not receive the message")
	assert.Equal(t, []byte("ab-data"), msg.Bytes())

	msg, ok = recvTimeout(subAll, waitTimeout)
	require.True(t, ok, "catch-all subscriber did not receive the message")
	assert.Equal(t, []byte("ab-data"), msg.Bytes())

	_, ok = recvTimeout(subC, 150*time.Millisecond)
	assert.False(t, ok, "non-matching subscriber must receive nothing")

	_, ok = recvTimeout(subA, 150*time.Millisecond)
	assert.False(t, ok, "subscriber must receive at most one copy")
}

func TestSubSubscribeAfterDial(t *testing.T) {
	ctx := context.Background()

	pub := NewPub(ctx, WithLogger(DevNullLogger))
	defer pub.Close()
	ep := listenPub(t, pub)

	sub := NewSub(ctx, WithLogger(DevNullLogger))
	defer sub.Close()
	require.NoError(t, sub.Dial(ep))

	// The subscription is announced to the already-connected publisher.
	sub.Subscribe("news.")
	waitTopics(t, pub, 1)

	require.NoError(t, pub.Send(NewMsg([]byte("news.sports: final score"))))
	msg, ok := recvTimeout(sub, waitTimeout)
	require.True(t, ok)
	assert.Equal(t, []byte("news.sports: final score"), msg.Bytes())
}

func TestSubUnsubscribe(t *testing.T) {
	ctx := context.Background()

	pub := NewPub(ctx, WithLogger(DevNullLogger))
	defer pub.Close()
	ep := listenPub(t, pub)

	sub := NewSub(ctx, WithLogger(DevNullLogger))
	defer sub.Close()
	sub.Subscribe("a")
	require.NoError(t, sub.Dial(ep))
	waitTopics(t, pub, 1)

	sub.Unsubscribe("a")
	waitTopics(t, pub, 0)

	require.NoError(t, pub.Send(NewMsg([]byte("ab-data"))))
	_, ok := recvTimeout(sub, 150*time.Millisecond)
	assert.False(t, ok, "unsubscribed topic must stop deliveries")
}

func TestSubMultiplePublishers(t *testing.T) {
	ctx := context.Background()

	pub1 := NewPub(ctx, WithLogger(DevNullLogger))
	defer pub1.Close()
	pub2 := NewPub(ctx, WithLogger(DevNullLogger))
	defer pub2.Close()
	ep1 := listenPub(t, pub1)
	ep2 := listenPub(t, pub2)

	sub := NewSub(ctx, WithLogger(DevNullLogger))
	defer sub.Close()
	sub.Subscribe("t.")
	require.NoError(t, sub.Dial(ep1))
	require.NoError(t, sub.Dial(ep2))
	waitTopics(t, pub1, 1)
	waitTopics(t, pub2, 1)

	require.NoError(t, pub1.Send(NewMsg([]byte("t.one"))))
	require.NoError(t, pub2.Send(NewMsg([]byte("t.two"))))

	got := make(map[string]bool)
	for i := 0; i < 2; i++ {
		msg, ok := recvTimeout(sub, waitTimeout)
		require.True(t, ok, "missing message %d of 2", i+1)
		got[string(msg.Bytes())] = true
	}
	assert.True(t, got["t.one"] && got["t.two"], "got %v", got)
}

func TestSubRecvAfterClose(t *testing.T) {
	sub := NewSub(context.Background(), WithLogger(DevNullLogger))
	require.NoError(t, sub.Close())

	_, err := sub.Recv()
	require.ErrorIs(t, err, context.Canceled)
}

func TestPubSubDisconnect(t *testing.T) {
	ctx := context.Background()

	pub := NewPub(ctx, WithLogger(DevNullLogger))
	defer pub.Close()
	ep := listenPub(t, pub)

	sub := NewSub(ctx, WithLogger(DevNullLogger))
	sub.Subscribe("a")
	require.NoError(t, sub.Dial(ep))
	waitTopics(t, pub, 1)
	require.Equal(t, 1, pub.backend.registry.size())

	// Closing the subscriber must clean up the publisher's registry.
	require.NoError(t, sub.Close())
	ok := testutil.WaitFor(waitTimeout, func() bool {
		return pub.backend.registry.size() == 0
	})
	require.True(t, ok, "publisher kept a gone peer registered")

	// Sending into the empty registry is a harmless no-op.
	require.NoError(t, pub.Send(NewMsg([]byte("ab-data"))))
}
