package nfc

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, ch <-chan Scan) Scan {
	t.Helper()
	select {
	case s, ok := <-ch:
		require.True(t, ok, "channel closed")
		return s
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for scan")
	}
	return Scan{}
}

func TestFeed_FansOutToEverySubscriber(t *testing.T) {
	feed := NewFeed(4)
	defer feed.Close()
	ctx := context.Background()

	a := feed.Subscribe(ctx)
	b := feed.Subscribe(ctx)

	scan := Scan{CardID: "04A1B2C3", RoomID: "room-1", ScannedAt: time.Now()}
	feed.Publish(scan)

	assert.Equal(t, scan, receive(t, a))
	assert.Equal(t, scan, receive(t, b))
}

func TestFeed_SlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	feed := NewFeed(1)
	defer feed.Close()

	slow := feed.Subscribe(context.Background())

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			feed.Publish(Scan{CardID: "card"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full subscriber")
	}
	assert.Len(t, slow, 1)
}

func TestFeed_SubscriptionEndsWithContext(t *testing.T) {
	feed := NewFeed(1)
	defer feed.Close()

	ctx, cancel := context.WithCancel(context.Background())
	ch := feed.Subscribe(ctx)
	assert.Equal(t, 1, feed.Subscribers())

	cancel()
	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("subscription not closed after cancel")
	}
	assert.Equal(t, 0, feed.Subscribers())
}

func TestFeed_Close(t *testing.T) {
	feed := NewFeed(1)
	ch := feed.Subscribe(context.Background())

	feed.Close()
	_, ok := <-ch
	assert.False(t, ok)

	feed.Publish(Scan{CardID: "late"})
	feed.Close()

	after := feed.Subscribe(context.Background())
	_, ok = <-after
	assert.False(t, ok)
}

func TestFeed_Emit(t *testing.T) {
	feed := NewFeed(1)
	defer feed.Close()
	ch := feed.Subscribe(context.Background())

	require.NoError(t, feed.Emit(context.Background(), Scan{CardID: "abc"}))
	assert.Equal(t, "abc", receive(t, ch).CardID)
}
