// Package nfc carries card scans from readers to the rest of the server.
package nfc

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Scan is one card tap. RoomID is empty when the reader did not say where it
// is mounted.
type Scan struct {
	CardID    string    `json:"card_id"`
	RoomID    string    `json:"room_id,omitempty"`
	ScannedAt time.Time `json:"scanned_at"`
}

// Emitter accepts scans coming in from outside the process.
type Emitter interface {
	Emit(ctx context.Context, s Scan) error
}

const DefaultBuffer = 64

// Feed fans scans out to every live subscriber. Publish never blocks: a
// subscriber whose buffer is full misses the scan.
type Feed struct {
	mu     sync.RWMutex
	subs   map[chan Scan]struct{}
	buffer int
	closed bool
	done   chan struct{}
}

func NewFeed(buffer int) *Feed {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Feed{
		subs:   make(map[chan Scan]struct{}),
		buffer: buffer,
		done:   make(chan struct{}),
	}
}

func (f *Feed) Publish(s Scan) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.closed {
		return
	}
	for ch := range f.subs {
		select {
		case ch <- s:
		default:
			log.Warn().Str("card_id", s.CardID).Str("room_id", s.RoomID).Msg("nfc subscriber is full, dropping scan")
		}
	}
}

// Emit publishes into the local feed. It is the emitter used when no broker
// is configured.
func (f *Feed) Emit(_ context.Context, s Scan) error {
	f.Publish(s)
	return nil
}

// Subscribe returns a channel receiving every scan published from now on.
// The channel is closed when ctx ends or the feed is closed.
func (f *Feed) Subscribe(ctx context.Context) <-chan Scan {
	ch := make(chan Scan, f.buffer)

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		close(ch)
		return ch
	}
	f.subs[ch] = struct{}{}
	f.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
			f.unsubscribe(ch)
		case <-f.done:
		}
	}()
	return ch
}

func (f *Feed) unsubscribe(ch chan Scan) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.subs[ch]; ok {
		delete(f.subs, ch)
		close(ch)
	}
}

// Subscribers reports how many subscriptions are live.
func (f *Feed) Subscribers() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.subs)
}

// Close ends every subscription. Publishing afterwards is a no-op.
func (f *Feed) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.closed = true
	close(f.done)
	for ch := range f.subs {
		close(ch)
	}
	f.subs = nil
}
