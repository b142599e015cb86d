// Package sse fans events out to Server-Sent Events subscribers. It is the
// plain-HTTP sibling of the websocket hub for clients behind proxies that
// drop upgrades.
//
//	b := sse.NewBroker()
//	bus.Listen("order.placed", func(_ context.Context, p any) { b.Publish("order.placed", p) })
//	r.Get("/events", "events", b.Serve)
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/bytekstore/bytek/pkg/logger"
)

const (
	subscriberBuffer = 16
	heartbeat        = 25 * time.Second
)

type frame struct {
	event string
	data  []byte
}

// Broker holds the live subscribers.
type Broker struct {
	mu   sync.RWMutex
	subs map[chan frame]struct{}
}

func NewBroker() *Broker {
	return &Broker{subs: make(map[chan frame]struct{})}
}

// Publish sends data, JSON-encoded, to every subscriber. Slow subscribers
// miss frames rather than block the publisher.
func (b *Broker) Publish(event string, data any) {
	raw, err := json.Marshal(data)
	if err != nil {
		logger.Error("sse: marshal", "event", event, "error", err)
		return
	}
	f := frame{event: event, data: raw}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subs {
		select {
		case ch <- f:
		default:
			logger.Warn("sse: frame dropped", "event", event)
		}
	}
}

// Subscribers returns the number of open streams.
func (b *Broker) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

func (b *Broker) subscribe() chan frame {
	ch := make(chan frame, subscriberBuffer)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

func (b *Broker) unsubscribe(ch chan frame) {
	b.mu.Lock()
	delete(b.subs, ch)
	b.mu.Unlock()
}

// Serve streams frames to the client until it disconnects.
func (b *Broker) Serve(w http.ResponseWriter, r *http.Request) {
	rc := http.NewResponseController(w)
	// the server's write timeout would cut the stream
	_ = rc.SetWriteDeadline(time.Time{})

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, ": connected\n\n")
	if err := rc.Flush(); err != nil {
		logger.WithCtx(r.Context()).Error("sse: streaming unsupported", "error", err)
		return
	}

	ch := b.subscribe()
	defer b.unsubscribe(ch)

	tick := time.NewTicker(heartbeat)
	defer tick.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case f := <-ch:
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", f.event, f.data)
		case <-tick.C:
			fmt.Fprint(w, ": ping\n\n")
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}
