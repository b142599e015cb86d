// Package event is an in-process publish/subscribe bus.
//
//	bus.Listen("order.placed", func(ctx context.Context, p any) { ... })
//	bus.Fire(ctx, "order.placed", order)
package event

import (
	"context"
	"fmt"
	"sync"

	"github.com/bytekstore/bytek/pkg/logger"
	"github.com/bytekstore/bytek/pkg/workerpool"
)

// Handler receives an event payload.
type Handler func(ctx context.Context, payload any)

// Bus dispatches named events to listeners.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	pool     *workerpool.Pool
}

type Option func(*Bus)

// WithPool runs FireAsync listeners on pool instead of fresh goroutines.
func WithPool(pool *workerpool.Pool) Option {
	return func(b *Bus) { b.pool = pool }
}

func NewBus(opts ...Option) *Bus {
	b := &Bus{handlers: map[string][]Handler{}}
	for _, o := range opts {
		o(b)
	}
	return b
}

var defaultBus = NewBus()

// Default is the process-wide bus.
func Default() *Bus { return defaultBus }

func (b *Bus) Listen(event string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[event] = append(b.handlers[event], h)
}

func (b *Bus) listeners(event string) []Handler {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]Handler(nil), b.handlers[event]...)
}

// Fire runs every listener in order on the caller's goroutine. A panicking
// listener is logged and does not stop the others.
func (b *Bus) Fire(ctx context.Context, event string, payload any) {
	for _, h := range b.listeners(event) {
		call(ctx, event, h, payload)
	}
}

// FireAsync runs listeners concurrently and returns immediately. The
// context passed on is detached from ctx's cancellation. With a pool, a
// full backlog makes the caller run the listener itself.
func (b *Bus) FireAsync(ctx context.Context, event string, payload any) {
	detached := context.WithoutCancel(ctx)
	for _, h := range b.listeners(event) {
		task := func() { call(detached, event, h, payload) }
		if b.pool == nil {
			go task()
			continue
		}
		if err := b.pool.Submit(task); err != nil {
			logger.WithCtx(ctx).Warn("event: pool busy, running listener inline", "event", event, "error", err)
			task()
		}
	}
}

// Close waits for pooled listeners to finish.
func (b *Bus) Close() {
	if b.pool != nil {
		b.pool.Shutdown()
	}
}

func call(ctx context.Context, event string, h Handler, payload any) {
	defer func() {
		if r := recover(); r != nil {
			logger.WithCtx(ctx).Error("event: listener panicked", "event", event, "panic", fmt.Sprint(r))
		}
	}()
	h(ctx, payload)
}

// Flush removes every listener.
func (b *Bus) Flush() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = map[string][]Handler{}
}
