package event

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/bytekstore/bytek/pkg/workerpool"
)

func TestFire_RunsListenersInOrder(t *testing.T) {
	b := NewBus()
	var got []string
	b.Listen("order.placed", func(_ context.Context, p any) { got = append(got, "a:"+p.(string)) })
	b.Listen("order.placed", func(_ context.Context, p any) { got = append(got, "b:"+p.(string)) })
	b.Listen("order.updated", func(_ context.Context, _ any) { got = append(got, "wrong") })

	b.Fire(context.Background(), "order.placed", "ORD-1")
	assert.Equal(t, []string{"a:ORD-1", "b:ORD-1"}, got)
}

func TestFire_PanicIsContained(t *testing.T) {
	b := NewBus()
	called := false
	b.Listen("x", func(context.Context, any) { panic("boom") })
	b.Listen("x", func(context.Context, any) { called = true })

	assert.NotPanics(t, func() { b.Fire(context.Background(), "x", nil) })
	assert.True(t, called)
}

func TestFireAsync_SurvivesCancelledContext(t *testing.T) {
	b := NewBus()
	var wg sync.WaitGroup
	wg.Add(1)
	var ctxErr error
	b.Listen("x", func(ctx context.Context, _ any) {
		time.Sleep(10 * time.Millisecond)
		ctxErr = ctx.Err()
		wg.Done()
	})

	ctx, cancel := context.WithCancel(context.Background())
	b.FireAsync(ctx, "x", nil)
	cancel()
	wg.Wait()
	assert.NoError(t, ctxErr)
}

func TestFireAsync_PooledListenersDrainOnClose(t *testing.T) {
	b := NewBus(WithPool(workerpool.New(2)))
	var mu sync.Mutex
	var got []int
	b.Listen("x", func(_ context.Context, p any) {
		mu.Lock()
		got = append(got, p.(int))
		mu.Unlock()
	})

	for i := 0; i < 10; i++ {
		b.FireAsync(context.Background(), "x", i)
	}
	b.Close()
	assert.Len(t, got, 10)
}

func TestFlush(t *testing.T) {
	b := NewBus()
	b.Listen("x", func(context.Context, any) {})
	b.Flush()
	assert.Empty(t, b.listeners("x"))
}
