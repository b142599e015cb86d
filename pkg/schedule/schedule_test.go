package schedule

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchedule_RegisterAndList(t *testing.T) {
	s := New()
	require.NoError(t, s.Cron("0 8 * * *").Name("digest").Run(func(context.Context) {}))
	require.NoError(t, s.Daily().At("03:30").Name("backup").Run(func(context.Context) {}))
	require.NoError(t, s.Every(5).Minutes().Run(func(context.Context) {}))

	list := s.List()
	require.Len(t, list, 3)
	assert.Equal(t, "digest", list[0].Name)
	assert.Equal(t, "0 8 * * *", list[0].Spec)
	assert.Equal(t, "30 3 * * *", list[1].Spec)
	assert.Equal(t, "@every 5m", list[2].Name, "spec doubles as name")
	assert.Equal(t, 8, list[0].Next.Hour())
}

func TestSchedule_InvalidExpressions(t *testing.T) {
	s := New()
	assert.Error(t, s.Cron("not a cron").Run(func(context.Context) {}))
	assert.Error(t, s.Daily().At("25:99").Run(func(context.Context) {}))
	assert.Empty(t, s.List())
}

func TestSchedule_RunsAndStops(t *testing.T) {
	s := New()
	var n atomic.Int32
	require.NoError(t, s.Every(1).Seconds().WithoutOverlapping().Run(func(context.Context) { n.Add(1) }))

	ctx, cancel := context.WithTimeout(context.Background(), 2500*time.Millisecond)
	defer cancel()
	s.Start(ctx)

	assert.GreaterOrEqual(t, n.Load(), int32(1))
}

func TestSchedule_PanicIsContained(t *testing.T) {
	s := New()
	assert.NotPanics(t, func() {
		s.run("boom", func(context.Context) { panic("x") })
	})
}
