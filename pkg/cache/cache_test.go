package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHelpersWithoutRedis(t *testing.T) {
	RDB = nil
	ctx := context.Background()

	var dest map[string]int
	assert.False(t, Get(ctx, "k", &dest))
	assert.NoError(t, Set(ctx, "k", 1, time.Minute))
	assert.NoError(t, Del(ctx, "k"))
	assert.False(t, Available())
}

func TestRemember_CallsThroughOnMiss(t *testing.T) {
	RDB = nil
	calls := 0
	v, err := Remember(context.Background(), "regions", time.Minute, func() ([]string, error) {
		calls++
		return []string{"Adrar"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Adrar"}, v)
	assert.Equal(t, 1, calls)

	_, err = Remember(context.Background(), "x", time.Minute, func() (int, error) {
		return 0, errors.New("boom")
	})
	assert.EqualError(t, err, "boom")
}
