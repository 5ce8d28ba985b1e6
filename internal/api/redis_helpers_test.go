package api

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// brokenCounter fails Incr or Expire on demand.
type brokenCounter struct {
	incrErr   error
	expireErr error
}

func (b brokenCounter) Incr(ctx context.Context, _ string) *redis.IntCmd {
	cmd := redis.NewIntCmd(ctx)
	if b.incrErr != nil {
		cmd.SetErr(b.incrErr)
		return cmd
	}
	cmd.SetVal(1)
	return cmd
}

func (b brokenCounter) Expire(ctx context.Context, _ string, _ time.Duration) *redis.BoolCmd {
	cmd := redis.NewBoolCmd(ctx)
	if b.expireErr != nil {
		cmd.SetErr(b.expireErr)
		return cmd
	}
	cmd.SetVal(true)
	return cmd
}

func TestFixedWindow_Allow(t *testing.T) {
	counter := newFakeCounter()
	w := fixedWindow{counter: counter, prefix: "rewrite_rate", limit: 2, window: time.Hour}
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, err := w.allow(ctx, "s1")
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, err := w.allow(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, ok)

	// 其他会话不受影响。
	ok, err = w.allow(ctx, "s2")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, time.Hour, counter.ttls["rewrite_rate:s2"])
}

func TestFixedWindow_Disabled(t *testing.T) {
	ok, err := fixedWindow{limit: 1}.allow(context.Background(), "s1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = fixedWindow{counter: newFakeCounter(), limit: 0}.allow(context.Background(), "s1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestFixedWindow_FailsOpen(t *testing.T) {
	w := fixedWindow{counter: brokenCounter{incrErr: errors.New("redis down")}, prefix: "p", limit: 1, window: time.Hour}
	ok, err := w.allow(context.Background(), "s1")
	assert.Error(t, err)
	assert.True(t, ok)

	w.counter = brokenCounter{expireErr: errors.New("readonly replica")}
	ok, err = w.allow(context.Background(), "s1")
	assert.ErrorContains(t, err, "set ttl")
	assert.True(t, ok)
}
