package loader

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFunctionLoaderUsesDefaultTTL(t *testing.T) {
	l := NewFunctionLoader(func(ctx context.Context, key string) (string, error) {
		return "value:" + key, nil
	})

	v, ttl, err := l.Load(context.Background(), "products:offset=0")
	require.NoError(t, err)
	assert.Equal(t, "value:products:offset=0", v)
	assert.Zero(t, ttl)
}

func TestCountingObservesEveryCall(t *testing.T) {
	boom := errors.New("boom")
	inner := LoaderFunc[int](func(ctx context.Context, key string) (int, time.Duration, error) {
		if key == "bad" {
			return 0, 0, boom
		}
		return len(key), time.Second, nil
	})

	var calls []string
	var failures int
	l := Counting[int](inner, func(key string, err error) {
		calls = append(calls, key)
		if err != nil {
			failures++
		}
	})

	v, ttl, err := l.Load(context.Background(), "good")
	require.NoError(t, err)
	assert.Equal(t, 4, v)
	assert.Equal(t, time.Second, ttl)

	_, _, err = l.Load(context.Background(), "bad")
	assert.ErrorIs(t, err, boom)

	assert.Equal(t, []string{"good", "bad"}, calls)
	assert.Equal(t, 1, failures)
}
