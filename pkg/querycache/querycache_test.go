package querycache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Humphrey-He/productdash/pkg/cache"
	"github.com/Humphrey-He/productdash/pkg/loader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gatedLoader blocks every load until release is closed and counts calls.
type gatedLoader struct {
	calls   atomic.Int64
	started chan struct{}
	release chan struct{}
	value   atomic.Int64
	fail    atomic.Bool
}

func newGatedLoader() *gatedLoader {
	return &gatedLoader{
		started: make(chan struct{}, 16),
		release: make(chan struct{}),
	}
}

func (g *gatedLoader) Load(ctx context.Context, key string) (int, time.Duration, error) {
	g.calls.Add(1)
	g.started <- struct{}{}
	<-g.release
	if g.fail.Load() {
		return 0, 0, errors.New("remote unavailable")
	}
	return int(g.value.Load()), 0, nil
}

// instantLoader returns a value derived from its call count.
type instantLoader struct {
	calls atomic.Int64
	err   error
}

func (l *instantLoader) Load(ctx context.Context, key string) (int, time.Duration, error) {
	n := l.calls.Add(1)
	if l.err != nil {
		return 0, 0, l.err
	}
	return int(n), 0, nil
}

func newTestCache(t *testing.T) *Cache[int] {
	t.Helper()
	store, err := cache.NewWithOptions[int]("querycache-test")
	require.NoError(t, err)
	qc := New[int](store)
	t.Cleanup(func() { _ = qc.Close() })
	return qc
}

var page0 = Key{Resource: "products", Offset: 0}

func waitStatus(t *testing.T, qc *Cache[int], key Key, want Status) Result[int] {
	t.Helper()
	var res Result[int]
	require.Eventually(t, func() bool {
		res = qc.Peek(context.Background(), key)
		return res.Status == want
	}, time.Second, 5*time.Millisecond)
	return res
}

func TestKeyString(t *testing.T) {
	assert.Equal(t, "products:offset=10", Key{Resource: "products", Offset: 10}.String())
}

func TestFetchCachesValue(t *testing.T) {
	ctx := context.Background()
	qc := newTestCache(t)
	l := &instantLoader{}

	v, err := qc.Fetch(ctx, page0, l)
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	v, err = qc.Fetch(ctx, page0, l)
	require.NoError(t, err)
	assert.Equal(t, 1, v)
	assert.Equal(t, int64(1), l.calls.Load())

	stats := qc.Stats()
	assert.Equal(t, int64(1), stats.Fetches)
	assert.Equal(t, int64(1), stats.Hits)
}

func TestConcurrentFetchSharesOneCall(t *testing.T) {
	ctx := context.Background()
	qc := newTestCache(t)
	l := newGatedLoader()
	l.value.Store(42)

	const callers = 20
	var wg sync.WaitGroup
	results := make([]int, callers)
	errs := make([]error, callers)

	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0], errs[0] = qc.Fetch(ctx, page0, l)
	}()
	<-l.started

	for i := 1; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = qc.Fetch(ctx, page0, l)
		}(i)
	}
	require.Eventually(t, func() bool {
		return qc.Stats().Joins == callers-1
	}, time.Second, time.Millisecond)

	close(l.release)
	wg.Wait()

	assert.Equal(t, int64(1), l.calls.Load())
	for i := range results {
		require.NoError(t, errs[i])
		assert.Equal(t, 42, results[i])
	}
}

func TestDistinctKeysLoadIndependently(t *testing.T) {
	ctx := context.Background()
	qc := newTestCache(t)
	l := &instantLoader{}

	_, err := qc.Fetch(ctx, page0, l)
	require.NoError(t, err)
	_, err = qc.Fetch(ctx, Key{Resource: "products", Offset: 10}, l)
	require.NoError(t, err)

	assert.Equal(t, int64(2), l.calls.Load())
}

func TestInvalidateForcesRefetch(t *testing.T) {
	ctx := context.Background()
	qc := newTestCache(t)
	l := &instantLoader{}
	other := Key{Resource: "carts", Offset: 0}

	_, err := qc.Fetch(ctx, page0, l)
	require.NoError(t, err)
	_, err = qc.Fetch(ctx, other, l)
	require.NoError(t, err)

	n := qc.InvalidateResource(ctx, "products")
	assert.Equal(t, 1, n)

	res := qc.Peek(ctx, page0)
	assert.True(t, res.Stale)
	assert.True(t, res.HasValue)
	assert.Equal(t, 1, res.Value)

	v, err := qc.Fetch(ctx, page0, l)
	require.NoError(t, err)
	assert.Equal(t, 3, v)

	v, err = qc.Fetch(ctx, other, l)
	require.NoError(t, err)
	assert.Equal(t, 2, v)
	assert.Equal(t, int64(3), l.calls.Load())
}

func TestGetStartsBackgroundLoad(t *testing.T) {
	ctx := context.Background()
	qc := newTestCache(t)
	l := newGatedLoader()
	l.value.Store(7)

	res := qc.Get(ctx, page0, l)
	assert.Equal(t, StatusFetching, res.Status)
	assert.False(t, res.HasValue)
	<-l.started

	// a second Get while loading does not start another call
	res = qc.Get(ctx, page0, l)
	assert.Equal(t, StatusFetching, res.Status)

	close(l.release)
	res = waitStatus(t, qc, page0, StatusResolved)
	assert.Equal(t, 7, res.Value)

	res = qc.Get(ctx, page0, l)
	assert.Equal(t, StatusResolved, res.Status)
	assert.False(t, res.Stale)
	assert.Equal(t, int64(1), l.calls.Load())
}

func TestFailedIsTerminalForGet(t *testing.T) {
	ctx := context.Background()
	qc := newTestCache(t)
	l := &instantLoader{err: errors.New("remote unavailable")}

	_, err := qc.Fetch(ctx, page0, l)
	require.Error(t, err)

	res := qc.Get(ctx, page0, l)
	assert.Equal(t, StatusFailed, res.Status)
	assert.Error(t, res.Err)
	res = qc.Get(ctx, page0, l)
	assert.Equal(t, StatusFailed, res.Status)
	assert.Equal(t, int64(1), l.calls.Load())

	// explicit retry
	l.err = nil
	v, err := qc.Fetch(ctx, page0, l)
	require.NoError(t, err)
	assert.Equal(t, 2, v)
	assert.Equal(t, int64(1), qc.Stats().Failures)
}

func TestInvalidateResetsFailedKey(t *testing.T) {
	ctx := context.Background()
	qc := newTestCache(t)
	l := &instantLoader{err: errors.New("remote unavailable")}

	_, err := qc.Fetch(ctx, page0, l)
	require.Error(t, err)

	qc.Invalidate(ctx, func(Key) bool { return true })
	assert.Equal(t, StatusIdle, qc.Peek(ctx, page0).Status)

	l.err = nil
	res := qc.Get(ctx, page0, l)
	assert.Equal(t, StatusFetching, res.Status)
	res = waitStatus(t, qc, page0, StatusResolved)
	assert.Equal(t, 2, res.Value)
}

func TestLoadResolvingAfterInvalidationIsStale(t *testing.T) {
	ctx := context.Background()
	qc := newTestCache(t)
	l := newGatedLoader()
	l.value.Store(1)

	done := make(chan int)
	go func() {
		v, _ := qc.Fetch(ctx, page0, l)
		done <- v
	}()
	<-l.started

	qc.InvalidateResource(ctx, "products")
	close(l.release)

	// the waiter still gets the value
	assert.Equal(t, 1, <-done)

	res := waitStatus(t, qc, page0, StatusResolved)
	assert.True(t, res.Stale)
	assert.Equal(t, 1, res.Value)
}

func TestFetchAfterInvalidationDoesNotJoinOlderLoad(t *testing.T) {
	ctx := context.Background()
	qc := newTestCache(t)
	slow := newGatedLoader()
	slow.value.Store(1)

	go func() { _, _ = qc.Fetch(ctx, page0, slow) }()
	<-slow.started

	qc.InvalidateResource(ctx, "products")

	fresh := &instantLoader{}
	fresh.calls.Store(99)
	v, err := qc.Fetch(ctx, page0, fresh)
	require.NoError(t, err)
	assert.Equal(t, 100, v)
	assert.Zero(t, qc.Stats().Joins)

	res := qc.Peek(ctx, page0)
	assert.Equal(t, StatusResolved, res.Status)
	assert.False(t, res.Stale)

	// the older load finishes last and its value is dropped
	close(slow.release)
	require.Eventually(t, func() bool {
		return qc.Peek(ctx, page0).Status == StatusResolved && slow.calls.Load() == 1 && qc.Stats().Fetches == 2
	}, time.Second, 5*time.Millisecond)
}

func TestOlderLoadDoesNotOverwriteNewerValue(t *testing.T) {
	ctx := context.Background()
	qc := newTestCache(t)
	old := newGatedLoader()
	old.value.Store(1)

	oldDone := make(chan struct{})
	go func() {
		defer close(oldDone)
		_, _ = qc.Fetch(ctx, page0, old)
	}()
	<-old.started

	qc.InvalidateResource(ctx, "products")

	fresh := &instantLoader{}
	fresh.calls.Store(99)
	v, err := qc.Fetch(ctx, page0, fresh)
	require.NoError(t, err)
	assert.Equal(t, 100, v)

	close(old.release)
	select {
	case <-oldDone:
	case <-time.After(time.Second):
		t.Fatal("older load never settled")
	}

	res := qc.Peek(ctx, page0)
	assert.Equal(t, StatusResolved, res.Status)
	assert.Equal(t, 100, res.Value)
	assert.False(t, res.Stale)

	// still fresh, so no further remote call
	v, err = qc.Fetch(ctx, page0, fresh)
	require.NoError(t, err)
	assert.Equal(t, 100, v)
	assert.Equal(t, int64(100), fresh.calls.Load())
}

func TestRetryDoesNotJoinFinishedFlight(t *testing.T) {
	ctx := context.Background()
	qc := newTestCache(t)

	_, err := qc.Fetch(ctx, page0, &instantLoader{err: errors.New("remote unavailable")})
	require.Error(t, err)

	// hold the failed launch's flight open, as if singleflight had not
	// removed it yet
	qc.mu.Lock()
	e := qc.entries[page0]
	lingering := qc.flightKey(page0, e.gen, e.flightSeq)
	qc.mu.Unlock()

	release := make(chan struct{})
	defer close(release)
	held := make(chan struct{})
	qc.group.DoChan(lingering, func() (any, error) {
		close(held)
		<-release
		return 0, errors.New("remote unavailable")
	})
	<-held

	waitCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	l := &instantLoader{}
	v, err := qc.Fetch(waitCtx, page0, l)
	require.NoError(t, err)
	assert.Equal(t, 1, v)
	assert.Equal(t, int64(1), l.calls.Load())

	res := qc.Peek(ctx, page0)
	assert.Equal(t, StatusResolved, res.Status)
}

func TestForgetDropsStoredValue(t *testing.T) {
	ctx := context.Background()
	qc := newTestCache(t)
	page1 := Key{Resource: "products", Offset: 10}

	l := &instantLoader{}
	_, err := qc.Fetch(ctx, page0, l)
	require.NoError(t, err)
	_, err = qc.Fetch(ctx, page1, l)
	require.NoError(t, err)

	n := qc.Forget(ctx, func(k Key) bool { return k.Offset >= 10 })
	assert.Equal(t, 1, n)

	res := qc.Peek(ctx, page1)
	assert.Equal(t, StatusIdle, res.Status)
	assert.False(t, res.HasValue)
	_, found, err := qc.store.Get(ctx, page1.String())
	require.NoError(t, err)
	assert.False(t, found)

	assert.Equal(t, StatusResolved, qc.Peek(ctx, page0).Status)

	v, err := qc.Fetch(ctx, page1, l)
	require.NoError(t, err)
	assert.Equal(t, 3, v)
}

func TestForgetDiscardsRunningLoad(t *testing.T) {
	ctx := context.Background()
	qc := newTestCache(t)
	l := newGatedLoader()
	l.value.Store(7)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = qc.Fetch(ctx, page0, l)
	}()
	<-l.started

	qc.Forget(ctx, func(Key) bool { return true })
	close(l.release)
	<-done

	res := qc.Peek(ctx, page0)
	assert.Equal(t, StatusIdle, res.Status)
	assert.False(t, res.HasValue)
}

func TestFetchWaitHonoursContext(t *testing.T) {
	qc := newTestCache(t)
	l := newGatedLoader()
	l.value.Store(5)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-l.started
		cancel()
	}()
	_, err := qc.Fetch(ctx, page0, l)
	assert.ErrorIs(t, err, context.Canceled)

	// the load itself keeps running and lands in the cache
	close(l.release)
	res := waitStatus(t, qc, page0, StatusResolved)
	assert.Equal(t, 5, res.Value)
}

func TestFetchReloadsAfterTTL(t *testing.T) {
	ctx := context.Background()
	store, err := cache.NewWithOptions[int]("ttl-test")
	require.NoError(t, err)
	qc := New[int](store, WithTTL(20*time.Millisecond))

	l := &instantLoader{}
	_, err = qc.Fetch(ctx, page0, l)
	require.NoError(t, err)

	time.Sleep(40 * time.Millisecond)
	v, err := qc.Fetch(ctx, page0, l)
	require.NoError(t, err)
	assert.Equal(t, 2, v)
}

func BenchmarkFetchHit(b *testing.B) {
	ctx := context.Background()
	store, _ := cache.NewWithOptions[int]("bench")
	qc := New[int](store)
	l := loader.NewFunctionLoader(func(ctx context.Context, key string) (int, error) {
		return 1, nil
	})
	_, _ = qc.Fetch(ctx, page0, l)

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_, _ = qc.Fetch(ctx, page0, l)
		}
	})
}
