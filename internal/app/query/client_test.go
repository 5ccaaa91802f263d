package query

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func newTestClient(store Store) *Client {
	return NewClient(store, Options{StaleTime: time.Minute, FetchTimeout: time.Second}, zap.NewNop())
}

type brokenStore struct{}

func (brokenStore) Get(context.Context, string) ([]byte, error) { return nil, errors.New("down") }
func (brokenStore) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("down")
}
func (brokenStore) Incr(context.Context, string) (int64, error) { return 0, errors.New("down") }
func (brokenStore) DeletePrefix(context.Context, string) (int, error) {
	return 0, errors.New("down")
}

func TestKeyString(t *testing.T) {
	assert.Equal(t, "categories", NewKey("categories").String())
	assert.Equal(t, "search?a%26b&x", NewKey("search", "a&b", "x").String())
}

func TestFetchCachesUntilInvalidated(t *testing.T) {
	defer goleak.VerifyNone(t)

	c := newTestClient(NewMemoryStore())
	ctx := context.Background()
	var calls int32
	load := func(context.Context) ([]string, error) {
		n := atomic.AddInt32(&calls, 1)
		if n == 1 {
			return []string{"Biology"}, nil
		}
		return []string{"Biology", "Chemistry"}, nil
	}

	v, err := Fetch(ctx, c, NewKey("categories"), load)
	require.NoError(t, err)
	assert.Equal(t, []string{"Biology"}, v)

	v, err = Fetch(ctx, c, NewKey("categories"), load)
	require.NoError(t, err)
	assert.Equal(t, []string{"Biology"}, v)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))

	require.NoError(t, c.Invalidate(ctx, "categories"))

	v, err = Fetch(ctx, c, NewKey("categories"), load)
	require.NoError(t, err)
	assert.Equal(t, []string{"Biology", "Chemistry"}, v)
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestFetchKeysByParams(t *testing.T) {
	c := newTestClient(NewMemoryStore())
	ctx := context.Background()

	a, err := Fetch(ctx, c, NewKey("papers", "a"), func(context.Context) (string, error) { return "A", nil })
	require.NoError(t, err)
	b, err := Fetch(ctx, c, NewKey("papers", "b"), func(context.Context) (string, error) { return "B", nil })
	require.NoError(t, err)
	assert.Equal(t, "A", a)
	assert.Equal(t, "B", b)
}

func TestFetchDoesNotCacheErrors(t *testing.T) {
	c := newTestClient(NewMemoryStore())
	ctx := context.Background()
	boom := errors.New("select failed")

	_, err := Fetch(ctx, c, NewKey("stats"), func(context.Context) (int, error) { return 0, boom })
	assert.ErrorIs(t, err, boom)

	v, err := Fetch(ctx, c, NewKey("stats"), func(context.Context) (int, error) { return 7, nil })
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}

func TestFetchDeduplicatesConcurrentCallers(t *testing.T) {
	defer goleak.VerifyNone(t)

	c := newTestClient(NewMemoryStore())
	release := make(chan struct{})
	var calls int32
	load := func(context.Context) (int, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return 42, nil
	}

	const callers = 8
	var wg sync.WaitGroup
	results := make([]int, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := Fetch(context.Background(), c, NewKey("search", "maths"), load)
			assert.NoError(t, err)
			results[i] = v
		}(i)
	}

	// Give the callers time to pile up on the in-flight fetch.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
	for _, v := range results {
		assert.Equal(t, 42, v)
	}
}

func TestFetchCancelledCallerStillPopulatesCache(t *testing.T) {
	defer goleak.VerifyNone(t)

	c := newTestClient(NewMemoryStore())
	release := make(chan struct{})
	done := make(chan struct{})
	load := func(ctx context.Context) (string, error) {
		defer close(done)
		<-release
		return "result", ctx.Err()
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := Fetch(ctx, c, NewKey("search", "physics"), load)
		errCh <- err
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-errCh, context.Canceled)

	close(release)
	<-done

	require.Eventually(t, func() bool {
		v, err := Fetch(context.Background(), c, NewKey("search", "physics"), func(context.Context) (string, error) {
			return "refetched", nil
		})
		return err == nil && v == "result"
	}, time.Second, 10*time.Millisecond)
}

func TestFetchReadsThroughWhenStoreIsDown(t *testing.T) {
	c := newTestClient(brokenStore{})
	var calls int32
	load := func(context.Context) (int, error) {
		return int(atomic.AddInt32(&calls, 1)), nil
	}

	v1, err := Fetch(context.Background(), c, NewKey("categories"), load)
	require.NoError(t, err)
	v2, err := Fetch(context.Background(), c, NewKey("categories"), load)
	require.NoError(t, err)
	assert.Equal(t, 1, v1)
	assert.Equal(t, 2, v2)

	assert.Error(t, c.Invalidate(context.Background(), "categories"))
}

func TestMemoryStoreExpiry(t *testing.T) {
	s := NewMemoryStore().(*memoryStore)
	now := time.Now()
	s.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k", []byte("v"), time.Second))
	b, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", string(b))

	now = now.Add(2 * time.Second)
	_, err = s.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)

	n, err := s.Incr(ctx, "gen")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	n, err = s.Incr(ctx, "gen")
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
}

func TestInvalidateDropsPreviousGeneration(t *testing.T) {
	store := NewMemoryStore().(*memoryStore)
	c := newTestClient(store)
	ctx := context.Background()

	for i := range 1000 {
		term := strconv.Itoa(i)
		v, err := Fetch(ctx, c, NewKey("search", term), func(context.Context) (string, error) { return term, nil })
		require.NoError(t, err)
		require.Equal(t, term, v)
		require.NoError(t, c.Invalidate(ctx, "search"))
	}
	assert.LessOrEqual(t, store.size(), 2, "only the generation counter and at most one live entry remain")

	_, err := Fetch(ctx, c, NewKey("categories"), func(context.Context) (int, error) { return 1, nil })
	require.NoError(t, err)
	require.NoError(t, c.Invalidate(ctx, "search"))
	_, err = store.Get(ctx, c.entryPrefix("categories", 0)+"categories")
	assert.NoError(t, err, "invalidating one name leaves others cached")
}

func TestMemoryStoreSweepsExpiredEntries(t *testing.T) {
	s := NewMemoryStore().(*memoryStore)
	now := time.Now()
	s.now = func() time.Time { return now }
	ctx := context.Background()

	for i := range minSweep - 1 {
		require.NoError(t, s.Set(ctx, "old:"+strconv.Itoa(i), []byte("v"), time.Second))
	}
	require.NoError(t, s.Set(ctx, "keep", []byte("v"), 0))
	assert.Equal(t, minSweep, s.size(), "nothing has expired yet")

	now = now.Add(2 * time.Second)
	for i := range minSweep {
		require.NoError(t, s.Set(ctx, "new:"+strconv.Itoa(i), []byte("v"), time.Minute))
	}
	assert.LessOrEqual(t, s.size(), minSweep+1, "expired entries are swept by later writes")
	_, err := s.Get(ctx, "keep")
	assert.NoError(t, err)
}

func TestMemoryStoreDeletePrefix(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	for _, k := range []string{"p:search:0:a", "p:search:0:b", "p:search:1:a", "p:categories:0:categories"} {
		require.NoError(t, s.Set(ctx, k, []byte("v"), 0))
	}

	n, err := s.DeletePrefix(ctx, "p:search:0:")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	_, err = s.Get(ctx, "p:search:1:a")
	assert.NoError(t, err)
	_, err = s.Get(ctx, "p:search:0:a")
	assert.ErrorIs(t, err, ErrCacheMiss)
}
