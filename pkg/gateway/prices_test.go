package gateway

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pricesBody = `[
	{"currency":"BLUR","date":"2023-08-29T07:10:40.000Z","price":0.20811525423728813},
	{"currency":"ETH","date":"2023-08-29T07:10:52.000Z","price":1645.9337373737374},
	{"currency":"","date":"2023-08-29T07:10:52.000Z","price":1},
	{"currency":"BAD","date":"2023-08-29T07:10:52.000Z","price":-3}
]`

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newPriceServer(t *testing.T, hits *int32) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(pricesBody))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestFetchPricesDecodesAndFilters(t *testing.T) {
	var hits int32
	server := newPriceServer(t, &hits)
	gw := New(server.URL, server.URL, WithHTTPClient(server.Client()))

	records, err := gw.FetchPrices(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "BLUR", records[0].Currency)
	assert.Equal(t, time.Date(2023, 8, 29, 7, 10, 40, 0, time.UTC), records[0].AsOf.UTC())
	assert.InDelta(t, 1645.9337, records[1].Price, 1e-3)
}

func TestFetchPricesCacheTTL(t *testing.T) {
	var hits int32
	server := newPriceServer(t, &hits)
	clock := newFakeClock()
	gw := New(server.URL, server.URL, WithHTTPClient(server.Client()), WithClock(clock.Now), WithTTL(5*time.Minute))
	ctx := context.Background()

	_, err := gw.FetchPrices(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, atomic.LoadInt32(&hits))

	clock.Advance(5*time.Minute - time.Nanosecond)
	_, err = gw.FetchPrices(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, atomic.LoadInt32(&hits), "still within TTL")

	clock.Advance(time.Nanosecond)
	_, err = gw.FetchPrices(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, atomic.LoadInt32(&hits), "TTL reached")

	gw.Invalidate()
	_, err = gw.FetchPrices(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, atomic.LoadInt32(&hits), "after invalidate")

	assert.Equal(t, 1.0, testutil.ToFloat64(gw.metrics.priceCache.WithLabelValues("hit")))
	assert.Equal(t, 3.0, testutil.ToFloat64(gw.metrics.priceCache.WithLabelValues("miss")))
}

func TestFetchPricesCachedSliceIsNotShared(t *testing.T) {
	var hits int32
	server := newPriceServer(t, &hits)
	gw := New(server.URL, server.URL, WithHTTPClient(server.Client()))

	first, err := gw.FetchPrices(context.Background())
	require.NoError(t, err)
	first[0].Currency = "MUTATED"

	second, err := gw.FetchPrices(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "BLUR", second[0].Currency)
}

func TestFetchPricesErrorLeavesCacheUnchanged(t *testing.T) {
	var fail atomic.Bool
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		if fail.Load() {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(pricesBody))
	}))
	defer server.Close()

	clock := newFakeClock()
	gw := New(server.URL, server.URL, WithHTTPClient(server.Client()), WithClock(clock.Now))
	ctx := context.Background()

	_, err := gw.FetchPrices(ctx)
	require.NoError(t, err)

	clock.Advance(10 * time.Minute)
	fail.Store(true)

	_, err = gw.FetchPrices(ctx)
	var fetchErr *FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, http.StatusBadGateway, fetchErr.StatusCode)

	gw.mu.Lock()
	assert.True(t, gw.hasPrices)
	assert.Len(t, gw.prices, 2)
	gw.mu.Unlock()
	assert.Equal(t, 1.0, testutil.ToFloat64(gw.metrics.priceFetch.WithLabelValues("error")))
}

func TestFetchPricesTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	gw := New(url, url)
	_, err := gw.FetchPrices(context.Background())

	var fetchErr *FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Zero(t, fetchErr.StatusCode)
	assert.NotNil(t, fetchErr.Unwrap())
}

func TestFetchPricesMalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"not":"a list"}`))
	}))
	defer server.Close()

	gw := New(server.URL, server.URL, WithHTTPClient(server.Client()))
	_, err := gw.FetchPrices(context.Background())

	var fetchErr *FetchError
	assert.True(t, errors.As(err, &fetchErr))
}

func TestStalePriceResponseIsDiscardedAfterInvalidate(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) == 1 {
			started <- struct{}{}
			<-release
		}
		w.Write([]byte(pricesBody))
	}))
	defer server.Close()

	gw := New(server.URL, server.URL, WithHTTPClient(server.Client()))

	done := make(chan error, 1)
	go func() {
		_, err := gw.FetchPrices(context.Background())
		done <- err
	}()

	<-started
	gw.Invalidate()
	close(release)
	require.NoError(t, <-done)

	gw.mu.Lock()
	assert.False(t, gw.hasPrices, "stale response must not populate the cache")
	gw.mu.Unlock()
	assert.Equal(t, 1.0, testutil.ToFloat64(gw.metrics.priceFetch.WithLabelValues("discarded")))

	_, err := gw.FetchPrices(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 2, atomic.LoadInt32(&hits))
}

func TestConcurrentFetchesShareOneRequest(t *testing.T) {
	release := make(chan struct{})
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		<-release
		w.Write([]byte(pricesBody))
	}))
	defer server.Close()

	gw := New(server.URL, server.URL, WithHTTPClient(server.Client()))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := gw.FetchPrices(context.Background())
			assert.NoError(t, err)
		}()
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.EqualValues(t, 1, atomic.LoadInt32(&hits))
}

func TestCancelledCallerDoesNotFailSharedFetch(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		started <- struct{}{}
		<-release
		w.Write([]byte(pricesBody))
	}))
	defer server.Close()

	gw := New(server.URL, server.URL, WithHTTPClient(server.Client()))

	ctxA, cancelA := context.WithCancel(context.Background())
	errA := make(chan error, 1)
	go func() {
		_, err := gw.FetchPrices(ctxA)
		errA <- err
	}()
	<-started

	resB := make(chan error, 1)
	go func() {
		records, err := gw.FetchPrices(context.Background())
		if err == nil && len(records) != 2 {
			err = errors.New("unexpected record count")
		}
		resB <- err
	}()

	time.Sleep(20 * time.Millisecond)
	cancelA()

	err := <-errA
	var fetchErr *FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.ErrorIs(t, err, context.Canceled)

	close(release)
	require.NoError(t, <-resB)
	assert.EqualValues(t, 1, atomic.LoadInt32(&hits))

	gw.mu.Lock()
	assert.True(t, gw.hasPrices, "shared fetch still populates the cache")
	gw.mu.Unlock()
}

func TestTTLOption(t *testing.T) {
	assert.Equal(t, DefaultTTL, New("http://prices", "http://icons").TTL())
	assert.Equal(t, 30*time.Second, New("http://prices", "http://icons", WithTTL(30*time.Second)).TTL())
	assert.Equal(t, DefaultTTL, New("http://prices", "http://icons", WithTTL(0)).TTL(), "non-positive ttl is ignored")
}
