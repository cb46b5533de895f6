package gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// iconServer serves image/svg+xml for ETH and BTC, text/plain for TXT,
// 404 for anything else and drops the connection for BROKEN.
type iconServer struct {
	*httptest.Server
	mu     sync.Mutex
	hits   map[string]int
	method string
}

func newIconServer(t *testing.T) *iconServer {
	t.Helper()
	s := &iconServer{hits: make(map[string]int)}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/"), ".svg")

		s.mu.Lock()
		s.hits[id]++
		s.method = r.Method
		s.mu.Unlock()

		switch id {
		case "ETH", "BTC":
			w.Header().Set("Content-Type", "image/svg+xml")
			w.Write([]byte("<svg/>"))
		case "TXT":
			w.Header().Set("Content-Type", "text/plain")
			w.Write([]byte("not an image"))
		case "BROKEN":
			hj, ok := w.(http.Hijacker)
			if !ok {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			conn, _, _ := hj.Hijack()
			conn.Close()
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *iconServer) hitsFor(id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[id]
}

func TestResolveIconClassification(t *testing.T) {
	server := newIconServer(t)
	gw := New(server.URL, server.URL+"/", WithHTTPClient(server.Client()))
	ctx := context.Background()

	assert.Equal(t, server.URL+"/ETH.svg", gw.ResolveIcon(ctx, "ETH"))
	assert.Empty(t, gw.ResolveIcon(ctx, "TXT"), "non-image content type")
	assert.Empty(t, gw.ResolveIcon(ctx, "NOPE"), "404")
	assert.Empty(t, gw.ResolveIcon(ctx, "BROKEN"), "transport failure is absent, not an error")

	assert.Equal(t, 1.0, testutil.ToFloat64(gw.metrics.iconProbe.WithLabelValues("present")))
	assert.Equal(t, 2.0, testutil.ToFloat64(gw.metrics.iconProbe.WithLabelValues("absent")))
	assert.Equal(t, 1.0, testutil.ToFloat64(gw.metrics.iconProbe.WithLabelValues("error")))
}

func TestResolveIconCachesBothOutcomes(t *testing.T) {
	server := newIconServer(t)
	gw := New(server.URL, server.URL, WithHTTPClient(server.Client()))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		gw.ResolveIcon(ctx, "ETH")
		gw.ResolveIcon(ctx, "NOPE")
	}
	assert.Equal(t, 1, server.hitsFor("ETH"))
	assert.Equal(t, 1, server.hitsFor("NOPE"))

	gw.Invalidate()
	gw.ResolveIcon(ctx, "ETH")
	assert.Equal(t, 2, server.hitsFor("ETH"))
}

func TestResolveIconHeadProbe(t *testing.T) {
	server := newIconServer(t)
	gw := New(server.URL, server.URL, WithHTTPClient(server.Client()), WithProbeMethod("head"))

	assert.NotEmpty(t, gw.ResolveIcon(context.Background(), "BTC"))
	server.mu.Lock()
	assert.Equal(t, http.MethodHead, server.method)
	server.mu.Unlock()
}

func TestResolveIconsBatchPartialFailure(t *testing.T) {
	server := newIconServer(t)
	gw := New(server.URL, server.URL, WithHTTPClient(server.Client()), WithConcurrency(2))

	ids := []string{"ETH", "BROKEN", "TXT", "BTC", "NOPE", "ETH"}
	got := gw.ResolveIconsBatch(context.Background(), ids)

	require.Len(t, got, 5, "one entry per distinct id")
	assert.Equal(t, server.URL+"/ETH.svg", got["ETH"])
	assert.Equal(t, server.URL+"/BTC.svg", got["BTC"])
	for _, id := range []string{"BROKEN", "TXT", "NOPE"} {
		v, ok := got[id]
		assert.True(t, ok, id)
		assert.Empty(t, v, id)
	}
	assert.Equal(t, 1, server.hitsFor("ETH"))
}

func TestResolveIconsBatchAllFailing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	gw := New(url, url)
	got := gw.ResolveIconsBatch(context.Background(), []string{"A", "B", "C"})

	assert.Equal(t, map[string]string{"A": "", "B": "", "C": ""}, got)
}

func TestResolveIconsBatchEmpty(t *testing.T) {
	gw := New("http://unused", "http://unused")
	assert.Empty(t, gw.ResolveIconsBatch(context.Background(), nil))
}

func TestIconURLEscapesID(t *testing.T) {
	gw := New("http://p", "http://icons/tokens/")
	assert.Equal(t, "http://icons/tokens/rSWTH.svg", gw.IconURL("rSWTH"))
	assert.Equal(t, "http://icons/tokens/a%2Fb.svg", gw.IconURL("a/b"))
}

func TestCancelledIconCallerDoesNotCacheAbsent(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case started <- struct{}{}:
		default:
		}
		<-release
		w.Header().Set("Content-Type", "image/svg+xml")
		w.Write([]byte("<svg/>"))
	}))
	defer server.Close()

	gw := New(server.URL, server.URL, WithHTTPClient(server.Client()))

	ctx, cancel := context.WithCancel(context.Background())
	got := make(chan string, 1)
	go func() { got <- gw.ResolveIcon(ctx, "ETH") }()
	<-started
	cancel()
	assert.Equal(t, "", <-got)

	close(release)
	assert.Eventually(t, func() bool {
		return gw.ResolveIcon(context.Background(), "ETH") == gw.IconURL("ETH")
	}, time.Second, 5*time.Millisecond)
}

func TestProbeInterruptedByContextIsNotDefinitive(t *testing.T) {
	server := newIconServer(t)
	gw := New(server.URL, server.URL, WithHTTPClient(server.Client()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	iconURL, definitive := gw.probeIcon(ctx, "ETH")
	assert.Empty(t, iconURL)
	assert.False(t, definitive)

	_, definitive = gw.probeIcon(context.Background(), "NOPE")
	assert.True(t, definitive)
}
