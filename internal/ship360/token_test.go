package ship360

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errx "github.com/shipchat-core/server/internal/core/error"
)

func newTokenSource(t *testing.T, handler http.HandlerFunc) (*TokenSource, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := Config{
		TokenURL:      server.URL,
		TokenUsername: "user",
		TokenPassword: "pass",
	}
	return NewTokenSource(cfg, server.Client()), server
}

func TestTokenFetchAndCache(t *testing.T) {
	var calls int64
	ts, _ := newTokenSource(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)

		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		require.Equal(t, "user", user)
		require.Equal(t, "pass", pass)

		fmt.Fprint(w, `{"access_token":"tok-1","expires_in":3600}`)
	})

	ctx := context.Background()
	token, err := ts.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", token)

	// Second call is served from cache
	token, err = ts.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", token)
	assert.Equal(t, int64(1), atomic.LoadInt64(&calls))
}

func TestTokenSingleFlightUnderConcurrency(t *testing.T) {
	var calls int64
	release := make(chan struct{})
	ts, _ := newTokenSource(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
		<-release
		fmt.Fprint(w, `{"access_token":"tok-shared","expires_in":3600}`)
	})

	const workers = 16
	var wg sync.WaitGroup
	tokens := make([]string, workers)
	errs := make([]error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tokens[i], errs[i] = ts.Token(context.Background())
		}(i)
	}

	// Let the goroutines pile up behind the in-flight request, then release it
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, "tok-shared", tokens[i])
	}
	assert.Equal(t, int64(1), atomic.LoadInt64(&calls), "concurrent callers must share one refresh")
}

func TestTokenRefreshesAfterExpiry(t *testing.T) {
	var calls int64
	ts, _ := newTokenSource(t, func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt64(&calls, 1)
		fmt.Fprintf(w, `{"access_token":"tok-%d","expires_in":60}`, n)
	})

	current := time.Now()
	ts.now = func() time.Time { return current }

	ctx := context.Background()
	token, err := ts.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", token)

	// Within the lifetime minus safety margin: cached
	current = current.Add(20 * time.Second)
	token, err = ts.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", token)

	// Inside the safety margin: refreshed even though not strictly expired
	current = current.Add(15 * time.Second)
	token, err = ts.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok-2", token)
	assert.Equal(t, int64(2), atomic.LoadInt64(&calls))
}

func TestTokenMalformedResponse(t *testing.T) {
	ts, _ := newTokenSource(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `not json`)
	})

	_, err := ts.Token(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, errx.ErrAuth)
}

func TestTokenMissingFields(t *testing.T) {
	ts, _ := newTokenSource(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"access_token":"","expires_in":0}`)
	})

	_, err := ts.Token(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, errx.ErrAuth)
}

func TestTokenEndpointRejection(t *testing.T) {
	ts, _ := newTokenSource(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad credentials", http.StatusUnauthorized)
	})

	_, err := ts.Token(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, errx.ErrAuth)
	assert.Equal(t, errx.AuthErrorMessage, errx.UserMessage(err))
}
