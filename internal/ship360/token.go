package ship360

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	errx "github.com/shipchat-core/server/internal/core/error"
	logx "github.com/shipchat-core/server/pkg/logger"
)

// expirySafetyMargin is subtracted from the provider's expires_in so a token
// is refreshed shortly before it actually lapses.
const expirySafetyMargin = 30 * time.Second

// TokenSource fetches and caches the provider bearer token. Concurrent
// callers during a refresh share a single outbound request.
type TokenSource struct {
	cfg  Config
	http *http.Client

	group singleflight.Group

	mu     sync.Mutex
	token  string
	expiry time.Time

	// now is swappable for tests.
	now func() time.Time
}

// NewTokenSource builds a TokenSource over the provider token endpoint.
func NewTokenSource(cfg Config, httpClient *http.Client) *TokenSource {
	return &TokenSource{
		cfg:  cfg,
		http: httpClient,
		now:  time.Now,
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

// Token returns the cached bearer token, refreshing it when absent or within
// the safety margin of expiry.
func (ts *TokenSource) Token(ctx context.Context) (string, error) {
	ts.mu.Lock()
	if ts.token != "" && ts.now().Before(ts.expiry) {
		token := ts.token
		ts.mu.Unlock()
		return token, nil
	}
	ts.mu.Unlock()

	v, err, _ := ts.group.Do("token", func() (any, error) {
		// A caller that queued behind a completed refresh can use its result.
		ts.mu.Lock()
		if ts.token != "" && ts.now().Before(ts.expiry) {
			token := ts.token
			ts.mu.Unlock()
			return token, nil
		}
		ts.mu.Unlock()

		return ts.refresh(ctx)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// refresh performs the single outbound token request and stores the result.
func (ts *TokenSource) refresh(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ts.cfg.TokenURL, nil)
	if err != nil {
		return "", errx.WrapAuth(err)
	}
	req.SetBasicAuth(ts.cfg.TokenUsername, ts.cfg.TokenPassword)
	req.Header.Set("Content-Type", "application/json")

	resp, err := ts.http.Do(req)
	if err != nil {
		var uerr *url.Error
		if errors.As(err, &uerr) && uerr.Timeout() {
			return "", errx.WrapTimeout(err)
		}
		return "", errx.WrapAuth(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errx.WrapAuth(err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logx.Warn().Int("status", resp.StatusCode).Msg("Token endpoint returned non-2xx response")
		return "", errx.WrapAuth(fmt.Errorf("token endpoint status %d", resp.StatusCode))
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return "", errx.WrapAuth(fmt.Errorf("malformed token response: %w", err))
	}
	if tr.AccessToken == "" || tr.ExpiresIn <= 0 {
		return "", errx.WrapAuth(errors.New("token response missing access_token or expires_in"))
	}

	expiry := ts.now().Add(time.Duration(tr.ExpiresIn)*time.Second - expirySafetyMargin)

	ts.mu.Lock()
	ts.token = tr.AccessToken
	ts.expiry = expiry
	ts.mu.Unlock()

	logx.Debug().Time("expiry", expiry).Msg("Refreshed provider bearer token")
	return tr.AccessToken, nil
}
