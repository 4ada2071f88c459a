package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/singleflight"

	"github.com/illenko/pix-checkout/metrics"
)

const (
	authTokenPath = "/api/partner/v1/auth-token"

	DefaultSafetyMargin   = 5 * time.Second
	DefaultFallbackTTL    = 55 * time.Minute
	DefaultRefreshTimeout = 15 * time.Second

	// maxExpiresIn is the longest relative lifetime taken from expires_in.
	// Anything larger is treated as unparseable.
	maxExpiresIn = 10 * 365 * 24 * time.Hour
)

var errMissingAccessToken = errors.New("auth response has no access_token")

type Credentials struct {
	ClientID     string
	ClientSecret string
}

type authRequest struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

type authResponse struct {
	AccessToken string          `json:"access_token"`
	ExpiresAt   json.RawMessage `json:"expires_at"`
	ExpiresIn   json.RawMessage `json:"expires_in"`
}

// TokenProvider exchanges client credentials for a bearer token and caches it
// until shortly before it expires. Concurrent callers that find the cache
// stale share a single refresh.
type TokenProvider struct {
	client         *resty.Client
	creds          Credentials
	safetyMargin   time.Duration
	fallbackTTL    time.Duration
	refreshTimeout time.Duration
	now            func() time.Time

	mu        sync.RWMutex
	token     string
	expiresAt time.Time

	refreshes singleflight.Group
}

type TokenOption func(*TokenProvider)

func WithClock(now func() time.Time) TokenOption {
	return func(p *TokenProvider) { p.now = now }
}

func WithSafetyMargin(d time.Duration) TokenOption {
	return func(p *TokenProvider) { p.safetyMargin = d }
}

func WithFallbackTTL(d time.Duration) TokenOption {
	return func(p *TokenProvider) { p.fallbackTTL = d }
}

// WithRefreshTimeout bounds the shared credential exchange, which outlives
// any single caller's context.
func WithRefreshTimeout(d time.Duration) TokenOption {
	return func(p *TokenProvider) { p.refreshTimeout = d }
}

func NewTokenProvider(client *resty.Client, creds Credentials, opts ...TokenOption) *TokenProvider {
	p := &TokenProvider{
		client:         client,
		creds:          creds,
		safetyMargin:   DefaultSafetyMargin,
		fallbackTTL:    DefaultFallbackTTL,
		refreshTimeout: DefaultRefreshTimeout,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Token returns a valid bearer token, fetching a new one when the cached one
// is missing or within the safety margin of its expiry.
func (p *TokenProvider) Token(ctx context.Context) (string, error) {
	if token, ok := p.cached(); ok {
		metrics.IncTokenLookup("hit")
		return token, nil
	}

	ch := p.refreshes.DoChan("token", func() (any, error) {
		// A refresh that finished between our check and this call already filled the cache.
		if token, ok := p.cached(); ok {
			return token, nil
		}
		refreshCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.refreshTimeout)
		defer cancel()
		return p.refresh(refreshCtx)
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			metrics.IncTokenLookup("failed")
			return "", res.Err
		}
		metrics.IncTokenLookup("refreshed")
		return res.Val.(string), nil
	}
}

// Invalidate drops token from the cache if it is still the cached one.
func (p *TokenProvider) Invalidate(token string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.token == token {
		p.token = ""
		p.expiresAt = time.Time{}
	}
}

// Expiry reports when the cached token expires, and whether one is cached.
func (p *TokenProvider) Expiry() (time.Time, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.expiresAt, p.token != ""
}

func (p *TokenProvider) cached() (string, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.token != "" && p.now().Before(p.expiresAt.Add(-p.safetyMargin)) {
		return p.token, true
	}
	return "", false
}

func (p *TokenProvider) refresh(ctx context.Context) (string, error) {
	ctx, span := tracer.Start(ctx, "TokenProvider.refresh")
	defer span.End()

	slog.InfoContext(ctx, "Fetching gateway token", slog.String("client_id", redact(p.creds.ClientID)))

	start := time.Now()
	resp, err := p.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(authRequest{ClientID: p.creds.ClientID, ClientSecret: p.creds.ClientSecret}).
		Post(authTokenPath)
	if err != nil {
		metrics.ObserveUpstream("auth", 0, time.Since(start).Seconds())
		span.SetStatus(codes.Error, "auth request failed")
		return "", &AuthError{Err: fmt.Errorf("failed to call auth endpoint: %w", err)}
	}
	metrics.ObserveUpstream("auth", resp.StatusCode(), time.Since(start).Seconds())
	slog.InfoContext(ctx, "Auth response", slog.Int("status", resp.StatusCode()))

	if !resp.IsSuccess() {
		span.SetStatus(codes.Error, resp.Status())
		return "", &AuthError{StatusCode: resp.StatusCode(), Body: resp.String()}
	}

	var body authResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		span.SetStatus(codes.Error, "undecodable auth response")
		return "", &AuthError{StatusCode: resp.StatusCode(), Body: resp.String(), Err: fmt.Errorf("failed to decode auth response: %w", err)}
	}
	if body.AccessToken == "" {
		span.SetStatus(codes.Error, errMissingAccessToken.Error())
		return "", &AuthError{StatusCode: resp.StatusCode(), Body: resp.String(), Err: errMissingAccessToken}
	}

	fetchedAt := p.now()
	expiresAt := p.expiry(body, fetchedAt)

	p.mu.Lock()
	p.token = body.AccessToken
	p.expiresAt = expiresAt
	p.mu.Unlock()

	slog.InfoContext(ctx, "Gateway token fetched", slog.Time("expires_at", expiresAt))
	return body.AccessToken, nil
}

// expiry prefers an absolute expires_at, then a relative expires_in, then the fallback lifetime.
func (p *TokenProvider) expiry(body authResponse, fetchedAt time.Time) time.Time {
	if at, ok := parseExpiresAt(body.ExpiresAt); ok {
		return at
	}
	if secs, ok := parseExpiresIn(body.ExpiresIn); ok {
		return fetchedAt.Add(time.Duration(secs * float64(time.Second)))
	}
	return fetchedAt.Add(p.fallbackTTL)
}

var expiresAtLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// parseExpiresAt accepts a timestamp string or a number of epoch milliseconds.
func parseExpiresAt(raw json.RawMessage) (time.Time, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return time.Time{}, false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		s = strings.TrimSpace(s)
		if s == "" {
			return time.Time{}, false
		}
		for _, layout := range expiresAtLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
		}
		if ms, err := strconv.ParseInt(s, 10, 64); err == nil && ms > 0 {
			return time.UnixMilli(ms), true
		}
		return time.Time{}, false
	}
	var ms float64
	if err := json.Unmarshal(raw, &ms); err == nil && ms > 0 && ms < math.MaxInt64 {
		return time.UnixMilli(int64(ms)), true
	}
	return time.Time{}, false
}

// parseExpiresIn accepts a positive number of seconds, as a number or a numeric string.
func parseExpiresIn(raw json.RawMessage) (float64, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, false
	}
	var secs float64
	if err := json.Unmarshal(raw, &secs); err != nil {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, false
		}
		if secs, err = strconv.ParseFloat(strings.TrimSpace(s), 64); err != nil {
			return 0, false
		}
	}
	return secs, secs > 0 && secs <= maxExpiresIn.Seconds()
}

func redact(s string) string {
	if len(s) <= 8 {
		return s + "..."
	}
	return s[:8] + "..."
}
