package shopify

import (
	"context"
	"sync/atomic"
	"time"
)

// CredentialSource yields the admin API access token for a request.
type CredentialSource interface {
	AccessToken(ctx context.Context) (string, error)
}

// StaticCredential is the common deployment shape: a long-lived private-app
// admin token straight from configuration.
type StaticCredential string

func (s StaticCredential) AccessToken(context.Context) (string, error) {
	return string(s), nil
}

type cachedToken struct {
	token     string
	expiresAt time.Time
}

// CachedCredential caches a refreshable token for a short TTL. Refresh races
// are harmless: the token is a performance optimization, not an authorization
// boundary, so last writer wins and no lock is taken.
type CachedCredential struct {
	ttl     time.Duration
	refresh func(ctx context.Context) (string, error)
	current atomic.Value
	now     func() time.Time
}

func NewCachedCredential(ttl time.Duration, refresh func(ctx context.Context) (string, error)) *CachedCredential {
	return &CachedCredential{ttl: ttl, refresh: refresh, now: time.Now}
}

func (c *CachedCredential) AccessToken(ctx context.Context) (string, error) {
	if cached, ok := c.current.Load().(cachedToken); ok && c.now().Before(cached.expiresAt) {
		return cached.token, nil
	}
	token, err := c.refresh(ctx)
	if err != nil {
		return "", err
	}
	c.current.Store(cachedToken{token: token, expiresAt: c.now().Add(c.ttl)})
	return token, nil
}
