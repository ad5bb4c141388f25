package lark

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"lark-ats/internal/common/errors"
	"lark-ats/internal/common/metrics"
)

const (
	tenantTokenPath = "/open-apis/auth/v3/tenant_access_token/internal"

	// Tokens are refreshed this long before Lark expires them.
	tokenRefreshMargin = 5 * time.Minute
)

// TokenStore caches tenant access tokens keyed by app id.
type TokenStore interface {
	Get(ctx context.Context, appID string) (token string, ok bool, err error)
	Set(ctx context.Context, appID, token string, ttl time.Duration) error
	Delete(ctx context.Context, appID string) error
}

type memoryEntry struct {
	token     string
	expiresAt time.Time
}

// MemoryTokenStore keeps tokens for the lifetime of the process.
type MemoryTokenStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (s *MemoryTokenStore) Get(_ context.Context, appID string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[appID]
	if !ok {
		return "", false, nil
	}
	if !s.now().Before(entry.expiresAt) {
		delete(s.entries, appID)
		return "", false, nil
	}
	return entry.token, true, nil
}

func (s *MemoryTokenStore) Set(_ context.Context, appID, token string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[appID] = memoryEntry{token: token, expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *MemoryTokenStore) Delete(_ context.Context, appID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, appID)
	return nil
}

type tenantTokenRequest struct {
	AppID     string `json:"app_id"`
	AppSecret string `json:"app_secret"`
}

type tenantTokenResponse struct {
	Code              int    `json:"code"`
	Msg               string `json:"msg"`
	TenantAccessToken string `json:"tenant_access_token"`
	Expire            int    `json:"expire"` // seconds
}

// tenantToken returns a cached token or fetches a fresh one.
func (c *Client) tenantToken(ctx context.Context) (string, error) {
	c.tokenMu.Lock()
	defer c.tokenMu.Unlock()

	token, ok, err := c.tokens.Get(ctx, c.appID)
	if err != nil {
		c.logger.Warn("Token store read failed, fetching a new token", map[string]interface{}{
			"error": err.Error(),
		})
	} else if ok {
		return token, nil
	}

	token, ttl, err := c.fetchTenantToken(ctx)
	if err != nil {
		return "", err
	}

	if err := c.tokens.Set(ctx, c.appID, token, ttl); err != nil {
		c.logger.Warn("Token store write failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	return token, nil
}

func (c *Client) fetchTenantToken(ctx context.Context) (string, time.Duration, error) {
	resp, err := c.http.DoJSON(ctx, http.MethodPost, c.baseURL+tenantTokenPath, nil, tenantTokenRequest{
		AppID:     c.appID,
		AppSecret: c.appSecret,
	})
	if err != nil {
		return "", 0, errors.NewTransportError("tenant_access_token", err)
	}

	var tokenResp tenantTokenResponse
	if err := json.Unmarshal(resp.Body, &tokenResp); err != nil {
		return "", 0, errors.NewInvalidResponseError("tenant_access_token",
			fmt.Sprintf("status %d: %s", resp.StatusCode, truncate(resp.Body)))
	}

	if tokenResp.Code != 0 {
		return "", 0, errors.NewAuthError(tokenResp.Code, tokenResp.Msg)
	}
	if tokenResp.TenantAccessToken == "" {
		return "", 0, errors.NewInvalidResponseError("tenant_access_token", "empty tenant_access_token")
	}

	metrics.LarkTokenRefreshes.Inc()
	c.logger.Debug("Fetched tenant access token", map[string]interface{}{
		"expireSeconds": tokenResp.Expire,
	})

	return tokenResp.TenantAccessToken, tokenTTL(tokenResp.Expire), nil
}

func tokenTTL(expireSeconds int) time.Duration {
	expire := time.Duration(expireSeconds) * time.Second
	if expire > 2*tokenRefreshMargin {
		return expire - tokenRefreshMargin
	}
	if expire <= 0 {
		return time.Minute
	}
	return expire / 2
}

// Lark codes meaning the tenant token was rejected.
var invalidTokenCodes = map[int]bool{
	99991661: true,
	99991663: true,
	99991664: true,
}

func (c *Client) invalidateToken(ctx context.Context) {
	if err := c.tokens.Delete(ctx, c.appID); err != nil {
		c.logger.Warn("Token store delete failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
}
