package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-jose/go-jose/v3"
)

// KeyCache holds a provider's published verification keys indexed by key id.
// It is shared read-mostly across all in-flight requests; the only mutation
// is a wholesale key-set replacement, matching provider rotation semantics.
// No TTL is modeled: staleness is only ever detected by an unknown kid.
type KeyCache struct {
	jwksURL string
	client  *http.Client
	logger  *slog.Logger

	mu   sync.RWMutex
	keys map[string]jose.JSONWebKey
}

// NewKeyCache eagerly fetches the full key set from jwksURL. A failed fetch
// is fatal: adapters refuse to construct without verification keys.
func NewKeyCache(ctx context.Context, jwksURL string, client *http.Client, logger *slog.Logger) (*KeyCache, error) {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	c := &KeyCache{jwksURL: jwksURL, client: client, logger: logger}
	if err := c.Refresh(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// Get returns the cached key for kid. It never touches the network, which
// makes it the fast path for local token decoding.
func (c *KeyCache) Get(kid string) (*jose.JSONWebKey, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	key, ok := c.keys[kid]
	if !ok {
		return nil, false
	}
	return &key, true
}

// GetWithRefresh looks up kid, refetching the whole key set once on a miss
// under the assumption that a miss means the provider rotated keys. A second
// miss is a permanent ErrKidNotFound for this call; no backoff, no retry.
// Concurrent misses may each refetch independently; replacements are
// idempotent so that is an accepted inefficiency, not a correctness issue.
func (c *KeyCache) GetWithRefresh(ctx context.Context, kid string) (*jose.JSONWebKey, error) {
	if key, ok := c.Get(kid); ok {
		return key, nil
	}
	c.logger.Debug("unknown key id, refreshing key set", "kid", kid)
	if err := c.Refresh(ctx); err != nil {
		return nil, err
	}
	if key, ok := c.Get(kid); ok {
		return key, nil
	}
	return nil, ErrKidNotFound
}

// Refresh refetches the published key set and swaps it in wholesale. Readers
// holding the previous map are unaffected; nobody ever observes a partially
// populated set.
func (c *KeyCache) Refresh(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.jwksURL, nil)
	if err != nil {
		return fmt.Errorf("build jwks request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch jwks: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("jwks fetch failed: %s", resp.Status)
	}

	var set jose.JSONWebKeySet
	if err := json.NewDecoder(resp.Body).Decode(&set); err != nil {
		return fmt.Errorf("decode jwks: %w", err)
	}

	keys := make(map[string]jose.JSONWebKey, len(set.Keys))
	for _, key := range set.Keys {
		if key.Use == "sig" || key.Use == "" {
			keys[key.KeyID] = key
		}
	}

	c.mu.Lock()
	c.keys = keys
	c.mu.Unlock()
	return nil
}
