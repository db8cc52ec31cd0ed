package graph

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
)

// tokenExpiryBuffer is how long before expiry a cached token stops being served.
const tokenExpiryBuffer = 5 * time.Minute

// tokenCache is a TokenCredential that remembers tokens per scope set. The lock
// is held across the upstream call so concurrent requests for the same scopes
// produce a single device-code prompt.
type tokenCache struct {
	cred azcore.TokenCredential
	now  func() time.Time

	mu     sync.Mutex
	tokens map[string]azcore.AccessToken
}

func newTokenCache(cred azcore.TokenCredential) *tokenCache {
	return &tokenCache{
		cred:   cred,
		now:    time.Now,
		tokens: make(map[string]azcore.AccessToken),
	}
}

// GetToken implements azcore.TokenCredential.
func (c *tokenCache) GetToken(ctx context.Context, opts policy.TokenRequestOptions) (azcore.AccessToken, error) {
	// A claims challenge asks for a fresh token.
	if opts.Claims != "" {
		return c.cred.GetToken(ctx, opts)
	}

	key := cacheKey(opts)

	c.mu.Lock()
	defer c.mu.Unlock()

	if tok, ok := c.tokens[key]; ok && c.now().Add(tokenExpiryBuffer).Before(tok.ExpiresOn) {
		return tok, nil
	}

	tok, err := c.cred.GetToken(ctx, opts)
	if err != nil {
		return azcore.AccessToken{}, err
	}
	c.tokens[key] = tok
	return tok, nil
}

// cacheKey normalizes the scope set so ordering and case do not matter.
func cacheKey(opts policy.TokenRequestOptions) string {
	seen := make(map[string]struct{}, len(opts.Scopes))
	scopes := make([]string, 0, len(opts.Scopes))
	for _, s := range opts.Scopes {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		scopes = append(scopes, s)
	}
	sort.Strings(scopes)

	key := strings.Join(scopes, " ")
	if opts.TenantID != "" {
		key = strings.ToLower(opts.TenantID) + "|" + key
	}
	if opts.EnableCAE {
		key = "cae|" + key
	}
	return key
}
