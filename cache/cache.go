// Package cache holds verified API keys so that authentication does not
// hit bcrypt and the database on every request.
package cache

import (
	"context"
	"time"
)

// DefaultTTL bounds how long a revoked or re-limited key can keep working
const DefaultTTL = 5 * time.Minute

// CachedToken is what the auth middleware needs to trust an API key
type CachedToken struct {
	TokenID     string `json:"tokenId"`
	WorkspaceID string `json:"workspaceId"`
	UserID      string `json:"userId"`
	RateLimit   int    `json:"rateLimit"`
	// KeyDigest is the sha256 of the full key; a partial-key hit with a
	// different digest is treated as a miss.
	KeyDigest string `json:"keyDigest"`
}

// TokenCache stores verified tokens by partial key
type TokenCache interface {
	Get(ctx context.Context, partialKey string) (*CachedToken, bool, error)
	Set(ctx context.Context, partialKey string, token CachedToken, ttl time.Duration) error
	Expire(ctx context.Context, partialKeys ...string) error
}

func tokenKey(partialKey string) string {
	return "token:" + partialKey
}
