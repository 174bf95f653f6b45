package utils

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionToken(t *testing.T) {
	token, err := GenerateToken("secret", SessionClaims{UserID: "user_1", WorkspaceID: "ws_1"}, time.Hour)
	require.NoError(t, err)

	claims, err := ValidateToken("secret", token)
	require.NoError(t, err)
	assert.Equal(t, SessionClaims{UserID: "user_1", WorkspaceID: "ws_1"}, claims)

	_, err = ValidateToken("other", token)
	assert.Error(t, err)

	expired, err := GenerateToken("secret", SessionClaims{UserID: "user_1", WorkspaceID: "ws_1"}, -time.Minute)
	require.NoError(t, err)
	_, err = ValidateToken("secret", expired)
	assert.Error(t, err)

	noWorkspace, err := GenerateToken("secret", SessionClaims{UserID: "user_1"}, time.Hour)
	require.NoError(t, err)
	_, err = ValidateToken("secret", noWorkspace)
	assert.Error(t, err)
}

func TestAPIKeys(t *testing.T) {
	key, partial, err := GenerateAPIKey()
	require.NoError(t, err)
	assert.True(t, IsAPIKey(key))
	assert.True(t, strings.HasPrefix(key, APIKeyPrefix+partial))
	assert.Len(t, partial, 12)

	got, ok := PartialKey(key)
	require.True(t, ok)
	assert.Equal(t, partial, got)

	_, ok = PartialKey("lsk_short")
	assert.False(t, ok)
	_, ok = PartialKey("sk_live_0123456789abcdef")
	assert.False(t, ok)

	hash, err := HashPassword(key)
	require.NoError(t, err)
	assert.True(t, CheckPassword(key, hash))
	assert.False(t, CheckPassword(key+"x", hash))

	assert.Equal(t, KeyDigest(key), KeyDigest(key))
	assert.NotEqual(t, KeyDigest(key), KeyDigest(key+"x"))
}
