package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Govind-619/LinkSphere/cache"
	"github.com/Govind-619/LinkSphere/models"
	"github.com/Govind-619/LinkSphere/store"
	"github.com/Govind-619/LinkSphere/utils"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "jwt-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

type authFixture struct {
	store  *store.MemoryStore
	tokens *cache.MemoryTokenCache
	apiKey string
	router *gin.Engine
	seen   *utils.WorkspaceContext
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	key, partial, err := utils.GenerateAPIKey()
	require.NoError(t, err)
	hash, err := utils.HashPassword(key)
	require.NoError(t, err)

	s := store.NewMemoryStore()
	require.NoError(t, s.Seed(func(seed *store.MemorySeed) error {
		seed.Workspace(models.Workspace{ID: "ws_1", Name: "Acme", Slug: "acme"})
		seed.Program(models.Program{ID: "prog_1", WorkspaceID: "ws_1"})
		return seed.Token(models.Token{ID: "tok_1", WorkspaceID: "ws_1", UserID: "user_1", Name: "ci", PartialKey: partial, HashedKey: hash, RateLimit: 60})
	}))

	f := &authFixture{store: s, tokens: cache.NewMemoryTokenCache(), apiKey: key}
	auth := NewAuthenticator(s, f.tokens, testSecret)

	f.router = gin.New()
	f.router.Use(utils.RequestIDMiddleware())
	f.router.GET("/whoami", auth.AuthMiddleware(), func(c *gin.Context) {
		wctx, ok := utils.GetWorkspaceContext(c)
		require.True(t, ok)
		f.seen = &wctx
		c.Status(http.StatusNoContent)
	})
	return f
}

func (f *authFixture) call(authorization string) *httptest.ResponseRecorder {
	f.seen = nil
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("X-Request-ID", "req_42")
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware_SessionToken(t *testing.T) {
	f := newAuthFixture(t)
	token, err := utils.GenerateToken(testSecret, utils.SessionClaims{UserID: "user_1", WorkspaceID: "ws_1"}, time.Hour)
	require.NoError(t, err)

	w := f.call("Bearer " + token)
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, utils.WorkspaceContext{
		WorkspaceID: "ws_1",
		ProgramID:   "prog_1",
		ActorID:     "user_1",
		ActorType:   utils.ActorUser,
		RequestID:   "req_42",
	}, *f.seen)
}

func TestAuthMiddleware_APIKeyIsCached(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	w := f.call("Bearer " + f.apiKey)
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "tok_1", f.seen.ActorID)
	assert.Equal(t, utils.ActorToken, f.seen.ActorType)
	assert.Equal(t, "prog_1", f.seen.ProgramID)

	tok, _ := f.store.Token("tok_1")
	assert.NotNil(t, tok.LastUsed)

	partial, _ := utils.PartialKey(f.apiKey)
	cached, hit, err := f.tokens.Get(ctx, partial)
	require.NoError(t, err)
	require.True(t, hit)
	assert.Equal(t, utils.KeyDigest(f.apiKey), cached.KeyDigest)

	// A key sharing the partial but not the secret misses the cache and fails bcrypt.
	forged := f.apiKey[:len(f.apiKey)-1] + "z"
	w = f.call("Bearer " + forged)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddleware_Rejects(t *testing.T) {
	f := newAuthFixture(t)
	otherSecret, err := utils.GenerateToken("other", utils.SessionClaims{UserID: "user_1", WorkspaceID: "ws_1"}, time.Hour)
	require.NoError(t, err)

	for name, header := range map[string]string{
		"missing":         "",
		"not bearer":      "Basic dXNlcjpwYXNz",
		"bad signature":   "Bearer " + otherSecret,
		"unknown api key": "Bearer lsk_000000000000000000000000000000000000",
		"truncated key":   "Bearer lsk_abc",
	} {
		t.Run(name, func(t *testing.T) {
			w := f.call(header)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Contains(t, w.Body.String(), utils.CodeUnauthorized)
			assert.Nil(t, f.seen)
		})
	}
}
