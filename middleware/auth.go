package middleware

import (
	"context"
	"strings"
	"time"

	"github.com/Govind-619/LinkSphere/cache"
	"github.com/Govind-619/LinkSphere/models"
	"github.com/Govind-619/LinkSphere/utils"
	"github.com/gin-gonic/gin"
)

// AuthStore is what authentication reads from the store
type AuthStore interface {
	GetTokenByPartialKey(ctx context.Context, partialKey string) (*models.Token, error)
	TouchToken(ctx context.Context, tokenID string, at time.Time) error
	DefaultProgram(ctx context.Context, workspaceID string) (*models.Program, error)
}

// Authenticator resolves the caller of a request into a WorkspaceContext
type Authenticator struct {
	store     AuthStore
	tokens    cache.TokenCache
	jwtSecret string
	now       func() time.Time
}

// NewAuthenticator creates an Authenticator. tokens may be nil to disable caching.
func NewAuthenticator(s AuthStore, tokens cache.TokenCache, jwtSecret string) *Authenticator {
	return &Authenticator{
		store:     s,
		tokens:    tokens,
		jwtSecret: jwtSecret,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// AuthMiddleware accepts either a session JWT or a workspace API key as the
// bearer credential and stores the resulting WorkspaceContext on the request
func (a *Authenticator) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.LogDebug("Missing Authorization header on %s", c.FullPath())
			utils.Unauthorized(c, utils.ErrUnauthorized)
			return
		}
		credential := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		if credential == "" || credential == authHeader {
			utils.Unauthorized(c, utils.ErrUnauthorized)
			return
		}

		var (
			wctx utils.WorkspaceContext
			err  error
		)
		if utils.IsAPIKey(credential) {
			wctx, err = a.fromAPIKey(c.Request.Context(), credential)
		} else {
			wctx, err = a.fromSession(credential)
		}
		if err != nil {
			utils.RespondError(c, err)
			return
		}

		program, err := a.store.DefaultProgram(c.Request.Context(), wctx.WorkspaceID)
		switch {
		case err == nil:
			wctx.ProgramID = program.ID
		case utils.IsNotFoundError(err):
			utils.LogDebug("Workspace %s has no default program", wctx.WorkspaceID)
		default:
			utils.RespondError(c, err)
			return
		}

		wctx.RequestID = c.GetString(utils.RequestIDKey)
		utils.SetWorkspaceContext(c, wctx)
		c.Next()
	}
}

func (a *Authenticator) fromSession(tokenString string) (utils.WorkspaceContext, error) {
	claims, err := utils.ValidateToken(a.jwtSecret, tokenString)
	if err != nil {
		utils.LogDebug("Invalid session token: %v", err)
		return utils.WorkspaceContext{}, utils.UnauthorizedError(utils.ErrUnauthorized, err)
	}
	return utils.WorkspaceContext{
		WorkspaceID: claims.WorkspaceID,
		ActorID:     claims.UserID,
		ActorType:   utils.ActorUser,
	}, nil
}

func (a *Authenticator) fromAPIKey(ctx context.Context, apiKey string) (utils.WorkspaceContext, error) {
	partial, ok := utils.PartialKey(apiKey)
	if !ok {
		return utils.WorkspaceContext{}, utils.UnauthorizedError("Invalid API key", nil)
	}
	digest := utils.KeyDigest(apiKey)

	if a.tokens != nil {
		cached, hit, err := a.tokens.Get(ctx, partial)
		if err != nil {
			utils.LogWarn("Token cache read failed: %v", err)
		} else if hit && cached.KeyDigest == digest {
			return utils.WorkspaceContext{
				WorkspaceID: cached.WorkspaceID,
				ActorID:     cached.TokenID,
				ActorType:   utils.ActorToken,
			}, nil
		}
	}

	token, err := a.store.GetTokenByPartialKey(ctx, partial)
	if err != nil {
		if utils.IsNotFoundError(err) {
			return utils.WorkspaceContext{}, utils.UnauthorizedError("Invalid API key", nil)
		}
		return utils.WorkspaceContext{}, err
	}
	if !utils.CheckPassword(apiKey, token.HashedKey) {
		return utils.WorkspaceContext{}, utils.UnauthorizedError("Invalid API key", nil)
	}

	if a.tokens != nil {
		err := a.tokens.Set(ctx, partial, cache.CachedToken{
			TokenID:     token.ID,
			WorkspaceID: token.WorkspaceID,
			UserID:      token.UserID,
			RateLimit:   token.RateLimit,
			KeyDigest:   digest,
		}, cache.DefaultTTL)
		if err != nil {
			utils.LogWarn("Token cache write failed: %v", err)
		}
	}
	if err := a.store.TouchToken(ctx, token.ID, a.now()); err != nil {
		utils.LogWarn("Failed to record use of token %s: %v", token.ID, err)
	}

	return utils.WorkspaceContext{
		WorkspaceID: token.WorkspaceID,
		ActorID:     token.ID,
		ActorType:   utils.ActorToken,
	}, nil
}
