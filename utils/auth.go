package utils

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt"
	"golang.org/x/crypto/bcrypt"
)

// API keys look like lsk_<partial><secret>; the partial key is the lookup handle.
const (
	APIKeyPrefix     = "lsk_"
	partialKeyLength = 12
	apiKeySecretLen  = 24
)

// SessionClaims are the claims carried by a user bearer token
type SessionClaims struct {
	UserID      string
	WorkspaceID string
}

// HashPassword creates a bcrypt hash of a secret
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

// CheckPassword compares a secret against a bcrypt hash
func CheckPassword(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// GenerateToken creates a signed session token for a workspace member
func GenerateToken(secret string, claims SessionClaims, ttl time.Duration) (string, error) {
	token := jwt.New(jwt.SigningMethodHS256)

	mc := token.Claims.(jwt.MapClaims)
	mc["user_id"] = claims.UserID
	mc["workspace_id"] = claims.WorkspaceID
	mc["exp"] = time.Now().Add(ttl).Unix()

	return token.SignedString([]byte(secret))
}

// ValidateToken validates a session token and returns its claims
func ValidateToken(secret, tokenString string) (SessionClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil {
		return SessionClaims{}, err
	}

	mc, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return SessionClaims{}, errors.New("invalid token")
	}

	userID, _ := mc["user_id"].(string)
	workspaceID, _ := mc["workspace_id"].(string)
	if userID == "" || workspaceID == "" {
		return SessionClaims{}, errors.New("token is missing user or workspace")
	}
	return SessionClaims{UserID: userID, WorkspaceID: workspaceID}, nil
}

// IsAPIKey reports whether a bearer credential is an API key
func IsAPIKey(credential string) bool {
	return strings.HasPrefix(credential, APIKeyPrefix)
}

// PartialKey returns the lookup handle of an API key
func PartialKey(apiKey string) (string, bool) {
	rest := strings.TrimPrefix(apiKey, APIKeyPrefix)
	if len(rest) <= partialKeyLength || !IsAPIKey(apiKey) {
		return "", false
	}
	return rest[:partialKeyLength], true
}

// GenerateAPIKey returns a new API key together with its partial key
func GenerateAPIKey() (key, partial string, err error) {
	buf := make([]byte, (partialKeyLength+apiKeySecretLen)/2)
	if _, err := rand.Read(buf); err != nil {
		return "", "", err
	}
	key = APIKeyPrefix + hex.EncodeToString(buf)
	partial, _ = PartialKey(key)
	return key, partial, nil
}

// KeyDigest is the non-reversible fingerprint kept in the token cache
func KeyDigest(apiKey string) string {
	sum := sha256.Sum256([]byte(apiKey))
	return hex.EncodeToString(sum[:])
}
