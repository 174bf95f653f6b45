package models

import "time"

// Token is a workspace API key. Only the bcrypt hash of the secret is stored.
type Token struct {
	ID          string     `gorm:"primaryKey" json:"id"`
	WorkspaceID string     `gorm:"index;not null" json:"workspaceId"`
	UserID      string     `json:"userId"`
	Name        string     `gorm:"not null" json:"name"`
	PartialKey  string     `gorm:"uniqueIndex;not null" json:"partialKey"`
	HashedKey   string     `gorm:"not null" json:"-"`
	RateLimit   int        `gorm:"not null" json:"rateLimit"`
	LastUsed    *time.Time `json:"lastUsed"`
	CreatedAt   time.Time  `json:"createdAt"`
}
