package models

import (
	"time"
)

// Plans
const (
	PlanFree = "free"
)

// Workspace is the tenant boundary; every program, customer and token belongs to one
type Workspace struct {
	ID                string     `gorm:"primaryKey" json:"id"`
	Name              string     `gorm:"not null" json:"name"`
	Slug              string     `gorm:"uniqueIndex;not null" json:"slug"`
	Plan              string     `gorm:"not null;default:free" json:"plan"`
	SubscriptionID    *string    `gorm:"uniqueIndex" json:"subscriptionId"`
	BillingCycleStart int        `gorm:"not null;default:1" json:"billingCycleStart"`
	LinksLimit        int        `gorm:"not null" json:"linksLimit"`
	DomainsLimit      int        `gorm:"not null" json:"domainsLimit"`
	UsersLimit        int        `gorm:"not null" json:"usersLimit"`
	PayoutsLimit      int64      `gorm:"not null" json:"payoutsLimit"`
	PaymentFailedAt   *time.Time `json:"paymentFailedAt"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}

// Workspace member roles
const (
	RoleOwner  = "owner"
	RoleMember = "member"
)

// WorkspaceMember links a user to a workspace
type WorkspaceMember struct {
	ID          string    `gorm:"primaryKey" json:"id"`
	WorkspaceID string    `gorm:"uniqueIndex:idx_workspace_member;not null" json:"workspaceId"`
	UserID      string    `gorm:"uniqueIndex:idx_workspace_member;not null" json:"userId"`
	Name        string    `json:"name"`
	Email       string    `gorm:"not null" json:"email"`
	Role        string    `gorm:"not null;default:member" json:"role"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Program is a partner program run by a workspace
type Program struct {
	ID                string    `gorm:"primaryKey" json:"id"`
	WorkspaceID       string    `gorm:"index;not null" json:"workspaceId"`
	Name              string    `gorm:"not null" json:"name"`
	Slug              string    `gorm:"uniqueIndex;not null" json:"slug"`
	DefaultDiscountID *string   `gorm:"uniqueIndex" json:"defaultDiscountId"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// Partner is an affiliate that can enroll in many programs
type Partner struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	Email     *string   `gorm:"uniqueIndex" json:"email"`
	Image     *string   `json:"image"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Customer is an end customer referred through a partner link
type Customer struct {
	ID          string    `gorm:"primaryKey" json:"id"`
	WorkspaceID string    `gorm:"index;not null" json:"workspaceId"`
	Name        string    `json:"name"`
	Email       *string   `json:"email"`
	Avatar      *string   `json:"avatar"`
	CreatedAt   time.Time `json:"createdAt"`
}

// DefaultDomains holds per-workspace flags for the shared short domains
type DefaultDomains struct {
	WorkspaceID string `gorm:"primaryKey" json:"workspaceId"`
	Dublink     bool   `gorm:"not null;default:false" json:"dublink"`
}
