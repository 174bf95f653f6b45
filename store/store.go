// Package store persists the partner program data. Every implementation
// honors the same contract: a Transaction either commits all writes made
// through its Repository or none of them.
package store

import (
	"context"
	"time"

	"github.com/Govind-619/LinkSphere/models"
	"github.com/Govind-619/LinkSphere/utils"
)

// ProgramRepository reads and locks programs
type ProgramRepository interface {
	// GetProgram returns NotFound when the program is missing or owned by another workspace.
	GetProgram(ctx context.Context, workspaceID, programID string) (*models.Program, error)
	// LockProgram is GetProgram with a row lock held until the transaction ends.
	LockProgram(ctx context.Context, workspaceID, programID string) (*models.Program, error)
	DefaultProgram(ctx context.Context, workspaceID string) (*models.Program, error)
	// SetDefaultDiscount sets the pointer only while it is empty and reports whether it did.
	SetDefaultDiscount(ctx context.Context, programID, discountID string) (bool, error)
	ClearDefaultDiscount(ctx context.Context, programID, discountID string) error
}

// EnrollmentRepository reads and updates partner enrollments
type EnrollmentRepository interface {
	LockEnrollments(ctx context.Context, programID string, partnerIDs []string) ([]models.ProgramEnrollment, error)
	// AssignDiscount tags enrollments that have no discount yet and returns how many it changed.
	AssignDiscount(ctx context.Context, programID string, partnerIDs []string, discountID string) (int64, error)
	ClearDiscountAssignments(ctx context.Context, programID, discountID string) (int64, error)
	ListDiscountPartners(ctx context.Context, programID, discountID string) ([]models.DiscountPartner, error)
	CountPartnersByDiscount(ctx context.Context, programID string) (map[string]int64, error)
}

// DiscountRepository stores discounts
type DiscountRepository interface {
	CreateDiscount(ctx context.Context, d *models.Discount) error
	GetDiscount(ctx context.Context, programID, discountID string) (*models.Discount, error)
	LockDiscount(ctx context.Context, programID, discountID string) (*models.Discount, error)
	ListDiscounts(ctx context.Context, programID string) ([]models.Discount, error)
	UpdateDiscount(ctx context.Context, d *models.Discount) error
	DeleteDiscount(ctx context.Context, programID, discountID string) error
	// ListOrphanDiscounts returns discounts referenced by no enrollment and no program default.
	ListOrphanDiscounts(ctx context.Context) ([]models.Discount, error)
}

// CommissionRepository runs the commission read queries
type CommissionRepository interface {
	ListCommissions(ctx context.Context, f CommissionFilter, p utils.Pagination) ([]models.CommissionRow, error)
	CountCommissionsByStatus(ctx context.Context, f CommissionFilter) (map[string]int64, error)
}

// WorkspaceRepository covers the billing writes on a workspace and its tokens
type WorkspaceRepository interface {
	GetWorkspace(ctx context.Context, workspaceID string) (*models.Workspace, error)
	UpdateWorkspacePlan(ctx context.Context, workspaceID string, u PlanUpdate) error
	SetPaymentFailed(ctx context.Context, workspaceID string, at time.Time) error
	WorkspaceOwners(ctx context.Context, workspaceID string) ([]models.WorkspaceMember, error)
	SetPremiumDomain(ctx context.Context, workspaceID string, enabled bool) error
	GetDefaultDomains(ctx context.Context, workspaceID string) (*models.DefaultDomains, error)
}

// TokenRepository reads and updates API keys
type TokenRepository interface {
	GetTokenByPartialKey(ctx context.Context, partialKey string) (*models.Token, error)
	ListTokenPartialKeys(ctx context.Context, workspaceID string) ([]string, error)
	SetTokenRateLimit(ctx context.Context, workspaceID string, rateLimit int) (int64, error)
	TouchToken(ctx context.Context, tokenID string, at time.Time) error
}

// OutboxRepository stores pending side effects
type OutboxRepository interface {
	EnqueueOutbox(ctx context.Context, evt *models.OutboxEvent) error
	// ClaimOutbox returns due events and hides them from other claimers for lease.
	ClaimOutbox(ctx context.Context, now time.Time, lease time.Duration, limit int) ([]models.OutboxEvent, error)
	MarkOutboxDispatched(ctx context.Context, id string, at time.Time) error
	MarkOutboxFailed(ctx context.Context, f OutboxFailure) error
	PruneOutbox(ctx context.Context, dispatchedBefore time.Time) (int64, error)
}

// Repository is everything a transaction can touch
type Repository interface {
	ProgramRepository
	EnrollmentRepository
	DiscountRepository
	CommissionRepository
	WorkspaceRepository
	TokenRepository
	OutboxRepository
}

// Store is a Repository that can also open transactions
type Store interface {
	Repository
	// Transaction runs fn atomically. Any error returned by fn rolls back every write.
	Transaction(ctx context.Context, fn func(tx Repository) error) error
}

// CommissionFilter narrows a commission query. Empty strings match anything.
type CommissionFilter struct {
	ProgramID  string
	Status     string
	Type       string
	CustomerID string
	PayoutID   string
	PartnerID  string
	Start      time.Time
	End        time.Time
	SortBy     string
	SortOrder  string
}

// Commission sort keys as accepted by the API
const (
	SortCreatedAt = "createdAt"
	SortAmount    = "amount"
	SortEarnings  = "earnings"
	SortAsc       = "asc"
	SortDesc      = "desc"
)

var sortColumns = map[string]string{
	SortCreatedAt: "created_at",
	SortAmount:    "amount",
	SortEarnings:  "earnings",
}

// IsSortKey reports whether key is a supported commission sort key
func IsSortKey(key string) bool {
	_, ok := sortColumns[key]
	return ok
}

// PlanUpdate is the set of workspace fields written on a plan change
type PlanUpdate struct {
	Plan              string
	SubscriptionID    *string
	BillingCycleStart int
	LinksLimit        int
	DomainsLimit      int
	UsersLimit        int
	PayoutsLimit      int64
}

// OutboxFailure records a failed delivery attempt
type OutboxFailure struct {
	ID          string
	Attempts    int
	LastError   string
	AvailableAt time.Time
	Dead        bool
	At          time.Time
}
