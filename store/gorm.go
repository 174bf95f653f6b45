package store

import (
	"context"
	"time"

	"github.com/Govind-619/LinkSphere/models"
	"github.com/Govind-619/LinkSphere/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore is the postgres-backed Store
type GormStore struct {
	gormRepo
}

// NewGormStore wraps an open connection pool
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{gormRepo{db: db}}
}

// Transaction runs fn inside a database transaction
func (s *GormStore) Transaction(ctx context.Context, fn func(tx Repository) error) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormRepo{db: tx})
	})
	return translateError(err, "transaction")
}

type gormRepo struct {
	db *gorm.DB
}

var forUpdate = clause.Locking{Strength: "UPDATE"}

// Programs

func (r *gormRepo) GetProgram(ctx context.Context, workspaceID, programID string) (*models.Program, error) {
	var p models.Program
	err := r.db.WithContext(ctx).
		Where("id = ? AND workspace_id = ?", programID, workspaceID).
		First(&p).Error
	if err != nil {
		return nil, translateError(err, "program")
	}
	return &p, nil
}

func (r *gormRepo) LockProgram(ctx context.Context, workspaceID, programID string) (*models.Program, error) {
	var p models.Program
	err := r.db.WithContext(ctx).
		Clauses(forUpdate).
		Where("id = ? AND workspace_id = ?", programID, workspaceID).
		First(&p).Error
	if err != nil {
		return nil, translateError(err, "program")
	}
	return &p, nil
}

func (r *gormRepo) DefaultProgram(ctx context.Context, workspaceID string) (*models.Program, error) {
	var p models.Program
	err := r.db.WithContext(ctx).
		Where("workspace_id = ?", workspaceID).
		Order("created_at ASC, id ASC").
		First(&p).Error
	if err != nil {
		return nil, translateError(err, "program")
	}
	return &p, nil
}

func (r *gormRepo) SetDefaultDiscount(ctx context.Context, programID, discountID string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Program{}).
		Where("id = ? AND default_discount_id IS NULL", programID).
		Updates(map[string]any{"default_discount_id": discountID, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return false, translateError(res.Error, "program")
	}
	return res.RowsAffected == 1, nil
}

func (r *gormRepo) ClearDefaultDiscount(ctx context.Context, programID, discountID string) error {
	err := r.db.WithContext(ctx).
		Model(&models.Program{}).
		Where("id = ? AND default_discount_id = ?", programID, discountID).
		Updates(map[string]any{"default_discount_id": nil, "updated_at": time.Now().UTC()}).Error
	return translateError(err, "program")
}

// Enrollments

func (r *gormRepo) LockEnrollments(ctx context.Context, programID string, partnerIDs []string) ([]models.ProgramEnrollment, error) {
	var rows []models.ProgramEnrollment
	// Lock in a stable order so overlapping requests queue instead of deadlocking
	err := r.db.WithContext(ctx).
		Clauses(forUpdate).
		Where("program_id = ? AND partner_id IN ?", programID, partnerIDs).
		Order("partner_id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, translateError(err, "enrollment")
	}
	return rows, nil
}

func (r *gormRepo) AssignDiscount(ctx context.Context, programID string, partnerIDs []string, discountID string) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.ProgramEnrollment{}).
		Where("program_id = ? AND partner_id IN ? AND discount_id IS NULL", programID, partnerIDs).
		Update("discount_id", discountID)
	if res.Error != nil {
		return 0, translateError(res.Error, "enrollment")
	}
	return res.RowsAffected, nil
}

func (r *gormRepo) ClearDiscountAssignments(ctx context.Context, programID, discountID string) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.ProgramEnrollment{}).
		Where("program_id = ? AND discount_id = ?", programID, discountID).
		Update("discount_id", nil)
	if res.Error != nil {
		return 0, translateError(res.Error, "enrollment")
	}
	return res.RowsAffected, nil
}

func (r *gormRepo) ListDiscountPartners(ctx context.Context, programID, discountID string) ([]models.DiscountPartner, error) {
	partners := []models.DiscountPartner{}
	err := r.db.WithContext(ctx).
		Table("program_enrollments e").
		Select("p.id, p.name, p.image, p.email").
		Joins("JOIN partners p ON p.id = e.partner_id").
		Where("e.program_id = ? AND e.discount_id = ?", programID, discountID).
		Order("e.created_at ASC, e.id ASC").
		Scan(&partners).Error
	if err != nil {
		return nil, translateError(err, "enrollment")
	}
	return partners, nil
}

func (r *gormRepo) CountPartnersByDiscount(ctx context.Context, programID string) (map[string]int64, error) {
	var rows []struct {
		DiscountID string
		N          int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.ProgramEnrollment{}).
		Select("discount_id, count(*) AS n").
		Where("program_id = ? AND discount_id IS NOT NULL", programID).
		Group("discount_id").
		Scan(&rows).Error
	if err != nil {
		return nil, translateError(err, "enrollment")
	}
	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.DiscountID] = row.N
	}
	return counts, nil
}

// Discounts

func (r *gormRepo) CreateDiscount(ctx context.Context, d *models.Discount) error {
	return translateError(r.db.WithContext(ctx).Create(d).Error, "discount")
}

func (r *gormRepo) GetDiscount(ctx context.Context, programID, discountID string) (*models.Discount, error) {
	var d models.Discount
	err := r.db.WithContext(ctx).
		Where("id = ? AND program_id = ?", discountID, programID).
		First(&d).Error
	if err != nil {
		return nil, translateError(err, "discount")
	}
	return &d, nil
}

func (r *gormRepo) LockDiscount(ctx context.Context, programID, discountID string) (*models.Discount, error) {
	var d models.Discount
	err := r.db.WithContext(ctx).
		Clauses(forUpdate).
		Where("id = ? AND program_id = ?", discountID, programID).
		First(&d).Error
	if err != nil {
		return nil, translateError(err, "discount")
	}
	return &d, nil
}

func (r *gormRepo) ListDiscounts(ctx context.Context, programID string) ([]models.Discount, error) {
	discounts := []models.Discount{}
	err := r.db.WithContext(ctx).
		Where("program_id = ?", programID).
		Order("created_at DESC, id DESC").
		Find(&discounts).Error
	if err != nil {
		return nil, translateError(err, "discount")
	}
	return discounts, nil
}

func (r *gormRepo) UpdateDiscount(ctx context.Context, d *models.Discount) error {
	err := r.db.WithContext(ctx).
		Model(d).
		Select("amount", "type", "max_duration", "coupon_id", "coupon_test_id", "updated_at").
		Updates(d).Error
	return translateError(err, "discount")
}

func (r *gormRepo) DeleteDiscount(ctx context.Context, programID, discountID string) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND program_id = ?", discountID, programID).
		Delete(&models.Discount{})
	if res.Error != nil {
		return translateError(res.Error, "discount")
	}
	if res.RowsAffected == 0 {
		return utils.NotFoundError(utils.ErrDiscountNotFound, nil)
	}
	return nil
}

func (r *gormRepo) ListOrphanDiscounts(ctx context.Context) ([]models.Discount, error) {
	discounts := []models.Discount{}
	err := r.db.WithContext(ctx).
		Where("NOT EXISTS (SELECT 1 FROM program_enrollments e WHERE e.discount_id = discounts.id)").
		Where("NOT EXISTS (SELECT 1 FROM programs p WHERE p.default_discount_id = discounts.id)").
		Order("program_id ASC, created_at ASC").
		Find(&discounts).Error
	if err != nil {
		return nil, translateError(err, "discount")
	}
	return discounts, nil
}

// Commissions

func (r *gormRepo) commissionScope(ctx context.Context, f CommissionFilter) *gorm.DB {
	q := r.db.WithContext(ctx).
		Table("commissions c").
		Where("c.program_id = ?", f.ProgramID).
		Where("c.earnings > 0").
		Where("c.created_at >= ? AND c.created_at <= ?", f.Start, f.End)

	if f.Status != "" {
		q = q.Where("c.status = ?", f.Status)
	}
	if f.Type != "" {
		q = q.Where("c.type = ?", f.Type)
	}
	if f.CustomerID != "" {
		q = q.Where("c.customer_id = ?", f.CustomerID)
	}
	if f.PayoutID != "" {
		q = q.Where("c.payout_id = ?", f.PayoutID)
	}
	if f.PartnerID != "" {
		q = q.Where("c.partner_id = ?", f.PartnerID)
	}
	return q
}

type commissionJoinRow struct {
	models.Commission
	CustName   *string
	CustEmail  *string
	CustAvatar *string
	PartName   *string
	PartEmail  *string
	PartImage  *string
}

func (r *gormRepo) ListCommissions(ctx context.Context, f CommissionFilter, p utils.Pagination) ([]models.CommissionRow, error) {
	col, ok := sortColumns[f.SortBy]
	if !ok {
		col = sortColumns[SortCreatedAt]
	}
	desc := f.SortOrder != SortAsc

	var rows []commissionJoinRow
	err := r.commissionScope(ctx, f).
		Select(`c.*,
			cu.name AS cust_name, cu.email AS cust_email, cu.avatar AS cust_avatar,
			pa.name AS part_name, pa.email AS part_email, pa.image AS part_image`).
		Joins("LEFT JOIN customers cu ON cu.id = c.customer_id").
		Joins("LEFT JOIN partners pa ON pa.id = c.partner_id").
		Order(clause.OrderByColumn{Column: clause.Column{Table: "c", Name: col}, Desc: desc}).
		Order(clause.OrderByColumn{Column: clause.Column{Table: "c", Name: "id"}, Desc: desc}).
		Offset(p.Offset()).
		Limit(p.PageSize).
		Scan(&rows).Error
	if err != nil {
		return nil, translateError(err, "commission")
	}

	out := make([]models.CommissionRow, 0, len(rows))
	for _, row := range rows {
		cr := models.CommissionRow{Commission: row.Commission}
		if row.CustomerID != nil && row.CustName != nil {
			cr.Customer = &models.CommissionCustomer{ID: *row.CustomerID, Name: *row.CustName, Email: row.CustEmail, Avatar: row.CustAvatar}
		}
		if row.PartnerID != nil && row.PartName != nil {
			cr.Partner = &models.CommissionPartner{ID: *row.PartnerID, Name: *row.PartName, Email: row.PartEmail, Image: row.PartImage}
		}
		out = append(out, cr)
	}
	return out, nil
}

func (r *gormRepo) CountCommissionsByStatus(ctx context.Context, f CommissionFilter) (map[string]int64, error) {
	var rows []struct {
		Status string
		N      int64
	}
	err := r.commissionScope(ctx, f).
		Select("c.status, count(*) AS n").
		Group("c.status").
		Scan(&rows).Error
	if err != nil {
		return nil, translateError(err, "commission")
	}
	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.N
	}
	return counts, nil
}

// Workspaces

func (r *gormRepo) GetWorkspace(ctx context.Context, workspaceID string) (*models.Workspace, error) {
	var w models.Workspace
	if err := r.db.WithContext(ctx).Where("id = ?", workspaceID).First(&w).Error; err != nil {
		return nil, translateError(err, "workspace")
	}
	return &w, nil
}

func (r *gormRepo) UpdateWorkspacePlan(ctx context.Context, workspaceID string, u PlanUpdate) error {
	res := r.db.WithContext(ctx).
		Model(&models.Workspace{}).
		Where("id = ?", workspaceID).
		Updates(map[string]any{
			"plan":                u.Plan,
			"subscription_id":     u.SubscriptionID,
			"billing_cycle_start": u.BillingCycleStart,
			"links_limit":         u.LinksLimit,
			"domains_limit":       u.DomainsLimit,
			"users_limit":         u.UsersLimit,
			"payouts_limit":       u.PayoutsLimit,
			"payment_failed_at":   nil,
			"updated_at":          time.Now().UTC(),
		})
	if res.Error != nil {
		return translateError(res.Error, "workspace")
	}
	if res.RowsAffected == 0 {
		return utils.NotFoundError("workspace not found", nil)
	}
	return nil
}

func (r *gormRepo) SetPaymentFailed(ctx context.Context, workspaceID string, at time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&models.Workspace{}).
		Where("id = ?", workspaceID).
		Updates(map[string]any{"payment_failed_at": at, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return translateError(res.Error, "workspace")
	}
	if res.RowsAffected == 0 {
		return utils.NotFoundError("workspace not found", nil)
	}
	return nil
}

func (r *gormRepo) WorkspaceOwners(ctx context.Context, workspaceID string) ([]models.WorkspaceMember, error) {
	var owners []models.WorkspaceMember
	err := r.db.WithContext(ctx).
		Where("workspace_id = ? AND role = ?", workspaceID, models.RoleOwner).
		Order("created_at ASC").
		Find(&owners).Error
	if err != nil {
		return nil, translateError(err, "workspace member")
	}
	return owners, nil
}

func (r *gormRepo) SetPremiumDomain(ctx context.Context, workspaceID string, enabled bool) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "workspace_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"dublink"}),
		}).
		Create(&models.DefaultDomains{WorkspaceID: workspaceID, Dublink: enabled}).Error
	return translateError(err, "default domains")
}

func (r *gormRepo) GetDefaultDomains(ctx context.Context, workspaceID string) (*models.DefaultDomains, error) {
	var d models.DefaultDomains
	if err := r.db.WithContext(ctx).Where("workspace_id = ?", workspaceID).First(&d).Error; err != nil {
		return nil, translateError(err, "default domains")
	}
	return &d, nil
}

// Tokens

func (r *gormRepo) GetTokenByPartialKey(ctx context.Context, partialKey string) (*models.Token, error) {
	var t models.Token
	if err := r.db.WithContext(ctx).Where("partial_key = ?", partialKey).First(&t).Error; err != nil {
		return nil, translateError(err, "token")
	}
	return &t, nil
}

func (r *gormRepo) ListTokenPartialKeys(ctx context.Context, workspaceID string) ([]string, error) {
	var keys []string
	err := r.db.WithContext(ctx).
		Model(&models.Token{}).
		Where("workspace_id = ?", workspaceID).
		Pluck("partial_key", &keys).Error
	if err != nil {
		return nil, translateError(err, "token")
	}
	return keys, nil
}

func (r *gormRepo) SetTokenRateLimit(ctx context.Context, workspaceID string, rateLimit int) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Token{}).
		Where("workspace_id = ?", workspaceID).
		Update("rate_limit", rateLimit)
	if res.Error != nil {
		return 0, translateError(res.Error, "token")
	}
	return res.RowsAffected, nil
}

func (r *gormRepo) TouchToken(ctx context.Context, tokenID string, at time.Time) error {
	err := r.db.WithContext(ctx).
		Model(&models.Token{}).
		Where("id = ?", tokenID).
		Update("last_used", at).Error
	return translateError(err, "token")
}

// Outbox

func (r *gormRepo) EnqueueOutbox(ctx context.Context, evt *models.OutboxEvent) error {
	return translateError(r.db.WithContext(ctx).Create(evt).Error, "outbox event")
}

func (r *gormRepo) ClaimOutbox(ctx context.Context, now time.Time, lease time.Duration, limit int) ([]models.OutboxEvent, error) {
	if limit <= 0 {
		return nil, nil
	}

	var events []models.OutboxEvent
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Where("dispatched_at IS NULL AND dead_at IS NULL AND available_at <= ?", now).
			Order("available_at ASC, created_at ASC").
			Limit(limit).
			Find(&events).Error
		if err != nil || len(events) == 0 {
			return err
		}

		ids := make([]string, len(events))
		for i, e := range events {
			ids[i] = e.ID
		}
		return tx.Model(&models.OutboxEvent{}).
			Where("id IN ?", ids).
			Update("available_at", now.Add(lease)).Error
	})
	if err != nil {
		return nil, translateError(err, "outbox event")
	}
	return events, nil
}

func (r *gormRepo) MarkOutboxDispatched(ctx context.Context, id string, at time.Time) error {
	err := r.db.WithContext(ctx).
		Model(&models.OutboxEvent{}).
		Where("id = ?", id).
		Updates(map[string]any{"dispatched_at": at, "last_error": nil}).Error
	return translateError(err, "outbox event")
}

func (r *gormRepo) MarkOutboxFailed(ctx context.Context, f OutboxFailure) error {
	updates := map[string]any{
		"attempts":     f.Attempts,
		"last_error":   f.LastError,
		"available_at": f.AvailableAt,
	}
	if f.Dead {
		updates["dead_at"] = f.At
	}
	err := r.db.WithContext(ctx).
		Model(&models.OutboxEvent{}).
		Where("id = ?", f.ID).
		Updates(updates).Error
	return translateError(err, "outbox event")
}

func (r *gormRepo) PruneOutbox(ctx context.Context, dispatchedBefore time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("dispatched_at IS NOT NULL AND dispatched_at < ?", dispatchedBefore).
		Delete(&models.OutboxEvent{})
	if res.Error != nil {
		return 0, translateError(res.Error, "outbox event")
	}
	return res.RowsAffected, nil
}
