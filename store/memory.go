package store

import (
	"context"
	"maps"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Govind-619/LinkSphere/models"
	"github.com/Govind-619/LinkSphere/utils"
)

// MemoryStore keeps everything in process. A single mutex is held for the
// whole of a transaction, so transactions are serializable; a failed
// transaction restores the snapshot taken when it began.
type MemoryStore struct {
	mu   sync.Mutex
	data *memData
}

type memData struct {
	workspaces  map[string]models.Workspace
	members     map[string]models.WorkspaceMember
	programs    map[string]models.Program
	partners    map[string]models.Partner
	enrollments map[string]models.ProgramEnrollment
	discounts   map[string]models.Discount
	customers   map[string]models.Customer
	commissions map[string]models.Commission
	tokens      map[string]models.Token
	domains     map[string]models.DefaultDomains
	outbox      map[string]models.OutboxEvent
}

func newMemData() *memData {
	return &memData{
		workspaces:  map[string]models.Workspace{},
		members:     map[string]models.WorkspaceMember{},
		programs:    map[string]models.Program{},
		partners:    map[string]models.Partner{},
		enrollments: map[string]models.ProgramEnrollment{},
		discounts:   map[string]models.Discount{},
		customers:   map[string]models.Customer{},
		commissions: map[string]models.Commission{},
		tokens:      map[string]models.Token{},
		domains:     map[string]models.DefaultDomains{},
		outbox:      map[string]models.OutboxEvent{},
	}
}

// Rows hold pointer fields, but nothing ever writes through them, so a
// shallow copy of each map is an independent snapshot.
func (d *memData) clone() *memData {
	return &memData{
		workspaces:  maps.Clone(d.workspaces),
		members:     maps.Clone(d.members),
		programs:    maps.Clone(d.programs),
		partners:    maps.Clone(d.partners),
		enrollments: maps.Clone(d.enrollments),
		discounts:   maps.Clone(d.discounts),
		customers:   maps.Clone(d.customers),
		commissions: maps.Clone(d.commissions),
		tokens:      maps.Clone(d.tokens),
		domains:     maps.Clone(d.domains),
		outbox:      maps.Clone(d.outbox),
	}
}

// NewMemoryStore returns an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: newMemData()}
}

// Transaction runs fn with the store locked
func (s *MemoryStore) Transaction(ctx context.Context, fn func(tx Repository) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return translateError(err, "transaction")
	}

	snapshot := s.data.clone()
	if err := fn(&memRepo{d: s.data}); err != nil {
		s.data = snapshot
		return err
	}
	return nil
}

func (s *MemoryStore) view() (*memRepo, func()) {
	s.mu.Lock()
	return &memRepo{d: s.data}, s.mu.Unlock
}

// Seeding, used by tests and the memory-backed server

// Seed applies fn to the store as one transaction
func (s *MemoryStore) Seed(fn func(seed *MemorySeed) error) error {
	return s.Transaction(context.Background(), func(tx Repository) error {
		return fn(&MemorySeed{d: tx.(*memRepo).d})
	})
}

// MemorySeed inserts rows directly, enforcing the unique constraints of the schema
type MemorySeed struct {
	d *memData
}

func seedTime(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t
}

func (m *MemorySeed) Workspace(w models.Workspace) {
	w.CreatedAt = seedTime(w.CreatedAt)
	w.UpdatedAt = w.CreatedAt
	if w.Plan == "" {
		w.Plan = models.PlanFree
	}
	m.d.workspaces[w.ID] = w
}

func (m *MemorySeed) Member(wm models.WorkspaceMember) {
	wm.CreatedAt = seedTime(wm.CreatedAt)
	m.d.members[wm.ID] = wm
}

func (m *MemorySeed) Program(p models.Program) {
	p.CreatedAt = seedTime(p.CreatedAt)
	p.UpdatedAt = p.CreatedAt
	m.d.programs[p.ID] = p
}

func (m *MemorySeed) Partner(p models.Partner) {
	p.CreatedAt = seedTime(p.CreatedAt)
	p.UpdatedAt = p.CreatedAt
	m.d.partners[p.ID] = p
}

func (m *MemorySeed) Enrollment(e models.ProgramEnrollment) error {
	for _, other := range m.d.enrollments {
		if other.ProgramID == e.ProgramID && other.PartnerID == e.PartnerID && other.ID != e.ID {
			return utils.ConflictError("partner already enrolled in program", nil)
		}
	}
	e.CreatedAt = seedTime(e.CreatedAt)
	if e.Status == "" {
		e.Status = models.EnrollmentApproved
	}
	m.d.enrollments[e.ID] = e
	return nil
}

func (m *MemorySeed) Discount(d models.Discount) {
	d.CreatedAt = seedTime(d.CreatedAt)
	d.UpdatedAt = d.CreatedAt
	m.d.discounts[d.ID] = d
}

func (m *MemorySeed) Customer(c models.Customer) {
	c.CreatedAt = seedTime(c.CreatedAt)
	m.d.customers[c.ID] = c
}

func (m *MemorySeed) Commission(c models.Commission) {
	c.CreatedAt = seedTime(c.CreatedAt)
	c.UpdatedAt = c.CreatedAt
	if c.Currency == "" {
		c.Currency = "usd"
	}
	m.d.commissions[c.ID] = c
}

func (m *MemorySeed) Token(t models.Token) error {
	for _, other := range m.d.tokens {
		if other.PartialKey == t.PartialKey && other.ID != t.ID {
			return utils.ConflictError("duplicate partial key", nil)
		}
	}
	t.CreatedAt = seedTime(t.CreatedAt)
	m.d.tokens[t.ID] = t
	return nil
}

// Outbox returns every outbox row ordered by creation, for inspection
func (s *MemoryStore) Outbox() []models.OutboxEvent {
	r, unlock := s.view()
	defer unlock()
	events := slices.Collect(maps.Values(r.d.outbox))
	sort.Slice(events, func(i, j int) bool {
		if !events[i].CreatedAt.Equal(events[j].CreatedAt) {
			return events[i].CreatedAt.Before(events[j].CreatedAt)
		}
		return events[i].ID < events[j].ID
	})
	return events
}

// Enrollment returns one enrollment row by program and partner
func (s *MemoryStore) Enrollment(programID, partnerID string) (models.ProgramEnrollment, bool) {
	r, unlock := s.view()
	defer unlock()
	for _, e := range r.d.enrollments {
		if e.ProgramID == programID && e.PartnerID == partnerID {
			return e, true
		}
	}
	return models.ProgramEnrollment{}, false
}

// Token returns a token by id
func (s *MemoryStore) Token(id string) (models.Token, bool) {
	r, unlock := s.view()
	defer unlock()
	t, ok := r.d.tokens[id]
	return t, ok
}

// Locked wrappers. Each non-transactional call is its own tiny transaction.

func (s *MemoryStore) GetProgram(ctx context.Context, workspaceID, programID string) (*models.Program, error) {
	r, unlock := s.view()
	defer unlock()
	return r.GetProgram(ctx, workspaceID, programID)
}

func (s *MemoryStore) LockProgram(ctx context.Context, workspaceID, programID string) (*models.Program, error) {
	r, unlock := s.view()
	defer unlock()
	return r.LockProgram(ctx, workspaceID, programID)
}

func (s *MemoryStore) DefaultProgram(ctx context.Context, workspaceID string) (*models.Program, error) {
	r, unlock := s.view()
	defer unlock()
	return r.DefaultProgram(ctx, workspaceID)
}

func (s *MemoryStore) SetDefaultDiscount(ctx context.Context, programID, discountID string) (bool, error) {
	r, unlock := s.view()
	defer unlock()
	return r.SetDefaultDiscount(ctx, programID, discountID)
}

func (s *MemoryStore) ClearDefaultDiscount(ctx context.Context, programID, discountID string) error {
	r, unlock := s.view()
	defer unlock()
	return r.ClearDefaultDiscount(ctx, programID, discountID)
}

func (s *MemoryStore) LockEnrollments(ctx context.Context, programID string, partnerIDs []string) ([]models.ProgramEnrollment, error) {
	r, unlock := s.view()
	defer unlock()
	return r.LockEnrollments(ctx, programID, partnerIDs)
}

func (s *MemoryStore) AssignDiscount(ctx context.Context, programID string, partnerIDs []string, discountID string) (int64, error) {
	r, unlock := s.view()
	defer unlock()
	return r.AssignDiscount(ctx, programID, partnerIDs, discountID)
}

func (s *MemoryStore) ClearDiscountAssignments(ctx context.Context, programID, discountID string) (int64, error) {
	r, unlock := s.view()
	defer unlock()
	return r.ClearDiscountAssignments(ctx, programID, discountID)
}

func (s *MemoryStore) ListDiscountPartners(ctx context.Context, programID, discountID string) ([]models.DiscountPartner, error) {
	r, unlock := s.view()
	defer unlock()
	return r.ListDiscountPartners(ctx, programID, discountID)
}

func (s *MemoryStore) CountPartnersByDiscount(ctx context.Context, programID string) (map[string]int64, error) {
	r, unlock := s.view()
	defer unlock()
	return r.CountPartnersByDiscount(ctx, programID)
}

func (s *MemoryStore) CreateDiscount(ctx context.Context, d *models.Discount) error {
	r, unlock := s.view()
	defer unlock()
	return r.CreateDiscount(ctx, d)
}

func (s *MemoryStore) GetDiscount(ctx context.Context, programID, discountID string) (*models.Discount, error) {
	r, unlock := s.view()
	defer unlock()
	return r.GetDiscount(ctx, programID, discountID)
}

func (s *MemoryStore) LockDiscount(ctx context.Context, programID, discountID string) (*models.Discount, error) {
	r, unlock := s.view()
	defer unlock()
	return r.LockDiscount(ctx, programID, discountID)
}

func (s *MemoryStore) ListDiscounts(ctx context.Context, programID string) ([]models.Discount, error) {
	r, unlock := s.view()
	defer unlock()
	return r.ListDiscounts(ctx, programID)
}

func (s *MemoryStore) UpdateDiscount(ctx context.Context, d *models.Discount) error {
	r, unlock := s.view()
	defer unlock()
	return r.UpdateDiscount(ctx, d)
}

func (s *MemoryStore) DeleteDiscount(ctx context.Context, programID, discountID string) error {
	r, unlock := s.view()
	defer unlock()
	return r.DeleteDiscount(ctx, programID, discountID)
}

func (s *MemoryStore) ListOrphanDiscounts(ctx context.Context) ([]models.Discount, error) {
	r, unlock := s.view()
	defer unlock()
	return r.ListOrphanDiscounts(ctx)
}

func (s *MemoryStore) ListCommissions(ctx context.Context, f CommissionFilter, p utils.Pagination) ([]models.CommissionRow, error) {
	r, unlock := s.view()
	defer unlock()
	return r.ListCommissions(ctx, f, p)
}

func (s *MemoryStore) CountCommissionsByStatus(ctx context.Context, f CommissionFilter) (map[string]int64, error) {
	r, unlock := s.view()
	defer unlock()
	return r.CountCommissionsByStatus(ctx, f)
}

func (s *MemoryStore) GetWorkspace(ctx context.Context, workspaceID string) (*models.Workspace, error) {
	r, unlock := s.view()
	defer unlock()
	return r.GetWorkspace(ctx, workspaceID)
}

func (s *MemoryStore) UpdateWorkspacePlan(ctx context.Context, workspaceID string, u PlanUpdate) error {
	r, unlock := s.view()
	defer unlock()
	return r.UpdateWorkspacePlan(ctx, workspaceID, u)
}

func (s *MemoryStore) SetPaymentFailed(ctx context.Context, workspaceID string, at time.Time) error {
	r, unlock := s.view()
	defer unlock()
	return r.SetPaymentFailed(ctx, workspaceID, at)
}

func (s *MemoryStore) WorkspaceOwners(ctx context.Context, workspaceID string) ([]models.WorkspaceMember, error) {
	r, unlock := s.view()
	defer unlock()
	return r.WorkspaceOwners(ctx, workspaceID)
}

func (s *MemoryStore) SetPremiumDomain(ctx context.Context, workspaceID string, enabled bool) error {
	r, unlock := s.view()
	defer unlock()
	return r.SetPremiumDomain(ctx, workspaceID, enabled)
}

func (s *MemoryStore) GetDefaultDomains(ctx context.Context, workspaceID string) (*models.DefaultDomains, error) {
	r, unlock := s.view()
	defer unlock()
	return r.GetDefaultDomains(ctx, workspaceID)
}

func (s *MemoryStore) GetTokenByPartialKey(ctx context.Context, partialKey string) (*models.Token, error) {
	r, unlock := s.view()
	defer unlock()
	return r.GetTokenByPartialKey(ctx, partialKey)
}

func (s *MemoryStore) ListTokenPartialKeys(ctx context.Context, workspaceID string) ([]string, error) {
	r, unlock := s.view()
	defer unlock()
	return r.ListTokenPartialKeys(ctx, workspaceID)
}

func (s *MemoryStore) SetTokenRateLimit(ctx context.Context, workspaceID string, rateLimit int) (int64, error) {
	r, unlock := s.view()
	defer unlock()
	return r.SetTokenRateLimit(ctx, workspaceID, rateLimit)
}

func (s *MemoryStore) TouchToken(ctx context.Context, tokenID string, at time.Time) error {
	r, unlock := s.view()
	defer unlock()
	return r.TouchToken(ctx, tokenID, at)
}

func (s *MemoryStore) EnqueueOutbox(ctx context.Context, evt *models.OutboxEvent) error {
	r, unlock := s.view()
	defer unlock()
	return r.EnqueueOutbox(ctx, evt)
}

func (s *MemoryStore) ClaimOutbox(ctx context.Context, now time.Time, lease time.Duration, limit int) ([]models.OutboxEvent, error) {
	r, unlock := s.view()
	defer unlock()
	return r.ClaimOutbox(ctx, now, lease, limit)
}

func (s *MemoryStore) MarkOutboxDispatched(ctx context.Context, id string, at time.Time) error {
	r, unlock := s.view()
	defer unlock()
	return r.MarkOutboxDispatched(ctx, id, at)
}

func (s *MemoryStore) MarkOutboxFailed(ctx context.Context, f OutboxFailure) error {
	r, unlock := s.view()
	defer unlock()
	return r.MarkOutboxFailed(ctx, f)
}

func (s *MemoryStore) PruneOutbox(ctx context.Context, dispatchedBefore time.Time) (int64, error) {
	r, unlock := s.view()
	defer unlock()
	return r.PruneOutbox(ctx, dispatchedBefore)
}

// memRepo operates on the data without locking; the caller holds the mutex.
type memRepo struct {
	d *memData
}

func (r *memRepo) GetProgram(_ context.Context, workspaceID, programID string) (*models.Program, error) {
	p, ok := r.d.programs[programID]
	if !ok || p.WorkspaceID != workspaceID {
		return nil, utils.NotFoundError(utils.ErrProgramNotFound, nil)
	}
	return &p, nil
}

func (r *memRepo) LockProgram(ctx context.Context, workspaceID, programID string) (*models.Program, error) {
	return r.GetProgram(ctx, workspaceID, programID)
}

func (r *memRepo) DefaultProgram(_ context.Context, workspaceID string) (*models.Program, error) {
	var best *models.Program
	for _, p := range r.d.programs {
		if p.WorkspaceID != workspaceID {
			continue
		}
		if best == nil || p.CreatedAt.Before(best.CreatedAt) ||
			(p.CreatedAt.Equal(best.CreatedAt) && p.ID < best.ID) {
			p := p
			best = &p
		}
	}
	if best == nil {
		return nil, utils.NotFoundError(utils.ErrProgramNotFound, nil)
	}
	return best, nil
}

func (r *memRepo) SetDefaultDiscount(_ context.Context, programID, discountID string) (bool, error) {
	p, ok := r.d.programs[programID]
	if !ok || p.DefaultDiscountID != nil {
		return false, nil
	}
	p.DefaultDiscountID = &discountID
	p.UpdatedAt = time.Now().UTC()
	r.d.programs[programID] = p
	return true, nil
}

func (r *memRepo) ClearDefaultDiscount(_ context.Context, programID, discountID string) error {
	p, ok := r.d.programs[programID]
	if !ok || p.DefaultDiscountID == nil || *p.DefaultDiscountID != discountID {
		return nil
	}
	p.DefaultDiscountID = nil
	p.UpdatedAt = time.Now().UTC()
	r.d.programs[programID] = p
	return nil
}

func (r *memRepo) LockEnrollments(_ context.Context, programID string, partnerIDs []string) ([]models.ProgramEnrollment, error) {
	var rows []models.ProgramEnrollment
	for _, e := range r.d.enrollments {
		if e.ProgramID == programID && slices.Contains(partnerIDs, e.PartnerID) {
			rows = append(rows, e)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].PartnerID < rows[j].PartnerID })
	return rows, nil
}

func (r *memRepo) AssignDiscount(_ context.Context, programID string, partnerIDs []string, discountID string) (int64, error) {
	var n int64
	for id, e := range r.d.enrollments {
		if e.ProgramID != programID || e.DiscountID != nil || !slices.Contains(partnerIDs, e.PartnerID) {
			continue
		}
		e.DiscountID = &discountID
		r.d.enrollments[id] = e
		n++
	}
	return n, nil
}

func (r *memRepo) ClearDiscountAssignments(_ context.Context, programID, discountID string) (int64, error) {
	var n int64
	for id, e := range r.d.enrollments {
		if e.ProgramID == programID && e.DiscountID != nil && *e.DiscountID == discountID {
			e.DiscountID = nil
			r.d.enrollments[id] = e
			n++
		}
	}
	return n, nil
}

func (r *memRepo) ListDiscountPartners(_ context.Context, programID, discountID string) ([]models.DiscountPartner, error) {
	var rows []models.ProgramEnrollment
	for _, e := range r.d.enrollments {
		if e.ProgramID == programID && e.DiscountID != nil && *e.DiscountID == discountID {
			rows = append(rows, e)
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].CreatedAt.Equal(rows[j].CreatedAt) {
			return rows[i].CreatedAt.Before(rows[j].CreatedAt)
		}
		return rows[i].ID < rows[j].ID
	})

	partners := []models.DiscountPartner{}
	for _, e := range rows {
		p, ok := r.d.partners[e.PartnerID]
		if !ok {
			continue
		}
		partners = append(partners, models.DiscountPartner{ID: p.ID, Name: p.Name, Image: p.Image, Email: p.Email})
	}
	return partners, nil
}

func (r *memRepo) CountPartnersByDiscount(_ context.Context, programID string) (map[string]int64, error) {
	counts := map[string]int64{}
	for _, e := range r.d.enrollments {
		if e.ProgramID == programID && e.DiscountID != nil {
			counts[*e.DiscountID]++
		}
	}
	return counts, nil
}

func (r *memRepo) CreateDiscount(_ context.Context, d *models.Discount) error {
	if _, exists := r.d.discounts[d.ID]; exists {
		return utils.ConflictError("concurrent update on discount", nil)
	}
	now := time.Now().UTC()
	if d.CreatedAt.IsZero() {
		d.CreatedAt = now
	}
	d.UpdatedAt = d.CreatedAt
	r.d.discounts[d.ID] = *d
	return nil
}

func (r *memRepo) GetDiscount(_ context.Context, programID, discountID string) (*models.Discount, error) {
	d, ok := r.d.discounts[discountID]
	if !ok || d.ProgramID != programID {
		return nil, utils.NotFoundError(utils.ErrDiscountNotFound, nil)
	}
	return &d, nil
}

func (r *memRepo) LockDiscount(ctx context.Context, programID, discountID string) (*models.Discount, error) {
	return r.GetDiscount(ctx, programID, discountID)
}

func (r *memRepo) ListDiscounts(_ context.Context, programID string) ([]models.Discount, error) {
	discounts := []models.Discount{}
	for _, d := range r.d.discounts {
		if d.ProgramID == programID {
			discounts = append(discounts, d)
		}
	}
	sort.Slice(discounts, func(i, j int) bool {
		if !discounts[i].CreatedAt.Equal(discounts[j].CreatedAt) {
			return discounts[i].CreatedAt.After(discounts[j].CreatedAt)
		}
		return discounts[i].ID > discounts[j].ID
	})
	return discounts, nil
}

func (r *memRepo) UpdateDiscount(_ context.Context, d *models.Discount) error {
	existing, ok := r.d.discounts[d.ID]
	if !ok || existing.ProgramID != d.ProgramID {
		return utils.NotFoundError(utils.ErrDiscountNotFound, nil)
	}
	existing.Amount = d.Amount
	existing.Type = d.Type
	existing.MaxDuration = d.MaxDuration
	existing.CouponID = d.CouponID
	existing.CouponTestID = d.CouponTestID
	existing.UpdatedAt = d.UpdatedAt
	r.d.discounts[d.ID] = existing
	return nil
}

func (r *memRepo) DeleteDiscount(_ context.Context, programID, discountID string) error {
	d, ok := r.d.discounts[discountID]
	if !ok || d.ProgramID != programID {
		return utils.NotFoundError(utils.ErrDiscountNotFound, nil)
	}
	delete(r.d.discounts, discountID)
	return nil
}

func (r *memRepo) ListOrphanDiscounts(_ context.Context) ([]models.Discount, error) {
	referenced := map[string]bool{}
	for _, e := range r.d.enrollments {
		if e.DiscountID != nil {
			referenced[*e.DiscountID] = true
		}
	}
	for _, p := range r.d.programs {
		if p.DefaultDiscountID != nil {
			referenced[*p.DefaultDiscountID] = true
		}
	}

	orphans := []models.Discount{}
	for _, d := range r.d.discounts {
		if !referenced[d.ID] {
			orphans = append(orphans, d)
		}
	}
	sort.Slice(orphans, func(i, j int) bool {
		if orphans[i].ProgramID != orphans[j].ProgramID {
			return orphans[i].ProgramID < orphans[j].ProgramID
		}
		return orphans[i].CreatedAt.Before(orphans[j].CreatedAt)
	})
	return orphans, nil
}

func eqOpt(want string, got *string) bool {
	if want == "" {
		return true
	}
	return got != nil && *got == want
}

func (r *memRepo) matchCommissions(f CommissionFilter) []models.Commission {
	var out []models.Commission
	for _, c := range r.d.commissions {
		switch {
		case c.ProgramID != f.ProgramID,
			c.Earnings <= 0,
			c.CreatedAt.Before(f.Start),
			c.CreatedAt.After(f.End),
			f.Status != "" && c.Status != f.Status,
			f.Type != "" && c.Type != f.Type,
			!eqOpt(f.CustomerID, c.CustomerID),
			!eqOpt(f.PayoutID, c.PayoutID),
			!eqOpt(f.PartnerID, c.PartnerID):
			continue
		}
		out = append(out, c)
	}
	return out
}

func compareCommissions(a, b models.Commission, sortBy string) int {
	switch sortBy {
	case SortAmount:
		if a.Amount != b.Amount {
			return cmpInt64(a.Amount, b.Amount)
		}
	case SortEarnings:
		if a.Earnings != b.Earnings {
			return cmpInt64(a.Earnings, b.Earnings)
		}
	default:
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
	}
	return strings.Compare(a.ID, b.ID)
}

func cmpInt64(a, b int64) int {
	if a < b {
		return -1
	}
	return 1
}

func (r *memRepo) ListCommissions(_ context.Context, f CommissionFilter, p utils.Pagination) ([]models.CommissionRow, error) {
	matched := r.matchCommissions(f)
	desc := f.SortOrder != SortAsc
	sort.Slice(matched, func(i, j int) bool {
		c := compareCommissions(matched[i], matched[j], f.SortBy)
		if desc {
			return c > 0
		}
		return c < 0
	})

	rows := []models.CommissionRow{}
	start := p.Offset()
	if start >= len(matched) {
		return rows, nil
	}
	end := min(start+p.PageSize, len(matched))

	for _, c := range matched[start:end] {
		row := models.CommissionRow{Commission: c}
		if c.CustomerID != nil {
			if cu, ok := r.d.customers[*c.CustomerID]; ok {
				row.Customer = &models.CommissionCustomer{ID: cu.ID, Name: cu.Name, Email: cu.Email, Avatar: cu.Avatar}
			}
		}
		if c.PartnerID != nil {
			if pa, ok := r.d.partners[*c.PartnerID]; ok {
				row.Partner = &models.CommissionPartner{ID: pa.ID, Name: pa.Name, Email: pa.Email, Image: pa.Image}
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (r *memRepo) CountCommissionsByStatus(_ context.Context, f CommissionFilter) (map[string]int64, error) {
	counts := map[string]int64{}
	for _, c := range r.matchCommissions(f) {
		counts[c.Status]++
	}
	return counts, nil
}

func (r *memRepo) GetWorkspace(_ context.Context, workspaceID string) (*models.Workspace, error) {
	w, ok := r.d.workspaces[workspaceID]
	if !ok {
		return nil, utils.NotFoundError("workspace not found", nil)
	}
	return &w, nil
}

func (r *memRepo) UpdateWorkspacePlan(_ context.Context, workspaceID string, u PlanUpdate) error {
	w, ok := r.d.workspaces[workspaceID]
	if !ok {
		return utils.NotFoundError("workspace not found", nil)
	}
	w.Plan = u.Plan
	w.SubscriptionID = u.SubscriptionID
	w.BillingCycleStart = u.BillingCycleStart
	w.LinksLimit = u.LinksLimit
	w.DomainsLimit = u.DomainsLimit
	w.UsersLimit = u.UsersLimit
	w.PayoutsLimit = u.PayoutsLimit
	w.PaymentFailedAt = nil
	w.UpdatedAt = time.Now().UTC()
	r.d.workspaces[workspaceID] = w
	return nil
}

func (r *memRepo) SetPaymentFailed(_ context.Context, workspaceID string, at time.Time) error {
	w, ok := r.d.workspaces[workspaceID]
	if !ok {
		return utils.NotFoundError("workspace not found", nil)
	}
	w.PaymentFailedAt = &at
	w.UpdatedAt = time.Now().UTC()
	r.d.workspaces[workspaceID] = w
	return nil
}

func (r *memRepo) WorkspaceOwners(_ context.Context, workspaceID string) ([]models.WorkspaceMember, error) {
	var owners []models.WorkspaceMember
	for _, m := range r.d.members {
		if m.WorkspaceID == workspaceID && m.Role == models.RoleOwner {
			owners = append(owners, m)
		}
	}
	sort.Slice(owners, func(i, j int) bool { return owners[i].CreatedAt.Before(owners[j].CreatedAt) })
	return owners, nil
}

func (r *memRepo) SetPremiumDomain(_ context.Context, workspaceID string, enabled bool) error {
	r.d.domains[workspaceID] = models.DefaultDomains{WorkspaceID: workspaceID, Dublink: enabled}
	return nil
}

func (r *memRepo) GetDefaultDomains(_ context.Context, workspaceID string) (*models.DefaultDomains, error) {
	d, ok := r.d.domains[workspaceID]
	if !ok {
		return nil, utils.NotFoundError("default domains not found", nil)
	}
	return &d, nil
}

func (r *memRepo) GetTokenByPartialKey(_ context.Context, partialKey string) (*models.Token, error) {
	for _, t := range r.d.tokens {
		if t.PartialKey == partialKey {
			return &t, nil
		}
	}
	return nil, utils.NotFoundError("token not found", nil)
}

func (r *memRepo) ListTokenPartialKeys(_ context.Context, workspaceID string) ([]string, error) {
	var keys []string
	for _, t := range r.d.tokens {
		if t.WorkspaceID == workspaceID {
			keys = append(keys, t.PartialKey)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (r *memRepo) SetTokenRateLimit(_ context.Context, workspaceID string, rateLimit int) (int64, error) {
	var n int64
	for id, t := range r.d.tokens {
		if t.WorkspaceID == workspaceID {
			t.RateLimit = rateLimit
			r.d.tokens[id] = t
			n++
		}
	}
	return n, nil
}

func (r *memRepo) TouchToken(_ context.Context, tokenID string, at time.Time) error {
	if t, ok := r.d.tokens[tokenID]; ok {
		t.LastUsed = &at
		r.d.tokens[tokenID] = t
	}
	return nil
}

func (r *memRepo) EnqueueOutbox(_ context.Context, evt *models.OutboxEvent) error {
	if _, exists := r.d.outbox[evt.ID]; exists {
		return utils.ConflictError("concurrent update on outbox event", nil)
	}
	if evt.CreatedAt.IsZero() {
		evt.CreatedAt = time.Now().UTC()
	}
	if evt.AvailableAt.IsZero() {
		evt.AvailableAt = evt.CreatedAt
	}
	r.d.outbox[evt.ID] = *evt
	return nil
}

func (r *memRepo) ClaimOutbox(_ context.Context, now time.Time, lease time.Duration, limit int) ([]models.OutboxEvent, error) {
	var due []models.OutboxEvent
	for _, e := range r.d.outbox {
		if e.DispatchedAt == nil && e.DeadAt == nil && !e.AvailableAt.After(now) {
			due = append(due, e)
		}
	}
	sort.Slice(due, func(i, j int) bool {
		if !due[i].AvailableAt.Equal(due[j].AvailableAt) {
			return due[i].AvailableAt.Before(due[j].AvailableAt)
		}
		return due[i].CreatedAt.Before(due[j].CreatedAt)
	})
	if len(due) > limit {
		due = due[:limit]
	}
	for _, e := range due {
		e.AvailableAt = now.Add(lease)
		r.d.outbox[e.ID] = e
	}
	return due, nil
}

func (r *memRepo) MarkOutboxDispatched(_ context.Context, id string, at time.Time) error {
	e, ok := r.d.outbox[id]
	if !ok {
		return utils.NotFoundError("outbox event not found", nil)
	}
	e.DispatchedAt = &at
	e.LastError = nil
	r.d.outbox[id] = e
	return nil
}

func (r *memRepo) MarkOutboxFailed(_ context.Context, f OutboxFailure) error {
	e, ok := r.d.outbox[f.ID]
	if !ok {
		return utils.NotFoundError("outbox event not found", nil)
	}
	msg := f.LastError
	e.Attempts = f.Attempts
	e.LastError = &msg
	e.AvailableAt = f.AvailableAt
	if f.Dead {
		at := f.At
		e.DeadAt = &at
	}
	r.d.outbox[f.ID] = e
	return nil
}

func (r *memRepo) PruneOutbox(_ context.Context, dispatchedBefore time.Time) (int64, error) {
	var n int64
	for id, e := range r.d.outbox {
		if e.DispatchedAt != nil && e.DispatchedAt.Before(dispatchedBefore) {
			delete(r.d.outbox, id)
			n++
		}
	}
	return n, nil
}

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*GormStore)(nil)
)
