package services

import (
	"context"
	"strings"
	"time"

	"github.com/Govind-619/LinkSphere/models"
	"github.com/Govind-619/LinkSphere/store"
	"github.com/Govind-619/LinkSphere/utils"
)

// CommissionService answers the commission read queries of a program
type CommissionService struct {
	store store.Store
	now   func() time.Time
}

// NewCommissionService creates a CommissionService
func NewCommissionService(s store.Store) *CommissionService {
	return &CommissionService{store: s, now: func() time.Time { return time.Now().UTC() }}
}

// prepare checks ownership before the rest of the query so that another
// tenant's program is NotFound whatever else is wrong with the request.
// A missing programId is left to the binding rules.
func (s *CommissionService) prepare(ctx context.Context, wctx utils.WorkspaceContext, q CommissionQuery) (ParsedCommissionQuery, error) {
	if programID := strings.TrimSpace(q.ProgramID); programID != "" {
		if _, err := getProgram(ctx, s.store, wctx, programID); err != nil {
			return ParsedCommissionQuery{}, err
		}
	}
	return ParseCommissionQuery(q, s.now())
}

// ListCommissions returns one page of commissions with positive earnings,
// each expanded with its customer and partner
func (s *CommissionService) ListCommissions(ctx context.Context, wctx utils.WorkspaceContext, q CommissionQuery) ([]models.CommissionRow, error) {
	parsed, err := s.prepare(ctx, wctx, q)
	if err != nil {
		return nil, err
	}
	return s.store.ListCommissions(ctx, parsed.Filter, parsed.Pagination)
}

// CountCommissions returns the number of matching commissions per status and
// in total. The status filter and paging are ignored.
func (s *CommissionService) CountCommissions(ctx context.Context, wctx utils.WorkspaceContext, q CommissionQuery) (map[string]int64, error) {
	q.Status, q.Page, q.PageSize = "", nil, nil
	parsed, err := s.prepare(ctx, wctx, q)
	if err != nil {
		return nil, err
	}

	byStatus, err := s.store.CountCommissionsByStatus(ctx, parsed.Filter)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(models.CommissionStatuses)+1)
	var all int64
	for _, status := range models.CommissionStatuses {
		counts[status] = byStatus[status]
		all += byStatus[status]
	}
	counts["all"] = all
	return counts, nil
}

// exportRows loads the full filtered set, capped at MaxExportRows
func (s *CommissionService) exportRows(ctx context.Context, wctx utils.WorkspaceContext, q CommissionQuery) (ParsedCommissionQuery, []models.CommissionRow, error) {
	q.Page, q.PageSize = nil, nil
	parsed, err := s.prepare(ctx, wctx, q)
	if err != nil {
		return parsed, nil, err
	}
	rows, err := s.store.ListCommissions(ctx, parsed.Filter, utils.Pagination{Page: 1, PageSize: utils.MaxExportRows})
	if err != nil {
		return parsed, nil, err
	}
	return parsed, rows, nil
}
