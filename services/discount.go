package services

import (
	"context"
	"strings"
	"time"

	"github.com/Govind-619/LinkSphere/models"
	"github.com/Govind-619/LinkSphere/outbox"
	"github.com/Govind-619/LinkSphere/store"
	"github.com/Govind-619/LinkSphere/utils"
	"github.com/google/uuid"
)

// DiscountService owns discount creation and the partner/default assignment rules
type DiscountService struct {
	store store.Store
	now   func() time.Time
	newID func() string

	// afterValidate runs between the checks and the writes of a create
	afterValidate func()
}

// NewDiscountService creates a DiscountService
func NewDiscountService(s store.Store) *DiscountService {
	return &DiscountService{
		store: s,
		now:   func() time.Time { return time.Now().UTC() },
		newID: NewDiscountID,
	}
}

// NewDiscountID returns "disc_" followed by 24 hex characters of a random UUID
func NewDiscountID() string {
	return "disc_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:24]
}

// CreateDiscount validates and stores a discount, assigning it either to the
// named partners or as the program default. Checks and writes share one
// transaction: the program row is locked first, and the assignment itself is a
// compare-and-swap that only touches rows still without a discount.
func (s *DiscountService) CreateDiscount(ctx context.Context, wctx utils.WorkspaceContext, in CreateDiscountInput) (*models.Discount, error) {
	in, err := ValidateCreateDiscount(in)
	if err != nil {
		return nil, err
	}

	var created *models.Discount
	err = s.store.Transaction(ctx, func(tx store.Repository) error {
		program, err := lockProgram(ctx, tx, wctx, in.ProgramID)
		if err != nil {
			return err
		}

		if len(in.PartnerIDs) > 0 {
			enrollments, err := tx.LockEnrollments(ctx, program.ID, in.PartnerIDs)
			if err != nil {
				return err
			}
			if err := CheckPartnersAssignable(in.PartnerIDs, enrollments); err != nil {
				return err
			}
		} else if err := CheckDefaultAvailable(program); err != nil {
			return err
		}

		if s.afterValidate != nil {
			s.afterValidate()
		}

		now := s.now()
		d := &models.Discount{
			ID:           s.newID(),
			ProgramID:    program.ID,
			Amount:       in.Amount,
			Type:         in.Type,
			MaxDuration:  in.MaxDuration,
			CouponID:     in.CouponID,
			CouponTestID: in.CouponTestID,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := tx.CreateDiscount(ctx, d); err != nil {
			return err
		}

		if len(in.PartnerIDs) > 0 {
			n, err := tx.AssignDiscount(ctx, program.ID, in.PartnerIDs, d.ID)
			if err != nil {
				return err
			}
			if n != int64(len(in.PartnerIDs)) {
				return utils.ConflictError("Some partners were assigned a discount concurrently", nil).WithDetails(map[string]any{
					"reason":     ReasonPartnerHasDiscount,
					"partnerIds": in.PartnerIDs,
				})
			}
		} else {
			ok, err := tx.SetDefaultDiscount(ctx, program.ID, d.ID)
			if err != nil {
				return err
			}
			if !ok {
				return defaultExistsError("")
			}
		}

		err = s.enqueueAudit(ctx, tx, wctx, outbox.ActionDiscountCreate, program.ID, d.ID, map[string]any{
			"partnerIds": in.PartnerIDs,
			"default":    len(in.PartnerIDs) == 0,
		})
		if err != nil {
			return err
		}

		created = d
		return nil
	})
	if err != nil {
		return nil, err
	}

	utils.DiscountMutations.WithLabelValues("create").Inc()
	utils.LogInfo("Discount %s created in program %s (%d partners)", created.ID, created.ProgramID, len(in.PartnerIDs))
	return created, nil
}

// ListDiscountPartners returns the partners whose enrollment references the discount, in enrollment order
func (s *DiscountService) ListDiscountPartners(ctx context.Context, wctx utils.WorkspaceContext, programID, discountID string) ([]models.DiscountPartner, error) {
	program, err := getProgram(ctx, s.store, wctx, programID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(discountID) == "" {
		return nil, utils.NotFoundError(utils.ErrDiscountNotFound, nil)
	}
	if _, err := s.store.GetDiscount(ctx, program.ID, discountID); err != nil {
		return nil, err
	}
	return s.store.ListDiscountPartners(ctx, program.ID, discountID)
}

// ListDiscounts returns the program's discounts, newest first
func (s *DiscountService) ListDiscounts(ctx context.Context, wctx utils.WorkspaceContext, programID string) ([]models.DiscountSummary, error) {
	program, err := getProgram(ctx, s.store, wctx, programID)
	if err != nil {
		return nil, err
	}

	discounts, err := s.store.ListDiscounts(ctx, program.ID)
	if err != nil {
		return nil, err
	}
	counts, err := s.store.CountPartnersByDiscount(ctx, program.ID)
	if err != nil {
		return nil, err
	}

	out := make([]models.DiscountSummary, 0, len(discounts))
	for _, d := range discounts {
		out = append(out, models.DiscountSummary{
			Discount:      d,
			PartnersCount: counts[d.ID],
			Default:       program.DefaultDiscountID != nil && *program.DefaultDiscountID == d.ID,
		})
	}
	return out, nil
}

// UpdateDiscount changes the terms of a discount
func (s *DiscountService) UpdateDiscount(ctx context.Context, wctx utils.WorkspaceContext, programID, discountID string, patch UpdateDiscountInput) (*models.Discount, error) {
	var updated *models.Discount
	err := s.store.Transaction(ctx, func(tx store.Repository) error {
		program, err := getProgram(ctx, tx, wctx, programID)
		if err != nil {
			return err
		}
		d, err := tx.LockDiscount(ctx, program.ID, discountID)
		if err != nil {
			return err
		}
		if err := applyDiscountPatch(d, patch); err != nil {
			return err
		}
		d.UpdatedAt = s.now()
		if err := tx.UpdateDiscount(ctx, d); err != nil {
			return err
		}

		if err := s.enqueueAudit(ctx, tx, wctx, outbox.ActionDiscountUpdate, program.ID, d.ID, nil); err != nil {
			return err
		}
		updated = d
		return nil
	})
	if err != nil {
		return nil, err
	}

	utils.DiscountMutations.WithLabelValues("update").Inc()
	return updated, nil
}

// DeleteDiscount removes a discount, unassigning its partners and clearing the
// program default if it pointed here
func (s *DiscountService) DeleteDiscount(ctx context.Context, wctx utils.WorkspaceContext, programID, discountID string) error {
	err := s.store.Transaction(ctx, func(tx store.Repository) error {
		program, err := lockProgram(ctx, tx, wctx, programID)
		if err != nil {
			return err
		}
		if _, err := tx.LockDiscount(ctx, program.ID, discountID); err != nil {
			return err
		}

		cleared, err := tx.ClearDiscountAssignments(ctx, program.ID, discountID)
		if err != nil {
			return err
		}
		if err := tx.ClearDefaultDiscount(ctx, program.ID, discountID); err != nil {
			return err
		}
		if err := tx.DeleteDiscount(ctx, program.ID, discountID); err != nil {
			return err
		}

		wasDefault := program.DefaultDiscountID != nil && *program.DefaultDiscountID == discountID
		return s.enqueueAudit(ctx, tx, wctx, outbox.ActionDiscountDelete, program.ID, discountID, map[string]any{
			"partnersUnassigned": cleared,
			"default":            wasDefault,
		})
	})
	if err != nil {
		return err
	}

	utils.DiscountMutations.WithLabelValues("delete").Inc()
	utils.LogInfo("Discount %s deleted from program %s", discountID, programID)
	return nil
}

func (s *DiscountService) enqueueAudit(ctx context.Context, tx store.Repository, wctx utils.WorkspaceContext, action, programID, discountID string, metadata map[string]any) error {
	evt, err := outbox.NewAuditEvent(outbox.AuditEvent{
		Action:      action,
		WorkspaceID: wctx.WorkspaceID,
		ProgramID:   programID,
		ActorID:     wctx.ActorID,
		ActorType:   wctx.ActorType,
		RequestID:   wctx.RequestID,
		Targets:     []outbox.AuditTarget{{Type: "discount", ID: discountID}},
		Metadata:    metadata,
		OccurredAt:  s.now(),
	})
	if err != nil {
		return utils.InternalError("Failed to record audit event", err)
	}
	return tx.EnqueueOutbox(ctx, evt)
}
