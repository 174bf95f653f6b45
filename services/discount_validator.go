package services

import (
	"encoding/json"
	"strings"

	"github.com/Govind-619/LinkSphere/models"
	"github.com/Govind-619/LinkSphere/utils"
)

// Reasons carried in error details so callers can tell conflicts apart
const (
	ReasonPartnerNotEnrolled    = "partner_not_enrolled"
	ReasonPartnerHasDiscount    = "partner_has_discount"
	ReasonDefaultDiscountExists = "default_discount_exists"
	ReasonInvalidField          = utils.ReasonInvalidField
)

const maxPercentage = 100

// FieldErrors maps a field to what is wrong with it
type FieldErrors = utils.FieldErrors

// CreateDiscountInput is the request to create a discount. Without partner
// IDs the discount becomes the program default.
type CreateDiscountInput struct {
	ProgramID    string   `json:"-"`
	PartnerIDs   []string `json:"partnerIds" binding:"omitempty,dive,required"`
	Amount       int      `json:"amount" binding:"gt=0"`
	Type         string   `json:"type" binding:"required,oneof=percentage fixed flat"`
	MaxDuration  *int     `json:"maxDuration" binding:"omitempty,min=0"`
	CouponID     *string  `json:"couponId"`
	CouponTestID *string  `json:"couponTestId"`
}

// discountTerms are the rules every stored discount satisfies
type discountTerms struct {
	Amount      int    `json:"amount" binding:"gt=0"`
	Type        string `json:"type" binding:"required,oneof=percentage fixed"`
	MaxDuration *int   `json:"maxDuration" binding:"omitempty,min=0"`
}

// normalizeDiscountType accepts "flat" as an alias for fixed amounts
func normalizeDiscountType(t string) string {
	if t == models.DiscountFlatAlias {
		return models.DiscountFixed
	}
	return t
}

// checkPercentageCap is the one term rule that depends on another field
func checkPercentageCap(fields FieldErrors, amount int, discountType string) {
	if discountType == models.DiscountPercentage && amount > maxPercentage {
		fields["amount"] = "percentage cannot exceed 100"
	}
}

// ValidateCreateDiscount is the structural phase: the binding rules, the
// percentage cap and normalization. It needs no store and returns a cleaned copy.
func ValidateCreateDiscount(in CreateDiscountInput) (CreateDiscountInput, error) {
	if err := utils.ValidateStruct(in); err != nil {
		return in, err
	}

	out := in
	out.ProgramID = strings.TrimSpace(in.ProgramID)
	out.Type = normalizeDiscountType(in.Type)
	out.PartnerIDs = utils.UniqueStrings(in.PartnerIDs)
	out.CouponID = utils.OptionalString(utils.StringValue(in.CouponID))
	out.CouponTestID = utils.OptionalString(utils.StringValue(in.CouponTestID))

	fields := FieldErrors{}
	if out.ProgramID == "" {
		fields["programId"] = "is required"
	}
	checkPercentageCap(fields, out.Amount, out.Type)
	return out, fields.Err("Invalid discount")
}

// PartnerDiscount pairs a partner with the discount it already has
type PartnerDiscount struct {
	PartnerID  string `json:"partnerId"`
	DiscountID string `json:"discountId"`
}

// CheckPartnersAssignable is the business phase for a partner-scoped
// discount: every partner must be enrolled and none may have a discount.
func CheckPartnersAssignable(partnerIDs []string, enrollments []models.ProgramEnrollment) error {
	enrolled := make(map[string]models.ProgramEnrollment, len(enrollments))
	for _, e := range enrollments {
		enrolled[e.PartnerID] = e
	}

	if len(enrolled) != len(partnerIDs) {
		var missing []string
		for _, id := range partnerIDs {
			if _, ok := enrolled[id]; !ok {
				missing = append(missing, id)
			}
		}
		return utils.InvalidInputError("Some partners are not enrolled in this program", nil).WithDetails(map[string]any{
			"reason":     ReasonPartnerNotEnrolled,
			"partnerIds": missing,
		})
	}

	var taken []PartnerDiscount
	for _, id := range partnerIDs {
		if d := enrolled[id].DiscountID; d != nil {
			taken = append(taken, PartnerDiscount{PartnerID: id, DiscountID: *d})
		}
	}
	if len(taken) > 0 {
		return utils.ConflictError("Some partners already have a discount in this program", nil).WithDetails(map[string]any{
			"reason":   ReasonPartnerHasDiscount,
			"partners": taken,
		})
	}
	return nil
}

// CheckDefaultAvailable is the business phase for a program-wide discount
func CheckDefaultAvailable(program *models.Program) error {
	if program.DefaultDiscountID == nil {
		return nil
	}
	return defaultExistsError(*program.DefaultDiscountID)
}

func defaultExistsError(existing string) error {
	details := map[string]any{"reason": ReasonDefaultDiscountExists}
	if existing != "" {
		details["discountId"] = existing
	}
	return utils.ConflictError("This program already has a default discount", nil).WithDetails(details)
}

// OptionalInt distinguishes an absent JSON field from an explicit null
type OptionalInt struct {
	Set   bool
	Value *int
}

func (o *OptionalInt) UnmarshalJSON(b []byte) error {
	o.Set = true
	if string(b) == "null" {
		o.Value = nil
		return nil
	}
	var v int
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}

// OptionalString distinguishes an absent JSON field from an explicit null
type OptionalString struct {
	Set   bool
	Value *string
}

func (o *OptionalString) UnmarshalJSON(b []byte) error {
	o.Set = true
	if string(b) == "null" {
		o.Value = nil
		return nil
	}
	var v string
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	o.Value = utils.OptionalString(v)
	return nil
}

// UpdateDiscountInput patches discount terms. Partner assignment is not editable here.
type UpdateDiscountInput struct {
	Amount       *int           `json:"amount" binding:"omitempty,gt=0"`
	Type         *string        `json:"type" binding:"omitempty,oneof=percentage fixed flat"`
	MaxDuration  OptionalInt    `json:"maxDuration"`
	CouponID     OptionalString `json:"couponId"`
	CouponTestID OptionalString `json:"couponTestId"`
}

// applyDiscountPatch validates the patch and then the patched discount as a whole
func applyDiscountPatch(d *models.Discount, patch UpdateDiscountInput) error {
	if err := utils.ValidateStruct(patch); err != nil {
		return err
	}
	if patch.Amount != nil {
		d.Amount = *patch.Amount
	}
	if patch.Type != nil {
		d.Type = normalizeDiscountType(*patch.Type)
	}
	if patch.MaxDuration.Set {
		d.MaxDuration = patch.MaxDuration.Value
	}
	if patch.CouponID.Set {
		d.CouponID = patch.CouponID.Value
	}
	if patch.CouponTestID.Set {
		d.CouponTestID = patch.CouponTestID.Value
	}

	err := utils.ValidateStruct(discountTerms{Amount: d.Amount, Type: d.Type, MaxDuration: d.MaxDuration})
	if err != nil {
		return err
	}
	fields := FieldErrors{}
	checkPercentageCap(fields, d.Amount, d.Type)
	return fields.Err("Invalid discount")
}
