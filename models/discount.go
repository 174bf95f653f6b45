package models

import "time"

// Discount types. "flat" is accepted on input and stored as fixed.
const (
	DiscountPercentage = "percentage"
	DiscountFixed      = "fixed"
	DiscountFlatAlias  = "flat"
)

// Discount is a customer-facing reward attached to a program. Amount is in
// percent points for percentage discounts and in cents for fixed ones.
type Discount struct {
	ID           string    `gorm:"primaryKey" json:"id"`
	ProgramID    string    `gorm:"index;not null" json:"programId"`
	Amount       int       `gorm:"not null" json:"amount"`
	Type         string    `gorm:"not null" json:"type"`
	MaxDuration  *int      `json:"maxDuration"` // billing periods, nil is unbounded
	CouponID     *string   `json:"couponId"`
	CouponTestID *string   `json:"couponTestId"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// DiscountSummary is a discount as listed for a program
type DiscountSummary struct {
	Discount
	PartnersCount int64 `json:"partnersCount"`
	Default       bool  `json:"default"`
}

// DiscountPartner is the public view of a partner assigned to a discount
type DiscountPartner struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Image *string `json:"image"`
	Email *string `json:"email"`
}
