package models

import "time"

// Enrollment statuses
const (
	EnrollmentApproved = "approved"
	EnrollmentPending  = "pending"
	EnrollmentBanned   = "banned"
)

// ProgramEnrollment records a partner's membership in a program and the
// discount their referrals receive there.
type ProgramEnrollment struct {
	ID         string    `gorm:"primaryKey" json:"id"`
	ProgramID  string    `gorm:"uniqueIndex:idx_program_partner;not null" json:"programId"`
	PartnerID  string    `gorm:"uniqueIndex:idx_program_partner;not null" json:"partnerId"`
	DiscountID *string   `gorm:"index" json:"discountId"`
	Status     string    `gorm:"not null;default:approved" json:"status"`
	CreatedAt  time.Time `json:"createdAt"`
}
