package models

import "time"

// Commission statuses
const (
	CommissionPending   = "pending"
	CommissionProcessed = "processed"
	CommissionPaid      = "paid"
	CommissionRefunded  = "refunded"
	CommissionDuplicate = "duplicate"
	CommissionFraud     = "fraud"
	CommissionCanceled  = "canceled"
)

// CommissionStatuses lists every status in display order
var CommissionStatuses = []string{
	CommissionPending,
	CommissionProcessed,
	CommissionPaid,
	CommissionRefunded,
	CommissionDuplicate,
	CommissionFraud,
	CommissionCanceled,
}

// Commission types
const (
	CommissionClick  = "click"
	CommissionLead   = "lead"
	CommissionSale   = "sale"
	CommissionCustom = "custom"
)

// CommissionTypes lists every commission type
var CommissionTypes = []string{CommissionClick, CommissionLead, CommissionSale, CommissionCustom}

// Commission is a reward earned by a partner. Amount and Earnings are in cents.
type Commission struct {
	ID         string    `gorm:"primaryKey" json:"id"`
	ProgramID  string    `gorm:"index:idx_commission_program_created;not null" json:"programId"`
	PartnerID  *string   `gorm:"index" json:"partnerId"`
	CustomerID *string   `gorm:"index" json:"customerId"`
	PayoutID   *string   `gorm:"index" json:"payoutId"`
	Status     string    `gorm:"not null;default:pending" json:"status"`
	Type       string    `gorm:"not null" json:"type"`
	Amount     int64     `gorm:"not null" json:"amount"`
	Earnings   int64     `gorm:"not null" json:"earnings"`
	Currency   string    `gorm:"not null;default:usd" json:"currency"`
	CreatedAt  time.Time `gorm:"index:idx_commission_program_created" json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// CommissionCustomer is the customer expansion of a commission row
type CommissionCustomer struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Email  *string `json:"email"`
	Avatar *string `json:"avatar"`
}

// CommissionPartner is the partner expansion of a commission row
type CommissionPartner struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Email *string `json:"email"`
	Image *string `json:"image"`
}

// CommissionRow is a commission with its customer and partner expanded
type CommissionRow struct {
	Commission
	Customer *CommissionCustomer `json:"customer"`
	Partner  *CommissionPartner  `json:"partner"`
}
