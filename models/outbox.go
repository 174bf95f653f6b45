package models

import "time"

// Outbox kinds
const (
	OutboxAudit = "audit"
	OutboxEmail = "email"
)

// OutboxEvent is a side effect recorded in the same transaction as the change
// that produced it and delivered later by the worker.
type OutboxEvent struct {
	ID           string     `gorm:"primaryKey" json:"id"`
	Kind         string     `gorm:"index:idx_outbox_pending;not null" json:"kind"`
	EventType    string     `gorm:"not null" json:"eventType"`
	Payload      []byte     `gorm:"type:jsonb;not null" json:"payload"`
	Attempts     int        `gorm:"not null;default:0" json:"attempts"`
	LastError    *string    `json:"lastError"`
	AvailableAt  time.Time  `gorm:"index:idx_outbox_pending;not null" json:"availableAt"`
	DispatchedAt *time.Time `gorm:"index" json:"dispatchedAt"`
	DeadAt       *time.Time `json:"deadAt"`
	CreatedAt    time.Time  `json:"createdAt"`
}
