// Package outbox delivers side effects recorded by the services. Events are
// written in the same transaction as the change they describe and are
// dispatched later by the Worker, so a failing audit sink or mail server
// never affects the request that produced them.
package outbox

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Govind-619/LinkSphere/models"
	"github.com/google/uuid"
)

// Audit actions
const (
	ActionDiscountCreate   = "discount.create"
	ActionDiscountUpdate   = "discount.update"
	ActionDiscountDelete   = "discount.delete"
	ActionWorkspaceUpgrade = "workspace.upgrade"
	ActionWorkspaceCancel  = "workspace.downgrade"
)

// AuditTarget names an entity touched by an audited action
type AuditTarget struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// AuditEvent is a structured record of a mutation
type AuditEvent struct {
	ID          string         `json:"id"`
	Action      string         `json:"action"`
	WorkspaceID string         `json:"workspaceId"`
	ProgramID   string         `json:"programId,omitempty"`
	ActorID     string         `json:"actorId"`
	ActorType   string         `json:"actorType"`
	RequestID   string         `json:"requestId,omitempty"`
	Targets     []AuditTarget  `json:"targets"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	OccurredAt  time.Time      `json:"occurredAt"`
}

// EmailMessage is a rendered email
type EmailMessage struct {
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

// NewAuditEvent wraps an audit event in an outbox row
func NewAuditEvent(evt AuditEvent) (*models.OutboxEvent, error) {
	if evt.ID == "" {
		evt.ID = uuid.NewString()
	}
	if evt.OccurredAt.IsZero() {
		evt.OccurredAt = time.Now().UTC()
	}
	return newEvent(models.OutboxAudit, evt.Action, evt, evt.OccurredAt)
}

// NewEmailEvent wraps an email in an outbox row
func NewEmailEvent(eventType string, msg EmailMessage) (*models.OutboxEvent, error) {
	if len(msg.To) == 0 {
		return nil, fmt.Errorf("email %s has no recipients", eventType)
	}
	return newEvent(models.OutboxEmail, eventType, msg, time.Now().UTC())
}

func newEvent(kind, eventType string, payload any, at time.Time) (*models.OutboxEvent, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", kind, err)
	}
	return &models.OutboxEvent{
		ID:          uuid.NewString(),
		Kind:        kind,
		EventType:   eventType,
		Payload:     b,
		AvailableAt: at,
		CreatedAt:   at,
	}, nil
}
