package outbox

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Govind-619/LinkSphere/models"
	"github.com/Govind-619/LinkSphere/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingAudit struct {
	mu     sync.Mutex
	events []AuditEvent
	err    error
}

func (r *recordingAudit) PublishAudit(_ context.Context, evt AuditEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, evt)
	return nil
}

func (r *recordingAudit) Close() {}

type recordingMailer struct {
	mu   sync.Mutex
	sent []EmailMessage
	err  error
}

func (m *recordingMailer) Send(_ context.Context, msg EmailMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func enqueue(t *testing.T, s *store.MemoryStore, evt *models.OutboxEvent, err error) {
	t.Helper()
	require.NoError(t, err)
	require.NoError(t, s.EnqueueOutbox(context.Background(), evt))
}

func TestWorker_DispatchesEachEventIndependently(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()

	audit, err := NewAuditEvent(AuditEvent{Action: ActionDiscountCreate, WorkspaceID: "ws_1", Targets: []AuditTarget{{Type: "discount", ID: "disc_1"}}})
	enqueue(t, s, audit, err)
	email, err := NewEmailEvent(EmailWelcomePlan, WelcomeEmail([]string{"ada@acme.test"}, "Acme", "pro"))
	enqueue(t, s, email, err)

	auditSink := &recordingAudit{}
	mailer := &recordingMailer{err: errors.New("smtp: connection refused")}
	w := NewWorker(s, auditSink, mailer, WorkerConfig{MaxAttempts: 3})
	now := time.Now().UTC()
	w.now = func() time.Time { return now }

	delivered, err := w.FlushOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, delivered)
	require.Len(t, auditSink.events, 1)
	assert.Equal(t, "disc_1", auditSink.events[0].Targets[0].ID)

	byID := map[string]models.OutboxEvent{}
	for _, evt := range s.Outbox() {
		byID[evt.ID] = evt
	}
	assert.NotNil(t, byID[audit.ID].DispatchedAt)

	failed := byID[email.ID]
	assert.Nil(t, failed.DispatchedAt)
	assert.Nil(t, failed.DeadAt)
	assert.Equal(t, 1, failed.Attempts)
	require.NotNil(t, failed.LastError)
	assert.Contains(t, *failed.LastError, "connection refused")
	assert.True(t, now.Add(RetryDelay(1)).Equal(failed.AvailableAt))

	// Nothing is due until the backoff has passed.
	delivered, err = w.FlushOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, delivered)

	mailer.err = nil
	now = now.Add(time.Minute)
	delivered, err = w.FlushOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, delivered)
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, []string{"ada@acme.test"}, mailer.sent[0].To)
}

func TestWorker_DeadLettersAfterMaxAttempts(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	evt, err := NewAuditEvent(AuditEvent{Action: ActionDiscountDelete, WorkspaceID: "ws_1"})
	enqueue(t, s, evt, err)

	w := NewWorker(s, &recordingAudit{err: errors.New("broker unavailable")}, &recordingMailer{}, WorkerConfig{MaxAttempts: 2})
	now := time.Now().UTC()
	w.now = func() time.Time { return now }

	for i := 0; i < 2; i++ {
		_, err := w.FlushOnce(ctx)
		require.NoError(t, err)
		now = now.Add(10 * time.Minute)
	}

	events := s.Outbox()
	require.Len(t, events, 1)
	assert.Equal(t, 2, events[0].Attempts)
	assert.NotNil(t, events[0].DeadAt)

	delivered, err := w.FlushOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, delivered)
	assert.Equal(t, 2, s.Outbox()[0].Attempts, "dead events are not claimed again")
}

func TestWorker_UnknownKindFails(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	require.NoError(t, s.EnqueueOutbox(ctx, &models.OutboxEvent{ID: "evt_1", Kind: "sms", EventType: "sms.sent", Payload: []byte(`{}`)}))

	w := NewWorker(s, &recordingAudit{}, &recordingMailer{}, WorkerConfig{})
	delivered, err := w.FlushOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, delivered)
	require.NotNil(t, s.Outbox()[0].LastError)
	assert.Contains(t, *s.Outbox()[0].LastError, "unknown outbox kind")
}

func TestRetryDelay(t *testing.T) {
	assert.Equal(t, time.Second, RetryDelay(0))
	assert.Equal(t, 2*time.Second, RetryDelay(1))
	assert.Equal(t, 16*time.Second, RetryDelay(4))
	assert.Equal(t, 256*time.Second, RetryDelay(8))
	assert.Equal(t, 300*time.Second, RetryDelay(9))
	assert.Equal(t, 300*time.Second, RetryDelay(50))
}

func TestNewEmailEventRequiresRecipients(t *testing.T) {
	_, err := NewEmailEvent(EmailWelcomePlan, EmailMessage{Subject: "hi"})
	assert.Error(t, err)
}
