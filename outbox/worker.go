package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Govind-619/LinkSphere/models"
	"github.com/Govind-619/LinkSphere/store"
	"github.com/Govind-619/LinkSphere/utils"
	"github.com/sourcegraph/conc/pool"
)

const (
	defaultBatchSize    = 50
	defaultPollInterval = 2 * time.Second
	defaultLease        = 2 * time.Minute
	defaultMaxAttempts  = 10
	defaultConcurrency  = 8
)

// AuditSink receives audit events
type AuditSink interface {
	PublishAudit(ctx context.Context, evt AuditEvent) error
	Close()
}

// Mailer delivers emails
type Mailer interface {
	Send(ctx context.Context, msg EmailMessage) error
}

// WorkerConfig tunes the dispatch loop. Zero values take the defaults.
type WorkerConfig struct {
	BatchSize    int
	PollInterval time.Duration
	Lease        time.Duration
	MaxAttempts  int
	Concurrency  int
}

// Worker polls the outbox and dispatches each event on its own; one
// failure never blocks the rest of the batch.
type Worker struct {
	repo   store.OutboxRepository
	audit  AuditSink
	mailer Mailer
	cfg    WorkerConfig
	now    func() time.Time
}

// NewWorker creates a dispatcher
func NewWorker(repo store.OutboxRepository, audit AuditSink, mailer Mailer, cfg WorkerConfig) *Worker {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatchSize
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if cfg.Lease <= 0 {
		cfg.Lease = defaultLease
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultConcurrency
	}
	return &Worker{
		repo:   repo,
		audit:  audit,
		mailer: mailer,
		cfg:    cfg,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Run polls until ctx is cancelled
func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	utils.LogInfo("Outbox worker started (batch=%d, interval=%s)", w.cfg.BatchSize, w.cfg.PollInterval)
	for {
		select {
		case <-ctx.Done():
			utils.LogInfo("Outbox worker stopped")
			return
		case <-ticker.C:
			if _, err := w.FlushOnce(ctx); err != nil {
				utils.LogError("Outbox flush error: %v", err)
			}
		}
	}
}

// FlushOnce claims one batch and dispatches it, returning how many were delivered
func (w *Worker) FlushOnce(ctx context.Context) (int, error) {
	events, err := w.repo.ClaimOutbox(ctx, w.now(), w.cfg.Lease, w.cfg.BatchSize)
	if err != nil {
		return 0, err
	}
	if len(events) == 0 {
		return 0, nil
	}

	p := pool.NewWithResults[bool]().WithContext(ctx).WithMaxGoroutines(w.cfg.Concurrency)
	for _, evt := range events {
		p.Go(func(ctx context.Context) (bool, error) {
			return w.handle(ctx, evt), nil
		})
	}
	results, _ := p.Wait()

	delivered := 0
	for _, ok := range results {
		if ok {
			delivered++
		}
	}
	return delivered, nil
}

func (w *Worker) handle(ctx context.Context, evt models.OutboxEvent) bool {
	err := w.dispatch(ctx, evt)
	if err == nil {
		utils.OutboxDispatches.WithLabelValues(evt.Kind, "delivered").Inc()
		if markErr := w.repo.MarkOutboxDispatched(ctx, evt.ID, w.now()); markErr != nil {
			utils.LogError("Failed to mark outbox event %s as dispatched: %v", evt.ID, markErr)
		}
		return true
	}

	attempts := evt.Attempts + 1
	dead := attempts >= w.cfg.MaxAttempts
	failure := store.OutboxFailure{
		ID:          evt.ID,
		Attempts:    attempts,
		LastError:   err.Error(),
		AvailableAt: w.now().Add(RetryDelay(attempts)),
		Dead:        dead,
		At:          w.now(),
	}
	if dead {
		utils.OutboxDispatches.WithLabelValues(evt.Kind, "dead").Inc()
		utils.LogError("Outbox event %s (%s) dead after %d attempts: %v", evt.ID, evt.EventType, attempts, err)
	} else {
		utils.OutboxDispatches.WithLabelValues(evt.Kind, "retry").Inc()
		utils.LogWarn("Outbox event %s (%s) attempt %d failed: %v", evt.ID, evt.EventType, attempts, err)
	}
	if markErr := w.repo.MarkOutboxFailed(ctx, failure); markErr != nil {
		utils.LogError("Failed to record outbox failure for %s: %v", evt.ID, markErr)
	}
	return false
}

func (w *Worker) dispatch(ctx context.Context, evt models.OutboxEvent) error {
	switch evt.Kind {
	case models.OutboxAudit:
		var audit AuditEvent
		if err := json.Unmarshal(evt.Payload, &audit); err != nil {
			return fmt.Errorf("decode audit payload: %w", err)
		}
		return w.audit.PublishAudit(ctx, audit)
	case models.OutboxEmail:
		var msg EmailMessage
		if err := json.Unmarshal(evt.Payload, &msg); err != nil {
			return fmt.Errorf("decode email payload: %w", err)
		}
		return w.mailer.Send(ctx, msg)
	default:
		return fmt.Errorf("unknown outbox kind %q", evt.Kind)
	}
}

// RetryDelay is the backoff before attempt n+1: 2^n seconds, capped at five minutes
func RetryDelay(attempt int) time.Duration {
	if attempt < 1 {
		return time.Second
	}
	delay := 1 << min(attempt, 9)
	if delay > 300 {
		delay = 300
	}
	return time.Duration(delay) * time.Second
}
