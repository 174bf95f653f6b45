package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Govind-619/LinkSphere/utils"
	amqp "github.com/rabbitmq/amqp091-go"
)

// AMQPAuditSink publishes audit events to a durable topic exchange, routed by action
type AMQPAuditSink struct {
	url      string
	exchange string

	mu      sync.Mutex
	conn    *amqp.Connection
	channel *amqp.Channel
}

// NewAMQPAuditSink dials lazily; the first publish opens the connection
func NewAMQPAuditSink(url, exchange string) *AMQPAuditSink {
	return &AMQPAuditSink{url: url, exchange: exchange}
}

func (s *AMQPAuditSink) connect() error {
	if s.channel != nil && !s.channel.IsClosed() {
		return nil
	}
	s.closeLocked()

	conn, err := amqp.DialConfig(s.url, amqp.Config{Dial: amqp.DefaultDial(10 * time.Second)})
	if err != nil {
		return fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(s.exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return fmt.Errorf("declare exchange %s: %w", s.exchange, err)
	}
	s.conn, s.channel = conn, ch
	return nil
}

// PublishAudit sends one event. A broken connection is dropped so the next
// attempt reconnects; the outbox worker owns retries.
func (s *AMQPAuditSink) PublishAudit(ctx context.Context, evt AuditEvent) error {
	body, err := json.Marshal(evt)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.connect(); err != nil {
		return err
	}
	err = s.channel.PublishWithContext(ctx, s.exchange, evt.Action, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    evt.ID,
		Timestamp:    evt.OccurredAt,
		Body:         body,
	})
	if err != nil {
		s.closeLocked()
		return fmt.Errorf("publish %s: %w", evt.Action, err)
	}
	return nil
}

func (s *AMQPAuditSink) closeLocked() {
	if s.channel != nil {
		_ = s.channel.Close()
		s.channel = nil
	}
	if s.conn != nil {
		_ = s.conn.Close()
		s.conn = nil
	}
}

// Close releases the connection
func (s *AMQPAuditSink) Close() {
	s.mu.Lock()
	s.closeLocked()
	s.mu.Unlock()
}

// LogAuditSink writes audit events to the service log when no broker is configured
type LogAuditSink struct{}

func (LogAuditSink) PublishAudit(_ context.Context, evt AuditEvent) error {
	if evt.Action == "" {
		return errors.New("audit event without action")
	}
	utils.LogInfo("[AUDIT] %s workspace=%s program=%s actor=%s:%s targets=%v",
		evt.Action, evt.WorkspaceID, evt.ProgramID, evt.ActorType, evt.ActorID, evt.Targets)
	return nil
}

func (LogAuditSink) Close() {}
