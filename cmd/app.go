package cmd

import (
	"context"
	"fmt"

	"github.com/Govind-619/LinkSphere/cache"
	"github.com/Govind-619/LinkSphere/config"
	"github.com/Govind-619/LinkSphere/outbox"
	"github.com/Govind-619/LinkSphere/store"
	"github.com/Govind-619/LinkSphere/utils"
)

// app is the set of long-lived dependencies shared by the commands
type app struct {
	store   store.Store
	tokens  cache.TokenCache
	plans   *config.PlanCatalog
	closers []func()
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{}

	plans, err := config.LoadPlans(cfg.PlansFile)
	if err != nil {
		return nil, err
	}
	a.plans = plans

	switch cfg.StoreDriver {
	case config.StoreMemory:
		utils.LogWarn("Using the in-memory store; data is lost on exit")
		a.store = store.NewMemoryStore()
	default:
		db, err := config.ConnectDatabase(cfg)
		if err != nil {
			return nil, err
		}
		a.store = store.NewGormStore(db)
		a.closers = append(a.closers, func() {
			if sqlDB, err := db.DB(); err == nil {
				_ = sqlDB.Close()
			}
		})
	}

	if cfg.RedisURL != "" {
		client, err := cache.Connect(ctx, cfg.RedisURL)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		a.tokens = cache.NewRedisTokenCache(client)
		a.closers = append(a.closers, func() { _ = client.Close() })
		utils.LogInfo("Token cache backed by redis")
	} else {
		a.tokens = cache.NewMemoryTokenCache()
	}

	return a, nil
}

// worker builds the outbox dispatcher with the configured sinks
func (a *app) worker(cfg *config.Config) *outbox.Worker {
	var audit outbox.AuditSink = outbox.LogAuditSink{}
	if cfg.RabbitMQURL != "" {
		audit = outbox.NewAMQPAuditSink(cfg.RabbitMQURL, cfg.AuditExchange)
	}
	a.closers = append(a.closers, audit.Close)

	var mailer outbox.Mailer = outbox.LogMailer{}
	if cfg.SMTPHost != "" {
		mailer = outbox.NewSMTPMailer(outbox.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
		})
	}

	return outbox.NewWorker(a.store, audit, mailer, outbox.WorkerConfig{
		BatchSize:    cfg.OutboxBatchSize,
		PollInterval: cfg.OutboxPollInterval,
		MaxAttempts:  cfg.OutboxMaxAttempts,
	})
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}
