package jobs

import (
	"context"

	"github.com/Govind-619/LinkSphere/utils"
	"github.com/robfig/cron/v3"
)

// Schedules holds cron expressions for each job
type Schedules struct {
	OutboxPrune  string
	OrphanReport string
}

// Scheduler manages the cron jobs
type Scheduler struct {
	cron      *cron.Cron
	jobs      *Jobs
	schedules Schedules
}

type cronLogger struct{}

func (cronLogger) Printf(format string, v ...interface{}) {
	utils.LogInfo(format, v...)
}

// NewScheduler creates a new scheduler instance
func NewScheduler(jobs *Jobs, schedules Schedules) *Scheduler {
	c := cron.New(cron.WithChain(cron.Recover(cron.PrintfLogger(cronLogger{}))))
	return &Scheduler{cron: c, jobs: jobs, schedules: schedules}
}

// Start registers the jobs and starts the cron scheduler
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.schedules.OutboxPrune, s.jobs.PruneOutbox); err != nil {
		return err
	}
	utils.LogInfo("Scheduled outbox prune job (%s)", s.schedules.OutboxPrune)

	if _, err := s.cron.AddFunc(s.schedules.OrphanReport, s.jobs.ReportOrphanDiscounts); err != nil {
		return err
	}
	utils.LogInfo("Scheduled orphan discount report (%s)", s.schedules.OrphanReport)

	s.cron.Start()
	return nil
}

// Stop gracefully stops the cron scheduler
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}
