// Package jobs holds the periodic maintenance tasks run by the worker process.
package jobs

import (
	"context"
	"time"

	"github.com/Govind-619/LinkSphere/models"
	"github.com/Govind-619/LinkSphere/utils"
)

// Repository is the slice of the store the jobs need
type Repository interface {
	PruneOutbox(ctx context.Context, dispatchedBefore time.Time) (int64, error)
	ListOrphanDiscounts(ctx context.Context) ([]models.Discount, error)
}

// Jobs runs maintenance against the store
type Jobs struct {
	repo      Repository
	retention time.Duration
	timeout   time.Duration
	now       func() time.Time
}

// NewJobs creates the job set. Dispatched outbox rows older than retention are pruned.
func NewJobs(repo Repository, retention time.Duration) *Jobs {
	return &Jobs{
		repo:      repo,
		retention: retention,
		timeout:   5 * time.Minute,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// PruneOutbox deletes delivered outbox rows past the retention window
func (j *Jobs) PruneOutbox() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	n, err := j.repo.PruneOutbox(ctx, j.now().Add(-j.retention))
	if err != nil {
		utils.LogError("Outbox prune failed: %v", err)
		return
	}
	utils.LogInfo("Pruned %d dispatched outbox events", n)
}

// ReportOrphanDiscounts logs discounts that no enrollment or program default
// references. They are kept; removing them is an operator decision.
func (j *Jobs) ReportOrphanDiscounts() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	if _, err := j.OrphanDiscounts(ctx); err != nil {
		utils.LogError("Orphan discount report failed: %v", err)
	}
}

// OrphanDiscounts returns the orphan count per program and logs each program with orphans
func (j *Jobs) OrphanDiscounts(ctx context.Context) (map[string]int, error) {
	orphans, err := j.repo.ListOrphanDiscounts(ctx)
	if err != nil {
		return nil, err
	}

	byProgram := map[string]int{}
	for _, d := range orphans {
		byProgram[d.ProgramID]++
	}
	for programID, n := range byProgram {
		utils.LogWarn("Program %s has %d discount(s) with no partners", programID, n)
	}
	utils.LogInfo("Orphan discount report: %d orphan(s) across %d program(s)", len(orphans), len(byProgram))
	return byProgram, nil
}
