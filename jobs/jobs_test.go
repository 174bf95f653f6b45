package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/Govind-619/LinkSphere/models"
	"github.com/Govind-619/LinkSphere/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestOrphanDiscounts(t *testing.T) {
	s := store.NewMemoryStore()
	require.NoError(t, s.Seed(func(seed *store.MemorySeed) error {
		seed.Program(models.Program{ID: "prog_1", WorkspaceID: "ws_1", DefaultDiscountID: ptr("disc_default")})
		seed.Program(models.Program{ID: "prog_2", WorkspaceID: "ws_2"})
		seed.Discount(models.Discount{ID: "disc_default", ProgramID: "prog_1", Amount: 10, Type: models.DiscountPercentage})
		seed.Discount(models.Discount{ID: "disc_used", ProgramID: "prog_1", Amount: 10, Type: models.DiscountPercentage})
		seed.Discount(models.Discount{ID: "disc_orphan_1", ProgramID: "prog_1", Amount: 5, Type: models.DiscountFixed})
		seed.Discount(models.Discount{ID: "disc_orphan_2", ProgramID: "prog_2", Amount: 5, Type: models.DiscountFixed})
		seed.Discount(models.Discount{ID: "disc_orphan_3", ProgramID: "prog_2", Amount: 7, Type: models.DiscountFixed})
		return seed.Enrollment(models.ProgramEnrollment{ID: "en_1", ProgramID: "prog_1", PartnerID: "pa", DiscountID: ptr("disc_used")})
	}))

	j := NewJobs(s, time.Hour)
	counts, err := j.OrphanDiscounts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"prog_1": 1, "prog_2": 2}, counts)

	// Reporting never deletes.
	j.ReportOrphanDiscounts()
	discounts, err := s.ListDiscounts(context.Background(), "prog_2")
	require.NoError(t, err)
	assert.Len(t, discounts, 2)
}

func TestPruneOutbox(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	for _, id := range []string{"old", "recent", "pending"} {
		require.NoError(t, s.EnqueueOutbox(ctx, &models.OutboxEvent{ID: id, Kind: models.OutboxAudit, EventType: "discount.create", Payload: []byte(`{}`)}))
	}
	require.NoError(t, s.MarkOutboxDispatched(ctx, "old", now.Add(-10*24*time.Hour)))
	require.NoError(t, s.MarkOutboxDispatched(ctx, "recent", now.Add(-time.Hour)))

	j := NewJobs(s, 7*24*time.Hour)
	j.now = func() time.Time { return now }
	j.PruneOutbox()

	var left []string
	for _, evt := range s.Outbox() {
		left = append(left, evt.ID)
	}
	assert.ElementsMatch(t, []string{"recent", "pending"}, left)
}

func TestSchedulerRejectsBadSpec(t *testing.T) {
	s := NewScheduler(NewJobs(store.NewMemoryStore(), time.Hour), Schedules{OutboxPrune: "not a cron", OrphanReport: "0 4 * * *"})
	assert.Error(t, s.Start())
}
