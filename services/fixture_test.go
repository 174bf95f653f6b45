package services

import (
	"testing"
	"time"

	"github.com/Govind-619/LinkSphere/models"
	"github.com/Govind-619/LinkSphere/store"
	"github.com/Govind-619/LinkSphere/utils"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

func callerOf(workspaceID, programID string) utils.WorkspaceContext {
	return utils.WorkspaceContext{
		WorkspaceID: workspaceID,
		ProgramID:   programID,
		ActorID:     "user_1",
		ActorType:   utils.ActorUser,
		RequestID:   "req_test",
	}
}

// seedPrograms creates two workspaces. prog_1 in ws_1 has partners pa, pb
// and pc enrolled in that order; prog_2 in ws_2 has pa enrolled.
func seedPrograms(t *testing.T) *store.MemoryStore {
	t.Helper()
	s := store.NewMemoryStore()
	err := s.Seed(func(seed *store.MemorySeed) error {
		seed.Workspace(models.Workspace{ID: "ws_1", Name: "Acme", Slug: "acme", LinksLimit: 25, DomainsLimit: 3, UsersLimit: 1, CreatedAt: baseTime})
		seed.Workspace(models.Workspace{ID: "ws_2", Name: "Globex", Slug: "globex", CreatedAt: baseTime})
		seed.Member(models.WorkspaceMember{ID: "wm_1", WorkspaceID: "ws_1", UserID: "user_1", Name: "Ada", Email: "ada@acme.test", Role: models.RoleOwner})
		seed.Member(models.WorkspaceMember{ID: "wm_2", WorkspaceID: "ws_1", UserID: "user_2", Email: "bob@acme.test", Role: models.RoleMember})

		seed.Program(models.Program{ID: "prog_1", WorkspaceID: "ws_1", Name: "Acme Partners", Slug: "acme-partners", CreatedAt: baseTime})
		seed.Program(models.Program{ID: "prog_2", WorkspaceID: "ws_2", Name: "Globex Partners", Slug: "globex-partners", CreatedAt: baseTime})

		for i, id := range []string{"pa", "pb", "pc"} {
			seed.Partner(models.Partner{ID: id, Name: "Partner " + id, Email: ptr(id + "@partners.test"), CreatedAt: baseTime})
			err := seed.Enrollment(models.ProgramEnrollment{
				ID:        "en_1_" + id,
				ProgramID: "prog_1",
				PartnerID: id,
				CreatedAt: baseTime.Add(time.Duration(i) * time.Minute),
			})
			if err != nil {
				return err
			}
		}
		return seed.Enrollment(models.ProgramEnrollment{ID: "en_2_pa", ProgramID: "prog_2", PartnerID: "pa", CreatedAt: baseTime})
	})
	require.NoError(t, err)
	return s
}

func newTestDiscountService(s store.Store) *DiscountService {
	svc := NewDiscountService(s)
	n := 0
	svc.now = func() time.Time {
		n++
		return baseTime.Add(time.Duration(n) * time.Second)
	}
	return svc
}

func requireAppError(t *testing.T, err error, code string) *utils.AppError {
	t.Helper()
	require.Error(t, err)
	appErr := utils.GetAppError(err)
	require.NotNil(t, appErr, "expected an AppError, got %v", err)
	require.Equal(t, code, appErr.Code, appErr.Message)
	return appErr
}

func detailsOf(t *testing.T, appErr *utils.AppError) map[string]any {
	t.Helper()
	details, ok := appErr.Details.(map[string]any)
	require.True(t, ok, "details have type %T", appErr.Details)
	return details
}
