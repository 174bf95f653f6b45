package services

import (
	"context"

	"github.com/Govind-619/LinkSphere/models"
	"github.com/Govind-619/LinkSphere/utils"
)

type programGetter interface {
	GetProgram(ctx context.Context, workspaceID, programID string) (*models.Program, error)
	LockProgram(ctx context.Context, workspaceID, programID string) (*models.Program, error)
}

// checkProgramScope rejects a program other than the caller's default one.
// A mismatch reads as NotFound so that other tenants' programs stay invisible.
func checkProgramScope(wctx utils.WorkspaceContext, programID string) error {
	if wctx.WorkspaceID == "" {
		return utils.UnauthorizedError(utils.ErrUnauthorized, nil)
	}
	if programID == "" || (wctx.ProgramID != "" && programID != wctx.ProgramID) {
		return utils.NotFoundError(utils.ErrProgramNotFound, nil)
	}
	return nil
}

func getProgram(ctx context.Context, r programGetter, wctx utils.WorkspaceContext, programID string) (*models.Program, error) {
	if err := checkProgramScope(wctx, programID); err != nil {
		return nil, err
	}
	return r.GetProgram(ctx, wctx.WorkspaceID, programID)
}

func lockProgram(ctx context.Context, r programGetter, wctx utils.WorkspaceContext, programID string) (*models.Program, error) {
	if err := checkProgramScope(wctx, programID); err != nil {
		return nil, err
	}
	return r.LockProgram(ctx, wctx.WorkspaceID, programID)
}
