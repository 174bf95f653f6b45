package store

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/Govind-619/LinkSphere/utils"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestTranslateError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code string
	}{
		{"record not found", gorm.ErrRecordNotFound, utils.CodeNotFound},
		{"unique violation", &pgconn.PgError{Code: "23505"}, utils.CodeConflict},
		{"serialization failure", fmt.Errorf("commit: %w", &pgconn.PgError{Code: "40001"}), utils.CodeConflict},
		{"lock not available", &pgconn.PgError{Code: "55P03"}, utils.CodeConflict},
		{"foreign key", &pgconn.PgError{Code: "23503"}, utils.CodeInvalidInput},
		{"cancelled", context.Canceled, utils.CodeUnavailable},
		{"other", errors.New("connection reset"), utils.CodeInternal},
		{"app error passes through", utils.ConflictError("taken", nil), utils.CodeConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			appErr := utils.GetAppError(translateError(tt.err, "discount"))
			if assert.NotNil(t, appErr) {
				assert.Equal(t, tt.code, appErr.Code)
			}
		})
	}
	assert.NoError(t, translateError(nil, "discount"))
}
