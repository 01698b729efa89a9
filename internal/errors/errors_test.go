package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError(t *testing.T) {
	t.Run("message without cause", func(t *testing.T) {
		err := NewValidationError("security_code is missing")
		assert.Equal(t, "[VALIDATION] security_code is missing", err.Error())
		assert.Nil(t, err.Unwrap())
	})

	t.Run("message with cause", func(t *testing.T) {
		cause := stderrors.New("disk full")
		err := NewStorageError("failed to write artifact", cause)
		assert.Equal(t, "[STORAGE] failed to write artifact: disk full", err.Error())
		assert.True(t, stderrors.Is(err, cause))
	})

	t.Run("context is chainable", func(t *testing.T) {
		err := NewValidationError("invalid report_type").
			WithContext("report_type", "transition").
			WithContext("doc_id", "S100X")
		assert.Equal(t, "transition", err.Context["report_type"])
		assert.Equal(t, "S100X", err.Context["doc_id"])
	})
}

func TestIsValidation(t *testing.T) {
	assert.True(t, IsValidation(NewValidationError("bad")))
	assert.True(t, IsValidation(fmt.Errorf("wrapped: %w", NewValidationError("bad"))))
	assert.False(t, IsValidation(NewStorageError("io", stderrors.New("boom"))))
	assert.False(t, IsValidation(stderrors.New("plain")))
}

func TestFromAppError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "validation maps to 422",
			err:        NewValidationError("report_type must be annual or quarterly"),
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "EXPORT_VALIDATION_FAILED",
		},
		{
			name:       "storage maps to 500",
			err:        NewStorageError("write failed", stderrors.New("eio")),
			wantStatus: http.StatusInternalServerError,
			wantCode:   "FILESYSTEM_ERROR",
		},
		{
			name:       "not found maps to 404",
			err:        NewNotFoundError("quote"),
			wantStatus: http.StatusNotFound,
			wantCode:   "NOT_FOUND",
		},
		{
			name:       "plain error maps to 500",
			err:        stderrors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   "INTERNAL_SERVER_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			apiErr := FromAppError(tt.err)
			require.NotNil(t, apiErr)
			assert.Equal(t, tt.wantStatus, apiErr.StatusCode)
			assert.Equal(t, tt.wantCode, apiErr.ErrorCode)
		})
	}
}
