package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		appErr   *AppError
		expected string
	}{
		{
			name:     "without wrapped error",
			appErr:   ErrAlreadySettled(),
			expected: "[ESC_001] Wager already settled",
		},
		{
			name:     "with wrapped error",
			appErr:   Wrap("SYS_001", "DB error", http.StatusInternalServerError, fmt.Errorf("connection refused")),
			expected: "[SYS_001] DB error: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.appErr.Error())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	inner := fmt.Errorf("inner error")
	appErr := Wrap("SYS_001", "wrapped", http.StatusInternalServerError, inner)

	assert.True(t, errors.Is(appErr, inner))
	assert.Nil(t, ErrMathOverflow().Unwrap())
}

func TestAppError_IsMatchesCode(t *testing.T) {
	err := fmt.Errorf("settle: %w", ErrAlreadySettled())

	assert.True(t, errors.Is(err, ErrAlreadySettled()))
	assert.False(t, errors.Is(err, ErrMathOverflow()))
}

func TestEscrowErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		code       string
		httpStatus int
	}{
		{"AlreadySettled", ErrAlreadySettled(), "ESC_001", 409},
		{"MathOverflow", ErrMathOverflow(), "ESC_002", 400},
		{"InsufficientEscrow", ErrInsufficientEscrow(), "ESC_003", 422},
		{"DuplicateRecord", ErrDuplicateRecord(), "ESC_004", 409},
		{"EscrowMismatch", ErrEscrowMismatch(), "ESC_005", 400},
		{"ForbiddenActor", ErrForbiddenActor(), "ESC_006", 403},
		{"NotFound", ErrNotFound("wager"), "ESC_007", 404},
		{"InvalidAmount", ErrInvalidAmount(), "ESC_008", 400},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.httpStatus, tt.err.HTTPStatus)
		})
	}
}

func TestSecurityErrors(t *testing.T) {
	assert.Equal(t, "SEC_004", ErrNonceUsed().Code)
	assert.Equal(t, 403, ErrNonceUsed().HTTPStatus)
	assert.Equal(t, "SEC_005", ErrMissingNonce().Code)
	assert.Equal(t, "AUTH_003", ErrInvalidToken().Code)
	assert.Equal(t, 401, ErrInvalidToken().HTTPStatus)
	assert.Equal(t, 429, ErrRateLimitExceeded().HTTPStatus)
}

func TestSystemErrors(t *testing.T) {
	inner := fmt.Errorf("pg: connection closed")
	dbErr := ErrDatabaseError(inner)
	assert.Equal(t, "SYS_001", dbErr.Code)
	assert.Equal(t, 500, dbErr.HTTPStatus)
	assert.True(t, errors.Is(dbErr, inner))

	lockErr := ErrLockTimeout(inner)
	assert.Equal(t, "SYS_002", lockErr.Code)
	assert.Equal(t, 503, lockErr.HTTPStatus)

	encErr := ErrEncryptionFailure(inner)
	assert.Equal(t, "SYS_003", encErr.Code)
}

func TestNotFoundEntity(t *testing.T) {
	err := ErrNotFound("Wager")
	assert.Contains(t, err.Message, "Wager")
}
