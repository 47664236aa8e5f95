package apperror

import (
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches on Code so callers can test against a fresh constructor value,
// e.g. errors.Is(err, apperror.ErrAlreadySettled()).
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// ---- Escrow lifecycle (ESC) ----

func ErrAlreadySettled() *AppError {
	return New("ESC_001", "Wager already settled", http.StatusConflict)
}

func ErrMathOverflow() *AppError {
	return New("ESC_002", "Math overflow", http.StatusBadRequest)
}

func ErrInsufficientEscrow() *AppError {
	return New("ESC_003", "Insufficient escrow", http.StatusUnprocessableEntity)
}

func ErrDuplicateRecord() *AppError {
	return New("ESC_004", "Custody holder already bound to a wager", http.StatusConflict)
}

func ErrEscrowMismatch() *AppError {
	return New("ESC_005", "Custody holder does not match wager", http.StatusBadRequest)
}

func ErrForbiddenActor() *AppError {
	return New("ESC_006", "Actor not permitted for this operation", http.StatusForbidden)
}

func ErrNotFound(entity string) *AppError {
	return New("ESC_007", fmt.Sprintf("%s not found", entity), http.StatusNotFound)
}

func ErrInvalidAmount() *AppError {
	return New("ESC_008", "Invalid amount", http.StatusBadRequest)
}

// ---- Security & Authentication (SEC / AUTH) ----

func ErrNonceUsed() *AppError {
	return New("SEC_004", "Nonce has already been used", http.StatusForbidden)
}

func ErrMissingNonce() *AppError {
	return New("SEC_005", "Request nonce required", http.StatusBadRequest)
}

func ErrInvalidToken() *AppError {
	return New("AUTH_003", "Invalid or expired token", http.StatusUnauthorized)
}

// ---- Rate Limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New("RATE_001", "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System & Infrastructure (SYS) ----

func ErrDatabaseError(err error) *AppError {
	return Wrap("SYS_001", "Internal database error", http.StatusInternalServerError, err)
}

func ErrLockTimeout(err error) *AppError {
	return Wrap("SYS_002", "Lock acquisition timeout", http.StatusServiceUnavailable, err)
}

func ErrEncryptionFailure(err error) *AppError {
	return Wrap("SYS_003", "Encryption service failure", http.StatusInternalServerError, err)
}

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}

// Validation returns a 400 validation error with a caller-facing message.
func Validation(message string) *AppError {
	return New("VAL_001", message, http.StatusBadRequest)
}
