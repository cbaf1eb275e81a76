package domain

import "errors"

// Auth errors
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrSessionCorrupt     = errors.New("persisted session data is invalid")
	ErrNotAuthenticated   = errors.New("not authenticated")
)

// Authorization errors
var (
	ErrForbidden = errors.New("role not permitted for this destination")
)

// Remote call errors
var (
	ErrRemoteCall  = errors.New("remote call failed")
	ErrCircuitOpen = errors.New("backend temporarily unavailable")
	ErrNotFound    = errors.New("not found")
)

// Validation errors (client input, rejected before any remote call)
var (
	ErrEmptyField       = errors.New("required field is empty")
	ErrInvalidStatus    = errors.New("unknown project status")
	ErrInvalidDate      = errors.New("invalid date")
	ErrAlreadyApproved  = errors.New("project is already approved")
	ErrNoPendingConfirm = errors.New("no pending confirmation")
)
