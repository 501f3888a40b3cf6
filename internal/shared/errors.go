package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument indicates a request value outside the accepted domain.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrInsufficientStock occurs when a sale asks for more units than are stocked.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrConflict indicates the operation would break a referential rule.
	ErrConflict = errors.New("conflict")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnauthorized indicates a missing or expired session token.
	ErrUnauthorized = errors.New("unauthorized")
)
