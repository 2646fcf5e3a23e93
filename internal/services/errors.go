package services

import "errors"

// Error kinds surfaced to the HTTP layer. Handlers map these to status
// codes; messages never distinguish failure causes beyond their kind.
var (
	// ErrFieldIncomplete is returned when a mandatory field is absent.
	ErrFieldIncomplete = errors.New("field incomplete")

	// ErrFieldTypeMismatch is returned when a field carries a value of
	// the wrong type or shape.
	ErrFieldTypeMismatch = errors.New("field type mismatch")

	// ErrInjectionDetected is returned when a validated value differs
	// from its sanitized form. The value is rejected, never cleaned.
	ErrInjectionDetected = errors.New("injection detected")

	// ErrUsernameTaken is returned when a username is already registered,
	// ignoring case.
	ErrUsernameTaken = errors.New("username already in use")

	// ErrEmailTaken is returned when an email is already registered,
	// ignoring case.
	ErrEmailTaken = errors.New("email already in use")

	// ErrInvalidID is returned for malformed or injection-bearing
	// document identifiers, user and grow post alike.
	ErrInvalidID = errors.New("invalid id")

	// ErrNotFound is returned when no user matches a lookup.
	ErrNotFound = errors.New("user not found")

	// ErrCredentialsInvalid is the single error for every login failure.
	// It deliberately hides whether the username or the password was wrong.
	ErrCredentialsInvalid = errors.New("username or password incorrect")

	// ErrInsertFailed is returned when the store did not acknowledge an
	// insert or assigned no identifier.
	ErrInsertFailed = errors.New("could not add user")

	// ErrStoreUnavailable is returned for transient store failures.
	ErrStoreUnavailable = errors.New("store unavailable")
)
