package store

import "errors"

// ErrNotFound is returned when a document does not exist.
var ErrNotFound = errors.New("not found")

// ErrInvalidID is returned when an identifier is not well-formed for the
// backend that owns it.
var ErrInvalidID = errors.New("invalid id")

// ErrDuplicateUsername is returned when an insert violates the
// case-insensitive username uniqueness constraint.
var ErrDuplicateUsername = errors.New("duplicate username")

// ErrDuplicateEmail is returned when an insert violates the
// case-insensitive email uniqueness constraint.
var ErrDuplicateEmail = errors.New("duplicate email")
