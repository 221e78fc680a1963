// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios without
// inspecting driver-specific errors.
package repository

import "errors"

// ErrConflict is returned when an insert or update cannot proceed
// because of conflicting state, such as submitting a second pending
// subscription verification. Handlers should translate this into an
// HTTP 409 response.
var ErrConflict = errors.New("conflict")

// ErrEmailExists is returned when a user insert violates the unique
// email constraint.
var ErrEmailExists = errors.New("email already exists")

// ErrPartnerCodeExists is returned when a partner insert or update
// violates the unique partner_code constraint.
var ErrPartnerCodeExists = errors.New("partner code already exists")
