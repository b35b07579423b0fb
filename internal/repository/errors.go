// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios. For
// example, ErrNameExists indicates that a unique login name is
// already taken, while ErrMachineNotFound signals that a machine
// lookup matched no row. Lookups without a dedicated sentinel pass
// sql.ErrNoRows through unchanged.
package repository

import "errors"

// ErrNameExists is returned by user creation when the login name
// collides with an existing account. Handlers should translate this
// into an HTTP 409 response.
var ErrNameExists = errors.New("name already exists")

// ErrMachineNotFound is returned when a machine lookup by id matches
// no row. Handlers should translate this into an HTTP 404 response.
var ErrMachineNotFound = errors.New("machine not found")
