package domain

import "errors"

var (
	// ErrExperimentNotFound is returned when an operation references an
	// experiment id that does not exist in the store.
	ErrExperimentNotFound = errors.New("experiment not found")

	// ErrInvalidConfiguration is returned when an experiment definition is
	// malformed at creation time (empty variants/metrics, bad split).
	ErrInvalidConfiguration = errors.New("invalid experiment configuration")

	// ErrInvalidCredentials is returned by the auth service when a key id or
	// secret does not match.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidShareCode is returned when a report share code cannot be
	// decoded or has expired.
	ErrInvalidShareCode = errors.New("invalid or expired share code")
)
