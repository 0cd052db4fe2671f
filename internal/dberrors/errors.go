// Package dberrors defines the sentinel errors returned by the
// persistence and valuation layers, following the package-level
// var-block-of-sentinels convention used throughout the connector
// platform's service packages.
package dberrors

import "errors"

var (
	// ErrValidation indicates caller-supplied input failed validation
	// (negative price on completion, invalid URL scheme, bad limit/cursor).
	ErrValidation = errors.New("validation error")

	// ErrNotFound indicates a listing, ruleset, rule, or group lookup
	// failed to find a matching row.
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates a duplicate unique key or a concurrent update
	// lost a race.
	ErrConflict = errors.New("conflict")

	// ErrUnavailable indicates the database connection is down or
	// unreachable.
	ErrUnavailable = errors.New("database unavailable")

	// ErrSchema indicates a configuration/schema mismatch (e.g. a
	// migration that hasn't run yet).
	ErrSchema = errors.New("database schema error")
)
