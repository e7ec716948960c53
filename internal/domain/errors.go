package domain

import "errors"

// Sentinel errors surfaced by the core. Callers match with errors.Is; the
// HTTP layer owns the translation to status codes.
var (
	// ErrUnknownSensorType is returned when a reading names a sensor type
	// that has no threshold profile. The evaluator never silently defaults.
	ErrUnknownSensorType = errors.New("unknown sensor type")

	// ErrInvalidThreshold is returned at configuration load time when a
	// profile's warning bound is not strictly below its critical bound.
	ErrInvalidThreshold = errors.New("invalid threshold configuration")

	// ErrDuplicateSectorLevel is returned when a sector's level collides
	// with a sibling sector in the same mine.
	ErrDuplicateSectorLevel = errors.New("duplicate sector level")

	// ErrLastAdminProtected is returned when deleting or demoting the sole
	// remaining holder of the admin role. It is a structural denial, not a
	// permission denial, and is surfaced distinctly so the caller can say why.
	ErrLastAdminProtected = errors.New("last admin user is protected")

	// ErrDuplicateOpenAlert is returned by alert storage when the partial
	// unique index on open alerts per (entity, tier) rejects an insert.
	// The generator treats it as a successful no-op: the concurrent winner
	// already recorded the transition.
	ErrDuplicateOpenAlert = errors.New("open alert already exists")

	// ErrUnknownPermission is returned when a permission name is not part of
	// the namespace it was submitted for.
	ErrUnknownPermission = errors.New("unknown permission")

	// ErrNotFound is returned by repositories for missing rows.
	ErrNotFound = errors.New("not found")
)
