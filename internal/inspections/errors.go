// errors.go defines the sentinel errors the lifecycle service surfaces to
// callers. Both propagate with no partial effect; the API layer maps them to
// 404 and 409 respectively.
package inspections

import "errors"

var (
	// ErrNotFound is returned when the referenced inspection does not exist.
	ErrNotFound = errors.New("inspection not found")

	// ErrInvalidState is returned when an operation is attempted from a
	// status that does not permit it (e.g. approving an inspection that is
	// not pending approval).
	ErrInvalidState = errors.New("operation not valid in current inspection state")
)
