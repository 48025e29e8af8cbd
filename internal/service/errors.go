package service

import "errors"

// Engine failure kinds. Every operation fails closed: when one of these is
// returned, no counter or row has changed.
var (
	// ErrValidation marks missing or malformed caller input.
	ErrValidation = errors.New("validation failed")

	// ErrForbidden marks a caller lacking ownership of the target resource.
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidCredentials marks a failed login.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrEmailTaken marks a registration against an email already in use.
	ErrEmailTaken = errors.New("email already in use")

	// ErrOverlapping marks a session window intersecting another session of
	// the same professor.
	ErrOverlapping = errors.New("overlapping session for this professor")

	// ErrShrinkBelowCommitted marks a capacity edit that would drop
	// max_spots below the number of already granted spots.
	ErrShrinkBelowCommitted = errors.New("cannot shrink capacity below granted spots")

	// ErrInvalidState marks an operation that is not legal in the request's
	// current lifecycle state.
	ErrInvalidState = errors.New("operation not allowed in current state")
)
