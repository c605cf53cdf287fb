package gate

import "errors"

var (
	// ErrUnauthenticated is returned when no subject is present.
	ErrUnauthenticated = errors.New("gate: no subject")
	// ErrForbidden is returned when the subject's profile lacks the permission.
	ErrForbidden = errors.New("gate: permission denied")
)
