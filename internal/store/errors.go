package store

import "errors"

var (
	// ErrRequestNotFound is returned by FindPendingRequest when no pending
	// request matches the access code within the freshness window.
	ErrRequestNotFound = errors.New("no pending authentication request")

	// ErrRequestAlreadyApproved is returned by ApproveRequest when the request
	// was already approved by a concurrent handshake (0 rows updated).
	ErrRequestAlreadyApproved = errors.New("authentication request already approved")

	// ErrNotLinked is returned by GetAccountLink when the external identity
	// has no game account mapped yet. This is a normal outcome, not a failure.
	ErrNotLinked = errors.New("external identity not linked to an account")
)
