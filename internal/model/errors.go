package model

import (
	"errors"
	"fmt"
)

// ErrUnauthenticated is returned by mutating operations when no user is
// present. Reads degrade to empty results instead.
var ErrUnauthenticated = errors.New("not authenticated")

// ValidationError reports a bad or missing required field. It is always
// raised before any remote call and is never retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// RemoteError wraps a failed storage operation. For reads the caller degrades
// to an empty collection; for primary-entity writes the operation is failed
// even though the optimistic local state may already reflect the change.
type RemoteError struct {
	Op  string
	Err error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *RemoteError) Unwrap() error { return e.Err }

// MutationResult reports what a mutation actually did. Applied means the
// local cache reflects the change; Persisted means the remote write
// succeeded. Applied-but-not-persisted is the documented optimistic state.
type MutationResult struct {
	Applied   bool `json:"applied"`
	Persisted bool `json:"persisted"`
}
