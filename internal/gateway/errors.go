package gateway

import (
	"errors"
	"fmt"
)

// ErrNotBound matches every *NotBoundError via errors.Is.
var ErrNotBound = errors.New("gateway is not bound to an authenticated session")

// ErrLandNotFound is returned when the ledger has no parcel with the
// requested id.
var ErrLandNotFound = errors.New("land not found")

// NotBoundError is returned when an operation is invoked before Bind. The
// transport is never touched.
type NotBoundError struct {
	Operation string
}

func (e *NotBoundError) Error() string {
	return fmt.Sprintf("%s: %s", e.Operation, ErrNotBound)
}

// Is reports whether target is ErrNotBound.
func (e *NotBoundError) Is(target error) bool {
	return target == ErrNotBound
}

// RemoteRejection is a business-rule refusal reported by the ledger. Its
// Error text is the ledger's message, unmodified, so callers can show it to
// the user as is.
type RemoteRejection struct {
	Operation string
	Message   string
}

func (e *RemoteRejection) Error() string {
	return e.Message
}

// IsRemoteRejection reports whether err is (or wraps) a ledger rejection.
func IsRemoteRejection(err error) bool {
	var rej *RemoteRejection
	return errors.As(err, &rej)
}
