package prune

import (
	"context"
	"errors"

	cerrdefs "github.com/containerd/errdefs"
)

// Request-level errors.
var (
	// ErrBackendUnavailable aborts a request before anything is listed.
	ErrBackendUnavailable = errors.New("backend unavailable")
	ErrUnsupportedClass   = errors.New("unsupported resource class")
)

// ErrorKind classifies a per-resource deletion failure.
type ErrorKind string

const (
	KindBusy             ErrorKind = "busy"
	KindNotFound         ErrorKind = "not-found"
	KindPermissionDenied ErrorKind = "permission-denied"
	KindBackendError     ErrorKind = "backend-error"
	KindCancelled        ErrorKind = "cancelled"
)

// Classify maps a backend error onto an ErrorKind. Backends express the
// failure mode with containerd errdefs classes; anything unrecognised is a
// generic backend error.
func Classify(err error) ErrorKind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded),
		cerrdefs.IsCanceled(err), cerrdefs.IsDeadlineExceeded(err):
		return KindCancelled
	case cerrdefs.IsConflict(err), cerrdefs.IsFailedPrecondition(err):
		return KindBusy
	case cerrdefs.IsNotFound(err):
		return KindNotFound
	case cerrdefs.IsPermissionDenied(err), cerrdefs.IsUnauthorized(err):
		return KindPermissionDenied
	default:
		return KindBackendError
	}
}

// isUnavailable reports whether a list error means the backend went away.
func isUnavailable(err error) bool {
	return errors.Is(err, ErrBackendUnavailable) || cerrdefs.IsUnavailable(err)
}
