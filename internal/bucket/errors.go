package bucket

import (
	"errors"
	"fmt"

	"github.com/aws/smithy-go"
	cerrdefs "github.com/containerd/errdefs"
)

// APIError is an S3 error with its service code, reported as
// "[Code]: message". It matches the errdefs class for its code.
type APIError struct {
	Code    string
	Message string
	class   error
	err     error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("[%s]: %s", e.Code, e.Message)
}

// Unwrap exposes both the errdefs class and the SDK error.
func (e *APIError) Unwrap() []error {
	var errs []error
	for _, err := range []error{e.class, e.err} {
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

// codeClasses maps S3 error codes onto errdefs classes.
var codeClasses = map[string]error{
	"BucketNotEmpty":          cerrdefs.ErrConflict,
	"OperationAborted":        cerrdefs.ErrConflict,
	"BucketAlreadyExists":     cerrdefs.ErrAlreadyExists,
	"BucketAlreadyOwnedByYou": cerrdefs.ErrAlreadyExists,
	"NoSuchBucket":            cerrdefs.ErrNotFound,
	"NotFound":                cerrdefs.ErrNotFound,
	"AccessDenied":            cerrdefs.ErrPermissionDenied,
	"AllAccessDisabled":       cerrdefs.ErrPermissionDenied,
	"InvalidAccessKeyId":      cerrdefs.ErrUnauthenticated,
	"SignatureDoesNotMatch":   cerrdefs.ErrUnauthenticated,
	"ExpiredToken":            cerrdefs.ErrUnauthenticated,
	"InvalidBucketName":       cerrdefs.ErrInvalidArgument,
	"ServiceUnavailable":      cerrdefs.ErrUnavailable,
	"SlowDown":                cerrdefs.ErrUnavailable,
}

// wrapError converts SDK API errors into *APIError. Other errors (transport,
// cancellation) pass through unchanged.
func wrapError(err error) error {
	if err == nil {
		return nil
	}
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return err
	}
	msg := apiErr.ErrorMessage()
	if msg == "" {
		msg = "No error message provided."
	}
	return &APIError{
		Code:    apiErr.ErrorCode(),
		Message: msg,
		class:   codeClasses[apiErr.ErrorCode()],
		err:     err,
	}
}
