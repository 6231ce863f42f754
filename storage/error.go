package storage

import (
	stderrors "errors"

	"github.com/scimdb/scimdb/kit/errors"
)

var (
	// ErrKeyNotFound is returned when no value is stored at the
	// requested key.
	ErrKeyNotFound = &errors.Error{
		Code: errors.ENotFound,
		Msg:  "key not found",
	}
)

// ErrCorruptKey is returned when a stored key cannot be decoded.
func ErrCorruptKey(err error) *errors.Error {
	return &errors.Error{
		Code: errors.EInternal,
		Msg:  "corrupt storage key",
		Err:  err,
	}
}

// ErrInternalServiceError wraps backend failures with an internal code.
// Errors that already carry a code pass through untouched.
func ErrInternalServiceError(err error) error {
	if err == nil {
		return nil
	}

	var e *errors.Error
	if stderrors.As(err, &e) {
		return err
	}

	return &errors.Error{
		Code: errors.EInternal,
		Err:  err,
	}
}
