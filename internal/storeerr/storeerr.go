// Package storeerr specifically handles document store driver errors.
//
// It classifies errors from the Mongo driver (duplicate keys, missing
// documents, timeouts, network failures) and converts them into the
// application's HTTP error shape.
package storeerr

import (
	"context"
	"errors"

	"github.com/deppfellow/trialbroker/internal/errs"
	"go.mongodb.org/mongo-driver/mongo"
)

// Code is a driver-independent category of store failure.
type Code string

const (
	DuplicateKey  Code = "duplicate_key"
	NotFound      Code = "not_found"
	Timeout       Code = "timeout"
	Network       Code = "network"
	NotConfigured Code = "not_configured"
	Other         Code = "other"
)

// Error is a classified store error.
type Error struct {
	Code       Code
	Collection string
	Operation  string

	driverErr error
}

func (e *Error) Error() string {
	return e.driverErr.Error()
}

func (e *Error) Unwrap() error {
	return e.driverErr
}

// Wrap classifies err and records where it happened. A nil err stays nil.
func Wrap(err error, collection, operation string) error {
	if err == nil {
		return nil
	}

	var storeErr *Error
	if errors.As(err, &storeErr) {
		return err
	}

	return &Error{
		Code:       Classify(err),
		Collection: collection,
		Operation:  operation,
		driverErr:  err,
	}
}

// ErrCode reports the Code of an already wrapped error, or classifies it.
func ErrCode(err error) Code {
	var storeErr *Error
	if errors.As(err, &storeErr) {
		return storeErr.Code
	}
	return Classify(err)
}

// Classify maps a raw driver error onto a Code.
func Classify(err error) Code {
	switch {
	case errors.Is(err, errs.ErrNotConfigured):
		return NotConfigured
	case errors.Is(err, mongo.ErrNoDocuments):
		return NotFound
	case mongo.IsDuplicateKeyError(err):
		return DuplicateKey
	case mongo.IsTimeout(err), errors.Is(err, context.DeadlineExceeded):
		return Timeout
	case mongo.IsNetworkError(err):
		return Network
	default:
		return Other
	}
}
