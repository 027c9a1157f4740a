package storeerr

import (
	"errors"

	"github.com/deppfellow/trialbroker/internal/errs"
)

// HandleError converts a store error into an application-level error.
//
// Output:
//   - *errs.HTTPError: returned unchanged
//   - anything else (not configured, duplicate key, no documents, timeouts,
//     network, unknown): a PersistenceError carrying the store's message
//
// The classification stays on the wrapped *Error for logging; it never
// changes the status a client sees.
func HandleError(err error) error {
	if err == nil {
		return nil
	}

	var httpErr *errs.HTTPError
	if errors.As(err, &httpErr) {
		return err
	}

	return errs.NewPersistenceError(err)
}
