// Package errs define custom error types and utilities.
//
// Its purpose is to create specific error structures
// (FieldErrors for rejected record payloads, HTTPError for API responses)
// so clients receive meaningful, actionable, and consistent
// error messages.
package errs
