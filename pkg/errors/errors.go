// Package errors provides error wrapping utilities and the fatal error
// taxonomy shared across the application.
package errors

import (
	"errors"
	"fmt"
)

// Fatal error categories. Anything that prevents establishing a valid,
// queryable index wraps one of these. Data-quality anomalies found inside an
// otherwise successful ingestion are logged and recovered, never returned.
var (
	// ErrConfiguration marks an ambiguous or missing path specification.
	ErrConfiguration = errors.New("configuration error")

	// ErrNotFound marks a resolved database path that does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDatabaseOpen marks a snapshot that cannot be opened as a valid
	// library store, including a missing version marker.
	ErrDatabaseOpen = errors.New("cannot open library database")
)

// Wrap wraps an error with additional context information.
// If err is nil, it returns nil without wrapping.
func Wrap(err error, context string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", context, err)
}

// Configurationf returns an error matching ErrConfiguration.
func Configurationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
}

// NotFoundf returns an error matching ErrNotFound.
func NotFoundf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

// DatabaseOpenf returns an error matching ErrDatabaseOpen.
func DatabaseOpenf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrDatabaseOpen, fmt.Sprintf(format, args...))
}

// Is reports whether any error in err's chain matches target. Re-exported so
// callers that shadow the standard errors package need only this one.
func Is(err, target error) bool {
	return errors.Is(err, target)
}
