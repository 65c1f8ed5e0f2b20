// Package apperr holds the sentinel error kinds shared across vaultport.
package apperr

import "errors"

var (
	ErrNotFound    = errors.New("not found")
	ErrInvalidPath = errors.New("invalid path")

	// ErrMissingInput means the source root does not exist. Fatal.
	ErrMissingInput = errors.New("input directory not found")
	// ErrNoTabularSource means a database location holds no CSV file.
	// Only that database is skipped.
	ErrNoTabularSource = errors.New("no tabular source found")
	// ErrFilesystemWrite wraps write failures; these abort the run.
	ErrFilesystemWrite = errors.New("filesystem write failed")
)
