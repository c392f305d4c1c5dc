package domain

import "errors"

// Sentinel errors for bank operations
var (
	// ErrAuthRequired indicates there is no usable credential: the token is
	// missing, was rejected by the server, or could not be verified.
	// Callers must send the user back through login.
	ErrAuthRequired = errors.New("authentication required")

	// ErrServerOffline indicates the bank server is unreachable
	ErrServerOffline = errors.New("bank server is unreachable")

	// ErrNotFound indicates the requested record does not exist
	ErrNotFound = errors.New("record not found")

	// ErrInvalidJSON indicates user-entered JSON failed local validation
	ErrInvalidJSON = errors.New("invalid JSON content")

	// ErrSuperseded indicates a load was overtaken by a newer one for a
	// different target; its result was discarded, not applied.
	ErrSuperseded = errors.New("request superseded by a newer one")
)

// Upload validation errors, enforced client-side before any bytes are
// sent. The server re-validates; these are a convenience, not a boundary.
var (
	ErrNotPDF          = errors.New("only PDF files are accepted")
	ErrFileTooLarge    = errors.New("file exceeds the 100MB upload limit")
	ErrInvalidBookName = errors.New("book name may only contain letters, digits, underscores and hyphens")
)
