package textclassifier

import "errors"

// Exported errors for library consumers.
var (
	// ErrNoProvider indicates the requested embedding provider cannot be built.
	ErrNoProvider = errors.New("textclassifier: no embedding provider available")

	// ErrClientClosed indicates the client has been closed.
	ErrClientClosed = errors.New("textclassifier: client is closed")
)
