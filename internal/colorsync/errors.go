package colorsync

import "errors"

// Standard errors returned by the Service lifecycle.
var (
	// ErrAlreadyStarted indicates the service is already running.
	ErrAlreadyStarted = errors.New("colorsync service already started")

	// ErrNotStarted indicates the service has not been started.
	ErrNotStarted = errors.New("colorsync service not started")
)
