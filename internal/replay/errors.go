package replay

import "errors"

// Sentinel errors.
var (
	ErrInvalidConfig = errors.New("invalid replay config")
	ErrUnhealthy     = errors.New("service is not healthy")
	ErrRequest       = errors.New("request failed")
	ErrTimeout       = errors.New("timed out waiting for frames")
)
