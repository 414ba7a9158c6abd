package biomech

import "errors"

// Sentinel kinds for biomech errors.
var (
	ErrUnknownSex = errors.New("unknown sex")
)
