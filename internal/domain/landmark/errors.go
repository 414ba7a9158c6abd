package landmark

import "errors"

// Sentinel kinds for landmark errors.
var (
	ErrTooManySlots = errors.New("too many landmark slots")
)
