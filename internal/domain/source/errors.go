package source

import "errors"

// DefaultRate is the processing rate used when none is given, in frames
// per second.
const DefaultRate = 5.0

// ErrMalformed reports a recorded detection line that does not parse.
var ErrMalformed = errors.New("malformed detection record")
