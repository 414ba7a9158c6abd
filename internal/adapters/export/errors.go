package export

import "errors"

// Sentinel kinds for export errors.
var (
	ErrNoData            = errors.New("no frames to export")
	ErrUnsupportedFormat = errors.New("unsupported export format")
)
