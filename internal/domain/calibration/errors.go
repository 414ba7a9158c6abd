package calibration

import "errors"

var (
	// ErrInvalidCalibration is returned when calibration points or scale are out of range.
	ErrInvalidCalibration = errors.New("invalid calibration")
	// ErrUnknownMode is returned for an analysis mode other than 2d or 3d.
	ErrUnknownMode = errors.New("unknown analysis mode")
)
