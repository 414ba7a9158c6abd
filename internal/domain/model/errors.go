package model

import "errors"

var (
	ErrInvalidMedia     = errors.New("invalid media")
	ErrInvalidDetection = errors.New("invalid detection")
	ErrInvalidJoint     = errors.New("joint cannot be edited")
	ErrJointNotDetected = errors.New("joint not detected in frame")
)
