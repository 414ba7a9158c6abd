package service

import "errors"

// Service errors surfaced to the API.
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrTooManySessions = errors.New("too many sessions")
	ErrBackpressure    = errors.New("detection queue is full")
	ErrStopped         = errors.New("service is not running")
)
