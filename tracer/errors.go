package tracer

import "errors"

var (
	ErrAlreadyAttached = errors.New("tracer: already attached to a scene")
	ErrNotAttached     = errors.New("tracer: not attached to a scene")
	ErrNoAccelerator   = errors.New("tracer: no accelerator defined")
	ErrBlockOutOfRange = errors.New("tracer: block exceeds frame bounds")
)
