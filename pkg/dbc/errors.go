package dbc

import "github.com/cockroachdb/errors"

var (
	ErrUnknownSignal        = errors.New("unknown signal")
	ErrUnknownMessage       = errors.New("unknown message")
	ErrDuplicateSignal      = errors.New("duplicate signal")
	ErrDuplicateMessage     = errors.New("duplicate message")
	ErrAmbiguousMultiplexor = errors.New("more than one multiplexor switch")
	ErrMissingMultiplexor   = errors.New("multiplexed signal without multiplexor switch")
	ErrBitOverlap           = errors.New("overlapping signal bit ranges")
	ErrFrameShape           = errors.New("frame shape mismatch")
)
