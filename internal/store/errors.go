package store

import "errors"

// Sentinel errors.
var (
	ErrUnknownCollection = errors.New("store: unknown collection")
	ErrCorruptTable      = errors.New("store: corrupt table")
)
