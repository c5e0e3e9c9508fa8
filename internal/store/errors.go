package store

import "errors"

var (
	// ErrNotFound is returned for a roadmap that is absent or owned by
	// another user; the two cases are indistinguishable to callers.
	ErrNotFound = errors.New("roadmap not found")

	// ErrInvalidRoadmap is returned when a roadmap cannot be persisted as given.
	ErrInvalidRoadmap = errors.New("invalid roadmap")
)
