package entities

import "errors"

var (
	ErrRangeConflict     = errors.New("range conflict")
	ErrProbeFailure      = errors.New("probe failure")
	ErrVersionConflict   = errors.New("version conflict")
	ErrPartUnavailable   = errors.New("part unavailable")
	ErrCycleShortcut     = errors.New("cycle shortcut")
	ErrNoMatchingVersion = errors.New("no matching version")
	ErrInvalidRange      = errors.New("invalid version range")
	ErrModelUnavailable  = errors.New("model unavailable")
	ErrCancelled         = errors.New("resolution cancelled")

	// ErrNotFound is returned by a probe that does not know the artifact.
	ErrNotFound = errors.New("artifact not found")
	// ErrChecksumMismatch is returned when downloaded bytes do not match the published digest.
	ErrChecksumMismatch = errors.New("checksum mismatch")

	ErrRootUnresolved   = errors.New("root dependency unresolved")
	ErrStrictUnresolved = errors.New("unresolved dependencies in strict mode")
)
