package entities

// ResolveToken exports resolveToken for testing.
var ResolveToken = resolveToken //nolint:gochecknoglobals // test export

// ExpandPath exports expandPath for testing.
var ExpandPath = expandPath //nolint:gochecknoglobals // test export
