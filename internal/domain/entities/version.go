package entities

import (
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Version is either a semantic version (numeric segments plus an optional
// qualifier ordered as a pre-release) or a raw string that only supports a
// segment-wise comparison. Parsing never fails: anything semver rejects
// becomes a raw version.
type Version struct {
	raw      string
	semantic *semver.Version
}

// ParseVersion parses the given string. It never fails.
func ParseVersion(raw string) Version {
	raw = strings.TrimSpace(raw)
	version := Version{raw: raw}
	if raw == "" {
		return version
	}
	if sv, err := semver.NewVersion(raw); err == nil {
		version.semantic = sv
	}
	return version
}

// IsZero reports whether the version was parsed from an empty string.
func (it Version) IsZero() bool { return it.raw == "" }

// IsSemantic reports whether the version parsed as a semantic version.
func (it Version) IsSemantic() bool { return it.semantic != nil }

// String returns the version exactly as it was declared.
func (it Version) String() string { return it.raw }

// Canonical returns the normalized form used in cache keys, so that "1.5"
// and "1.5.0" produce the same key.
func (it Version) Canonical() string {
	if it.semantic != nil {
		return it.semantic.String()
	}
	return it.raw
}

// Compare returns -1, 0 or 1.
func (it Version) Compare(other Version) int {
	return CompareVersions(it, other)
}

// Equal reports whether both versions compare as equal.
func (it Version) Equal(other Version) bool {
	return CompareVersions(it, other) == 0
}

// CompareVersions orders two versions. Two semantic versions are compared
// with semver precedence; anything else falls back to comparing the
// dot/dash separated segments one by one.
func CompareVersions(a, b Version) int {
	if a.semantic != nil && b.semantic != nil {
		return a.semantic.Compare(b.semantic)
	}
	return compareSegments(a.raw, b.raw)
}

// SortVersions sorts in ascending order, keeping the input order for equal versions.
func SortVersions(versions []Version) {
	sort.SliceStable(versions, func(i, j int) bool {
		return CompareVersions(versions[i], versions[j]) < 0
	})
}

// MaxVersion returns the greatest version of the slice.
func MaxVersion(versions []Version) (Version, bool) {
	if len(versions) == 0 {
		return Version{}, false
	}
	best := versions[0]
	for _, v := range versions[1:] {
		if CompareVersions(v, best) > 0 {
			best = v
		}
	}
	return best, true
}

func splitSegments(raw string) []string {
	return strings.FieldsFunc(strings.TrimPrefix(raw, "v"), func(r rune) bool {
		return r == '.' || r == '-' || r == '_' || r == '+'
	})
}

func compareSegments(a, b string) int {
	left := splitSegments(a)
	right := splitSegments(b)

	for i := 0; i < len(left) || i < len(right); i++ {
		switch {
		case i >= len(left):
			return -missingSegmentOrder(right[i])
		case i >= len(right):
			return missingSegmentOrder(left[i])
		}
		if c := compareSegment(left[i], right[i]); c != 0 {
			return c
		}
	}
	return 0
}

// missingSegmentOrder tells how a version with an extra segment relates to
// one that ended: a trailing number makes it newer (1.0.1 > 1.0) while a
// trailing qualifier makes it older (1.0-alpha < 1.0).
func missingSegmentOrder(extra string) int {
	if isNumeric(extra) {
		return 1
	}
	return -1
}

func compareSegment(a, b string) int {
	aNum, bNum := isNumeric(a), isNumeric(b)
	switch {
	case aNum && bNum:
		return compareNumeric(a, b)
	case aNum:
		return 1
	case bNum:
		return -1
	default:
		return strings.Compare(strings.ToLower(a), strings.ToLower(b))
	}
}

// compareNumeric compares digit strings of arbitrary length.
func compareNumeric(a, b string) int {
	a = strings.TrimLeft(a, "0")
	b = strings.TrimLeft(b, "0")
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	return strings.Compare(a, b)
}

func isNumeric(segment string) bool {
	if segment == "" {
		return false
	}
	for _, r := range segment {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
