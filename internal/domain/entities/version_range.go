package entities

import (
	"fmt"
	"strings"
)

// BoundKind tells whether a range end is open, inclusive or exclusive.
type BoundKind int

const (
	Unbounded BoundKind = iota
	Inclusive
	Exclusive
)

// Bound is one end of a VersionRange.
type Bound struct {
	Kind    BoundKind
	Version Version
}

// InclusiveBound builds a bound that includes the version.
func InclusiveBound(v Version) Bound { return Bound{Kind: Inclusive, Version: v} }

// ExclusiveBound builds a bound that excludes the version.
func ExclusiveBound(v Version) Bound { return Bound{Kind: Exclusive, Version: v} }

// VersionRange is an interval of versions. A pinned requirement is the
// degenerate range [v,v]. When both ends are bounded and lower > upper the
// range is empty, which callers report as a range conflict.
type VersionRange struct {
	Lower Bound
	Upper Bound
	empty bool
}

// AnyVersion is the unbounded range.
func AnyVersion() VersionRange { return VersionRange{} }

// PinnedRange returns [v,v].
func PinnedRange(v Version) VersionRange {
	return NewVersionRange(InclusiveBound(v), InclusiveBound(v))
}

// NewVersionRange normalizes the bounds and computes emptiness.
func NewVersionRange(lower, upper Bound) VersionRange {
	r := VersionRange{Lower: lower, Upper: upper}
	if lower.Kind != Unbounded && upper.Kind != Unbounded {
		c := CompareVersions(lower.Version, upper.Version)
		if c > 0 || (c == 0 && (lower.Kind == Exclusive || upper.Kind == Exclusive)) {
			r.empty = true
		}
	}
	return r
}

// ParseRange accepts the bracket notation ("[1.0,2.0)", "(,1.0]", "[1.5]",
// "[1.5,)"), a bare version which pins it, and "" or "*" for any version.
// A range whose lower bound is above its upper bound parses successfully
// and reports IsEmpty.
func ParseRange(raw string) (VersionRange, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "*" {
		return AnyVersion(), nil
	}

	first := raw[0]
	if first != '[' && first != '(' {
		if strings.ContainsAny(raw, "[](),") {
			return VersionRange{}, fmt.Errorf("%w: %q", ErrInvalidRange, raw)
		}
		return PinnedRange(ParseVersion(raw)), nil
	}

	last := raw[len(raw)-1]
	if len(raw) < 2 || (last != ']' && last != ')') {
		return VersionRange{}, fmt.Errorf("%w: %q is not closed", ErrInvalidRange, raw)
	}
	inner := raw[1 : len(raw)-1]
	if strings.ContainsAny(inner, "[]()") {
		return VersionRange{}, fmt.Errorf("%w: %q has nested or multiple intervals", ErrInvalidRange, raw)
	}

	lowerRaw, upperRaw, hasComma := strings.Cut(inner, ",")
	if !hasComma {
		if first != '[' || last != ']' || strings.TrimSpace(inner) == "" {
			return VersionRange{}, fmt.Errorf("%w: %q", ErrInvalidRange, raw)
		}
		return PinnedRange(ParseVersion(inner)), nil
	}
	if strings.Contains(upperRaw, ",") {
		return VersionRange{}, fmt.Errorf("%w: %q has more than two bounds", ErrInvalidRange, raw)
	}

	lower := parseBound(lowerRaw, first == '[')
	upper := parseBound(upperRaw, last == ']')
	return NewVersionRange(lower, upper), nil
}

// MustParseRange panics on syntax errors.
func MustParseRange(raw string) VersionRange {
	r, err := ParseRange(raw)
	if err != nil {
		panic(err)
	}
	return r
}

func parseBound(raw string, inclusive bool) Bound {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Bound{Kind: Unbounded}
	}
	if inclusive {
		return InclusiveBound(ParseVersion(raw))
	}
	return ExclusiveBound(ParseVersion(raw))
}

// IsEmpty reports whether no version can satisfy the range.
func (it VersionRange) IsEmpty() bool { return it.empty }

// IsAny reports whether the range is unbounded on both ends.
func (it VersionRange) IsAny() bool {
	return !it.empty && it.Lower.Kind == Unbounded && it.Upper.Kind == Unbounded
}

// IsPinned reports whether the range admits exactly one version.
func (it VersionRange) IsPinned() bool {
	return !it.empty &&
		it.Lower.Kind == Inclusive && it.Upper.Kind == Inclusive &&
		CompareVersions(it.Lower.Version, it.Upper.Version) == 0
}

// Pinned returns the single admitted version of a pinned range.
func (it VersionRange) Pinned() (Version, bool) {
	if !it.IsPinned() {
		return Version{}, false
	}
	return it.Lower.Version, true
}

// Contains reports whether v satisfies the range.
func (it VersionRange) Contains(v Version) bool {
	if it.empty {
		return false
	}
	switch it.Lower.Kind {
	case Inclusive:
		if CompareVersions(v, it.Lower.Version) < 0 {
			return false
		}
	case Exclusive:
		if CompareVersions(v, it.Lower.Version) <= 0 {
			return false
		}
	case Unbounded:
	}
	switch it.Upper.Kind {
	case Inclusive:
		return CompareVersions(v, it.Upper.Version) <= 0
	case Exclusive:
		return CompareVersions(v, it.Upper.Version) < 0
	case Unbounded:
	}
	return true
}

// Intersect returns the range satisfied by both. An empty result is how a
// range conflict shows up; it is never an error by itself.
func (it VersionRange) Intersect(other VersionRange) VersionRange {
	if it.empty || other.empty {
		return VersionRange{empty: true}
	}
	return NewVersionRange(
		tighterBound(it.Lower, other.Lower, 1),
		tighterBound(it.Upper, other.Upper, -1),
	)
}

// tighterBound picks the more restrictive of two bounds. direction is 1 for
// lower bounds (greater wins) and -1 for upper bounds (smaller wins). On
// equal versions the exclusive bound wins.
func tighterBound(a, b Bound, direction int) Bound {
	if a.Kind == Unbounded {
		return b
	}
	if b.Kind == Unbounded {
		return a
	}
	c := CompareVersions(a.Version, b.Version) * direction
	switch {
	case c > 0:
		return a
	case c < 0:
		return b
	case a.Kind == Exclusive:
		return a
	default:
		return b
	}
}

// String renders the canonical form used in cache keys and reports.
func (it VersionRange) String() string {
	if it.empty {
		return "(empty)"
	}
	if it.IsAny() {
		return "*"
	}
	if v, ok := it.Pinned(); ok {
		return "[" + v.Canonical() + "]"
	}

	var sb strings.Builder
	if it.Lower.Kind == Inclusive {
		sb.WriteByte('[')
	} else {
		sb.WriteByte('(')
	}
	if it.Lower.Kind != Unbounded {
		sb.WriteString(it.Lower.Version.Canonical())
	}
	sb.WriteByte(',')
	if it.Upper.Kind != Unbounded {
		sb.WriteString(it.Upper.Version.Canonical())
	}
	if it.Upper.Kind == Inclusive {
		sb.WriteByte(']')
	} else {
		sb.WriteByte(')')
	}
	return sb.String()
}
