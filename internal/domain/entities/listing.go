package entities

import "time"

// Listing is what a repository knows about an identity: the versions it
// can serve, plus the change token it had when the listing was taken.
type Listing struct {
	Identity   ArtifactIdentity
	Repository string
	Versions   []Version
	Token      string
	FetchedAt  time.Time
}

// NewListing builds a listing with sorted, deduplicated versions.
func NewListing(id ArtifactIdentity, repository string, versions []Version) *Listing {
	sorted := append([]Version(nil), versions...)
	SortVersions(sorted)

	unique := sorted[:0]
	for i, v := range sorted {
		if i > 0 && CompareVersions(sorted[i-1], v) == 0 {
			continue
		}
		unique = append(unique, v)
	}
	return &Listing{
		Identity:   id,
		Repository: repository,
		Versions:   unique,
		FetchedAt:  time.Now(),
	}
}

// IsEmpty reports whether the listing carries no versions.
func (it *Listing) IsEmpty() bool { return it == nil || len(it.Versions) == 0 }

// HighestSatisfying returns the greatest listed version inside the range.
func (it *Listing) HighestSatisfying(r VersionRange) (Version, bool) {
	if it == nil {
		return Version{}, false
	}
	for i := len(it.Versions) - 1; i >= 0; i-- {
		if r.Contains(it.Versions[i]) {
			return it.Versions[i], true
		}
	}
	return Version{}, false
}

// VersionStrings renders the versions for persistence and display.
func (it *Listing) VersionStrings() []string {
	out := make([]string, len(it.Versions))
	for i, v := range it.Versions {
		out[i] = v.String()
	}
	return out
}
