// Package version implements Maven version parsing, ordering and constraint matching.
//
// # Versions
//
// A [Version] is an ordered list of non-negative integer components plus an
// optional trailing qualifier. The qualifier is kept for display but never
// takes part in ordering:
//
//	Parse("1.2.3-SNAPSHOT") // components [1 2 3], qualifier "-SNAPSHOT"
//	Parse("RELEASE")        // components [0],     qualifier "RELEASE"
//
// Ordering is lexicographic over the components. When one version runs out
// of components first it orders before the other, so "1.0" < "1.0.0": missing
// trailing components are absent, not zero.
//
// # Constraints
//
// [ParseConstraint] understands three shapes:
//
//	"[1.0]"        exact version
//	"[1.0,2.0)"    range; ']' includes the upper bound, ')' excludes it
//	"[1.0,)"       range open above
//	"1.2"          preferred version: matches 1.2 and anything above it,
//	               and always ranks 1.2 itself as the best candidate
//
// Every [Constraint] can rank candidates with Compare; [Best] uses it to pick
// the winner among matching versions.
package version

import (
	"strconv"
	"strings"
)

// Version is a parsed Maven version.
//
// Zero value: no components, which orders before every parsed version.
type Version struct {
	Components []int  // numeric components in declaration order, never empty once parsed
	Qualifier  string // remainder after the numeric prefix (e.g. "-SNAPSHOT"), may be empty
	raw        string
}

// Parse parses s into a Version.
//
// Components are read as dot-separated integers until the first character that
// is neither a digit nor a dot; everything from that character on becomes the
// qualifier. A string without a leading digit still yields a single 0 component.
func Parse(s string) Version {
	v := Version{raw: s}
	cur, digits := 0, false
	i := 0
	for ; i < len(s); i++ {
		c := s[i]
		if c >= '0' && c <= '9' {
			cur = cur*10 + int(c-'0')
			digits = true
			continue
		}
		if c == '.' {
			v.Components = append(v.Components, cur)
			cur, digits = 0, false
			continue
		}
		break
	}
	if digits {
		v.Components = append(v.Components, cur)
	}
	v.Qualifier = s[i:]
	if len(v.Components) == 0 {
		v.Components = []int{0}
	}
	return v
}

// String returns the original text the version was parsed from, or a
// reconstruction when the version was built by hand.
func (v Version) String() string {
	if v.raw != "" {
		return v.raw
	}
	parts := make([]string, len(v.Components))
	for i, c := range v.Components {
		parts[i] = strconv.Itoa(c)
	}
	return strings.Join(parts, ".") + v.Qualifier
}

// IsSnapshot reports whether s names a snapshot version (case-insensitive "-SNAPSHOT" suffix).
func IsSnapshot(s string) bool {
	return strings.HasSuffix(strings.ToUpper(s), "-SNAPSHOT")
}

// Compare orders a and b by their numeric components and ignores qualifiers.
// It returns -1, 0 or +1.
func Compare(a, b Version) int {
	for i := range a.Components {
		if i >= len(b.Components) {
			return 1
		}
		switch {
		case a.Components[i] < b.Components[i]:
			return -1
		case a.Components[i] > b.Components[i]:
			return 1
		}
	}
	if len(b.Components) > len(a.Components) {
		return -1
	}
	return 0
}

// Equal reports whether a and b compare equal.
func Equal(a, b Version) bool { return Compare(a, b) == 0 }
