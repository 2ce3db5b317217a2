package version

import (
	"strings"

	"github.com/matzehuels/mvnresolve/pkg/errors"
)

// Constraint is a requirement a resolved version must satisfy.
type Constraint interface {
	// Matches reports whether v satisfies the constraint.
	Matches(v Version) bool
	// Compare ranks two candidates; the greater one is the better choice.
	Compare(a, b Version) int
	// String returns the constraint in Maven notation.
	String() string
}

// Exact matches a single version.
type Exact struct {
	Version Version
}

func (e Exact) Matches(v Version) bool   { return Equal(e.Version, v) }
func (e Exact) Compare(a, b Version) int { return Compare(a, b) }
func (e Exact) String() string           { return "[" + e.Version.String() + "]" }

// Range matches versions between Min and Max.
// A nil bound is absent. The lower bound is inclusive unless MinExcluded is set;
// the upper bound is inclusive only when MaxIncluded is set.
type Range struct {
	Min         *Version
	Max         *Version
	MinExcluded bool
	MaxIncluded bool
}

// Matches reports whether v lies within the range.
func (r Range) Matches(v Version) bool {
	if r.Min != nil {
		c := Compare(v, *r.Min)
		if c < 0 || (c == 0 && r.MinExcluded) {
			return false
		}
	}
	if r.Max != nil {
		c := Compare(v, *r.Max)
		if c > 0 {
			return false
		}
		if c == 0 {
			return r.MaxIncluded
		}
	}
	return true
}

func (r Range) Compare(a, b Version) int { return Compare(a, b) }

func (r Range) String() string {
	var sb strings.Builder
	if r.MinExcluded {
		sb.WriteByte('(')
	} else {
		sb.WriteByte('[')
	}
	if r.Min != nil {
		sb.WriteString(r.Min.String())
	}
	sb.WriteByte(',')
	if r.Max != nil {
		sb.WriteString(r.Max.String())
	}
	if r.MaxIncluded {
		sb.WriteByte(']')
	} else {
		sb.WriteByte(')')
	}
	return sb.String()
}

// Preferred is a recommended version paired with a permissive range open above it.
// The recommended version always ranks as the best candidate.
type Preferred struct {
	Recommended Version
	Range       Range
}

// NewPreferred returns the soft requirement Maven uses for a plain version string.
func NewPreferred(v Version) Preferred {
	lo := v
	return Preferred{Recommended: v, Range: Range{Min: &lo}}
}

func (p Preferred) Matches(v Version) bool { return p.Range.Matches(v) }

// Compare ranks the recommended version above every other candidate and
// falls back to numeric order otherwise.
func (p Preferred) Compare(a, b Version) int {
	ra, rb := Equal(a, p.Recommended), Equal(b, p.Recommended)
	switch {
	case ra && rb:
		return 0
	case ra:
		return 1
	case rb:
		return -1
	}
	return Compare(a, b)
}

func (p Preferred) String() string { return p.Recommended.String() }

// ParseConstraint parses s in Maven notation.
//
// Strings starting with '[' or '(' are ranges; a single bound without a comma
// is an exact version. Anything else is a [Preferred] soft requirement.
func ParseConstraint(s string) (Constraint, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "empty version constraint")
	}
	if s[0] != '[' && s[0] != '(' {
		return NewPreferred(Parse(s)), nil
	}

	minExcluded := s[0] == '('
	end := strings.IndexAny(s, "])")
	if end < 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "unterminated version range %q", s)
	}
	maxIncluded := s[end] == ']'
	inner := s[1:end]

	left, right, comma := strings.Cut(inner, ",")
	if !comma {
		v := strings.TrimSpace(inner)
		if v == "" {
			return nil, errors.New(errors.ErrCodeInvalidInput, "empty version range %q", s)
		}
		return Exact{Version: Parse(v)}, nil
	}

	r := Range{MinExcluded: minExcluded, MaxIncluded: maxIncluded}
	if left = strings.TrimSpace(left); left != "" {
		v := Parse(left)
		r.Min = &v
	}
	if right = strings.TrimSpace(right); right != "" {
		v := Parse(right)
		r.Max = &v
	}
	return r, nil
}

// MustParseConstraint is like ParseConstraint but panics on error.
// It is intended for constants and tests.
func MustParseConstraint(s string) Constraint {
	c, err := ParseConstraint(s)
	if err != nil {
		panic(err)
	}
	return c
}

// Best returns the index of the best candidate matching c, or -1 if none match.
// Earlier candidates win ties.
func Best(c Constraint, candidates []Version) int {
	best := -1
	for i, v := range candidates {
		if !c.Matches(v) {
			continue
		}
		if best < 0 || c.Compare(v, candidates[best]) > 0 {
			best = i
		}
	}
	return best
}

// BestString is like Best for raw version strings and returns the winning string.
func BestString(c Constraint, candidates []string) (string, bool) {
	parsed := make([]Version, len(candidates))
	for i, s := range candidates {
		parsed[i] = Parse(s)
	}
	if i := Best(c, parsed); i >= 0 {
		return candidates[i], true
	}
	return "", false
}
