package version

import (
	"strings"

	"github.com/matzehuels/mvnfetch/pkg/errors"
)

// Restriction is one interval of a [Range]. Empty bounds are unbounded.
type Restriction struct {
	Lower          string
	LowerInclusive bool
	Upper          string
	UpperInclusive bool
}

// Contains reports whether v lies inside the interval.
func (r Restriction) Contains(v string) bool {
	if r.Lower != "" {
		c := Compare(v, r.Lower)
		if c < 0 || (c == 0 && !r.LowerInclusive) {
			return false
		}
	}
	if r.Upper != "" {
		c := Compare(v, r.Upper)
		if c > 0 || (c == 0 && !r.UpperInclusive) {
			return false
		}
	}
	return true
}

func (r Restriction) String() string {
	var b strings.Builder
	if r.LowerInclusive {
		b.WriteByte('[')
	} else {
		b.WriteByte('(')
	}
	if r.Lower == r.Upper && r.Lower != "" {
		b.WriteString(r.Lower)
	} else {
		b.WriteString(r.Lower)
		b.WriteByte(',')
		b.WriteString(r.Upper)
	}
	if r.UpperInclusive {
		b.WriteByte(']')
	} else {
		b.WriteByte(')')
	}
	return b.String()
}

// Range is a parsed version requirement. A plain version such as "1.0" is a
// soft requirement: Recommended is set and Restrictions is empty.
type Range struct {
	Recommended  string
	Restrictions []Restriction
}

// IsRange reports whether s uses range syntax.
func IsRange(s string) bool {
	s = strings.TrimSpace(s)
	return strings.HasPrefix(s, "[") || strings.HasPrefix(s, "(")
}

// ParseRange parses a version requirement. Errors carry
// [errors.ErrCodeInvalidVersionRange].
func ParseRange(spec string) (*Range, error) {
	process := strings.TrimSpace(spec)
	if process == "" {
		return nil, errors.New(errors.ErrCodeInvalidVersionRange, "empty version requirement")
	}

	r := &Range{}
	for strings.HasPrefix(process, "[") || strings.HasPrefix(process, "(") {
		end := strings.IndexAny(process, ")]")
		if end < 0 {
			return nil, errors.New(errors.ErrCodeInvalidVersionRange, "unbounded range: %q", spec)
		}

		res, err := parseRestriction(process[:end+1])
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidVersionRange, err, "invalid range %q", spec)
		}
		if n := len(r.Restrictions); n > 0 {
			prev := r.Restrictions[n-1]
			if prev.Upper == "" || res.Lower == "" || Compare(prev.Upper, res.Lower) > 0 {
				return nil, errors.New(errors.ErrCodeInvalidVersionRange, "ranges overlap: %q", spec)
			}
		}
		r.Restrictions = append(r.Restrictions, res)

		process = strings.TrimSpace(process[end+1:])
		process = strings.TrimSpace(strings.TrimPrefix(process, ","))
	}

	if process != "" {
		if len(r.Restrictions) > 0 {
			return nil, errors.New(errors.ErrCodeInvalidVersionRange,
				"only fully-qualified sets allowed in multiple set scenario: %q", spec)
		}
		r.Recommended = process
	}
	return r, nil
}

func parseRestriction(spec string) (Restriction, error) {
	res := Restriction{
		LowerInclusive: strings.HasPrefix(spec, "["),
		UpperInclusive: strings.HasSuffix(spec, "]"),
	}
	inner := strings.TrimSpace(spec[1 : len(spec)-1])

	lower, upper, found := strings.Cut(inner, ",")
	if !found {
		if !res.LowerInclusive || !res.UpperInclusive {
			return Restriction{}, errors.New(errors.ErrCodeInvalidVersionRange,
				"single version must be surrounded by []: %s", spec)
		}
		if inner == "" {
			return Restriction{}, errors.New(errors.ErrCodeInvalidVersionRange, "empty range: %s", spec)
		}
		res.Lower, res.Upper = inner, inner
		return res, nil
	}

	res.Lower = strings.TrimSpace(lower)
	res.Upper = strings.TrimSpace(upper)
	if strings.Contains(res.Upper, ",") {
		return Restriction{}, errors.New(errors.ErrCodeInvalidVersionRange, "too many commas: %s", spec)
	}
	if res.Lower != "" && res.Upper != "" {
		switch c := Compare(res.Upper, res.Lower); {
		case c < 0:
			return Restriction{}, errors.New(errors.ErrCodeInvalidVersionRange, "range defies version ordering: %s", spec)
		case c == 0 && (!res.LowerInclusive || !res.UpperInclusive):
			return Restriction{}, errors.New(errors.ErrCodeInvalidVersionRange, "range cannot have identical boundaries: %s", spec)
		}
	}
	return res, nil
}

// IsSoft reports whether the range is a plain version without restrictions.
func (r *Range) IsSoft() bool {
	return len(r.Restrictions) == 0
}

// Contains reports whether v satisfies the range. A soft requirement accepts
// any version.
func (r *Range) Contains(v string) bool {
	if r.IsSoft() {
		return true
	}
	for _, res := range r.Restrictions {
		if res.Contains(v) {
			return true
		}
	}
	return false
}

// Select returns the highest version in available that satisfies the range.
// For a soft requirement the recommended version is returned unchanged.
func (r *Range) Select(available []string) (string, bool) {
	if r.IsSoft() {
		return r.Recommended, r.Recommended != ""
	}
	var best string
	for _, v := range available {
		if !r.Contains(v) {
			continue
		}
		if best == "" || Compare(v, best) > 0 {
			best = v
		}
	}
	return best, best != ""
}

// String formats the range in Maven syntax.
func (r *Range) String() string {
	if r.IsSoft() {
		return r.Recommended
	}
	parts := make([]string, len(r.Restrictions))
	for i, res := range r.Restrictions {
		parts[i] = res.String()
	}
	return strings.Join(parts, ",")
}
