package pom

import "strings"

// maxPasses bounds nested expansion such as ${a} -> ${b} -> value.
const maxPasses = 16

type interpolator struct {
	props map[string]string
}

// expand replaces ${name} with property values. Unknown expressions are left
// untouched so callers can detect them.
func (in interpolator) expand(s string) string {
	for range maxPasses {
		if !strings.Contains(s, "${") {
			return s
		}
		next := in.once(s)
		if next == s {
			return s
		}
		s = next
	}
	return s
}

func (in interpolator) once(s string) string {
	var b strings.Builder
	for {
		start := strings.Index(s, "${")
		if start < 0 {
			b.WriteString(s)
			return b.String()
		}
		end := strings.IndexByte(s[start:], '}')
		if end < 0 {
			b.WriteString(s)
			return b.String()
		}
		end += start

		b.WriteString(s[:start])
		name := s[start+2 : end]
		if v, ok := in.props[name]; ok {
			b.WriteString(v)
		} else {
			b.WriteString(s[start : end+1])
		}
		s = s[end+1:]
	}
}

func (in interpolator) dependency(d Dependency) Dependency {
	d.GroupID = in.expand(d.GroupID)
	d.ArtifactID = in.expand(d.ArtifactID)
	d.Version = in.expand(d.Version)
	d.Type = in.expand(d.Type)
	d.Classifier = in.expand(d.Classifier)
	d.Scope = in.expand(d.Scope)
	d.Optional = in.expand(d.Optional)
	if len(d.Exclusions) > 0 {
		ex := make([]Exclusion, len(d.Exclusions))
		for i, e := range d.Exclusions {
			ex[i] = Exclusion{GroupID: in.expand(e.GroupID), ArtifactID: in.expand(e.ArtifactID)}
		}
		d.Exclusions = ex
	}
	return d
}

// Unresolved reports whether s still holds a ${...} expression.
func Unresolved(s string) bool {
	return strings.Contains(s, "${")
}
