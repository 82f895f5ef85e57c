package version

import (
	"slices"
	"strings"
)

type kind int

const (
	intKind kind = iota
	stringKind
	listKind
)

// item is one token of a parsed version. Numbers are kept as digit strings
// with leading zeros stripped so arbitrarily long build numbers compare
// correctly.
type item struct {
	kind  kind
	value string
	list  []*item
}

// qualifiers in ascending order. The empty string is a release.
var qualifiers = []string{"alpha", "beta", "milestone", "rc", "snapshot", "", "sp"}

var aliases = map[string]string{
	"ga":      "",
	"final":   "",
	"release": "",
	"cr":      "rc",
}

var releaseIndex = comparableQualifier("")

func newInt(s string) *item {
	s = strings.TrimLeft(s, "0")
	return &item{kind: intKind, value: s}
}

func newString(s string, followedByDigit bool) *item {
	if followedByDigit && len(s) == 1 {
		switch s[0] {
		case 'a':
			s = "alpha"
		case 'b':
			s = "beta"
		case 'm':
			s = "milestone"
		}
	}
	if alias, ok := aliases[s]; ok {
		s = alias
	}
	return &item{kind: stringKind, value: s}
}

func parseItem(isDigit bool, s string) *item {
	if isDigit {
		return newInt(s)
	}
	return newString(s, false)
}

func (it *item) isNull() bool {
	switch it.kind {
	case intKind:
		return it.value == ""
	case stringKind:
		return it.value == ""
	default:
		return len(it.list) == 0
	}
}

// parse builds the item tree for v.
func parse(v string) *item {
	v = strings.ToLower(v)
	root := &item{kind: listKind}
	list := root
	stack := []*item{root}

	push := func() {
		next := &item{kind: listKind}
		list.list = append(list.list, next)
		list = next
		stack = append(stack, next)
	}

	isDigit := false
	start := 0
	for i := 0; i < len(v); i++ {
		c := v[i]
		switch {
		case c == '.':
			if i == start {
				list.list = append(list.list, newInt("0"))
			} else {
				list.list = append(list.list, parseItem(isDigit, v[start:i]))
			}
			start = i + 1
		case c == '-':
			if i == start {
				list.list = append(list.list, newInt("0"))
			} else {
				list.list = append(list.list, parseItem(isDigit, v[start:i]))
			}
			start = i + 1
			push()
		case c >= '0' && c <= '9':
			if !isDigit && i > start {
				list.list = append(list.list, newString(v[start:i], true))
				start = i
				push()
			}
			isDigit = true
		default:
			if isDigit && i > start {
				list.list = append(list.list, parseItem(true, v[start:i]))
				start = i
				push()
			}
			isDigit = false
		}
	}
	if len(v) > start {
		list.list = append(list.list, parseItem(isDigit, v[start:]))
	}

	for i := len(stack) - 1; i >= 0; i-- {
		stack[i].normalize()
	}
	return root
}

// normalize drops trailing null items, stopping at the first non-null
// non-list item.
func (it *item) normalize() {
	for i := len(it.list) - 1; i >= 0; i-- {
		last := it.list[i]
		if last.isNull() {
			it.list = slices.Delete(it.list, i, i+1)
		} else if last.kind != listKind {
			break
		}
	}
}

func comparableQualifier(q string) string {
	if i := slices.Index(qualifiers, q); i >= 0 {
		return string(rune('0' + i))
	}
	return string(rune('0'+len(qualifiers))) + "-" + q
}

func compareDigits(a, b string) int {
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	return strings.Compare(a, b)
}

// compare orders it against other; a nil other stands for a missing token.
func (it *item) compare(other *item) int {
	switch it.kind {
	case intKind:
		if other == nil {
			if it.value == "" {
				return 0
			}
			return 1
		}
		switch other.kind {
		case intKind:
			return compareDigits(it.value, other.value)
		default:
			return 1
		}

	case stringKind:
		if other == nil {
			return strings.Compare(comparableQualifier(it.value), releaseIndex)
		}
		switch other.kind {
		case stringKind:
			return strings.Compare(comparableQualifier(it.value), comparableQualifier(other.value))
		default:
			return -1
		}

	default:
		if other == nil {
			if len(it.list) == 0 {
				return 0
			}
			return it.list[0].compare(nil)
		}
		switch other.kind {
		case intKind:
			return -1
		case stringKind:
			return 1
		}
		n := max(len(it.list), len(other.list))
		for i := range n {
			var l, r *item
			if i < len(it.list) {
				l = it.list[i]
			}
			if i < len(other.list) {
				r = other.list[i]
			}
			var result int
			if l == nil {
				if r != nil {
					result = -r.compare(nil)
				}
			} else {
				result = l.compare(r)
			}
			if result != 0 {
				return result
			}
		}
		return 0
	}
}

func (it *item) canonical(b *strings.Builder) {
	switch it.kind {
	case intKind:
		if it.value == "" {
			b.WriteString("0")
		} else {
			b.WriteString(it.value)
		}
	case stringKind:
		b.WriteString(it.value)
	default:
		for i, child := range it.list {
			if i > 0 {
				if child.kind == listKind {
					b.WriteByte('-')
				} else {
					b.WriteByte('.')
				}
			}
			child.canonical(b)
		}
	}
}

// Compare returns -1, 0 or +1 depending on whether a sorts before, equal to
// or after b under Maven ordering.
func Compare(a, b string) int {
	return parse(a).compare(parse(b))
}

// Equal reports whether a and b denote the same version, e.g. "1.0" and "1".
func Equal(a, b string) bool {
	return Compare(a, b) == 0
}

// Canonical returns the normalized form used for equality, e.g. "1.0.0-ga"
// becomes "1".
func Canonical(v string) string {
	var b strings.Builder
	parse(v).canonical(&b)
	return b.String()
}

// Max returns the highest version in vs, or "" when vs is empty.
func Max(vs []string) string {
	var best string
	for i, v := range vs {
		if i == 0 || Compare(v, best) > 0 {
			best = v
		}
	}
	return best
}

// Sort orders vs ascending in place.
func Sort(vs []string) {
	slices.SortStableFunc(vs, Compare)
}

// IsSnapshot reports whether v is a snapshot version.
func IsSnapshot(v string) bool {
	return strings.HasSuffix(strings.ToUpper(v), "-SNAPSHOT")
}
