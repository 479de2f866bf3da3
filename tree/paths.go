package tree

import (
	"strings"

	"github.com/strataconf/confcore/errors"
)

// ParsePath splits a dotted path expression into segments. A quoted
// segment ("like.this") may itself contain literal dots, which is the
// only reason quoting a path segment is ever necessary; the quotes
// themselves are stripped from the returned segment.
func ParsePath(raw string) ([]string, error) {
	var segments []string
	var cur strings.Builder
	inQuote := false
	sawAnyChar := false

	flush := func() error {
		if cur.Len() == 0 && !inQuote {
			return &errors.ParseError{
				ReasonCode: errors.ReasonEmptyPathSegment,
				Message:    "path contains an empty segment",
			}
		}
		segments = append(segments, cur.String())
		cur.Reset()
		return nil
	}

	runes := []rune(raw)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		sawAnyChar = true
		switch {
		case r == '"':
			inQuote = !inQuote
		case r == '.' && !inQuote:
			if err := flush(); err != nil {
				return nil, err
			}
		default:
			cur.WriteRune(r)
		}
	}
	if inQuote {
		return nil, &errors.ParseError{
			ReasonCode: errors.ReasonUnexpectedToken,
			Message:    "unterminated quoted path segment",
		}
	}
	if !sawAnyChar {
		return nil, &errors.ParseError{
			ReasonCode: errors.ReasonEmptyPathSegment,
			Message:    "path is empty",
		}
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return segments, nil
}

// GetPathValue resolves path against n, descending through objects by
// key and through arrays by decimal-index segment. It returns ok=false
// if any segment along the way is missing or the node it addresses
// isn't a container of the right shape.
func (n *Node) GetPathValue(path []string) (*Node, bool) {
	cur := n
	for _, segment := range path {
		if cur == nil {
			return nil, false
		}
		switch cur.Kind {
		case KindObject:
			next, ok := cur.Field(segment)
			if !ok {
				return nil, false
			}
			cur = next
		case KindArray:
			idx, ok := parseArrayIndex(segment)
			if !ok || idx < 0 || idx >= len(cur.Items) {
				return nil, false
			}
			cur = cur.Items[idx]
		default:
			return nil, false
		}
	}
	return cur, cur != nil
}

func parseArrayIndex(segment string) (int, bool) {
	if segment == "" {
		return 0, false
	}
	n := 0
	for _, r := range segment {
		if r < '0' || r > '9' {
			return 0, false
		}
		n = n*10 + int(r-'0')
	}
	return n, true
}

// EqualPath reports whether a and b name the same path.
func EqualPath(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// PathHasPrefix reports whether prefix is a prefix of path (including
// the case prefix == path), used to detect self-references: a
// substitution whose target path lies inside, or equals, its own
// containing path is a self-reference rather than a forward reference.
func PathHasPrefix(path, prefix []string) bool {
	if len(prefix) > len(path) {
		return false
	}
	for i := range prefix {
		if path[i] != prefix[i] {
			return false
		}
	}
	return true
}
