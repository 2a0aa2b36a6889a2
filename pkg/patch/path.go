package patch

import (
	"fmt"
	"strconv"
	"strings"
)

// Segment is one step of a Path: a plain key, or a key addressing a list element.
type Segment struct {
	Name    string
	Index   int
	Indexed bool
}

// Key returns a plain key segment.
func Key(name string) Segment {
	return Segment{Name: name}
}

// IndexedKey returns a segment addressing element index of the list stored under name.
func IndexedKey(name string, index int) Segment {
	return Segment{Name: name, Index: index, Indexed: true}
}

func (s Segment) String() string {
	if s.Indexed {
		return fmt.Sprintf("%s[%d]", s.Name, s.Index)
	}
	return s.Name
}

// Path is a parsed dotted/indexed address such as "subjects[2].name".
type Path []Segment

func (p Path) String() string {
	parts := make([]string, len(p))
	for i, s := range p {
		parts[i] = s.String()
	}
	return strings.Join(parts, ".")
}

// MalformedPathError reports a path that does not follow
// segment ("." segment)* with segment = name | name "[" integer "]".
type MalformedPathError struct {
	Path   string
	Reason string
}

func (e *MalformedPathError) Error() string {
	return fmt.Sprintf("malformed path %q: %s", e.Path, e.Reason)
}

// ParsePath parses a path string into its ordered segments.
func ParsePath(path string) (Path, error) {
	if path == "" {
		return nil, &MalformedPathError{Path: path, Reason: "empty path"}
	}

	raw := strings.Split(path, ".")
	out := make(Path, 0, len(raw))
	for _, part := range raw {
		seg, err := parseSegment(part)
		if err != nil {
			return nil, &MalformedPathError{Path: path, Reason: err.Error()}
		}
		out = append(out, seg)
	}
	return out, nil
}

func parseSegment(part string) (Segment, error) {
	open := strings.IndexByte(part, '[')
	if open < 0 {
		if strings.IndexByte(part, ']') >= 0 {
			return Segment{}, fmt.Errorf("unexpected ']' in %q", part)
		}
		if part == "" {
			return Segment{}, fmt.Errorf("empty segment")
		}
		return Key(part), nil
	}

	name := part[:open]
	if name == "" {
		return Segment{}, fmt.Errorf("missing name before '[' in %q", part)
	}
	if !strings.HasSuffix(part, "]") {
		return Segment{}, fmt.Errorf("unterminated bracket in %q", part)
	}

	digits := strings.TrimSuffix(part[open+1:], "]")
	if digits == "" || strings.ContainsAny(digits, "[]+-") {
		return Segment{}, fmt.Errorf("index %q in %q is not a non-negative integer", digits, part)
	}
	index, err := strconv.Atoi(digits)
	if err != nil || index < 0 {
		return Segment{}, fmt.Errorf("index %q in %q is not a non-negative integer", digits, part)
	}
	return IndexedKey(name, index), nil
}
