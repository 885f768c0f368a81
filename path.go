package predicate

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// Segment is one step of a Path: an object key or an array index.
type Segment struct {
	Key     string
	Index   int
	IsIndex bool
}

// Path locates a value inside a JSON-like tree. The zero Path is the root.
type Path []Segment

// ParsePath accepts a dotted/indexed string ("a.b[0].c", `a["x.y"]`), an array
// of strings and integers, or an existing Path. The root is "" or an empty
// array; nil is rejected.
func ParsePath(spec any) (Path, error) {
	switch t := spec.(type) {
	case Path:
		return t, nil
	case string:
		return parseDotted(t)
	case []string:
		p := make(Path, 0, len(t))
		for _, s := range t {
			p = append(p, Segment{Key: s})
		}
		return p, nil
	case []any:
		p := make(Path, 0, len(t))
		for i, el := range t {
			switch e := el.(type) {
			case string:
				p = append(p, Segment{Key: e})
			default:
				n, ok := asInt(el)
				if !ok {
					return nil, fmt.Errorf("path element %d: expected string or integer, got %T", i, el)
				}
				p = append(p, Segment{Index: n, IsIndex: true})
			}
		}
		return p, nil
	case nil:
		return nil, fmt.Errorf("path: missing")
	default:
		return nil, fmt.Errorf("path: unsupported spec %T", spec)
	}
}

func parseDotted(s string) (Path, error) {
	p := Path{}
	if s == "" {
		return p, nil
	}
	i := 0
	expectKey := true
	for i < len(s) {
		switch c := s[i]; {
		case c == '.':
			if expectKey {
				return nil, fmt.Errorf("path %q: empty key at offset %d", s, i)
			}
			expectKey = true
			i++
		case c == '[':
			end := strings.IndexByte(s[i:], ']')
			if end < 0 {
				return nil, fmt.Errorf("path %q: unterminated '['", s)
			}
			inner := s[i+1 : i+end]
			if len(inner) >= 2 && (inner[0] == '"' || inner[0] == '\'') && inner[len(inner)-1] == inner[0] {
				p = append(p, Segment{Key: inner[1 : len(inner)-1]})
			} else {
				n, err := strconv.Atoi(inner)
				if err != nil {
					return nil, fmt.Errorf("path %q: bad index %q", s, inner)
				}
				p = append(p, Segment{Index: n, IsIndex: true})
			}
			expectKey = false
			i += end + 1
		default:
			if !expectKey {
				return nil, fmt.Errorf("path %q: missing '.' at offset %d", s, i)
			}
			j := i
			for j < len(s) && s[j] != '.' && s[j] != '[' {
				j++
			}
			p = append(p, Segment{Key: s[i:j]})
			expectKey = false
			i = j
		}
	}
	if expectKey {
		return nil, fmt.Errorf("path %q: trailing '.'", s)
	}
	return p, nil
}

// MustPath is ParsePath for literals known to be valid.
func MustPath(spec any) Path {
	p, err := ParsePath(spec)
	if err != nil {
		panic(err)
	}
	return p
}

// Field returns a new Path extended with an object key.
func (p Path) Field(name string) Path {
	return append(append(Path{}, p...), Segment{Key: name})
}

// Index returns a new Path extended with an array index.
func (p Path) Index(i int) Path {
	return append(append(Path{}, p...), Segment{Index: i, IsIndex: true})
}

// Concat returns p followed by q.
func (p Path) Concat(q Path) Path {
	return append(append(make(Path, 0, len(p)+len(q)), p...), q...)
}

// String renders the dotted form accepted by ParsePath.
func (p Path) String() string {
	b := &strings.Builder{}
	for i, s := range p {
		switch {
		case s.IsIndex:
			fmt.Fprintf(b, "[%d]", s.Index)
		case strings.ContainsAny(s.Key, ".[]") || s.Key == "":
			fmt.Fprintf(b, "[%q]", s.Key)
		default:
			if i > 0 {
				b.WriteByte('.')
			}
			b.WriteString(s.Key)
		}
	}
	return b.String()
}

// Pointer renders p as an RFC 6901 JSON Pointer.
func (p Path) Pointer() string {
	if len(p) == 0 {
		return "/"
	}
	b := &strings.Builder{}
	for _, s := range p {
		b.WriteByte('/')
		if s.IsIndex {
			b.WriteString(strconv.Itoa(s.Index))
			continue
		}
		// escape '~' -> '~0', '/' -> '~1' per RFC6901
		b.WriteString(strings.ReplaceAll(strings.ReplaceAll(s.Key, "~", "~0"), "/", "~1"))
	}
	return b.String()
}

// Get reads the value at p. The boolean is false when any step is missing.
func Get(root any, p Path) (any, bool) {
	cur := root
	for _, seg := range p {
		next, ok := step(cur, seg)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

func step(cur any, seg Segment) (any, bool) {
	switch t := cur.(type) {
	case map[string]any:
		v, ok := t[segKey(seg)]
		return v, ok
	case []any:
		i, ok := segIndex(seg)
		if !ok || i < 0 || i >= len(t) {
			return nil, false
		}
		return t[i], true
	case nil:
		return nil, false
	}
	rv := reflect.ValueOf(cur)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, false
		}
		mv := rv.MapIndex(reflect.ValueOf(segKey(seg)).Convert(rv.Type().Key()))
		if !mv.IsValid() {
			return nil, false
		}
		return mv.Interface(), true
	case reflect.Slice, reflect.Array:
		i, ok := segIndex(seg)
		if !ok || i < 0 || i >= rv.Len() {
			return nil, false
		}
		return rv.Index(i).Interface(), true
	default:
		return nil, false
	}
}

func segKey(seg Segment) string {
	if seg.IsIndex {
		return strconv.Itoa(seg.Index)
	}
	return seg.Key
}

func segIndex(seg Segment) (int, bool) {
	if seg.IsIndex {
		return seg.Index, true
	}
	n, err := strconv.Atoi(seg.Key)
	return n, err == nil
}

// Set returns a copy of root with v stored at p. Containers along p are
// copied; everything else is shared with root, which is never modified.
// Missing intermediate containers are created.
func Set(root any, p Path, v any) (any, error) {
	if len(p) == 0 {
		return v, nil
	}
	seg := p[0]
	switch t := root.(type) {
	case map[string]any:
		out := make(map[string]any, len(t)+1)
		for k, e := range t {
			out[k] = e
		}
		child, err := Set(t[segKey(seg)], p[1:], v)
		if err != nil {
			return nil, err
		}
		out[segKey(seg)] = child
		return out, nil
	case []any:
		i, ok := segIndex(seg)
		if !ok || i < 0 {
			return nil, fmt.Errorf("path: cannot use %q as array index", seg.Key)
		}
		n := len(t)
		if i >= n {
			n = i + 1
		}
		out := make([]any, n)
		copy(out, t)
		child, err := Set(out[i], p[1:], v)
		if err != nil {
			return nil, err
		}
		out[i] = child
		return out, nil
	case nil:
		if seg.IsIndex {
			return Set(make([]any, 0, seg.Index+1), p, v)
		}
		return Set(map[string]any{}, p, v)
	default:
		return nil, fmt.Errorf("path: cannot descend into %T at %s", root, seg.Key)
	}
}
