package predicate

import (
	"sort"
	"strings"
)

// Frame is one level of the lexical scope. Values and predicates live in
// separate namespaces, so {"$var": "x"} and {"$var": "$x"} never collide.
type Frame struct {
	values map[string]any
	preds  map[string]*Predicate
	// pending holds the names a frame under construction has yet to bind.
	// Lookups stop at a pending name instead of falling through to outer
	// frames: a forward reference must fail, not find something else.
	pending map[string]struct{}
}

// NewFrame returns an empty frame.
func NewFrame() *Frame {
	return &Frame{values: map[string]any{}, preds: map[string]*Predicate{}}
}

// FrameOf builds a frame from a flat map. Keys carrying the validator marker
// with a *Predicate value go to the predicate namespace; everything else is a
// value binding.
func FrameOf(bindings map[string]any) *Frame {
	f := NewFrame()
	for k, v := range bindings {
		if p, ok := v.(*Predicate); ok && strings.HasPrefix(k, ValidatorMarker) {
			f.preds[strings.TrimPrefix(k, ValidatorMarker)] = p
			continue
		}
		f.values[k] = v
	}
	return f
}

// SetValue binds name in the value namespace.
func (f *Frame) SetValue(name string, v any) *Frame {
	f.values[name] = v
	return f
}

// SetPredicate binds name (without the validator marker) in the predicate
// namespace.
func (f *Frame) SetPredicate(name string, p *Predicate) *Frame {
	f.preds[strings.TrimPrefix(name, ValidatorMarker)] = p
	return f
}

// Scope is the stack of frames consulted by $var references, innermost
// first. A Scope belongs to a single validation call.
type Scope struct {
	frames []*Frame
	log    Logger
	opt    ValidateOpt
}

// NewScope returns a scope holding the given frames, outermost first.
func NewScope(frames ...*Frame) *Scope {
	return &Scope{frames: append([]*Frame(nil), frames...)}
}

// Push enters a new innermost frame.
func (s *Scope) Push(f *Frame) {
	s.frames = append(s.frames, f)
}

// Pop leaves the innermost frame and returns it.
func (s *Scope) Pop() *Frame {
	n := len(s.frames)
	if n == 0 {
		return nil
	}
	f := s.frames[n-1]
	s.frames = s.frames[:n-1]
	return f
}

// Depth returns the number of frames.
func (s *Scope) Depth() int {
	if s == nil {
		return 0
	}
	return len(s.frames)
}

// FindValue looks name up in the value namespace, innermost frame first.
func (s *Scope) FindValue(name string) (any, bool) {
	if s == nil {
		return nil, false
	}
	for i := len(s.frames) - 1; i >= 0; i-- {
		f := s.frames[i]
		if _, fwd := f.pending[name]; fwd {
			return nil, false
		}
		if v, ok := f.values[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// FindPredicate looks name (without the validator marker) up in the
// predicate namespace, innermost frame first.
func (s *Scope) FindPredicate(name string) (*Predicate, bool) {
	if s == nil {
		return nil, false
	}
	name = strings.TrimPrefix(name, ValidatorMarker)
	for i := len(s.frames) - 1; i >= 0; i-- {
		f := s.frames[i]
		if _, fwd := f.pending[ValidatorMarker+name]; fwd {
			return nil, false
		}
		if p, ok := f.preds[name]; ok {
			return p, true
		}
	}
	return nil, false
}

func (s *Scope) logger() Logger {
	if s == nil || s.log == nil {
		return nopLogger{}
	}
	return s.log
}

// Entry is one named binding of a scope definition. Names carrying the
// validator marker define predicates.
type Entry struct {
	Name  string
	Value any
}

// ScopeDef is a compiled list of scope entries. Entries are bound in order
// and may reference earlier entries of the same definition.
type ScopeDef struct {
	entries []scopeEntry
}

type scopeEntry struct {
	key       string // as declared, marker included
	name      string
	validator bool
	expr      *Expr
}

var scopeValueType = MustType("null|boolean|number|string|array|object")

// CompileScope compiles entries once. Predicate entries accept a predicate
// literal or a validator reference; value entries accept any data with
// embedded value references.
func CompileScope(entries []Entry, cat *Catalog) (*ScopeDef, error) {
	def := &ScopeDef{entries: make([]scopeEntry, 0, len(entries))}
	seen := make(map[string]struct{}, len(entries))
	for _, en := range entries {
		if _, dup := seen[en.Name]; dup {
			return nil, &BuildError{Op: "scope", Arg: en.Name, Err: ErrDuplicateBinding}
		}
		seen[en.Name] = struct{}{}
		se := scopeEntry{key: en.Name, name: en.Name}
		t := scopeValueType
		if strings.HasPrefix(en.Name, ValidatorMarker) {
			se.validator = true
			se.name = strings.TrimPrefix(en.Name, ValidatorMarker)
			t = Primitive(KindChild)
		}
		if se.name == "" || strings.ContainsAny(se.name, ".[") {
			return nil, &BuildError{Op: "scope", Arg: en.Name, Err: ErrMalformedDescriptor, Detail: "scope names are plain identifiers"}
		}
		e, err := CompileExpr(en.Value, t, cat)
		if err != nil {
			return nil, withScopeEntry(err, en.Name)
		}
		se.expr = e
		def.entries = append(def.entries, se)
	}
	return def, nil
}

func withScopeEntry(err error, name string) error {
	if be, ok := err.(*BuildError); ok {
		be.Op = "scope"
		if be.Arg == "" {
			be.Arg = name
		}
		return be
	}
	return &BuildError{Op: "scope", Arg: name, Err: err}
}

// ScopeFromData compiles a data-described scope: either a list of
// single-key objects, bound in list order, or an object, bound in sorted key
// order.
func ScopeFromData(raw any, cat *Catalog) (*ScopeDef, error) {
	var entries []Entry
	switch t := raw.(type) {
	case []any:
		for i, el := range t {
			m, ok := el.(map[string]any)
			if !ok || len(m) != 1 {
				return nil, buildErr("scope", ErrMalformedPredicate, "entry %d must be an object with one key", i)
			}
			for k, v := range m {
				entries = append(entries, Entry{Name: k, Value: v})
			}
		}
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			entries = append(entries, Entry{Name: k, Value: t[k]})
		}
	default:
		return nil, buildErr("scope", ErrMalformedPredicate, "expected a list or an object, got %T", raw)
	}
	return CompileScope(entries, cat)
}

// Names returns the declared entry names in binding order.
func (d *ScopeDef) Names() []string {
	out := make([]string, len(d.entries))
	for i, en := range d.entries {
		out[i] = en.key
	}
	return out
}

// Enter resolves the entries against sc and input and pushes the resulting
// frame. The caller pops it. On error nothing is pushed.
func (d *ScopeDef) Enter(sc *Scope, input any) error {
	f := NewFrame()
	f.pending = make(map[string]struct{}, len(d.entries))
	for _, en := range d.entries {
		f.pending[en.key] = struct{}{}
	}
	sc.Push(f)
	for _, en := range d.entries {
		b := en.expr.Bind().Resolve(sc, input)
		if err := b.Err(); err != nil {
			sc.Pop()
			return err
		}
		delete(f.pending, en.key)
		if en.validator {
			f.preds[en.name] = b.Value().(*Predicate)
		} else {
			f.values[en.name] = b.Value()
		}
		sc.logger().Debugf("scope bound %s at depth %d", en.key, sc.Depth())
	}
	f.pending = nil
	return nil
}
