package predicate

import (
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"
	"sync"
)

// Kind tags the variant of a Type. The declaration order is the priority
// used to sort union members and to pick the first matching member.
type Kind int

const (
	KindNull Kind = iota
	KindBoolean
	KindInteger
	KindNumber
	KindString
	KindRegex
	KindPath
	KindArray
	KindObject
	KindOptions
	KindChild
	KindAny
	KindUnion
)

var kindNames = [...]string{
	KindNull:    "null",
	KindBoolean: "boolean",
	KindInteger: "integer",
	KindNumber:  "number",
	KindString:  "string",
	KindRegex:   "regex",
	KindPath:    "path",
	KindArray:   "array",
	KindObject:  "object",
	KindOptions: "options",
	KindChild:   "child",
	KindAny:     "any",
	KindUnion:   "union",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// RefResolver tells which namespace a reference in an argument of this type
// may point into.
type RefResolver int

const (
	ResolveValue RefResolver = iota
	ResolveValidator
	ResolveEither
)

func (r RefResolver) String() string {
	switch r {
	case ResolveValue:
		return "value"
	case ResolveValidator:
		return "validator"
	default:
		return "either"
	}
}

// Type is either a single kind or a union of kinds. Instances are interned:
// equal canonical signatures always share one *Type, so pointer equality is
// type equality.
type Type struct {
	kind    Kind
	members []*Type // sorted by kind; only for KindUnion
	name    string

	once  sync.Once
	props typeProps
}

type typeProps struct {
	nullable         bool
	acceptsValue     bool
	acceptsValidator bool
	swallowsRef      bool
	resolver         RefResolver
}

// primitives holds one canonical instance per kind. It is built in its own
// initializer so that package-level MustType calls elsewhere can use it.
var primitives = func() (p [KindAny + 1]*Type) {
	for k := KindNull; k <= KindAny; k++ {
		p[k] = &Type{kind: k, name: kindNames[k]}
	}
	return p
}()

var unions = struct {
	mu     sync.Mutex
	bySig  map[string]*Type // canonical name -> instance
	bySpec map[string]*Type // normalized request -> instance
}{
	bySig:  map[string]*Type{},
	bySpec: map[string]*Type{},
}

// Primitive returns the canonical instance of a non-union kind.
func Primitive(k Kind) *Type {
	if k < KindNull || k > KindAny {
		panic(fmt.Sprintf("predicate: %v is not a primitive kind", k))
	}
	return primitives[k]
}

func primitiveByName(name string) (*Type, bool) {
	for _, t := range primitives {
		if t.name == name {
			return t, true
		}
	}
	return nil, false
}

// TypeOf resolves a type spec such as "string", "integer|string" or
// "number?" (shorthand for "null|number"). Member order and whitespace do not
// matter; the result is memoized by canonical signature.
func TypeOf(spec string) (*Type, error) {
	norm := strings.Join(strings.Fields(spec), "")
	if t, ok := primitiveByName(norm); ok {
		return t, nil
	}
	unions.mu.Lock()
	if t, ok := unions.bySpec[norm]; ok {
		unions.mu.Unlock()
		return t, nil
	}
	unions.mu.Unlock()

	if norm == "" {
		return nil, buildErr("type", ErrUnknownType, "empty type spec")
	}
	var members []*Type
	for _, part := range strings.Split(norm, "|") {
		name := part
		for strings.HasSuffix(name, "?") {
			name = strings.TrimSuffix(name, "?")
			members = append(members, primitives[KindNull])
		}
		if name == "" {
			continue
		}
		t, ok := primitiveByName(name)
		if !ok || t.kind == KindUnion {
			return nil, buildErr("type", ErrUnknownType, "%q in %q", name, spec)
		}
		members = append(members, t)
	}
	t, err := unionOf(members)
	if err != nil {
		return nil, buildErr("type", ErrUnknownType, "%q: %v", spec, err)
	}
	unions.mu.Lock()
	unions.bySpec[norm] = t
	unions.mu.Unlock()
	return t, nil
}

// MustType is TypeOf for specs known at init time.
func MustType(spec string) *Type {
	t, err := TypeOf(spec)
	if err != nil {
		panic(err)
	}
	return t
}

// UnionOf returns the interned union of the given types. Unions among ts are
// flattened.
func UnionOf(ts ...*Type) (*Type, error) {
	var flat []*Type
	for _, t := range ts {
		if t == nil {
			continue
		}
		flat = append(flat, t.Members()...)
	}
	t, err := unionOf(flat)
	if err != nil {
		return nil, buildErr("type", ErrUnknownType, "%v", err)
	}
	return t, nil
}

func unionOf(members []*Type) (*Type, error) {
	if len(members) == 0 {
		return nil, fmt.Errorf("union has no members")
	}
	sorted := append([]*Type(nil), members...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].kind < sorted[j].kind })
	dedup := sorted[:0]
	for i, m := range sorted {
		if i > 0 && m == sorted[i-1] {
			continue
		}
		dedup = append(dedup, m)
	}
	if len(dedup) == 1 {
		return dedup[0], nil
	}
	names := make([]string, len(dedup))
	for i, m := range dedup {
		names[i] = m.name
	}
	sig := strings.Join(names, "|")

	unions.mu.Lock()
	defer unions.mu.Unlock()
	if t, ok := unions.bySig[sig]; ok {
		return t, nil
	}
	t := &Type{kind: KindUnion, members: dedup, name: sig}
	unions.bySig[sig] = t
	unions.bySpec[sig] = t
	return t, nil
}

// Kind returns the variant tag.
func (t *Type) Kind() Kind { return t.kind }

// String returns the canonical signature.
func (t *Type) String() string { return t.name }

// Members returns the union members in priority order, or t itself.
func (t *Type) Members() []*Type {
	if t.kind != KindUnion {
		return []*Type{t}
	}
	return append([]*Type(nil), t.members...)
}

// Has reports whether kind k is one of t's members.
func (t *Type) Has(k Kind) bool {
	if t.kind != KindUnion {
		return t.kind == k
	}
	for _, m := range t.members {
		if m.kind == k {
			return true
		}
	}
	return false
}

// Check reports whether v belongs to t.
func (t *Type) Check(v any) bool {
	_, ok := t.Match(v)
	return ok
}

// Match returns the first member of t, in priority order, that admits v.
func (t *Type) Match(v any) (*Type, bool) {
	if t.kind != KindUnion {
		return t, checkKind(t.kind, v)
	}
	for _, m := range t.members {
		if checkKind(m.kind, v) {
			return m, true
		}
	}
	return nil, false
}

func checkKind(k Kind, v any) bool {
	switch k {
	case KindNull:
		return v == nil
	case KindBoolean:
		_, ok := v.(bool)
		return ok
	case KindInteger:
		return isIntegral(v)
	case KindNumber:
		return isNumeric(v)
	case KindString:
		_, ok := v.(string)
		return ok
	case KindRegex:
		_, ok := v.(*regexp.Regexp)
		return ok
	case KindPath:
		return isPathValue(v)
	case KindArray:
		return isArrayValue(v)
	case KindObject:
		return isObjectValue(v)
	case KindOptions:
		return v == nil || isObjectValue(v)
	case KindChild:
		p, ok := v.(*Predicate)
		return ok && p != nil
	case KindAny:
		return true
	default:
		return false
	}
}

func isPathValue(v any) bool {
	switch t := v.(type) {
	case string, Path, []string:
		return true
	case []any:
		for _, e := range t {
			if _, ok := e.(string); ok {
				continue
			}
			if !isIntegral(e) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func isArrayValue(v any) bool {
	switch v.(type) {
	case []any:
		return true
	case nil, string, Path:
		return false
	}
	k := reflect.ValueOf(v).Kind()
	return k == reflect.Slice || k == reflect.Array
}

func isObjectValue(v any) bool {
	switch v.(type) {
	case map[string]any:
		return true
	case nil:
		return false
	}
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Map && rv.Type().Key().Kind() == reflect.String
}

func (t *Type) derive() *typeProps {
	t.once.Do(func() {
		p := &t.props
		p.nullable = t.Check(nil)
		for _, m := range t.Members() {
			switch m.kind {
			case KindChild:
				p.acceptsValidator = true
			case KindAny:
				p.acceptsValidator = true
				p.acceptsValue = true
				p.swallowsRef = true
			case KindObject, KindOptions:
				p.acceptsValue = true
				p.swallowsRef = true
			default:
				p.acceptsValue = true
			}
		}
		switch {
		case p.acceptsValue && p.acceptsValidator:
			p.resolver = ResolveEither
		case p.acceptsValidator:
			p.resolver = ResolveValidator
		default:
			p.resolver = ResolveValue
		}
	})
	return &t.props
}

// Nullable reports whether null is a member.
func (t *Type) Nullable() bool { return t.derive().nullable }

// AcceptsValue reports whether t admits ordinary data.
func (t *Type) AcceptsValue() bool { return t.derive().acceptsValue }

// AcceptsValidator reports whether t admits a predicate.
func (t *Type) AcceptsValidator() bool { return t.derive().acceptsValidator }

// SwallowsRef reports whether a reference-shaped object ({"$path": ...}) is
// also valid ordinary data of t. Such arguments are still read as references.
func (t *Type) SwallowsRef() bool { return t.derive().swallowsRef }

// RefResolver returns which namespace references of this type resolve in.
func (t *Type) RefResolver() RefResolver { return t.derive().resolver }

// Convert applies the construct-time conversions of t to v: a string given
// where t admits a regex but not a string is compiled. Other values are
// returned unchanged.
func (t *Type) Convert(v any) (any, error) {
	s, ok := v.(string)
	if !ok || !t.Has(KindRegex) || t.Has(KindString) || t.Has(KindPath) || t.Has(KindAny) {
		return v, nil
	}
	re, err := regexp.Compile(s)
	if err != nil {
		return nil, fmt.Errorf("regex %q: %w", s, err)
	}
	return re, nil
}
