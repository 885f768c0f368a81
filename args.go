package predicate

import (
	"strings"
)

// ArgDescriptor is one formal parameter of a predicate constructor.
type ArgDescriptor struct {
	Name     string
	Type     *Type
	Optional bool
	// Rest marks a trailing parameter that absorbs every remaining argument.
	Rest bool
}

// String renders d in the grammar accepted by ParseArgs.
func (d ArgDescriptor) String() string {
	b := &strings.Builder{}
	if d.Rest {
		b.WriteString("...")
	}
	b.WriteString(d.Name)
	b.WriteByte(':')
	t := d.Type.String()
	if d.Optional && d.Type.Kind() == KindUnion && strings.HasPrefix(t, "null|") {
		t = strings.TrimPrefix(t, "null|") + "?"
	}
	b.WriteString(t)
	return b.String()
}

// ArgSpec is the structured form of an ArgDescriptor, with the type still
// spelled as a type spec.
type ArgSpec struct {
	Name     string
	Type     string
	Optional bool
	Rest     bool
}

// ParseArgs parses a comma-separated descriptor list such as
// "path:path, options:options?, ...values:any". A trailing "?" on the type
// marks the parameter optional and adds null to its type.
func ParseArgs(grammar string) ([]ArgDescriptor, error) {
	grammar = strings.TrimSpace(grammar)
	if grammar == "" {
		return nil, nil
	}
	var specs []ArgSpec
	for _, part := range strings.Split(grammar, ",") {
		part = strings.TrimSpace(part)
		s := ArgSpec{}
		if strings.HasPrefix(part, "...") {
			s.Rest = true
			part = strings.TrimPrefix(part, "...")
		}
		name, typ, ok := strings.Cut(part, ":")
		if !ok {
			return nil, buildErr("args", ErrMalformedDescriptor, "%q: expected name:type", part)
		}
		s.Name = strings.TrimSpace(name)
		s.Type = strings.TrimSpace(typ)
		if strings.HasSuffix(s.Type, "?") {
			s.Optional = true
		}
		specs = append(specs, s)
	}
	return Args(specs...)
}

// Args resolves structured descriptors and enforces the list rules: names are
// unique and non-empty, and only the last descriptor may be a rest parameter.
func Args(specs ...ArgSpec) ([]ArgDescriptor, error) {
	out := make([]ArgDescriptor, 0, len(specs))
	seen := make(map[string]struct{}, len(specs))
	for i, s := range specs {
		if s.Name == "" || strings.ContainsAny(s.Name, " \t:") {
			return nil, buildErr("args", ErrMalformedDescriptor, "descriptor %d: bad name %q", i, s.Name)
		}
		if _, dup := seen[s.Name]; dup {
			return nil, buildErr("args", ErrMalformedDescriptor, "duplicate name %q", s.Name)
		}
		seen[s.Name] = struct{}{}
		if s.Rest && i != len(specs)-1 {
			return nil, &BuildError{Op: "args", Arg: s.Name, Err: ErrRestNotLast}
		}
		spec := s.Type
		if s.Optional && !strings.HasSuffix(spec, "?") {
			spec += "?"
		}
		t, err := TypeOf(spec)
		if err != nil {
			return nil, withPredicate(err, "", s.Name)
		}
		out = append(out, ArgDescriptor{Name: s.Name, Type: t, Optional: s.Optional, Rest: s.Rest})
	}
	return out, nil
}

// MustArgs is ParseArgs for descriptor lists known at init time.
func MustArgs(grammar string) []ArgDescriptor {
	ds, err := ParseArgs(grammar)
	if err != nil {
		panic(err)
	}
	return ds
}
