package predicate

import (
	"fmt"
	"strings"
)

// Reference literal keys and the validator-name marker.
const (
	RefPathKey      = "$path"
	RefVarKey       = "$var"
	ValidatorMarker = "$"
)

// reference is a parsed {"$path": ...} or {"$var": ...} literal.
type reference struct {
	// name is the scope binding for $var references; empty for $path.
	name string
	// validator is set when name carried the ValidatorMarker.
	validator bool
	// path is the $path target, or the suffix applied to a $var value.
	path Path
	raw  map[string]any
}

func (r reference) isVar() bool { return r.name != "" }

func (r reference) String() string {
	if r.isVar() {
		s := r.name
		if r.validator {
			s = ValidatorMarker + s
		}
		if len(r.path) > 0 {
			ps := r.path.String()
			if !strings.HasPrefix(ps, "[") {
				ps = "." + ps
			}
			s += ps
		}
		return fmt.Sprintf("{%s: %q}", RefVarKey, s)
	}
	return fmt.Sprintf("{%s: %q}", RefPathKey, r.path.String())
}

// IsRef reports whether v has the shape of a reference literal.
func IsRef(v any) bool {
	m, ok := v.(map[string]any)
	if !ok || len(m) != 1 {
		return false
	}
	_, isPath := m[RefPathKey]
	_, isVar := m[RefVarKey]
	return isPath || isVar
}

// parseRef decodes a reference literal. ok is false when v is not
// reference-shaped; err is set when it is but cannot be used.
func parseRef(v any) (ref reference, ok bool, err error) {
	if !IsRef(v) {
		return reference{}, false, nil
	}
	m := v.(map[string]any)
	ref.raw = m
	if spec, isPath := m[RefPathKey]; isPath {
		if !isPathValue(spec) {
			return ref, true, buildErr("compile", ErrInvalidArgumentType, "%s expects a path string or array, got %T", RefPathKey, spec)
		}
		p, perr := ParsePath(spec)
		if perr != nil {
			return ref, true, buildErr("compile", ErrInvalidArgumentType, "%v", perr)
		}
		ref.path = p
		return ref, true, nil
	}
	name, isStr := m[RefVarKey].(string)
	if !isStr || name == "" {
		return ref, true, buildErr("compile", ErrInvalidArgumentType, "%s expects a non-empty name, got %v", RefVarKey, m[RefVarKey])
	}
	if strings.HasPrefix(name, ValidatorMarker) {
		ref.validator = true
		name = strings.TrimPrefix(name, ValidatorMarker)
	}
	cut := strings.IndexAny(name, ".[")
	if cut == 0 || name == "" {
		return ref, true, buildErr("compile", ErrInvalidArgumentType, "%s name %q is empty", RefVarKey, name)
	}
	if cut > 0 {
		if ref.validator {
			return ref, true, buildErr("compile", ErrDeepPathOnValidatorRef, "%s %q", RefVarKey, m[RefVarKey])
		}
		p, perr := ParsePath(strings.TrimPrefix(name[cut:], "."))
		if perr != nil {
			return ref, true, buildErr("compile", ErrInvalidArgumentType, "%v", perr)
		}
		ref.path = p
		name = name[:cut]
	}
	ref.name = name
	return ref, true, nil
}
