package predicate

import (
	"fmt"
	"sort"
	"strings"
)

// RefPath locates one deferred reference inside an argument.
type RefPath struct {
	// Target is where the resolved value goes; empty for a root reference.
	Target Path
	ref    reference
}

// Var returns the scope name of a $var reference, or "" for $path.
func (r RefPath) Var() string { return r.ref.name }

// Path returns the input path of a $path reference, or the suffix applied to a
// $var value.
func (r RefPath) Path() Path { return r.ref.path }

// Validator reports whether the reference names a predicate binding.
func (r RefPath) Validator() bool { return r.ref.validator }

func (r RefPath) String() string { return r.ref.String() }

// Expr is the compiled form of one constructor argument. It is either a
// literal, resolved at construction, or a template: a private clone of the
// argument plus the ordered references to substitute into it. An Expr is
// immutable; per-validation resolution state lives in a Binding.
type Expr struct {
	typ     *Type
	source  any
	literal bool
	value   any // the literal, or the template skeleton
	refs    []RefPath
	lit     *Binding
}

// CompileExpr compiles raw against the declared type t. cat converts
// predicate literals for types that accept validators; it may be nil when no
// such conversion is wanted.
func CompileExpr(raw any, t *Type, cat *Catalog) (*Expr, error) {
	if t == nil {
		t = Primitive(KindAny)
	}
	ref, isRef, err := parseRef(raw)
	if err != nil {
		return nil, err
	}
	if isRef {
		if err := checkRefKind(ref, t, false); err != nil {
			return nil, err
		}
		return &Expr{typ: t, source: raw, value: raw, refs: []RefPath{{ref: ref}}}, nil
	}

	if t.AcceptsValidator() {
		// Arguments that accept predicates resolve their own references:
		// no discovery below this point.
		if cat != nil {
			p, ok, err := cat.compileLiteral(raw, !t.AcceptsValue())
			if err != nil {
				return nil, err
			}
			if ok {
				raw = p
			}
		}
		if !t.Check(raw) {
			return nil, invalidArg(raw, t)
		}
		return literalExpr(t, raw, raw), nil
	}

	v, err := t.Convert(raw)
	if err != nil {
		return nil, buildErr("compile", ErrInvalidArgumentType, "%v", err)
	}
	var refs []RefPath
	if err := discover(v, Path{}, &refs); err != nil {
		return nil, err
	}
	if !t.Check(v) {
		return nil, invalidArg(raw, t)
	}
	if len(refs) == 0 {
		return literalExpr(t, raw, v), nil
	}
	return &Expr{typ: t, source: raw, value: Clone(v), refs: refs}, nil
}

// MustExpr is CompileExpr for arguments known to be valid.
func MustExpr(raw any, t *Type, cat *Catalog) *Expr {
	e, err := CompileExpr(raw, t, cat)
	if err != nil {
		panic(err)
	}
	return e
}

func literalExpr(t *Type, source, v any) *Expr {
	e := &Expr{typ: t, source: source, literal: true, value: v}
	e.lit = &Binding{expr: e, state: bindResolved, result: v}
	return e
}

func invalidArg(raw any, t *Type) error {
	return buildErr("compile", ErrInvalidArgumentType, "%s expected, got %T", t, raw)
}

// checkRefKind enforces that a reference points into a namespace the declared
// type can hold. Embedded references are always value references.
func checkRefKind(ref reference, t *Type, embedded bool) error {
	if ref.validator {
		if embedded {
			return buildErr("compile", ErrIllegalReferenceKind, "validator reference %s cannot be embedded in a value", ref)
		}
		if !t.AcceptsValidator() {
			return buildErr("compile", ErrIllegalReferenceKind, "validator reference %s where %s expects a value", ref, t)
		}
		return nil
	}
	if !t.AcceptsValue() {
		return buildErr("compile", ErrIllegalReferenceKind, "value reference %s where %s expects a validator", ref, t)
	}
	return nil
}

// discover records every reference nested in v. Object keys are visited in
// sorted order so the substitution order is deterministic.
func discover(v any, at Path, out *[]RefPath) error {
	switch t := v.(type) {
	case map[string]any:
		ref, isRef, err := parseRef(t)
		if err != nil {
			return err
		}
		if isRef {
			if err := checkRefKind(ref, Primitive(KindAny), true); err != nil {
				return err
			}
			*out = append(*out, RefPath{Target: at, ref: ref})
			return nil
		}
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if err := discover(t[k], at.Field(k), out); err != nil {
				return err
			}
		}
	case []any:
		for i, e := range t {
			if err := discover(e, at.Index(i), out); err != nil {
				return err
			}
		}
	}
	return nil
}

// Type returns the declared type the argument was compiled against.
func (e *Expr) Type() *Type { return e.typ }

// Source returns the raw argument as given to the constructor.
func (e *Expr) Source() any { return e.source }

// Resolved reports whether the expression needed no resolution at all.
func (e *Expr) Resolved() bool { return e.literal }

// IsRootRef reports whether the whole argument is a single reference.
func (e *Expr) IsRootRef() bool { return len(e.refs) == 1 && len(e.refs[0].Target) == 0 }

// Refs returns the discovered references in substitution order.
func (e *Expr) Refs() []RefPath { return append([]RefPath(nil), e.refs...) }

// Result returns the literal value, or the unsubstituted template.
func (e *Expr) Result() any { return e.value }

// Bind returns fresh resolution state for one validation call. Literal
// expressions share a single, already resolved Binding.
func (e *Expr) Bind() *Binding {
	if e.literal {
		return e.lit
	}
	return &Binding{expr: e}
}

type bindState int

const (
	bindUnresolved bindState = iota
	bindResolved
	bindFailed
)

// Binding is the resolution state of an Expr within one validation call. Its
// state moves at most once, from unresolved to resolved or to failed.
type Binding struct {
	expr   *Expr
	state  bindState
	result any
	err    error
}

// Resolve substitutes the references of the expression using sc for $var
// lookups and input for $path lookups. It is a no-op once the binding is
// resolved or failed.
func (b *Binding) Resolve(sc *Scope, input any) *Binding {
	if b.state != bindUnresolved {
		return b
	}
	e := b.expr
	if e.IsRootRef() {
		v, err := resolveRef(e.refs[0].ref, sc, input)
		if err == nil {
			v, err = e.conform(v)
		}
		if err != nil {
			b.fail(err)
			return b
		}
		b.succeed(v)
		return b
	}
	out := e.value
	for _, rp := range e.refs {
		v, err := resolveRef(rp.ref, sc, input)
		if err != nil {
			b.fail(err)
			return b
		}
		// Set copies the containers along Target, so the template is never
		// written to.
		out, err = Set(out, rp.Target, v)
		if err != nil {
			b.fail(&EvalError{Ref: rp.String(), Err: err})
			return b
		}
	}
	out, err := e.conform(out)
	if err != nil {
		b.fail(err)
		return b
	}
	b.succeed(out)
	return b
}

// conform applies the declared type to a resolved value the way CompileExpr
// does for literals: convert, then check membership.
func (e *Expr) conform(v any) (any, error) {
	cv, err := e.typ.Convert(v)
	if err != nil {
		return nil, &EvalError{Ref: e.refList(), Err: fmt.Errorf("%w: %v", ErrInvalidArgumentType, err)}
	}
	if !e.typ.Check(cv) {
		return nil, &EvalError{Ref: e.refList(), Err: fmt.Errorf("%w: %s expected, got %T", ErrInvalidArgumentType, e.typ, v)}
	}
	return cv, nil
}

func (e *Expr) refList() string {
	parts := make([]string, len(e.refs))
	for i, rp := range e.refs {
		parts[i] = rp.String()
	}
	return strings.Join(parts, ", ")
}

func (b *Binding) fail(err error) {
	b.state, b.err = bindFailed, err
}

func (b *Binding) succeed(v any) {
	b.state, b.result = bindResolved, v
}

// Resolved reports whether resolution completed successfully.
func (b *Binding) Resolved() bool { return b.state == bindResolved }

// Err returns the resolution error, if any.
func (b *Binding) Err() error { return b.err }

// Value returns the resolved value. It is nil until Resolved.
func (b *Binding) Value() any { return b.result }

// resolveRef reads one reference. A $path that is absent from the input
// yields nil: missing data is for the predicate to judge. A $var that is not
// bound means the tree cannot be evaluated.
func resolveRef(ref reference, sc *Scope, input any) (any, error) {
	if !ref.isVar() {
		v, _ := Get(input, ref.path)
		if IsRef(v) {
			return nil, &EvalError{Ref: ref.String(), Err: ErrChainedReferenceNotAllowed}
		}
		return v, nil
	}
	if ref.validator {
		p, ok := sc.FindPredicate(ref.name)
		if !ok {
			return nil, &EvalError{Ref: ref.String(), Err: ErrUnresolvedReference}
		}
		sc.logger().Debugf("resolved %s to predicate %s", ref, p.Name())
		return p, nil
	}
	v, ok := sc.FindValue(ref.name)
	if !ok {
		return nil, &EvalError{Ref: ref.String(), Err: ErrUnresolvedReference}
	}
	if IsRef(v) {
		return nil, &EvalError{Ref: ref.String(), Err: ErrChainedReferenceNotAllowed}
	}
	if len(ref.path) > 0 {
		v, _ = Get(v, ref.path)
		if IsRef(v) {
			return nil, &EvalError{Ref: ref.String(), Err: ErrChainedReferenceNotAllowed}
		}
	}
	sc.logger().Debugf("resolved %s", ref)
	return v, nil
}
