package predicate

import (
	"fmt"
	"strings"

	"github.com/reoring/predicate/i18n"
)

// Impl is the body of a predicate. It runs once every argument is resolved and
// returns nil on success, Issues when the input fails the check, or an
// *EvalError when the tree cannot be evaluated.
type Impl func(c *Call) error

// Definition pairs a predicate name with its argument descriptors and body.
// It is immutable once created.
type Definition struct {
	name string
	args []ArgDescriptor
	impl Impl
	// prepare rewrites raw arguments before they are compiled.
	prepare Prepare
	// base is the definition an optional sibling was derived from.
	base *Definition
	opt  *Definition
}

// Prepare rewrites the raw arguments of a definition before they are checked
// against its descriptors, e.g. to compile a nested document that must not go
// through reference discovery.
type Prepare func(cat *Catalog, raw []any) ([]any, error)

// DefineOption customizes a Definition.
type DefineOption func(*Definition)

// WithPrepare installs a Prepare hook.
func WithPrepare(fn Prepare) DefineOption {
	return func(d *Definition) { d.prepare = fn }
}

// OptionalPrefix is prepended to a definition name to name its optional
// sibling: isSet -> optIsSet.
const OptionalPrefix = "opt"

// Define parses grammar with ParseArgs and creates a definition.
func Define(name, grammar string, impl Impl, opts ...DefineOption) (*Definition, error) {
	args, err := ParseArgs(grammar)
	if err != nil {
		return nil, withPredicate(err, name, "")
	}
	return DefineArgs(name, args, impl, opts...)
}

// MustDefine is Define for built-in catalogs; it panics on error.
func MustDefine(name, grammar string, impl Impl, opts ...DefineOption) *Definition {
	d, err := Define(name, grammar, impl, opts...)
	if err != nil {
		panic(err)
	}
	return d
}

// DefineArgs creates a definition from already parsed descriptors. When the
// first descriptor admits a path, the optional sibling is derived as well.
func DefineArgs(name string, args []ArgDescriptor, impl Impl, opts ...DefineOption) (*Definition, error) {
	if name == "" || strings.HasPrefix(name, ValidatorMarker) || strings.ContainsAny(name, " .[") {
		return nil, &BuildError{Op: "define", Predicate: name, Err: ErrMalformedDescriptor, Detail: "bad predicate name"}
	}
	if impl == nil {
		return nil, &BuildError{Op: "define", Predicate: name, Err: ErrMalformedDescriptor, Detail: "nil implementation"}
	}
	for i, a := range args {
		if a.Type == nil {
			return nil, &BuildError{Op: "define", Predicate: name, Arg: a.Name, Err: ErrMalformedDescriptor, Detail: "nil type"}
		}
		if a.Rest && i != len(args)-1 {
			return nil, &BuildError{Op: "define", Predicate: name, Arg: a.Name, Err: ErrRestNotLast}
		}
	}
	d := &Definition{name: name, args: append([]ArgDescriptor(nil), args...), impl: impl}
	for _, o := range opts {
		o(d)
	}
	if d.hasTarget() {
		d.opt = &Definition{name: optionalName(name), args: d.args, impl: impl, prepare: d.prepare, base: d}
	}
	return d, nil
}

func optionalName(name string) string {
	return OptionalPrefix + strings.ToUpper(name[:1]) + name[1:]
}

func (d *Definition) hasTarget() bool {
	return len(d.args) > 0 && !d.args[0].Rest && d.args[0].Type.Has(KindPath)
}

// Name returns the catalog name.
func (d *Definition) Name() string { return d.name }

// Args returns a copy of the argument descriptors.
func (d *Definition) Args() []ArgDescriptor { return append([]ArgDescriptor(nil), d.args...) }

// Optional returns the generated sibling that succeeds whenever the value at
// the target path is absent or null. It is nil for definitions whose first
// argument is not a path, and for optional siblings themselves.
func (d *Definition) Optional() *Definition { return d.opt }

// IsOptional reports whether d is a generated optional sibling.
func (d *Definition) IsOptional() bool { return d.base != nil }

// Signature renders the name and descriptors, e.g. "isLength(path:path, options:options?)".
func (d *Definition) Signature() string {
	parts := make([]string, len(d.args))
	for i, a := range d.args {
		parts[i] = a.String()
	}
	return d.name + "(" + strings.Join(parts, ", ") + ")"
}

// Compile checks raw against the descriptors and returns the predicate. cat
// converts nested predicate literals and may be nil for trees built in Go.
func (d *Definition) Compile(cat *Catalog, raw ...any) (*Predicate, error) {
	if d.prepare != nil {
		prepared, err := d.prepare(cat, append([]any(nil), raw...))
		if err != nil {
			return nil, withPredicate(err, d.name, "")
		}
		raw = prepared
	}
	exprs := make([]*Expr, 0, len(d.args))
	for i, a := range d.args {
		if a.Rest {
			for j := i; j < len(raw); j++ {
				e, err := CompileExpr(raw[j], a.Type, cat)
				if err != nil {
					return nil, withPredicate(err, d.name, fmt.Sprintf("%s[%d]", a.Name, j-i))
				}
				exprs = append(exprs, e)
			}
			return &Predicate{def: d, args: exprs}, nil
		}
		if i >= len(raw) || (raw[i] == nil && !a.Type.Nullable()) {
			if !a.Optional {
				return nil, &BuildError{Op: "compile", Predicate: d.name, Arg: a.Name, Err: ErrMissingArgument}
			}
			exprs = append(exprs, literalExpr(a.Type, nil, nil))
			continue
		}
		e, err := CompileExpr(raw[i], a.Type, cat)
		if err != nil {
			return nil, withPredicate(err, d.name, a.Name)
		}
		exprs = append(exprs, e)
	}
	if len(raw) > len(d.args) {
		return nil, &BuildError{Op: "compile", Predicate: d.name, Err: ErrTooManyArguments,
			Detail: fmt.Sprintf("%s takes %d, got %d", d.Signature(), len(d.args), len(raw))}
	}
	return &Predicate{def: d, args: exprs}, nil
}

// Predicate is a compiled predicate: a definition and one Expr per actual
// argument. It holds no per-call state and may be validated concurrently.
type Predicate struct {
	def  *Definition
	args []*Expr
}

// Name returns the definition name.
func (p *Predicate) Name() string { return p.def.name }

// Definition returns the definition p was compiled from.
func (p *Predicate) Definition() *Definition { return p.def }

// Args returns the compiled arguments.
func (p *Predicate) Args() []*Expr { return append([]*Expr(nil), p.args...) }

func (p *Predicate) String() string { return p.def.name }

// Validate runs p against input within sc. A nil sc means an empty scope.
func (p *Predicate) Validate(sc *Scope, input any) error {
	if sc == nil {
		sc = NewScope()
	}
	vals := make([]any, len(p.args))
	for i, e := range p.args {
		b := e.Bind().Resolve(sc, input)
		if err := b.Err(); err != nil {
			sc.logger().Debugf("%s: %v", p.def.name, err)
			return err
		}
		vals[i] = b.Value()
	}
	c := &Call{Scope: sc, Input: input, Args: vals, pred: p}
	if p.def.base != nil {
		path, err := c.TargetPath()
		if err != nil {
			return err
		}
		if v, ok := Get(input, path); !ok || v == nil {
			return nil
		}
	}
	err := p.def.impl(c)
	if iss, ok := err.(Issues); ok {
		for i := range iss {
			if iss[i].Rule == "" {
				iss[i].Rule = p.def.name
			}
		}
	}
	return err
}

// Call carries the resolved arguments of one predicate invocation.
type Call struct {
	Scope *Scope
	Input any
	Args  []any
	pred  *Predicate
}

// Name returns the name of the running predicate.
func (c *Call) Name() string { return c.pred.def.name }

// Arg returns the i-th resolved argument, or nil when it was not given.
func (c *Call) Arg(i int) any {
	if i < 0 || i >= len(c.Args) {
		return nil
	}
	return c.Args[i]
}

// Rest returns the resolved arguments from index i on.
func (c *Call) Rest(i int) []any {
	if i >= len(c.Args) {
		return nil
	}
	return c.Args[i:]
}

// TargetPath parses the first argument as a path.
func (c *Call) TargetPath() (Path, error) {
	p, err := ParsePath(c.Arg(0))
	if err != nil {
		return nil, c.Fail(nil, CodeInvalidType, err.Error())
	}
	return p, nil
}

// Target returns the target path and the value stored there. ok is false
// when the value is absent.
func (c *Call) Target() (Path, any, bool, error) {
	p, err := c.TargetPath()
	if err != nil {
		return nil, nil, false, err
	}
	v, ok := Get(c.Input, p)
	return p, v, ok, nil
}

// Fail builds a single-issue failure at path. An empty msg is replaced by the
// translated message for code. kv holds alternating parameter names and
// values.
func (c *Call) Fail(path Path, code, msg string, kv ...any) error {
	var params map[string]any
	if len(kv) > 0 {
		params = make(map[string]any, len(kv)/2)
		for i := 0; i+1 < len(kv); i += 2 {
			params[fmt.Sprint(kv[i])] = kv[i+1]
		}
	}
	if msg == "" {
		data := make(map[string]string, len(params))
		for k, v := range params {
			data[k] = fmt.Sprint(v)
		}
		msg = i18n.T(code, data)
	}
	return Issues{{Path: path.Pointer(), Code: code, Message: msg, Params: params, Rule: c.Name()}}
}

// Run validates a child predicate against input in the current scope.
func (c *Call) Run(p *Predicate, input any) error {
	return p.Validate(c.Scope, input)
}

// CollectAll reports whether conjunctions should report every failing child.
func (c *Call) CollectAll() bool { return c.Scope.opt.CollectAll }
