package predicate

// ValidateOpt bundles per-call options.
type ValidateOpt struct {
	// CollectAll makes conjunctions report the failures of every child
	// instead of only the first one.
	CollectAll bool
	// Logger receives resolution traces. Nil discards them.
	Logger Logger
	// Globals are the outermost scope frames, outermost first.
	Globals []*Frame
	// Defs is entered on top of Globals, against the input, before the
	// predicate runs.
	Defs *ScopeDef
}

// Validate runs p against input in a fresh scope. It returns nil when input
// satisfies p, Issues when it does not, and an *EvalError when p cannot be
// evaluated (an unbound or chained reference).
func Validate(p *Predicate, input any, opts ...ValidateOpt) error {
	var opt ValidateOpt
	if len(opts) > 0 {
		opt = opts[len(opts)-1]
	}
	if p == nil {
		return &BuildError{Op: "validate", Err: ErrMalformedPredicate, Detail: "nil predicate"}
	}
	sc := NewScope(opt.Globals...)
	sc.log = opt.Logger
	sc.opt = opt
	if opt.Defs != nil {
		if err := opt.Defs.Enter(sc, input); err != nil {
			return err
		}
		defer sc.Pop()
	}
	return p.Validate(sc, input)
}

// Is reports whether input satisfies p. Evaluation errors count as failure.
func Is(p *Predicate, input any, opts ...ValidateOpt) bool {
	return Validate(p, input, opts...) == nil
}

// SafeValidate separates data failures from evaluation errors: ok is true
// when input satisfies p, iss holds the failures otherwise, and err is set
// only when p could not be evaluated.
func SafeValidate(p *Predicate, input any, opts ...ValidateOpt) (ok bool, iss Issues, err error) {
	verr := Validate(p, input, opts...)
	if verr == nil {
		return true, nil, nil
	}
	if ii, isIss := AsIssues(verr); isIss {
		return false, ii, nil
	}
	return false, nil, verr
}
