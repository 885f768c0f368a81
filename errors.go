package predicate

import (
	"errors"
	"fmt"
	"strings"
)

// Issue codes reported by predicates when the data does not satisfy them.
const (
	CodeInvalidType   = "invalid_type"
	CodeRequired      = "required"
	CodeTooShort      = "too_short"
	CodeTooLong       = "too_long"
	CodeTooSmall      = "too_small"
	CodeTooBig        = "too_big"
	CodePattern       = "pattern"
	CodeInvalidEnum   = "invalid_enum"
	CodeInvalidFormat = "invalid_format"
	CodeNotEqual      = "not_equal"
	CodeNegated       = "negated"
	CodeNoMatch       = "no_match"
	CodeParseError    = "parse_error"
	CodeDuplicateKey  = "duplicate_key"
)

// Issue represents a single validation failure.
type Issue struct {
	Path    string // JSON Pointer (for example: /items/2/price).
	Code    string // One of the codes listed above.
	Message string
	Hint    string // Optional: remediation hints, format names, etc.
	Cause   error  // Optional: underlying error.
	// Params carries structured parameters (e.g., {"min":1, "max":10, "got":42})
	// for i18n and observability.
	Params map[string]any
	// Rule records the predicate name that produced this issue.
	Rule string
}

// Issues is a collection of validation failures that implements error.
type Issues []Issue

// Error summarizes the first few issues.
func (iss Issues) Error() string {
	if len(iss) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	n := len(iss)
	lim := n
	if lim > maxShown {
		lim = maxShown
	}
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		it := iss[i]
		// e.g. too_short at /name (isLength)
		fmt.Fprintf(b, "%s at %s", it.Code, it.Path)
		if it.Rule != "" {
			fmt.Fprintf(b, " (%s)", it.Rule)
		}
	}
	if n > lim {
		fmt.Fprintf(b, "; ... (total %d)", n)
	}
	return b.String()
}

// AppendIssues appends issues to the destination, initializing the slice when
// needed.
func AppendIssues(dst Issues, more ...Issue) Issues {
	if dst == nil {
		dst = Issues{}
	}
	dst = append(dst, more...)
	return dst
}

// AsIssues extracts Issues from an error using errors.As internally.
func AsIssues(err error) (Issues, bool) {
	if err == nil {
		return nil, false
	}
	var iss Issues
	if errors.As(err, &iss) {
		return iss, true
	}
	return nil, false
}

// Construct-time errors. They are always wrapped in a *BuildError.
var (
	ErrUnknownType            = errors.New("unknown type")
	ErrUnknownPredicate       = errors.New("unknown predicate")
	ErrMalformedDescriptor    = errors.New("malformed argument descriptor")
	ErrMalformedPredicate     = errors.New("malformed predicate literal")
	ErrRestNotLast            = errors.New("rest parameter must be the last descriptor")
	ErrIllegalReferenceKind   = errors.New("illegal reference kind")
	ErrDeepPathOnValidatorRef = errors.New("deep path not allowed on validator reference")
	ErrMissingArgument        = errors.New("missing required argument")
	ErrTooManyArguments       = errors.New("too many arguments")
	ErrInvalidArgumentType    = errors.New("invalid argument type")
	ErrDuplicatePredicate     = errors.New("predicate already registered")
	ErrDuplicateBinding       = errors.New("name bound twice in one scope")
)

// Run-time evaluation errors. They are always wrapped in an *EvalError.
var (
	ErrUnresolvedReference        = errors.New("unresolved reference")
	ErrChainedReferenceNotAllowed = errors.New("chained reference not allowed")
)

// BuildError reports a malformed predicate tree. The tree must not run.
type BuildError struct {
	Op        string // "type", "args", "compile", "scope", "data", "register"
	Predicate string // predicate name when known
	Arg       string // argument name when known
	Detail    string
	Err       error
}

func (e *BuildError) Error() string {
	b := &strings.Builder{}
	b.WriteString("predicate: ")
	b.WriteString(e.Op)
	if e.Predicate != "" {
		fmt.Fprintf(b, " %s", e.Predicate)
	}
	if e.Arg != "" {
		fmt.Fprintf(b, " arg %q", e.Arg)
	}
	fmt.Fprintf(b, ": %v", e.Err)
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	return b.String()
}

func (e *BuildError) Unwrap() error { return e.Err }

func buildErr(op string, err error, format string, args ...any) *BuildError {
	return &BuildError{Op: op, Err: err, Detail: fmt.Sprintf(format, args...)}
}

// withPredicate annotates err with the predicate and argument names when it is
// a *BuildError lacking them.
func withPredicate(err error, name, arg string) error {
	var be *BuildError
	if errors.As(err, &be) {
		if be.Predicate == "" {
			be.Predicate = name
		}
		if be.Arg == "" {
			be.Arg = arg
		}
		return be
	}
	return &BuildError{Op: "compile", Predicate: name, Arg: arg, Err: err}
}

// EvalError reports a predicate tree that cannot be evaluated against the
// current input, as opposed to input that fails a check.
type EvalError struct {
	Ref string // rendered reference, e.g. {$var: "V1"}
	Err error
}

func (e *EvalError) Error() string {
	if e.Ref == "" {
		return "predicate: " + e.Err.Error()
	}
	return fmt.Sprintf("predicate: %v: %s", e.Err, e.Ref)
}

func (e *EvalError) Unwrap() error { return e.Err }

// IsEvalError reports whether err carries an *EvalError. Combinators use it to
// propagate evaluation failures instead of treating them as data failures.
func IsEvalError(err error) bool {
	var ee *EvalError
	return errors.As(err, &ee)
}
