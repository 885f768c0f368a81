package predicate_test

import (
	"errors"
	"regexp"
	"testing"

	"github.com/google/go-cmp/cmp"

	pred "github.com/reoring/predicate"
)

type obj = map[string]any

func TestCompileExpr_LiteralIsResolvedAtConstruction(t *testing.T) {
	e := pred.MustExpr(obj{"min": 1}, pred.MustType("options?"), nil)
	if !e.Resolved() {
		t.Fatalf("literal must be resolved")
	}
	if len(e.Refs()) != 0 || e.IsRootRef() {
		t.Fatalf("literal has no references")
	}
	b1, b2 := e.Bind(), e.Bind()
	if b1 != b2 || !b1.Resolved() {
		t.Fatalf("literal bindings are shared and resolved")
	}
	if diff := cmp.Diff(obj{"min": 1}, b1.Value()); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
}

func TestCompileExpr_RootVar(t *testing.T) {
	e := pred.MustExpr(obj{"$var": "V1"}, pred.MustType("any"), nil)
	if !e.IsRootRef() || e.Resolved() {
		t.Fatalf("expected an unresolved root reference")
	}
	sc := pred.NewScope(pred.FrameOf(obj{"V1": 123}))
	if v := e.Bind().Resolve(sc, nil).Value(); v != 123 {
		t.Fatalf("got %v", v)
	}
	b := e.Bind().Resolve(pred.NewScope(pred.FrameOf(obj{})), nil)
	if !errors.Is(b.Err(), pred.ErrUnresolvedReference) || b.Resolved() {
		t.Fatalf("expected ErrUnresolvedReference, got %v", b.Err())
	}
}

func TestBinding_ResolveIsIdempotent(t *testing.T) {
	e := pred.MustExpr(obj{"$var": "x"}, pred.MustType("any"), nil)
	b := e.Bind()
	b.Resolve(pred.NewScope(), nil)
	if b.Err() == nil {
		t.Fatalf("expected a failure")
	}
	// A later scope that binds x does not revive a failed binding.
	b.Resolve(pred.NewScope(pred.FrameOf(obj{"x": 1})), nil)
	if b.Resolved() || b.Err() == nil {
		t.Fatalf("failed binding must stay failed")
	}

	ok := e.Bind().Resolve(pred.NewScope(pred.FrameOf(obj{"x": 1})), nil)
	ok.Resolve(pred.NewScope(pred.FrameOf(obj{"x": 2})), nil)
	if ok.Value() != 1 {
		t.Fatalf("resolved binding must keep its value, got %v", ok.Value())
	}
}

func TestCompileExpr_EmbeddedReferences(t *testing.T) {
	src := obj{
		"a": []any{1, obj{"$path": "x"}},
		"b": obj{"$var": "V"},
	}
	e, err := pred.CompileExpr(src, pred.MustType("object"), nil)
	if err != nil {
		t.Fatalf("CompileExpr: %v", err)
	}
	refs := e.Refs()
	if len(refs) != 2 {
		t.Fatalf("expected two references, got %d", len(refs))
	}
	if refs[0].Target.String() != "a[1]" || refs[0].Var() != "" || refs[0].Path().String() != "x" {
		t.Fatalf("first reference: %v at %s", refs[0], refs[0].Target)
	}
	if refs[1].Target.String() != "b" || refs[1].Var() != "V" {
		t.Fatalf("second reference: %v at %s", refs[1], refs[1].Target)
	}

	sc := pred.NewScope(pred.FrameOf(obj{"V": 2}))
	got := e.Bind().Resolve(sc, obj{"x": "X"}).Value()
	if diff := cmp.Diff(obj{"a": []any{1, "X"}, "b": 2}, got); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}

	// Neither the caller's value nor the compiled template is written to.
	if diff := cmp.Diff(obj{"a": []any{1, obj{"$path": "x"}}, "b": obj{"$var": "V"}}, src); diff != "" {
		t.Fatalf("source mutated:\n%s", diff)
	}
	if diff := cmp.Diff(src, e.Result()); diff != "" {
		t.Fatalf("template mutated:\n%s", diff)
	}
	got.(obj)["b"] = 3
	again := e.Bind().Resolve(sc, obj{"x": "Y"}).Value()
	if diff := cmp.Diff(obj{"a": []any{1, "Y"}, "b": 2}, again); diff != "" {
		t.Fatalf("results must not alias:\n%s", diff)
	}
}

func TestCompileExpr_SourceIsCloned(t *testing.T) {
	src := obj{"k": obj{"$path": "x"}, "list": []any{"a"}}
	e := pred.MustExpr(src, pred.MustType("object"), nil)
	src["list"].([]any)[0] = "changed"
	got := e.Bind().Resolve(nil, obj{"x": 1}).Value()
	if diff := cmp.Diff(obj{"k": 1, "list": []any{"a"}}, got); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
}

func TestResolve_ChainedReference(t *testing.T) {
	e := pred.MustExpr(obj{"$path": "x"}, pred.MustType("any"), nil)
	b := e.Bind().Resolve(nil, obj{"x": obj{"$var": "y"}})
	if !errors.Is(b.Err(), pred.ErrChainedReferenceNotAllowed) {
		t.Fatalf("expected ErrChainedReferenceNotAllowed, got %v", b.Err())
	}

	nested := pred.MustExpr(obj{"k": obj{"$var": "v"}}, pred.MustType("object"), nil)
	sc := pred.NewScope(pred.FrameOf(obj{"v": obj{"$path": "z"}}))
	if err := nested.Bind().Resolve(sc, nil).Err(); !errors.Is(err, pred.ErrChainedReferenceNotAllowed) {
		t.Fatalf("embedded chained reference: %v", err)
	}
}

func TestResolve_AbsentPathIsNil(t *testing.T) {
	e := pred.MustExpr(obj{"$path": "missing"}, pred.MustType("any"), nil)
	b := e.Bind().Resolve(nil, obj{})
	if !b.Resolved() || b.Value() != nil {
		t.Fatalf("absent $path resolves to nil, got %v (%v)", b.Value(), b.Err())
	}
}

func TestResolve_VarWithPathSuffix(t *testing.T) {
	e := pred.MustExpr(obj{"$var": "cfg.limits[1]"}, pred.MustType("any"), nil)
	sc := pred.NewScope(pred.FrameOf(obj{"cfg": obj{"limits": []any{1, 5}}}))
	if v := e.Bind().Resolve(sc, nil).Value(); v != 5 {
		t.Fatalf("got %v", v)
	}
}

func TestCompileExpr_ConstructTimeErrors(t *testing.T) {
	tests := []struct {
		name string
		raw  any
		typ  string
		want error
	}{
		{"wrong literal type", 5, "string", pred.ErrInvalidArgumentType},
		{"nested validator reference", obj{"k": obj{"$var": "$p"}}, "object", pred.ErrIllegalReferenceKind},
		{"validator reference in value slot", obj{"$var": "$p"}, "string", pred.ErrIllegalReferenceKind},
		{"value reference in child slot", obj{"$var": "p"}, "child", pred.ErrIllegalReferenceKind},
		{"deep validator reference", obj{"$var": "$p.x"}, "child", pred.ErrDeepPathOnValidatorRef},
		{"bad $path spec", obj{"$path": 4.5}, "any", pred.ErrInvalidArgumentType},
		{"empty $var", obj{"$var": ""}, "any", pred.ErrInvalidArgumentType},
		{"bad regex", "(", "regex", pred.ErrInvalidArgumentType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := pred.CompileExpr(tt.raw, pred.MustType(tt.typ), nil)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestCompileExpr_RefShapedArgumentIsAReference(t *testing.T) {
	// An object argument that looks like a reference is read as one.
	e := pred.MustExpr(obj{"$path": "x"}, pred.MustType("object"), nil)
	if !e.IsRootRef() {
		t.Fatalf("expected a root reference")
	}
	if v := e.Bind().Resolve(nil, obj{"x": obj{"k": 1}}).Value(); !cmp.Equal(v, obj{"k": 1}) {
		t.Fatalf("got %v", v)
	}
}

func TestResolve_ConformsToDeclaredType(t *testing.T) {
	re := pred.MustExpr(obj{"$path": "re"}, pred.MustType("regex"), nil)
	v := re.Bind().Resolve(nil, obj{"re": "^a+$"}).Value()
	if r, ok := v.(*regexp.Regexp); !ok || !r.MatchString("aa") {
		t.Fatalf("resolved pattern must be compiled, got %T", v)
	}
	if err := re.Bind().Resolve(nil, obj{"re": "("}).Err(); !pred.IsEvalError(err) || !errors.Is(err, pred.ErrInvalidArgumentType) {
		t.Fatalf("bad resolved pattern: %v", err)
	}

	num := pred.MustExpr(obj{"$var": "lo"}, pred.MustType("number?"), nil)
	if err := num.Bind().Resolve(pred.NewScope(pred.FrameOf(obj{"lo": "abc"})), nil).Err(); !errors.Is(err, pred.ErrInvalidArgumentType) {
		t.Fatalf("wrong-typed value: %v", err)
	}
	if b := num.Bind().Resolve(pred.NewScope(pred.FrameOf(obj{"lo": nil})), nil); !b.Resolved() {
		t.Fatalf("null is a number?: %v", b.Err())
	}

	target := pred.MustExpr(obj{"$path": "which"}, pred.MustType("path"), nil)
	if err := target.Bind().Resolve(nil, obj{}).Err(); !pred.IsEvalError(err) {
		t.Fatalf("absent path argument: %v", err)
	}

	// Templates are checked as a whole after substitution.
	tmpl := pred.MustExpr([]any{"a", obj{"$path": "x"}}, pred.MustType("array"), nil)
	if b := tmpl.Bind().Resolve(nil, obj{"x": 1}); !b.Resolved() || !cmp.Equal(b.Value(), []any{"a", 1}) {
		t.Fatalf("template: %v %v", b.Value(), b.Err())
	}
}
