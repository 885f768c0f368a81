package predicate_test

import (
	"errors"
	"testing"

	pred "github.com/reoring/predicate"
)

func TestParseArgs(t *testing.T) {
	ds, err := pred.ParseArgs("path:path, options:options?, ...rest:integer|string")
	if err != nil {
		t.Fatalf("ParseArgs: %v", err)
	}
	if len(ds) != 3 {
		t.Fatalf("expected 3 descriptors, got %d", len(ds))
	}
	if ds[0].Optional || ds[0].Rest || ds[0].Type != pred.Primitive(pred.KindPath) {
		t.Fatalf("path descriptor: %+v", ds[0])
	}
	if !ds[1].Optional || ds[1].Type != pred.MustType("null|options") {
		t.Fatalf("options descriptor: %+v", ds[1])
	}
	if !ds[2].Rest || ds[2].Type != pred.MustType("string|integer") {
		t.Fatalf("rest descriptor: %+v", ds[2])
	}
	want := []string{"path:path", "options:options?", "...rest:integer|string"}
	for i, d := range ds {
		if d.String() != want[i] {
			t.Fatalf("descriptor %d renders %q, want %q", i, d.String(), want[i])
		}
	}
}

func TestParseArgs_Empty(t *testing.T) {
	ds, err := pred.ParseArgs("  ")
	if err != nil || len(ds) != 0 {
		t.Fatalf("expected no descriptors, got %v %v", ds, err)
	}
}

func TestParseArgs_Errors(t *testing.T) {
	tests := map[string]error{
		"...a:any, b:string":   pred.ErrRestNotLast,
		"a":                    pred.ErrMalformedDescriptor,
		":string":              pred.ErrMalformedDescriptor,
		"a:string, a:integer":  pred.ErrMalformedDescriptor,
		"a:strung":             pred.ErrUnknownType,
		"a:string, b:nope|int": pred.ErrUnknownType,
	}
	for grammar, want := range tests {
		if _, err := pred.ParseArgs(grammar); !errors.Is(err, want) {
			t.Fatalf("%q: expected %v, got %v", grammar, want, err)
		}
	}
}

func TestArgs_Structured(t *testing.T) {
	ds, err := pred.Args(
		pred.ArgSpec{Name: "target", Type: "path"},
		pred.ArgSpec{Name: "limit", Type: "integer", Optional: true},
	)
	if err != nil {
		t.Fatalf("Args: %v", err)
	}
	if ds[1].Type != pred.MustType("integer?") || !ds[1].Type.Nullable() {
		t.Fatalf("optional descriptors admit null: %v", ds[1].Type)
	}
	_, err = pred.Args(pred.ArgSpec{Name: "xs", Type: "any", Rest: true}, pred.ArgSpec{Name: "y", Type: "any"})
	var be *pred.BuildError
	if !errors.As(err, &be) || !errors.Is(err, pred.ErrRestNotLast) || be.Arg != "xs" {
		t.Fatalf("expected ErrRestNotLast naming xs, got %v", err)
	}
}
