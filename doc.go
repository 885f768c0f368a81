// Package predicate composes declarative predicates over JSON-like data.
//
// Predicates are built from a Catalog, either in Go:
//
//	cat := checks.Catalog()
//	p := cat.MustNew("isLength", "a", map[string]any{
//		"min": map[string]any{"$path": "referenced"},
//		"max": 3,
//	})
//	err := predicate.Validate(p, input)
//
// or from plain data such as a YAML rule file:
//
//	p, err := cat.FromData([]any{"a", "isLength", map[string]any{"min": 3}})
//
// Constructor arguments may be literals or deferred references:
//
//   - {"$path": "a.b[0]"} reads the object being validated,
//   - {"$var": "name"} reads a value bound in the lexical scope,
//   - {"$var": "$name"} reads a predicate bound in the lexical scope.
//
// References may be the whole argument or nested anywhere inside it. They are
// located once, when the predicate is constructed; each validation resolves
// them again against its own Scope, so compiled predicates are safe for
// concurrent use.
//
// Two error regimes are kept apart:
//
//   - *BuildError: the predicate tree is malformed (unknown type or
//     predicate, wrong argument type, illegal reference). Returned by
//     constructors.
//   - Issues: the input fails a check. *EvalError: the tree cannot be
//     evaluated (unbound or chained reference). Returned by Validate.
//
// Layout: the core lives in this package; leaf checks and combinators in
// checks/, document loading in loader/, and the CLI in cmd/predicate.
package predicate
