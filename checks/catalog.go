// Package checks provides the built-in leaf predicates and the combinators
// that compose them.
//
// Leaf predicates take the path of the value they inspect as their first
// argument, so each one also exists as an optional sibling (optIsLength, ...)
// that passes when that value is absent or null.
//
// every and some run their child once per array element with the element as
// input; $path inside the child is element-relative.
//
//	cat := checks.Catalog()
//	p, err := cat.FromData(map[string]any{"and": []any{
//		[]any{"name", "isString"},
//		[]any{"name", "isLength", map[string]any{"min": 1}},
//	}})
package checks

import pred "github.com/reoring/predicate"

// Definitions returns fresh copies of every built-in definition.
func Definitions() []*pred.Definition {
	return append(leafDefinitions(), branchDefinitions()...)
}

// Catalog returns a new catalog holding the built-ins. Callers may register
// their own definitions on it.
func Catalog() *pred.Catalog {
	cat, err := pred.NewCatalog(Definitions()...)
	if err != nil {
		panic(err)
	}
	return cat
}
