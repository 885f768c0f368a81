package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	pred "github.com/reoring/predicate"
)

// Envelope keys of a rules document.
const (
	KeyRule        = "rule"
	KeyScope       = "scope"
	KeyDescription = "description"
)

// Document is a compiled rules document: a predicate plus the scope it is
// evaluated in.
//
// A rules document is either a bare predicate literal or an envelope
//
//	description: free text
//	scope:                # optional, bound in order before the rule runs
//	  - minName: 3
//	  - $isName: [name, isString]
//	rule:
//	  and:
//	    - {$var: $isName}
//	    - [name, isLength, {min: {$var: minName}}]
type Document struct {
	Description string
	Rule        *pred.Predicate
	Scope       *pred.ScopeDef
}

// Rules compiles a decoded rules document against cat.
func Rules(cat *pred.Catalog, raw any) (*Document, error) {
	if cat == nil {
		return nil, &pred.BuildError{Op: "load", Err: pred.ErrMalformedPredicate, Detail: "nil catalog"}
	}
	m, isEnvelope := raw.(map[string]any)
	if isEnvelope {
		_, isEnvelope = m[KeyRule]
	}
	if !isEnvelope {
		p, err := cat.FromData(raw)
		if err != nil {
			return nil, err
		}
		return &Document{Rule: p}, nil
	}

	var unknown []string
	for k := range m {
		if k != KeyRule && k != KeyScope && k != KeyDescription {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, &pred.BuildError{Op: "load", Err: pred.ErrMalformedPredicate,
			Detail: fmt.Sprintf("unknown document keys %s", strings.Join(unknown, ", "))}
	}

	doc := &Document{}
	if d, ok := m[KeyDescription]; ok {
		s, isStr := d.(string)
		if !isStr {
			return nil, &pred.BuildError{Op: "load", Arg: KeyDescription, Err: pred.ErrMalformedPredicate, Detail: "description must be a string"}
		}
		doc.Description = s
	}
	if s, ok := m[KeyScope]; ok && s != nil {
		def, err := pred.ScopeFromData(s, cat)
		if err != nil {
			return nil, err
		}
		doc.Scope = def
	}
	p, err := cat.FromData(m[KeyRule])
	if err != nil {
		return nil, err
	}
	doc.Rule = p
	return doc, nil
}

// Validate runs the rule against input with the document scope entered on
// top of opt.Globals.
func (d *Document) Validate(input any, opt pred.ValidateOpt) error {
	opt.Defs = d.Scope
	return pred.Validate(d.Rule, input, opt)
}

// RulesFile reads and compiles a rules document. Files ending in .json are
// decoded as JSON; everything else as YAML.
func RulesFile(cat *pred.Catalog, path string, opts ...Options) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var raw any
	if isJSON(path) {
		raw, err = JSON(data, opts...)
	} else {
		raw, err = YAML(data, opts...)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	doc, err := Rules(cat, raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	pick(opts).logger().Debugf("loaded rules from %s", path)
	return doc, nil
}

// InputFile reads an input document. Files ending in .yaml or .yml go
// through InputYAML; everything else is decoded as JSON.
func InputFile(path string, opts ...Options) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var v any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		v, err = InputYAML(data, opts...)
	default:
		v, err = JSON(data, opts...)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return v, nil
}

func isJSON(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}
