package loader_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	pred "github.com/reoring/predicate"
	"github.com/reoring/predicate/checks"
	"github.com/reoring/predicate/loader"
)

func firstIssue(t *testing.T, err error) pred.Issue {
	t.Helper()
	iss, ok := pred.AsIssues(err)
	if !ok || len(iss) == 0 {
		t.Fatalf("expected Issues, got %v", err)
	}
	return iss[0]
}

func TestJSON_Decode(t *testing.T) {
	v, err := loader.JSON([]byte(`{"a":[1,2.5,"x",null,true],"b":{}}`))
	if err != nil {
		t.Fatalf("JSON: %v", err)
	}
	want := map[string]any{
		"a": []any{json.Number("1"), json.Number("2.5"), "x", nil, true},
		"b": map[string]any{},
	}
	if diff := cmp.Diff(want, v); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}

	f, err := loader.JSON([]byte(`[1]`), loader.Options{Float64: true})
	if err != nil || !cmp.Equal(f, []any{1.0}) {
		t.Fatalf("float mode: %v %v", f, err)
	}
}

func TestJSON_DuplicateKeys(t *testing.T) {
	doc := []byte(`{"a":{"k":1,"k":2}}`)
	is := firstIssue(t, func() error { _, err := loader.JSON(doc); return err }())
	if is.Code != pred.CodeDuplicateKey || is.Path != "/a/k" {
		t.Fatalf("issue = %+v", is)
	}

	var logs bytes.Buffer
	v, err := loader.JSON(doc, loader.Options{Duplicates: loader.DuplicatesWarn, Logger: pred.NewLogger(pred.LevelWarn, &logs)})
	if err != nil {
		t.Fatalf("warn mode: %v", err)
	}
	if !cmp.Equal(v, map[string]any{"a": map[string]any{"k": json.Number("2")}}) {
		t.Fatalf("last value wins, got %v", v)
	}
	if !strings.Contains(logs.String(), "[WARN]") || !strings.Contains(logs.String(), "/a/k") {
		t.Fatalf("expected a warning, got %q", logs.String())
	}

	if _, err := loader.JSON(doc, loader.Options{Duplicates: loader.DuplicatesIgnore}); err != nil {
		t.Fatalf("ignore mode: %v", err)
	}
}

func TestJSON_LimitsAndSyntax(t *testing.T) {
	if is := firstIssue(t, func() error { _, err := loader.JSON([]byte(`[[[1]]]`), loader.Options{MaxDepth: 2}); return err }()); is.Code != pred.CodeParseError || is.Path != "/0/0" {
		t.Fatalf("depth issue = %+v", is)
	}
	if is := firstIssue(t, func() error { _, err := loader.JSON([]byte(`{"a":`)); return err }()); is.Code != pred.CodeParseError || is.Cause == nil {
		t.Fatalf("syntax issue = %+v", is)
	}
	if is := firstIssue(t, func() error { _, err := loader.JSON([]byte(`1 2`)); return err }()); is.Code != pred.CodeParseError {
		t.Fatalf("trailing data issue = %+v", is)
	}
}

func TestYAML_RuleDocument(t *testing.T) {
	v, err := loader.YAML([]byte("a: 1\nb: [x, 2.5, null, true]\nc: &anchor {k: v}\nd: *anchor\n"))
	if err != nil {
		t.Fatalf("YAML: %v", err)
	}
	want := map[string]any{
		"a": int64(1),
		"b": []any{"x", 2.5, nil, true},
		"c": map[string]any{"k": "v"},
		"d": map[string]any{"k": "v"},
	}
	if diff := cmp.Diff(want, v); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
}

func TestYAML_Errors(t *testing.T) {
	is := firstIssue(t, func() error { _, err := loader.YAML([]byte("a: 1\nb:\n  k: 1\n  k: 2\n")); return err }())
	var dke *loader.DuplicateKeyError
	if is.Code != pred.CodeDuplicateKey || is.Path != "/b/k" || !errors.As(is.Cause, &dke) || dke.Line != 4 {
		t.Fatalf("duplicate issue = %+v", is)
	}
	if _, err := loader.YAML([]byte("a: 1\n---\nb: 2\n")); err == nil {
		t.Fatalf("multiple documents must fail")
	}
	if _, err := loader.YAML(nil); err == nil {
		t.Fatalf("empty input must fail")
	}
	if _, err := loader.YAML([]byte("a: [b: [c: 1]]"), loader.Options{MaxDepth: 2}); err == nil {
		t.Fatalf("depth limit must apply")
	}
}

func TestInputYAML_MatchesJSON(t *testing.T) {
	fromYAML, err := loader.InputYAML([]byte("n: 3\nitems:\n  - price: 1.5\n"))
	if err != nil {
		t.Fatalf("InputYAML: %v", err)
	}
	fromJSON, err := loader.JSON([]byte(`{"n":3,"items":[{"price":1.5}]}`))
	if err != nil {
		t.Fatalf("JSON: %v", err)
	}
	if diff := cmp.Diff(fromJSON, fromYAML); diff != "" {
		t.Fatalf("(-json +yaml):\n%s", diff)
	}
	if _, err := loader.InputYAML([]byte("a: 1\na: 2\n")); err == nil {
		t.Fatalf("duplicate keys must fail by default")
	}
}

func TestInputYAML_KeepsPlainScalars(t *testing.T) {
	got, err := loader.InputYAML([]byte("n: 3\ny: yes\non: off\nno: [true, null]\n"))
	if err != nil {
		t.Fatalf("InputYAML: %v", err)
	}
	want := map[string]any{
		"n":  json.Number("3"),
		"y":  "yes",
		"on": "off",
		"no": []any{true, nil},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
}

const rulesYAML = `
description: user records
scope:
  - minName: 3
  - $isName: [name, isString]
rule:
  and:
    - {$var: $isName}
    - [name, isLength, {min: {$var: minName}}]
    - [tags, optEvery, [[], isString]]
`

func TestRules_Envelope(t *testing.T) {
	raw, err := loader.YAML([]byte(rulesYAML))
	if err != nil {
		t.Fatalf("YAML: %v", err)
	}
	doc, err := loader.Rules(checks.Catalog(), raw)
	if err != nil {
		t.Fatalf("Rules: %v", err)
	}
	if doc.Description != "user records" || doc.Scope == nil || doc.Rule.Name() != "and" {
		t.Fatalf("document = %+v", doc)
	}
	if err := doc.Validate(map[string]any{"name": "alice", "tags": []any{"a"}}, pred.ValidateOpt{}); err != nil {
		t.Fatalf("expected pass, got %v", err)
	}
	is := firstIssue(t, doc.Validate(map[string]any{"name": "al"}, pred.ValidateOpt{}))
	if is.Code != pred.CodeTooShort || is.Path != "/name" {
		t.Fatalf("issue = %+v", is)
	}
	is = firstIssue(t, doc.Validate(map[string]any{"name": "alice", "tags": []any{"a", 1}}, pred.ValidateOpt{}))
	if is.Code != pred.CodeInvalidType || is.Path != "/tags/1" {
		t.Fatalf("issue = %+v", is)
	}
}

func TestRules_BareAndMalformed(t *testing.T) {
	cat := checks.Catalog()
	doc, err := loader.Rules(cat, []any{"name", "isSet"})
	if err != nil || doc.Scope != nil {
		t.Fatalf("bare rule: %v", err)
	}
	if _, err := loader.Rules(cat, map[string]any{"rule": []any{"a", "isSet"}, "extra": 1}); !errors.Is(err, pred.ErrMalformedPredicate) {
		t.Fatalf("unknown key: %v", err)
	}
	if _, err := loader.Rules(cat, map[string]any{"rule": []any{"a", "isNothing"}}); !errors.Is(err, pred.ErrUnknownPredicate) {
		t.Fatalf("unknown predicate: %v", err)
	}
	if _, err := loader.Rules(nil, []any{"a", "isSet"}); err == nil {
		t.Fatalf("nil catalog must fail")
	}
}

func TestFiles(t *testing.T) {
	dir := t.TempDir()
	rules := filepath.Join(dir, "rules.json")
	input := filepath.Join(dir, "input.yml")
	if err := os.WriteFile(rules, []byte(`{"rule":["count","isRange",1,{"$path":"max"}]}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(input, []byte("count: 7\nmax: 5\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	doc, err := loader.RulesFile(checks.Catalog(), rules)
	if err != nil {
		t.Fatalf("RulesFile: %v", err)
	}
	in, err := loader.InputFile(input)
	if err != nil {
		t.Fatalf("InputFile: %v", err)
	}
	is := firstIssue(t, doc.Validate(in, pred.ValidateOpt{}))
	if is.Code != pred.CodeTooBig || is.Path != "/count" {
		t.Fatalf("issue = %+v", is)
	}
	if _, err := loader.InputFile(filepath.Join(dir, "missing.json")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("missing file: %v", err)
	}
}
