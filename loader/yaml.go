package loader

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	pred "github.com/reoring/predicate"
)

// DuplicateKeyError reports a repeated mapping key with the positions of
// both occurrences.
type DuplicateKeyError struct {
	Key       string
	FirstLine int
	FirstCol  int
	Line      int
	Col       int
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate YAML key %q at %d:%d (first at %d:%d)", e.Key, e.Line, e.Col, e.FirstLine, e.FirstCol)
}

// YAML decodes a single YAML rule document into JSON-like values:
// map[string]any, []any, string, bool, int64, float64 and nil. The document
// must hold exactly one YAML document.
func YAML(data []byte, opts ...Options) (any, error) {
	opt := pick(opts)
	dec := yaml.NewDecoder(bytes.NewReader(data))
	var root yaml.Node
	if err := dec.Decode(&root); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, parseIssue("/", "empty document", err)
		}
		return nil, parseIssue("/", err.Error(), err)
	}
	var extra yaml.Node
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		return nil, parseIssue("/", "expected a single YAML document", err)
	}
	c := yamlConverter{opt: opt, log: opt.logger()}
	return c.convert(&root, "")
}

type yamlConverter struct {
	opt   Options
	log   pred.Logger
	depth int
}

func (c *yamlConverter) convert(n *yaml.Node, at string) (any, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return c.convert(n.Content[0], at)
	case yaml.AliasNode:
		return c.convert(n.Alias, at)
	case yaml.MappingNode, yaml.SequenceNode:
		c.depth++
		defer func() { c.depth-- }()
		if c.opt.MaxDepth > 0 && c.depth > c.opt.MaxDepth {
			return nil, parseIssue(pointer(at), "max depth exceeded", nil)
		}
		if n.Kind == yaml.SequenceNode {
			arr := make([]any, 0, len(n.Content))
			for i, el := range n.Content {
				v, err := c.convert(el, at+"/"+strconv.Itoa(i))
				if err != nil {
					return nil, err
				}
				arr = append(arr, v)
			}
			return arr, nil
		}
		return c.mapping(n, at)
	case yaml.ScalarNode:
		return scalar(n), nil
	default:
		return nil, nil
	}
}

func (c *yamlConverter) mapping(n *yaml.Node, at string) (any, error) {
	m := make(map[string]any, len(n.Content)/2)
	first := make(map[string][2]int, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := n.Content[i], n.Content[i+1]
		if k.Kind != yaml.ScalarNode {
			return nil, parseIssue(pointer(at), fmt.Sprintf("non-scalar mapping key at %d:%d", k.Line, k.Column), nil)
		}
		key := k.Value
		kat := at + "/" + escape(key)
		if pos, dup := first[key]; dup {
			derr := &DuplicateKeyError{Key: key, FirstLine: pos[0], FirstCol: pos[1], Line: k.Line, Col: k.Column}
			switch c.opt.Duplicates {
			case DuplicatesError:
				return nil, pred.Issues{{Path: kat, Code: pred.CodeDuplicateKey, Message: derr.Error(), Cause: derr}}
			case DuplicatesWarn:
				c.log.Warnf("%v", derr)
			}
		}
		first[key] = [2]int{k.Line, k.Column}
		val, err := c.convert(v, kat)
		if err != nil {
			return nil, err
		}
		m[key] = val
	}
	return m, nil
}

func scalar(n *yaml.Node) any {
	switch n.ShortTag() {
	case "!!null":
		return nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err == nil {
			return b
		}
	case "!!int":
		if i, err := strconv.ParseInt(strings.ReplaceAll(n.Value, "_", ""), 0, 64); err == nil {
			return i
		}
		if f, err := strconv.ParseFloat(n.Value, 64); err == nil {
			return f
		}
	case "!!float":
		var f float64
		if err := n.Decode(&f); err == nil {
			return f
		}
	}
	return n.Value
}

// InputYAML decodes a YAML input document. Keys and scalars follow YAML 1.2
// as in YAML, and the result is re-read through JSON so that numbers come out
// as json.Number exactly as they would from a JSON input.
func InputYAML(data []byte, opts ...Options) (any, error) {
	opt := pick(opts)
	v, err := YAML(data, opt)
	if err != nil {
		return nil, err
	}
	js, err := json.Marshal(v)
	if err != nil {
		return nil, parseIssue("/", err.Error(), err)
	}
	return JSON(js, opt)
}

func parseIssue(path, msg string, cause error) error {
	return pred.Issues{{Path: path, Code: pred.CodeParseError, Message: msg, Cause: cause}}
}

var pointerEscaper = strings.NewReplacer("~", "~0", "/", "~1")

func escape(key string) string { return pointerEscaper.Replace(key) }

func pointer(at string) string {
	if at == "" {
		return "/"
	}
	return at
}
