// Package loader reads rule and input documents into the JSON-like values
// predicates work on, and compiles rule documents against a catalog.
package loader

import (
	"bytes"
	"errors"
	"io"

	pred "github.com/reoring/predicate"
	"github.com/reoring/predicate/i18n"
	"github.com/reoring/predicate/internal/engine"
	"github.com/reoring/predicate/internal/gojson"
)

// DuplicatePolicy selects how repeated object keys are handled.
type DuplicatePolicy int

const (
	// DuplicatesError rejects the document. It is the default.
	DuplicatesError DuplicatePolicy = iota
	// DuplicatesWarn logs the duplicate and keeps the last value.
	DuplicatesWarn
	// DuplicatesIgnore keeps the last value silently.
	DuplicatesIgnore
)

// Options controls decoding.
type Options struct {
	Duplicates DuplicatePolicy
	// MaxDepth limits container nesting; 0 means unlimited.
	MaxDepth int
	// MaxBytes limits the consumed input; 0 means unlimited.
	MaxBytes int64
	// Float64 decodes JSON numbers as float64 instead of json.Number.
	Float64 bool
	Logger  pred.Logger
}

func pick(opts []Options) Options {
	if len(opts) == 0 {
		return Options{}
	}
	return opts[len(opts)-1]
}

func (o Options) logger() pred.Logger {
	if o.Logger == nil {
		return pred.NopLogger()
	}
	return o.Logger
}

func (o Options) strictness() engine.DuplicateStrictness {
	switch o.Duplicates {
	case DuplicatesWarn:
		return engine.DupWarn
	case DuplicatesIgnore:
		return engine.DupIgnore
	default:
		return engine.DupError
	}
}

// JSON decodes one JSON document. Malformed input and limit violations are
// reported as Issues.
func JSON(data []byte, opts ...Options) (any, error) {
	return JSONReader(bytes.NewReader(data), opts...)
}

// JSONReader decodes one JSON document from r.
func JSONReader(r io.Reader, opts ...Options) (any, error) {
	opt := pick(opts)
	log := opt.logger()
	src := engine.WrapWithEnforcement(gojson.NewReader(r), engine.EnforceOptions{
		OnDuplicate: opt.strictness(),
		MaxDepth:    opt.MaxDepth,
		MaxBytes:    opt.MaxBytes,
		IssueSink: func(si engine.SimpleIssue) {
			if si.Code == engine.CodeDuplicateKey && opt.Duplicates == DuplicatesWarn {
				log.Warnf("%s at %s", si.Message, si.Path)
			}
		},
	})
	mode := engine.NumberJSON
	if opt.Float64 {
		mode = engine.NumberFloat64
	}
	v, err := engine.Decode(src, mode)
	if err != nil {
		return nil, decodeIssues(err)
	}
	return v, nil
}

// decodeIssues converts decoder failures into the Issue model.
func decodeIssues(err error) error {
	var ie engine.IssueError
	if errors.As(err, &ie) {
		code := pred.CodeParseError
		hint := ""
		switch ie.Code {
		case engine.CodeDuplicateKey:
			code = pred.CodeDuplicateKey
		case engine.CodeTruncated:
			hint = "truncated"
		}
		return pred.Issues{{Path: ie.Path, Code: code, Message: ie.Message, Hint: hint, Cause: err}}
	}
	return pred.Issues{{Path: "/", Code: pred.CodeParseError, Message: i18n.T(pred.CodeParseError, nil) + ": " + err.Error(), Cause: err}}
}
