// Package engine decodes a stream of JSON-like tokens into the
// map[string]any / []any trees that predicates are evaluated on.
package engine

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// Kind represents token kinds from a generic source.
type Kind int

const (
	KindBeginObject Kind = iota
	KindEndObject
	KindBeginArray
	KindEndArray
	KindKey
	KindString
	KindNumber
	KindBool
	KindNull
)

// Token represents a streaming token with approximate input offset.
type Token struct {
	Kind   Kind
	String string
	Number string
	Bool   bool
	Offset int64
}

// TokenSource is a minimal interface required by the engine.
type TokenSource interface {
	NextToken() (Token, error)
	Location() int64
}

// NumberMode selects the Go representation of decoded numbers.
type NumberMode int

const (
	// NumberJSON keeps numbers as json.Number so integers stay exact.
	NumberJSON NumberMode = iota
	// NumberFloat64 decodes every number as float64.
	NumberFloat64
)

// ErrTrailingData is returned when a document holds more than one value.
var ErrTrailingData = errors.New("engine: trailing data after document")

// Decode builds one value from src and checks that nothing follows it.
func Decode(src TokenSource, mode NumberMode) (any, error) {
	d := decoder{src: src, mode: mode}
	tok, err := src.NextToken()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}
	v, err := d.value(tok)
	if err != nil {
		return nil, err
	}
	if _, err := src.NextToken(); !errors.Is(err, io.EOF) {
		if err != nil {
			return nil, err
		}
		return nil, ErrTrailingData
	}
	return v, nil
}

type decoder struct {
	src  TokenSource
	mode NumberMode
}

func (d decoder) value(tok Token) (any, error) {
	switch tok.Kind {
	case KindBeginObject:
		return d.object()
	case KindBeginArray:
		return d.array()
	case KindString:
		return tok.String, nil
	case KindNumber:
		if d.mode == NumberFloat64 {
			f, err := strconv.ParseFloat(tok.Number, 64)
			if err != nil {
				return nil, fmt.Errorf("engine: number %q: %w", tok.Number, err)
			}
			return f, nil
		}
		return json.Number(tok.Number), nil
	case KindBool:
		return tok.Bool, nil
	case KindNull:
		return nil, nil
	default:
		return nil, fmt.Errorf("engine: unexpected token kind %d", tok.Kind)
	}
}

func (d decoder) next() (Token, error) {
	tok, err := d.src.NextToken()
	if errors.Is(err, io.EOF) {
		return tok, io.ErrUnexpectedEOF
	}
	return tok, err
}

func (d decoder) object() (any, error) {
	m := make(map[string]any)
	for {
		tok, err := d.next()
		if err != nil {
			return nil, err
		}
		if tok.Kind == KindEndObject {
			return m, nil
		}
		if tok.Kind != KindKey {
			return nil, fmt.Errorf("engine: expected object key, got token kind %d", tok.Kind)
		}
		vt, err := d.next()
		if err != nil {
			return nil, err
		}
		v, err := d.value(vt)
		if err != nil {
			return nil, err
		}
		m[tok.String] = v
	}
}

func (d decoder) array() (any, error) {
	arr := []any{}
	for {
		tok, err := d.next()
		if err != nil {
			return nil, err
		}
		if tok.Kind == KindEndArray {
			return arr, nil
		}
		v, err := d.value(tok)
		if err != nil {
			return nil, err
		}
		arr = append(arr, v)
	}
}
