package predicate

// FromData compiles a data-described predicate: either the leaf form
// [path, name, ...args] or the branch form {name: [args...]}.
func (c *Catalog) FromData(raw any) (*Predicate, error) {
	p, ok, err := c.compileLiteral(raw, true)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, buildErr("data", ErrMalformedPredicate, "expected [path, name, ...args] or {name: [args...]}, got %T", raw)
	}
	return p, nil
}

// MustFromData is FromData for documents known to be well-formed.
func (c *Catalog) MustFromData(raw any) *Predicate {
	p, err := c.FromData(raw)
	if err != nil {
		panic(err)
	}
	return p
}

// compileLiteral converts raw into a predicate when it is a predicate
// literal. With strict set, anything shaped like a literal but naming no
// known predicate is an error; otherwise such values are left alone so they
// can be taken as ordinary data.
func (c *Catalog) compileLiteral(raw any, strict bool) (*Predicate, bool, error) {
	switch t := raw.(type) {
	case *Predicate:
		return t, t != nil, nil
	case []any:
		if len(t) < 2 {
			if strict {
				return nil, false, buildErr("data", ErrMalformedPredicate, "leaf form needs at least [path, name]")
			}
			return nil, false, nil
		}
		name, isName := t[1].(string)
		if !isName || !(isPathValue(t[0]) || IsRef(t[0])) {
			if strict {
				return nil, false, buildErr("data", ErrMalformedPredicate, "leaf form is [path, name, ...args]")
			}
			return nil, false, nil
		}
		d, known := c.Lookup(name)
		if !known {
			if strict {
				return nil, false, &BuildError{Op: "data", Predicate: name, Err: ErrUnknownPredicate}
			}
			return nil, false, nil
		}
		args := make([]any, 0, len(t)-1)
		args = append(args, t[0])
		args = append(args, t[2:]...)
		p, err := d.Compile(c, args...)
		return p, err == nil, err
	case map[string]any:
		if len(t) != 1 || IsRef(t) {
			if strict {
				return nil, false, buildErr("data", ErrMalformedPredicate, "branch form is an object with exactly one key")
			}
			return nil, false, nil
		}
		for name, v := range t {
			d, known := c.Lookup(name)
			if !known {
				if strict {
					return nil, false, &BuildError{Op: "data", Predicate: name, Err: ErrUnknownPredicate}
				}
				return nil, false, nil
			}
			args, isList := v.([]any)
			if !isList {
				if strict {
					return nil, false, &BuildError{Op: "data", Predicate: name, Err: ErrMalformedPredicate, Detail: "arguments must be a list"}
				}
				return nil, false, nil
			}
			p, err := d.Compile(c, args...)
			return p, err == nil, err
		}
	}
	return nil, false, nil
}
