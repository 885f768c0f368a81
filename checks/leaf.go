package checks

import (
	"regexp"

	"github.com/itchyny/timefmt-go"

	pred "github.com/reoring/predicate"
)

// DefaultDateFormat is the strftime layout isDate uses when none is given.
const DefaultDateFormat = "%Y-%m-%d"

func leafDefinitions() []*pred.Definition {
	return []*pred.Definition{
		pred.MustDefine("isSet", "path:path", isSet),
		typeCheck("isString", pred.KindString),
		typeCheck("isNumber", pred.KindNumber),
		typeCheck("isInteger", pred.KindInteger),
		typeCheck("isBoolean", pred.KindBoolean),
		typeCheck("isArray", pred.KindArray),
		typeCheck("isObject", pred.KindObject),
		pred.MustDefine("isLength", "path:path, options:options?", isLength),
		pred.MustDefine("isRange", "path:path, min:number?, max:number?", isRange),
		pred.MustDefine("isIn", "path:path, values:array", isIn),
		pred.MustDefine("equals", "path:path, expected:null|boolean|number|string|array|object", equals),
		pred.MustDefine("matches", "path:path, pattern:regex", matches),
		pred.MustDefine("isDate", "path:path, format:string?", isDate),
	}
}

func isSet(c *pred.Call) error {
	path, v, ok, err := c.Target()
	if err != nil {
		return err
	}
	if !ok || v == nil {
		return c.Fail(path, pred.CodeRequired, "")
	}
	return nil
}

func typeCheck(name string, k pred.Kind) *pred.Definition {
	t := pred.Primitive(k)
	return pred.MustDefine(name, "path:path", func(c *pred.Call) error {
		path, v, _, err := c.Target()
		if err != nil {
			return err
		}
		if !t.Check(v) {
			return c.Fail(path, pred.CodeInvalidType, "", "expected", t.String(), "got", kindName(v))
		}
		return nil
	})
}

func isLength(c *pred.Call) error {
	path, v, _, err := c.Target()
	if err != nil {
		return err
	}
	n, ok := length(v)
	if !ok {
		return c.Fail(path, pred.CodeInvalidType, "", "expected", "string|array|object", "got", kindName(v))
	}
	opts := c.Arg(1)
	if lo, ok := bound(opts, "min"); ok && float64(n) < lo {
		return c.Fail(path, pred.CodeTooShort, "", "min", lo, "got", n)
	}
	if hi, ok := bound(opts, "max"); ok && float64(n) > hi {
		return c.Fail(path, pred.CodeTooLong, "", "max", hi, "got", n)
	}
	return nil
}

func isRange(c *pred.Call) error {
	path, v, _, err := c.Target()
	if err != nil {
		return err
	}
	f, ok := pred.AsFloat(v)
	if !ok {
		return c.Fail(path, pred.CodeInvalidType, "", "expected", "number", "got", kindName(v))
	}
	if lo, ok := pred.AsFloat(c.Arg(1)); ok && f < lo {
		return c.Fail(path, pred.CodeTooSmall, "", "min", lo, "got", f)
	}
	if hi, ok := pred.AsFloat(c.Arg(2)); ok && f > hi {
		return c.Fail(path, pred.CodeTooBig, "", "max", hi, "got", f)
	}
	return nil
}

func isIn(c *pred.Call) error {
	path, v, _, err := c.Target()
	if err != nil {
		return err
	}
	values, _ := c.Arg(1).([]any)
	for _, want := range values {
		if equal(v, want) {
			return nil
		}
	}
	return c.Fail(path, pred.CodeInvalidEnum, "", "values", values)
}

func equals(c *pred.Call) error {
	path, v, _, err := c.Target()
	if err != nil {
		return err
	}
	if !equal(v, c.Arg(1)) {
		return c.Fail(path, pred.CodeNotEqual, "", "expected", c.Arg(1), "got", v)
	}
	return nil
}

func matches(c *pred.Call) error {
	path, v, _, err := c.Target()
	if err != nil {
		return err
	}
	re, _ := c.Arg(1).(*regexp.Regexp)
	s, ok := v.(string)
	if !ok {
		return c.Fail(path, pred.CodeInvalidType, "", "expected", "string", "got", kindName(v))
	}
	if re == nil || !re.MatchString(s) {
		return c.Fail(path, pred.CodePattern, "", "pattern", re)
	}
	return nil
}

func isDate(c *pred.Call) error {
	path, v, _, err := c.Target()
	if err != nil {
		return err
	}
	format, _ := c.Arg(1).(string)
	if format == "" {
		format = DefaultDateFormat
	}
	s, ok := v.(string)
	if !ok {
		return c.Fail(path, pred.CodeInvalidType, "", "expected", "string", "got", kindName(v))
	}
	if _, err := timefmt.Parse(s, format); err != nil {
		iss := c.Fail(path, pred.CodeInvalidFormat, "", "format", format).(pred.Issues)
		iss[0].Cause = err
		return iss
	}
	return nil
}
