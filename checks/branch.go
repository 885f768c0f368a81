package checks

import pred "github.com/reoring/predicate"

func branchDefinitions() []*pred.Definition {
	return []*pred.Definition{
		pred.MustDefine("and", "...children:child", and),
		pred.MustDefine("or", "...children:child", or),
		pred.MustDefine("not", "child:child", not),
		pred.MustDefine("if", "cond:child, then:child, else:child?", ifThen),
		pred.MustDefine("with", "scope:any, child:child", with, pred.WithPrepare(prepareScope)),
		pred.MustDefine("every", "path:path, child:child", every),
		pred.MustDefine("some", "path:path, child:child", some),
	}
}

// run validates the child predicate held by arg against input.
func run(c *pred.Call, arg any, input any) error {
	p, ok := arg.(*pred.Predicate)
	if !ok || p == nil {
		return c.Fail(nil, pred.CodeInvalidType, "", "expected", "child", "got", kindName(arg))
	}
	return c.Run(p, input)
}

// and passes when every child passes. It reports the first failing child,
// or all of them when the validation collects.
func and(c *pred.Call) error {
	var all pred.Issues
	for _, ch := range c.Rest(0) {
		err := run(c, ch, c.Input)
		if err == nil {
			continue
		}
		iss, ok := pred.AsIssues(err)
		if !ok || !c.CollectAll() {
			return err
		}
		all = pred.AppendIssues(all, iss...)
	}
	if len(all) > 0 {
		return all
	}
	return nil
}

// or passes as soon as one child passes. When none does, the failure of the
// first child is reported.
func or(c *pred.Call) error {
	children := c.Rest(0)
	if len(children) == 0 {
		return c.Fail(nil, pred.CodeNoMatch, "")
	}
	var first error
	for _, ch := range children {
		err := run(c, ch, c.Input)
		if err == nil {
			return nil
		}
		if pred.IsEvalError(err) {
			return err
		}
		if first == nil {
			first = err
		}
	}
	return first
}

func not(c *pred.Call) error {
	err := run(c, c.Arg(0), c.Input)
	if err == nil {
		return c.Fail(nil, pred.CodeNegated, "", "child", c.Arg(0))
	}
	if _, ok := pred.AsIssues(err); ok {
		return nil
	}
	return err
}

func ifThen(c *pred.Call) error {
	err := run(c, c.Arg(0), c.Input)
	if err == nil {
		return run(c, c.Arg(1), c.Input)
	}
	if _, ok := pred.AsIssues(err); !ok {
		return err
	}
	if c.Arg(2) == nil {
		return nil
	}
	return run(c, c.Arg(2), c.Input)
}

// prepareScope compiles the scope document of with once, at construction,
// so that its entries never go through the argument's reference discovery.
func prepareScope(cat *pred.Catalog, raw []any) ([]any, error) {
	if len(raw) == 0 {
		return raw, nil
	}
	if _, ok := raw[0].(*pred.ScopeDef); ok {
		return raw, nil
	}
	def, err := pred.ScopeFromData(raw[0], cat)
	if err != nil {
		return nil, err
	}
	raw[0] = def
	return raw, nil
}

func with(c *pred.Call) error {
	def, ok := c.Arg(0).(*pred.ScopeDef)
	if !ok {
		return c.Fail(nil, pred.CodeInvalidType, "", "expected", "scope", "got", kindName(c.Arg(0)))
	}
	if err := def.Enter(c.Scope, c.Input); err != nil {
		return err
	}
	defer c.Scope.Pop()
	return run(c, c.Arg(1), c.Input)
}

// elements returns the array at the target path. A missing array is a
// required failure.
func elements(c *pred.Call) (pred.Path, []any, error) {
	path, v, ok, err := c.Target()
	if err != nil {
		return nil, nil, err
	}
	if !ok || v == nil {
		return nil, nil, c.Fail(path, pred.CodeRequired, "")
	}
	arr, isArr := v.([]any)
	if !isArr {
		return nil, nil, c.Fail(path, pred.CodeInvalidType, "", "expected", "array", "got", kindName(v))
	}
	return path, arr, nil
}

// every runs the child against each element of the array at path. Issue
// paths of the child are rebased under the element.
//
// The child's input is the element, so $path references inside it are
// relative to the element. Values from the rest of the document reach the
// child through $var bindings of an enclosing with.
func every(c *pred.Call) error {
	path, arr, err := elements(c)
	if err != nil {
		return err
	}
	var all pred.Issues
	for i, el := range arr {
		err := run(c, c.Arg(1), el)
		if err == nil {
			continue
		}
		iss, ok := pred.AsIssues(err)
		if !ok {
			return err
		}
		rebased := rebase(iss, path.Index(i))
		if !c.CollectAll() {
			return rebased
		}
		all = pred.AppendIssues(all, rebased...)
	}
	if len(all) > 0 {
		return all
	}
	return nil
}

// some passes when the child accepts at least one element of the array at
// path. As with every, the child's input is the element.
func some(c *pred.Call) error {
	path, arr, err := elements(c)
	if err != nil {
		return err
	}
	for _, el := range arr {
		err := run(c, c.Arg(1), el)
		if err == nil {
			return nil
		}
		if pred.IsEvalError(err) {
			return err
		}
	}
	return c.Fail(path, pred.CodeNoMatch, "", "count", len(arr))
}

func rebase(iss pred.Issues, at pred.Path) pred.Issues {
	prefix := at.Pointer()
	out := make(pred.Issues, len(iss))
	for i, it := range iss {
		switch {
		case it.Path == "" || it.Path == "/":
			it.Path = prefix
		case prefix == "" || prefix == "/":
		default:
			it.Path = prefix + it.Path
		}
		out[i] = it
	}
	return out
}

