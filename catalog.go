package predicate

import (
	"sort"
	"sync"
)

// Catalog maps predicate names to definitions. It is used to instantiate
// data-described predicates and scope-defined predicates.
type Catalog struct {
	mu   sync.RWMutex
	defs map[string]*Definition
	log  Logger
}

// NewCatalog returns a catalog holding defs and their optional siblings.
func NewCatalog(defs ...*Definition) (*Catalog, error) {
	c := &Catalog{defs: map[string]*Definition{}, log: nopLogger{}}
	if err := c.Register(defs...); err != nil {
		return nil, err
	}
	return c, nil
}

// SetLogger routes registration and compile traces to l.
func (c *Catalog) SetLogger(l Logger) {
	if l == nil {
		l = nopLogger{}
	}
	c.mu.Lock()
	c.log = l
	c.mu.Unlock()
}

// Register adds definitions, each with its generated optional sibling. A name
// that is already taken fails the whole call and leaves the catalog unchanged.
func (c *Catalog) Register(defs ...*Definition) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	pending := map[string]*Definition{}
	add := func(d *Definition) error {
		if _, dup := c.defs[d.name]; dup {
			return &BuildError{Op: "register", Predicate: d.name, Err: ErrDuplicatePredicate}
		}
		if _, dup := pending[d.name]; dup {
			return &BuildError{Op: "register", Predicate: d.name, Err: ErrDuplicatePredicate}
		}
		pending[d.name] = d
		return nil
	}
	for _, d := range defs {
		if d == nil {
			continue
		}
		if err := add(d); err != nil {
			return err
		}
		if d.opt != nil {
			if err := add(d.opt); err != nil {
				return err
			}
		}
	}
	for name, d := range pending {
		c.defs[name] = d
		c.log.Debugf("registered %s", d.Signature())
	}
	return nil
}

// Lookup returns the definition registered under name.
func (c *Catalog) Lookup(name string) (*Definition, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d, ok := c.defs[name]
	return d, ok
}

// Names returns every registered name in sorted order.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.defs))
	for k := range c.defs {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// New compiles the named predicate with the given arguments.
func (c *Catalog) New(name string, args ...any) (*Predicate, error) {
	d, ok := c.Lookup(name)
	if !ok {
		return nil, &BuildError{Op: "compile", Predicate: name, Err: ErrUnknownPredicate}
	}
	p, err := d.Compile(c, args...)
	if err != nil {
		return nil, err
	}
	c.logger().Debugf("compiled %s with %d args", name, len(args))
	return p, nil
}

// MustNew is New for trees known to be well-formed.
func (c *Catalog) MustNew(name string, args ...any) *Predicate {
	p, err := c.New(name, args...)
	if err != nil {
		panic(err)
	}
	return p
}

func (c *Catalog) logger() Logger {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.log
}
