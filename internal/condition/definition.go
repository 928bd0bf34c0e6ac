package condition

// Definition holds the relationships of one container: an optional root
// condition and any number of parent-child conditions.
type Definition struct {
	root     *RootCondition
	children []*ParentChildCondition
}

// NewDefinition creates an empty definition.
func NewDefinition() *Definition {
	return &Definition{}
}

// SetRootCondition replaces the root condition. nil removes it.
func (d *Definition) SetRootCondition(c *RootCondition) {
	d.root = c
}

// RootCondition returns the root condition, or nil.
func (d *Definition) RootCondition() *RootCondition {
	return d.root
}

// HasRootCondition reports whether a root condition is set.
func (d *Definition) HasRootCondition() bool {
	return d.root != nil
}

// AddChildCondition adds c unless that exact condition is already present.
func (d *Definition) AddChildCondition(c *ParentChildCondition) {
	if c == nil {
		return
	}
	for _, existing := range d.children {
		if existing == c {
			return
		}
	}
	d.children = append(d.children, c)
}

// AddChildConditions adds every condition in cs.
func (d *Definition) AddChildConditions(cs ...*ParentChildCondition) {
	for _, c := range cs {
		d.AddChildCondition(c)
	}
}

// ChildCondition returns the first condition from source to destination,
// or nil when none exists.
func (d *Definition) ChildCondition(source, destination string) *ParentChildCondition {
	for _, c := range d.children {
		if c.Source == source && c.Destination == destination {
			return c
		}
	}
	return nil
}

// HasChildCondition reports whether ChildCondition would find a condition.
func (d *Definition) HasChildCondition(source, destination string) bool {
	return d.ChildCondition(source, destination) != nil
}

// ChildConditions returns the conditions whose parent is source, in
// insertion order. An empty source returns every condition.
func (d *Definition) ChildConditions(source string) []*ParentChildCondition {
	var out []*ParentChildCondition
	for _, c := range d.children {
		if source == "" || c.Source == source {
			out = append(out, c)
		}
	}
	return out
}

// Clone returns a copy of d that shares no condition with d.
func (d *Definition) Clone() *Definition {
	out := &Definition{root: d.root.Clone()}
	if d.children != nil {
		out.children = make([]*ParentChildCondition, len(d.children))
		for i, c := range d.children {
			out.children[i] = c.Clone()
		}
	}
	return out
}
