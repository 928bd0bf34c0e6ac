// Package condition implements the relationships between data providers of
// one container.
//
// A RootCondition recognizes and creates root records of one provider. A
// ParentChildCondition links a parent (source) provider to a child
// (destination) provider through a Template written in terms of two field
// roles:
//   - ChildField: a property on the child record
//   - ParentField: a property on the parent record
//
// Binding a template to a concrete parent yields a filter.Node that selects
// that parent's children; binding the inverse template to a child yields a
// filter.Node that selects its parent. Setters stamp the relationship onto
// new records.
//
// A Definition collects the root condition and all parent-child conditions
// of a container. Conditions are plain values: Definition.Clone copies every
// condition so two definitions never share one.
package condition
