// Package filter defines the predicate tree used to match records and the
// in-memory evaluator for it.
//
// A tree is built from two node shapes:
//   - Conjunction: AND / OR over child nodes
//   - Comparison: =, >, <, IN, LIKE between a left operand and a literal
//
// The left operand of a comparison is either a FieldRef, naming a property
// read from the record under evaluation, or a Literal fixed when the tree
// was built. Both node and operand interfaces are sealed so that backend
// compilers (see querysql) can switch over them exhaustively.
//
// The same tree is handed to data providers as the query filter.
package filter
