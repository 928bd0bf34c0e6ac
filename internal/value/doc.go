// Package value provides the property value types shared by records,
// predicate trees, and relationship templates.
//
// This package imports nothing internal. Every other internal package may
// import value; value imports none of them.
//
// Key design constraints:
//   - Value is a sealed interface (Null, String, Int, Float, Bool, List)
//   - Comparisons are loose: numeric strings compare as numbers, null and
//     bool compare by truthiness (see Equal and Compare)
//   - Canonical JSON (MarshalCanonical) is the only encoding used for cache
//     keys and golden snapshots
package value
