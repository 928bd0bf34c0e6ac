package value

import "strings"

// Equal reports whether a and b are loosely equal.
//
// Rules, applied in order:
//  1. null or bool on either side: compare truthiness (null == "" and
//     null == 0 hold, null == "a" does not)
//  2. two lists: same length and pairwise Equal
//  3. a list against a scalar: never equal
//  4. both sides numeric (numbers or fully numeric strings): numeric equality,
//     so Int(42) == String("42") and String("1e1") == String("10")
//  5. otherwise: compare the string renderings byte for byte
//
// Equal is symmetric.
func Equal(a, b Value) bool {
	if a == nil {
		a = Null{}
	}
	if b == nil {
		b = Null{}
	}

	if isBoolish(a) || isBoolish(b) {
		// Null against a list compares emptiness, which truthiness already covers.
		return Truthy(a) == Truthy(b)
	}

	la, aIsList := a.(List)
	lb, bIsList := b.(List)
	if aIsList || bIsList {
		if !aIsList || !bIsList || len(la) != len(lb) {
			return false
		}
		for i := range la {
			if !Equal(la[i], lb[i]) {
				return false
			}
		}
		return true
	}

	if ia, ok := a.(Int); ok {
		if ib, ok := b.(Int); ok {
			return ia == ib
		}
	}

	na, aNum := numeric(a)
	nb, bNum := numeric(b)
	if aNum && bNum {
		return na == nb
	}

	return Format(a) == Format(b)
}

// Compare orders a against b loosely and returns -1, 0 or +1.
//
// Numbers and numeric strings compare numerically, null and bool compare by
// truthiness (false < true), lists compare by length then element-wise, and
// everything else compares by string rendering.
func Compare(a, b Value) int {
	if a == nil {
		a = Null{}
	}
	if b == nil {
		b = Null{}
	}

	if isBoolish(a) || isBoolish(b) {
		return compareBool(Truthy(a), Truthy(b))
	}

	la, aIsList := a.(List)
	lb, bIsList := b.(List)
	switch {
	case aIsList && bIsList:
		if len(la) != len(lb) {
			return compareInt(int64(len(la)), int64(len(lb)))
		}
		for i := range la {
			if c := Compare(la[i], lb[i]); c != 0 {
				return c
			}
		}
		return 0
	case aIsList:
		return 1
	case bIsList:
		return -1
	}

	if ia, ok := a.(Int); ok {
		if ib, ok := b.(Int); ok {
			return compareInt(int64(ia), int64(ib))
		}
	}

	na, aNum := numeric(a)
	nb, bNum := numeric(b)
	if aNum && bNum {
		switch {
		case na < nb:
			return -1
		case na > nb:
			return 1
		default:
			return 0
		}
	}

	return strings.Compare(Format(a), Format(b))
}

// Contains reports whether needle is loosely Equal to any element of
// haystack. A non-list haystack is treated as a single-element list.
func Contains(haystack Value, needle Value) bool {
	list, ok := haystack.(List)
	if !ok {
		return Equal(haystack, needle)
	}
	for _, elem := range list {
		if Equal(elem, needle) {
			return true
		}
	}
	return false
}

// isBoolish reports whether v is Null or Bool.
func isBoolish(v Value) bool {
	switch v.(type) {
	case Null, Bool:
		return true
	}
	return false
}

func compareBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	default:
		return 1
	}
}

func compareInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
