package datalog

import (
	"strings"
)

// CompareTerms compares two terms by identity and returns:
//
//	-1 if left < right
//	 0 if left == right
//	 1 if left > right
func CompareTerms(left, right Term) int {
	return compareInt64s(left.ID(), right.ID())
}

// CompareTuplesOn compares two tuples column by column in the given order.
// The first differing column decides; tuples equal on every listed column
// compare equal even if they differ elsewhere.
func CompareTuplesOn(order []int, a, b Tuple) int {
	for _, col := range order {
		if c := compareInt64s(a[col].ID(), b[col].ID()); c != 0 {
			return c
		}
	}
	return 0
}

// TuplesEqual checks structural equality of two tuples
func TuplesEqual(a, b Tuple) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID() != b[i].ID() {
			return false
		}
	}
	return true
}

// CompareSymbols orders relation symbols by name, then arity.
// Only used to make build and dump order deterministic.
func CompareSymbols(a, b RelationSymbol) int {
	if c := strings.Compare(a.Name, b.Name); c != 0 {
		return c
	}
	return compareInt64s(int64(a.Arity), int64(b.Arity))
}

// compareInt64s compares two int64 values
func compareInt64s(a, b int64) int {
	if a < b {
		return -1
	} else if a > b {
		return 1
	}
	return 0
}
