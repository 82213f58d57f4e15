package storage

import (
	"fmt"
	"strings"

	"github.com/wbrown/janus-factdb/datalog"
)

// Container is one ordered collection of tuples.
// Two tuples the comparator orders as equal occupy a single slot: for a
// permutation covering every column that is plain set semantics, for a
// projected permutation the first tuple inserted for a key represents it.
type Container interface {
	// Insert adds t if no equal tuple is present and reports whether it was added
	Insert(t datalog.Tuple) (bool, error)

	// Contains reports whether a tuple equal to t is present
	Contains(t datalog.Tuple) (bool, error)

	// Scan iterates the closed range [lower, upper] in container order
	Scan(lower, upper datalog.Tuple) (Iterator, error)

	// Clear removes every tuple. Not safe concurrently with other calls.
	Clear() error
}

// Iterator provides sequential access to tuples
type Iterator interface {
	// Next advances to the next tuple
	Next() bool

	// Tuple returns the current tuple. The slice belongs to the caller.
	Tuple() datalog.Tuple

	// Close releases any resources and reports a deferred iteration error
	Close() error
}

// Factory creates the containers of one database
type Factory interface {
	// NewContainer creates an empty container ordered by the column permutation
	NewContainer(order []int) (Container, error)

	// Close releases resources shared by the factory's containers
	Close() error
}

// Comparator orders two tuples
type Comparator func(a, b datalog.Tuple) int

// NewComparator builds a comparator over term identities in the given column order
func NewComparator(order []int) Comparator {
	order = append([]int(nil), order...)
	return func(a, b datalog.Tuple) int {
		return datalog.CompareTuplesOn(order, a, b)
	}
}

// Backend selects the ordered container implementation
type Backend string

const (
	// BackendBTree keeps each index in a copy-on-write B-tree
	BackendBTree Backend = "btree"

	// BackendBadger keeps every index of a database in one in-memory badger instance
	BackendBadger Backend = "badger"
)

// ParseBackend parses a backend name
func ParseBackend(s string) (Backend, error) {
	switch Backend(strings.ToLower(strings.TrimSpace(s))) {
	case BackendBTree, "":
		return BackendBTree, nil
	case BackendBadger:
		return BackendBadger, nil
	default:
		return "", fmt.Errorf("unknown storage backend %q (use %q or %q)", s, BackendBTree, BackendBadger)
	}
}
