package factdb

import (
	"fmt"
	"sync/atomic"

	"github.com/wbrown/janus-factdb/datalog"
	"github.com/wbrown/janus-factdb/datalog/storage"
)

// Iterator walks tuples returned by a lookup. Callers must Close it.
type Iterator = storage.Iterator

// IndexedFactSet is one sorted index over a relation, specialized to a
// binding pattern. Its container orders tuples by the pattern's comparator
// order, so every lookup that binds a prefix of that order is a range scan.
type IndexedFactSet struct {
	pattern   datalog.BindingPattern
	order     []int
	container storage.Container
	count     atomic.Int64
}

func newIndexedFactSet(pattern datalog.BindingPattern, factory storage.Factory) (*IndexedFactSet, error) {
	order := pattern.ComparatorOrder()
	container, err := factory.NewContainer(order)
	if err != nil {
		return nil, fmt.Errorf("failed to create container for pattern %s: %w", pattern, err)
	}
	return &IndexedFactSet{
		pattern:   pattern.Clone(),
		order:     order,
		container: container,
	}, nil
}

// Insert adds t. It reports false when an equal tuple (under the comparator
// order) is already present.
func (s *IndexedFactSet) Insert(t datalog.Tuple) (bool, error) {
	added, err := s.container.Insert(t)
	if err != nil {
		return false, err
	}
	if added {
		s.count.Add(1)
	}
	return added, nil
}

// InsertAll adds every tuple and returns those that were not yet present.
// The counter moves with each successful insert, so it never drifts from
// the container size under concurrent Insert calls.
func (s *IndexedFactSet) InsertAll(tuples []datalog.Tuple) ([]datalog.Tuple, error) {
	var added []datalog.Tuple
	for _, t := range tuples {
		ok, err := s.Insert(t)
		if err != nil {
			return added, err
		}
		if ok {
			added = append(added, t)
		}
	}
	return added, nil
}

// Lookup returns every tuple agreeing with key on the bound columns, in
// comparator order. Free and ignored columns of key are not read.
func (s *IndexedFactSet) Lookup(key datalog.Tuple) (Iterator, error) {
	if len(key) != len(s.pattern) {
		return nil, fmt.Errorf("%w: key %s has %d columns, pattern %s has %d",
			ErrContractViolation, key, len(key), s.pattern, len(s.pattern))
	}

	lower := make(datalog.Tuple, len(key))
	upper := make(datalog.Tuple, len(key))
	for i, b := range s.pattern {
		switch b {
		case datalog.Bound:
			if key[i] == nil {
				return nil, fmt.Errorf("%w: bound column %d of key is nil", ErrContractViolation, i)
			}
			lower[i] = key[i]
			upper[i] = key[i]
		case datalog.Free, datalog.Ignored:
			lower[i] = datalog.MinTerm
			upper[i] = datalog.MaxTerm
		}
	}
	return s.container.Scan(lower, upper)
}

// All returns the full contents of the index
func (s *IndexedFactSet) All() (Iterator, error) {
	lower := make(datalog.Tuple, len(s.pattern))
	upper := make(datalog.Tuple, len(s.pattern))
	for i := range s.pattern {
		lower[i] = datalog.MinTerm
		upper[i] = datalog.MaxTerm
	}
	return s.container.Scan(lower, upper)
}

// Contains reports whether a tuple equal to t under the comparator order is present
func (s *IndexedFactSet) Contains(t datalog.Tuple) (bool, error) {
	return s.container.Contains(t)
}

// Clear empties the index. Not safe concurrently with other operations.
func (s *IndexedFactSet) Clear() error {
	if err := s.container.Clear(); err != nil {
		return err
	}
	s.count.Store(0)
	return nil
}

// Count returns the number of distinct tuples held
func (s *IndexedFactSet) Count() int64 {
	return s.count.Load()
}

// IsEmpty reports whether the index holds no tuples
func (s *IndexedFactSet) IsEmpty() bool {
	return s.count.Load() == 0
}

// IsProjected reports whether the pattern ignores any column
func (s *IndexedFactSet) IsProjected() bool {
	return s.pattern.IsProjected()
}

// Pattern returns a copy of the binding pattern
func (s *IndexedFactSet) Pattern() datalog.BindingPattern {
	return s.pattern.Clone()
}

// ComparatorOrder returns a copy of the column permutation
func (s *IndexedFactSet) ComparatorOrder() []int {
	return append([]int(nil), s.order...)
}

func (s *IndexedFactSet) String() string {
	return fmt.Sprintf("%s %v (%d)", s.pattern, s.order, s.Count())
}
