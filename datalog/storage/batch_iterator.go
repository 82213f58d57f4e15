package storage

import (
	"github.com/google/btree"
	"github.com/wbrown/janus-factdb/datalog"
)

// snapshotIterator walks a closed range of a cloned B-tree in batches.
// The B-tree only offers callback iteration; pulling a bounded batch per
// refill keeps the iterator lazy without a goroutine per scan.
type snapshotIterator struct {
	tree  *btree.BTreeG[datalog.Tuple]
	cmp   Comparator
	lower datalog.Tuple
	upper datalog.Tuple

	// Batch state
	batchSize int
	batch     []datalog.Tuple
	pos       int
	last      datalog.Tuple // resume point, exclusive
	exhausted bool

	current datalog.Tuple
}

func newSnapshotIterator(tree *btree.BTreeG[datalog.Tuple], cmp Comparator, lower, upper datalog.Tuple, batchSize int) *snapshotIterator {
	return &snapshotIterator{
		tree:      tree,
		cmp:       cmp,
		lower:     lower,
		upper:     upper,
		batchSize: batchSize,
		batch:     make([]datalog.Tuple, 0, batchSize),
		pos:       -1,
	}
}

func (it *snapshotIterator) Next() bool {
	for {
		if it.pos+1 < len(it.batch) {
			it.pos++
			it.current = it.batch[it.pos]
			return true
		}
		if it.exhausted || it.tree == nil {
			it.current = nil
			return false
		}
		it.fill()
	}
}

// fill loads the next batch, starting after the last tuple handed out
func (it *snapshotIterator) fill() {
	it.batch = it.batch[:0]
	it.pos = -1

	pivot := it.lower
	if it.last != nil {
		pivot = it.last
	}

	reachedEnd := true
	it.tree.AscendGreaterOrEqual(pivot, func(item datalog.Tuple) bool {
		if it.last != nil && it.cmp(item, it.last) == 0 {
			return true
		}
		if it.cmp(item, it.upper) > 0 {
			return false
		}
		it.batch = append(it.batch, item)
		if len(it.batch) >= it.batchSize {
			reachedEnd = false
			return false
		}
		return true
	})

	if reachedEnd {
		it.exhausted = true
	}
	if len(it.batch) > 0 {
		it.last = it.batch[len(it.batch)-1]
	}
}

// Tuple returns a copy; the stored slice carries the tree's sort keys
func (it *snapshotIterator) Tuple() datalog.Tuple {
	if it.current == nil {
		return nil
	}
	return append(datalog.Tuple(nil), it.current...)
}

func (it *snapshotIterator) Close() error {
	it.tree = nil
	it.batch = nil
	it.current = nil
	return nil
}
