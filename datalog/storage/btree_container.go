package storage

import (
	"sync"

	"github.com/google/btree"
	"github.com/wbrown/janus-factdb/datalog"
)

const (
	// DefaultBTreeDegree is the B-tree node degree used when none is configured
	DefaultBTreeDegree = 32

	// DefaultScanBatchSize is how many tuples a snapshot iterator pulls per batch
	DefaultScanBatchSize = 128
)

// BTreeFactory creates BTreeContainers
type BTreeFactory struct {
	Degree    int
	BatchSize int
}

// NewContainer implements Factory
func (f BTreeFactory) NewContainer(order []int) (Container, error) {
	return NewBTreeContainer(order, f.Degree, f.BatchSize), nil
}

// Close implements Factory
func (f BTreeFactory) Close() error {
	return nil
}

// BTreeContainer is an ordered tuple set on a copy-on-write B-tree.
//
// Writers serialize on the mutex. Scans hold it only long enough to clone the
// tree, then iterate the clone without locking, so a scan sees every insert
// that completed before it started and never blocks later writers.
type BTreeContainer struct {
	mu        sync.RWMutex
	tree      *btree.BTreeG[datalog.Tuple]
	cmp       Comparator
	batchSize int
}

// NewBTreeContainer creates an empty container ordered by the column permutation
func NewBTreeContainer(order []int, degree, batchSize int) *BTreeContainer {
	if degree <= 1 {
		degree = DefaultBTreeDegree
	}
	if batchSize <= 0 {
		batchSize = DefaultScanBatchSize
	}
	cmp := NewComparator(order)
	return &BTreeContainer{
		tree: btree.NewG(degree, func(a, b datalog.Tuple) bool {
			return cmp(a, b) < 0
		}),
		cmp:       cmp,
		batchSize: batchSize,
	}
}

// Insert implements Container
func (c *BTreeContainer) Insert(t datalog.Tuple) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// ReplaceOrInsert would swap the representative of a projected key
	if c.tree.Has(t) {
		return false, nil
	}
	c.tree.ReplaceOrInsert(t)
	return true, nil
}

// Contains implements Container
func (c *BTreeContainer) Contains(t datalog.Tuple) (bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tree.Has(t), nil
}

// Scan implements Container
func (c *BTreeContainer) Scan(lower, upper datalog.Tuple) (Iterator, error) {
	// Clone marks the shared nodes copy-on-write, which mutates the tree header
	c.mu.Lock()
	snapshot := c.tree.Clone()
	c.mu.Unlock()

	return newSnapshotIterator(snapshot, c.cmp, lower, upper, c.batchSize), nil
}

// Len returns the number of stored keys
func (c *BTreeContainer) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tree.Len()
}

// Clear implements Container
func (c *BTreeContainer) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tree.Clear(false)
	return nil
}
