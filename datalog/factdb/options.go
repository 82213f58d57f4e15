package factdb

import (
	"fmt"

	"github.com/wbrown/janus-factdb/datalog"
	"github.com/wbrown/janus-factdb/datalog/annotations"
	"github.com/wbrown/janus-factdb/datalog/storage"
)

// Options configures how a Builder materializes its indices
type Options struct {
	// Backend selection
	Backend storage.Backend // btree (default) or badger

	// btree backend
	BTreeDegree   int // Node degree; 0 uses storage.DefaultBTreeDegree
	ScanBatchSize int // Tuples fetched per refill while scanning; 0 uses storage.DefaultScanBatchSize

	// badger backend
	KeyEncoding storage.KeyEncodingStrategy // Binary or L85 keys
	Terms       datalog.TermResolver        // Rebuilds tuples from stored identities; required for badger

	// Diagnostics
	Collector *annotations.Collector // nil disables annotations
}

// DefaultOptions returns options for the in-process btree backend
func DefaultOptions() Options {
	return Options{
		Backend:       storage.BackendBTree,
		BTreeDegree:   storage.DefaultBTreeDegree,
		ScanBatchSize: storage.DefaultScanBatchSize,
		KeyEncoding:   storage.BinaryStrategy,
	}
}

// newFactory opens the container factory for the configured backend
func (o Options) newFactory() (storage.Factory, error) {
	switch o.Backend {
	case storage.BackendBTree, "":
		return storage.BTreeFactory{Degree: o.BTreeDegree, BatchSize: o.ScanBatchSize}, nil
	case storage.BackendBadger:
		if o.Terms == nil {
			return nil, fmt.Errorf("%w: badger backend needs Options.Terms", ErrContractViolation)
		}
		return storage.NewBadgerStore(o.Terms, o.KeyEncoding)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", o.Backend)
	}
}
