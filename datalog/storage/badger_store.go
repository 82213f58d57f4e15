package storage

import (
	"bytes"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/dgraph-io/badger/v4"
	"github.com/wbrown/janus-factdb/datalog"
)

// maxInsertRetries bounds optimistic retries of one insert. A conflict means
// another writer committed the same key, so the retry resolves on its read.
const maxInsertRetries = 64

// BadgerStore hosts the containers of one database in a single in-memory
// badger instance; each container owns a key prefix.
type BadgerStore struct {
	db         *badger.DB
	encoder    KeyEncoder
	resolver   datalog.TermResolver
	nextPrefix atomic.Uint32
}

// NewBadgerStore opens an in-memory badger instance. Values hold tuple
// identities, so the resolver must know every term that gets inserted.
func NewBadgerStore(resolver datalog.TermResolver, strategy KeyEncodingStrategy) (*BadgerStore, error) {
	if resolver == nil {
		return nil, errors.New("badger store needs a term resolver")
	}

	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil              // Disable BadgerDB logs
	opts.DetectConflicts = true    // Insert-if-absent relies on read/write conflicts
	opts.MemTableSize = 64 << 20   // 64MB memtables
	opts.BlockCacheSize = 32 << 20 // Block cache for levels flushed from memtables
	opts.NumCompactors = 2
	opts.ValueThreshold = 1 << 10 // Tuples stay in the LSM tree

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger: %w", err)
	}

	return &BadgerStore{
		db:       db,
		encoder:  NewKeyEncoder(strategy),
		resolver: resolver,
	}, nil
}

// NewContainer implements Factory
func (s *BadgerStore) NewContainer(order []int) (Container, error) {
	prefix := s.nextPrefix.Add(1) - 1
	return &BadgerContainer{
		store:     s,
		prefix:    prefix,
		order:     append([]int(nil), order...),
		prefixKey: s.encoder.EncodePrefix(prefix),
	}, nil
}

// Close closes the store
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

// BadgerContainer is one ordered tuple set inside a BadgerStore.
// Keys hold the comparator columns; values hold the full tuple.
type BadgerContainer struct {
	store     *BadgerStore
	prefix    uint32
	order     []int
	prefixKey []byte
}

func (c *BadgerContainer) key(t datalog.Tuple) []byte {
	return c.store.encoder.EncodeKey(c.prefix, c.order, t)
}

// Insert implements Container with an optimistic read-then-write transaction
func (c *BadgerContainer) Insert(t datalog.Tuple) (bool, error) {
	key := c.key(t)
	value := datalog.TupleBytes(t)

	for attempt := 0; attempt < maxInsertRetries; attempt++ {
		added := false
		err := c.store.db.Update(func(txn *badger.Txn) error {
			_, err := txn.Get(key)
			if err == nil {
				return nil
			}
			if !errors.Is(err, badger.ErrKeyNotFound) {
				return err
			}
			added = true
			return txn.Set(key, value)
		})
		if errors.Is(err, badger.ErrConflict) {
			continue
		}
		if err != nil {
			return false, fmt.Errorf("failed to insert into container %d: %w", c.prefix, err)
		}
		return added, nil
	}
	return false, fmt.Errorf("failed to insert into container %d: %w after %d attempts", c.prefix, badger.ErrConflict, maxInsertRetries)
}

// Contains implements Container
func (c *BadgerContainer) Contains(t datalog.Tuple) (bool, error) {
	key := c.key(t)
	found := false
	err := c.store.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to look up in container %d: %w", c.prefix, err)
	}
	return found, nil
}

// Scan implements Container over a read-only transaction snapshot
func (c *BadgerContainer) Scan(lower, upper datalog.Tuple) (Iterator, error) {
	txn := c.store.db.NewTransaction(false)

	opts := badger.DefaultIteratorOptions
	opts.PrefetchSize = 100
	opts.PrefetchValues = true // Values carry the full tuple
	opts.Prefix = c.prefixKey

	return &BadgerIterator{
		txn:      txn,
		it:       txn.NewIterator(opts),
		start:    c.key(lower),
		end:      c.key(upper),
		resolver: c.store.resolver,
	}, nil
}

// Clear implements Container
func (c *BadgerContainer) Clear() error {
	if err := c.store.db.DropPrefix(c.prefixKey); err != nil {
		return fmt.Errorf("failed to clear container %d: %w", c.prefix, err)
	}
	return nil
}

// BadgerIterator implements Iterator for a closed key range
type BadgerIterator struct {
	txn      *badger.Txn
	it       *badger.Iterator
	start    []byte
	end      []byte // inclusive
	resolver datalog.TermResolver
	started  bool
	current  datalog.Tuple
	err      error
	closed   bool
}

// Next advances the iterator
func (i *BadgerIterator) Next() bool {
	if i.closed || i.err != nil {
		return false
	}
	if !i.started {
		// First call - seek to start
		i.it.Seek(i.start)
		i.started = true
	} else {
		i.it.Next()
	}

	if !i.it.Valid() {
		i.current = nil
		return false
	}

	item := i.it.Item()
	if bytes.Compare(item.Key(), i.end) > 0 {
		i.current = nil
		return false
	}

	err := item.Value(func(val []byte) error {
		tuple, err := datalog.TupleFromBytes(val, i.resolver)
		if err != nil {
			return err
		}
		i.current = tuple
		return nil
	})
	if err != nil {
		i.err = fmt.Errorf("failed to decode tuple at key %x: %w", item.Key(), err)
		i.current = nil
		return false
	}
	return true
}

// Tuple returns the current tuple
func (i *BadgerIterator) Tuple() datalog.Tuple {
	return i.current
}

// Close releases the iterator and its transaction
func (i *BadgerIterator) Close() error {
	if !i.closed {
		i.closed = true
		i.it.Close()
		i.txn.Discard()
	}
	return i.err
}
