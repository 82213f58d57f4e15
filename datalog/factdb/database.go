package factdb

import (
	"fmt"
	"time"

	"github.com/wbrown/janus-factdb/datalog"
	"github.com/wbrown/janus-factdb/datalog/annotations"
	"github.com/wbrown/janus-factdb/datalog/storage"
)

// Database holds, per relation, the set of facts derived so far across one
// or more redundant sorted indices. Every fact enters through the
// relation's master index and is then propagated to the others.
//
// Add, AddAll, Get, GetAll and HasFact are safe for concurrent use. A
// reader may briefly see a fact in the master before a secondary index
// has it. Clear must only run while no other operation is in flight.
type Database struct {
	relations map[datalog.RelationSymbol]*relation
	symbols   []datalog.RelationSymbol
	factory   storage.Factory
	collector *annotations.Collector
	backend   storage.Backend
}

type relation struct {
	symbol  datalog.RelationSymbol
	indices []*IndexedFactSet
	master  int
}

func (r *relation) masterIndex() *IndexedFactSet {
	return r.indices[r.master]
}

// IndexInfo describes one materialized index
type IndexInfo struct {
	Handle          int
	Pattern         datalog.BindingPattern
	ComparatorOrder []int
	Master          bool
	Count           int64
}

// Symbols returns every relation known to the database, sorted
func (db *Database) Symbols() []datalog.RelationSymbol {
	return append([]datalog.RelationSymbol(nil), db.symbols...)
}

// Backend returns the storage backend the indices live in
func (db *Database) Backend() storage.Backend {
	return db.backend
}

func (db *Database) relation(sym datalog.RelationSymbol) (*relation, error) {
	rel, ok := db.relations[sym]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnrecognizedSymbol, sym)
	}
	return rel, nil
}

// checkFact enforces that t is storable in sym: right width, every column
// ground, evaluated and not a range sentinel.
func (db *Database) checkFact(sym datalog.RelationSymbol, t datalog.Tuple) error {
	if len(t) != sym.Arity {
		return db.contractViolation(sym, fmt.Errorf("%w: tuple %s has %d columns, %s expects %d",
			ErrContractViolation, t, len(t), sym, sym.Arity))
	}
	for i, term := range t {
		if !datalog.IsNormal(term) {
			return db.contractViolation(sym, fmt.Errorf("%w: column %d of %s tuple %s is not a ground, evaluated term",
				ErrContractViolation, i, sym, t))
		}
	}
	return nil
}

// checkGround is the weaker precondition of HasFact
func (db *Database) checkGround(sym datalog.RelationSymbol, t datalog.Tuple) error {
	if len(t) != sym.Arity {
		return db.contractViolation(sym, fmt.Errorf("%w: tuple %s has %d columns, %s expects %d",
			ErrContractViolation, t, len(t), sym, sym.Arity))
	}
	for i, term := range t {
		if term == nil || datalog.IsSentinel(term) || !term.IsGround() {
			return db.contractViolation(sym, fmt.Errorf("%w: column %d of %s tuple %s is not ground",
				ErrContractViolation, i, sym, t))
		}
	}
	return nil
}

func (db *Database) contractViolation(sym datalog.RelationSymbol, err error) error {
	if db.collector.Enabled() {
		db.collector.Add(annotations.Event{
			Name:  annotations.ErrorContract,
			Start: time.Now(),
			End:   time.Now(),
			Data: map[string]interface{}{
				"relation": sym.String(),
				"error":    err.Error(),
			},
		})
	}
	return err
}

func (db *Database) backendError(sym datalog.RelationSymbol, err error) error {
	if db.collector.Enabled() {
		db.collector.Add(annotations.Event{
			Name:  annotations.ErrorBackend,
			Start: time.Now(),
			End:   time.Now(),
			Data: map[string]interface{}{
				"relation": sym.String(),
				"error":    err.Error(),
			},
		})
	}
	return fmt.Errorf("%s: %w", sym, err)
}

// Add inserts one fact. It returns true iff the fact was not yet present.
// A tuple that is not a fact is rejected before any index is touched.
func (db *Database) Add(sym datalog.RelationSymbol, t datalog.Tuple) (bool, error) {
	rel, err := db.relation(sym)
	if err != nil {
		return false, err
	}
	if err := db.checkFact(sym, t); err != nil {
		return false, err
	}

	start := time.Now()
	fact := append(datalog.Tuple(nil), t...)

	added, err := rel.masterIndex().Insert(fact)
	if err != nil {
		return false, db.backendError(sym, err)
	}
	if !added {
		return false, nil
	}
	for i, idx := range rel.indices {
		if i == rel.master {
			continue
		}
		if _, err := idx.Insert(fact); err != nil {
			return true, db.backendError(sym, err)
		}
	}

	if db.collector.Enabled() {
		db.collector.AddTiming(annotations.FactsInserted, start, map[string]interface{}{
			"relation":    sym.String(),
			"facts.count": 1,
			"facts.new":   1,
		})
	}
	return true, nil
}

// AddAll inserts a batch of facts and reports whether any was new. Only
// facts the master had not seen are propagated to the other indices.
func (db *Database) AddAll(sym datalog.RelationSymbol, tuples []datalog.Tuple) (bool, error) {
	n, err := db.addAll(sym, tuples)
	return n > 0, err
}

func (db *Database) addAll(sym datalog.RelationSymbol, tuples []datalog.Tuple) (int, error) {
	rel, err := db.relation(sym)
	if err != nil {
		return 0, err
	}
	facts := make([]datalog.Tuple, len(tuples))
	for i, t := range tuples {
		if err := db.checkFact(sym, t); err != nil {
			return 0, err
		}
		facts[i] = append(datalog.Tuple(nil), t...)
	}

	start := time.Now()
	added, err := rel.masterIndex().InsertAll(facts)
	if err != nil {
		return len(added), db.backendError(sym, err)
	}
	if len(added) == 0 {
		return 0, nil
	}
	for i, idx := range rel.indices {
		if i == rel.master {
			continue
		}
		if _, err := idx.InsertAll(added); err != nil {
			return len(added), db.backendError(sym, err)
		}
	}

	if db.collector.Enabled() {
		db.collector.AddTiming(annotations.FactsInserted, start, map[string]interface{}{
			"relation":    sym.String(),
			"facts.count": len(tuples),
			"facts.new":   len(added),
		})
	}
	return len(added), nil
}

func (db *Database) index(sym datalog.RelationSymbol, handle int) (*relation, *IndexedFactSet, error) {
	rel, err := db.relation(sym)
	if err != nil {
		return nil, nil, err
	}
	if handle < 0 || handle >= len(rel.indices) {
		return nil, nil, fmt.Errorf("%w: %d for %s, which has %d indices", ErrInvalidIndex, handle, sym, len(rel.indices))
	}
	return rel, rel.indices[handle], nil
}

// Get looks key up in the index at handle. Columns the index's pattern
// binds must be set in key; the rest are not read. The handle must come
// from the builder for a pattern matching key's layout.
func (db *Database) Get(sym datalog.RelationSymbol, key datalog.Tuple, handle int) (Iterator, error) {
	_, idx, err := db.index(sym, handle)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	it, err := idx.Lookup(key)
	if err != nil {
		return nil, err
	}

	if db.collector.Enabled() {
		db.collector.AddTiming(annotations.IndexLookup, start, map[string]interface{}{
			"relation": sym.String(),
			"index":    handle,
			"pattern":  idx.pattern.String(),
			"key":      key.String(),
		})
	}
	return it, nil
}

// GetAll returns every fact of sym from its master index
func (db *Database) GetAll(sym datalog.RelationSymbol) (Iterator, error) {
	rel, err := db.relation(sym)
	if err != nil {
		return nil, err
	}
	return rel.masterIndex().All()
}

// HasFact reports whether the master index holds t. t must be ground.
func (db *Database) HasFact(sym datalog.RelationSymbol, t datalog.Tuple) (bool, error) {
	rel, err := db.relation(sym)
	if err != nil {
		return false, err
	}
	if err := db.checkGround(sym, t); err != nil {
		return false, err
	}
	found, err := rel.masterIndex().Contains(t)
	if err != nil {
		return false, db.backendError(sym, err)
	}
	return found, nil
}

// IsEmpty reports whether sym holds no facts
func (db *Database) IsEmpty(sym datalog.RelationSymbol) (bool, error) {
	rel, err := db.relation(sym)
	if err != nil {
		return false, err
	}
	return rel.masterIndex().IsEmpty(), nil
}

// CountDistinct returns the number of facts in sym
func (db *Database) CountDistinct(sym datalog.RelationSymbol) (int64, error) {
	rel, err := db.relation(sym)
	if err != nil {
		return 0, err
	}
	return rel.masterIndex().Count(), nil
}

// CountDuplicates sums the counts of every index of sym. Indices are
// redundant copies, so this is only a measure of storage footprint.
func (db *Database) CountDuplicates(sym datalog.RelationSymbol) (int64, error) {
	rel, err := db.relation(sym)
	if err != nil {
		return 0, err
	}
	var total int64
	for _, idx := range rel.indices {
		total += idx.Count()
	}
	return total, nil
}

// NumIndices returns how many indices sym has, including a synthesized master
func (db *Database) NumIndices(sym datalog.RelationSymbol) (int, error) {
	rel, err := db.relation(sym)
	if err != nil {
		return 0, err
	}
	return len(rel.indices), nil
}

// MasterIndex returns the handle of sym's master index
func (db *Database) MasterIndex(sym datalog.RelationSymbol) (int, error) {
	rel, err := db.relation(sym)
	if err != nil {
		return 0, err
	}
	return rel.master, nil
}

// IndexInfo describes the index at handle
func (db *Database) IndexInfo(sym datalog.RelationSymbol, handle int) (IndexInfo, error) {
	rel, idx, err := db.index(sym, handle)
	if err != nil {
		return IndexInfo{}, err
	}
	return IndexInfo{
		Handle:          handle,
		Pattern:         idx.Pattern(),
		ComparatorOrder: idx.ComparatorOrder(),
		Master:          handle == rel.master,
		Count:           idx.Count(),
	}, nil
}

// Clear removes every fact from every index. The set of relations and
// indices is unchanged.
func (db *Database) Clear() error {
	start := time.Now()
	for _, sym := range db.symbols {
		for _, idx := range db.relations[sym].indices {
			if err := idx.Clear(); err != nil {
				return db.backendError(sym, err)
			}
		}
	}
	if db.collector.Enabled() {
		db.collector.AddTiming(annotations.DatabaseClear, start, map[string]interface{}{
			"relations.count": len(db.symbols),
		})
	}
	return nil
}

// Close releases the storage backend
func (db *Database) Close() error {
	return db.factory.Close()
}
