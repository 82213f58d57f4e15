package factdb

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/wbrown/janus-factdb/datalog"
	"github.com/wbrown/janus-factdb/datalog/annotations"
)

// Builder collects the binding patterns each relation will be queried with
// and materializes one index per distinct pattern.
//
// Handles are dense per relation, assigned from 0 in first-registration
// order, and stay valid as index positions in the built Database.
type Builder struct {
	mu        sync.Mutex
	opts      Options
	relations map[datalog.RelationSymbol]*patternSet
	built     bool
	err       error // first symbol NewBuilder rejected, reported by Build
}

type patternSet struct {
	patterns []datalog.BindingPattern
	handles  map[string]int
}

// NewBuilder creates a builder that knows symbols. An invalid symbol is
// skipped and makes Build fail.
func NewBuilder(symbols []datalog.RelationSymbol, opts Options) *Builder {
	b := &Builder{
		opts:      opts,
		relations: make(map[datalog.RelationSymbol]*patternSet, len(symbols)),
	}
	for _, sym := range symbols {
		if err := checkSymbol(sym); err != nil {
			if b.err == nil {
				b.err = err
			}
			continue
		}
		b.addSymbol(sym)
	}
	return b
}

func checkSymbol(sym datalog.RelationSymbol) error {
	if sym.Arity < 0 {
		return fmt.Errorf("%w: relation %s has negative arity", ErrContractViolation, sym)
	}
	return nil
}

// AddSymbol registers a relation. Registering a symbol twice is a no-op.
func (b *Builder) AddSymbol(sym datalog.RelationSymbol) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.built {
		return ErrBuilderClosed
	}
	if err := checkSymbol(sym); err != nil {
		return err
	}
	b.addSymbol(sym)
	return nil
}

func (b *Builder) addSymbol(sym datalog.RelationSymbol) {
	if _, ok := b.relations[sym]; !ok {
		b.relations[sym] = &patternSet{handles: make(map[string]int)}
	}
}

// RegisterPattern returns the index handle serving pat on sym, allocating
// one the first time a structurally equal pattern is seen.
func (b *Builder) RegisterPattern(sym datalog.RelationSymbol, pat datalog.BindingPattern) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.built {
		return 0, ErrBuilderClosed
	}
	set, ok := b.relations[sym]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnrecognizedSymbol, sym)
	}
	if err := pat.Validate(sym.Arity); err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrContractViolation, sym, err)
	}

	key := pat.Key()
	if handle, ok := set.handles[key]; ok {
		return handle, nil
	}
	handle := len(set.patterns)
	set.patterns = append(set.patterns, pat.Clone())
	set.handles[key] = handle
	return handle, nil
}

// Build materializes every registered pattern. The first unprojected
// pattern of a relation becomes its master; a relation with none gets an
// all-free master appended after its registered indices. Build may run once.
func (b *Builder) Build() (*Database, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.built {
		return nil, ErrBuilderClosed
	}
	b.built = true
	if b.err != nil {
		return nil, b.err
	}

	start := time.Now()
	collector := b.opts.Collector

	factory, err := b.opts.newFactory()
	if err != nil {
		return nil, err
	}

	symbols := make([]datalog.RelationSymbol, 0, len(b.relations))
	for sym := range b.relations {
		symbols = append(symbols, sym)
	}
	sort.Slice(symbols, func(i, j int) bool {
		return datalog.CompareSymbols(symbols[i], symbols[j]) < 0
	})

	db := &Database{
		relations: make(map[datalog.RelationSymbol]*relation, len(symbols)),
		symbols:   symbols,
		factory:   factory,
		collector: collector,
		backend:   b.opts.Backend,
	}
	if db.backend == "" {
		db.backend = DefaultOptions().Backend
	}

	totalIndices := 0
	for _, sym := range symbols {
		patterns := b.relations[sym].patterns

		master := -1
		for i, pat := range patterns {
			if !pat.IsProjected() {
				master = i
				break
			}
		}
		if master < 0 {
			synthesized := datalog.AllFree(sym.Arity)
			patterns = append(patterns, synthesized)
			master = len(patterns) - 1
			if collector.Enabled() {
				collector.AddTiming(annotations.IndexMasterSynthesized, start, map[string]interface{}{
					"relation": sym.String(),
					"pattern":  synthesized.String(),
				})
			}
		}

		rel := &relation{
			symbol:  sym,
			indices: make([]*IndexedFactSet, len(patterns)),
			master:  master,
		}
		for i, pat := range patterns {
			idx, err := newIndexedFactSet(pat, factory)
			if err != nil {
				factory.Close()
				return nil, fmt.Errorf("failed to build %s: %w", sym, err)
			}
			rel.indices[i] = idx
			if collector.Enabled() {
				collector.AddTiming(annotations.IndexMaterialized, start, map[string]interface{}{
					"relation": sym.String(),
					"pattern":  pat.String(),
					"order":    idx.ComparatorOrder(),
					"index":    i,
					"master":   i == master,
				})
			}
		}
		db.relations[sym] = rel
		totalIndices += len(patterns)
	}

	if collector.Enabled() {
		collector.AddTiming(annotations.DatabaseBuilt, start, map[string]interface{}{
			"backend":         string(db.backend),
			"relations.count": len(symbols),
			"indices.count":   totalIndices,
		})
	}

	return db, nil
}
