// Package workload reads YAML descriptions of relations, facts and lookups
// used to drive a fact database from the command line.
package workload

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/wbrown/janus-factdb/datalog"
	"github.com/wbrown/janus-factdb/datalog/factdb"
	"github.com/wbrown/janus-factdb/datalog/storage"
	"gopkg.in/yaml.v3"
)

// Workload is the decoded form of a workload file
type Workload struct {
	Relations []RelationDecl      `yaml:"relations"`
	Facts     map[string][]string `yaml:"facts"`
	Queries   []QueryDecl         `yaml:"queries"`
}

// RelationDecl declares one relation and the patterns it is queried with
type RelationDecl struct {
	Name     string   `yaml:"name"`
	Arity    int      `yaml:"arity"`
	Patterns []string `yaml:"patterns"`
}

// QueryDecl is one lookup: a key tuple literal against a pattern
type QueryDecl struct {
	Relation string `yaml:"relation"`
	Pattern  string `yaml:"pattern"`
	Key      string `yaml:"key"`
}

// Query is a QueryDecl resolved against a builder
type Query struct {
	Symbol  datalog.RelationSymbol
	Pattern datalog.BindingPattern
	Handle  int
	Key     datalog.Tuple
	Source  string
}

// Load reads and validates a workload file
func Load(path string) (*Workload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read workload: %w", err)
	}
	w, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return w, nil
}

// Parse decodes and validates a workload. Unknown fields are rejected.
func Parse(data []byte) (*Workload, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var w Workload
	if err := dec.Decode(&w); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to decode workload: %w", err)
	}
	if err := w.Validate(); err != nil {
		return nil, err
	}
	return &w, nil
}

// Validate checks names, arities and patterns without touching any terms
func (w *Workload) Validate() error {
	seen := make(map[string]bool, len(w.Relations))
	for _, r := range w.Relations {
		if r.Name == "" {
			return errors.New("relation with empty name")
		}
		if seen[r.Name] {
			return fmt.Errorf("relation %s declared twice", r.Name)
		}
		seen[r.Name] = true
		if r.Arity < 0 {
			return fmt.Errorf("relation %s has negative arity", r.Name)
		}
		for _, p := range r.Patterns {
			if err := validatePattern(p, r.Arity); err != nil {
				return fmt.Errorf("relation %s: %w", r.Name, err)
			}
		}
	}
	for name := range w.Facts {
		if !seen[name] {
			return fmt.Errorf("facts for undeclared relation %s", name)
		}
	}
	for i, q := range w.Queries {
		r, err := w.relation(q.Relation)
		if err != nil {
			return fmt.Errorf("query %d: %w", i, err)
		}
		if err := validatePattern(q.Pattern, r.Arity); err != nil {
			return fmt.Errorf("query %d: %w", i, err)
		}
	}
	return nil
}

func validatePattern(s string, arity int) error {
	pat, err := datalog.ParsePattern(s)
	if err != nil {
		return err
	}
	return pat.Validate(arity)
}

func (w *Workload) relation(name string) (RelationDecl, error) {
	for _, r := range w.Relations {
		if r.Name == name {
			return r, nil
		}
	}
	return RelationDecl{}, fmt.Errorf("undeclared relation %s", name)
}

// Symbol returns the relation symbol declared under name
func (w *Workload) Symbol(name string) (datalog.RelationSymbol, error) {
	r, err := w.relation(name)
	if err != nil {
		return datalog.RelationSymbol{}, err
	}
	return datalog.NewRelationSymbol(r.Name, r.Arity), nil
}

// Symbols returns every declared relation in declaration order
func (w *Workload) Symbols() []datalog.RelationSymbol {
	syms := make([]datalog.RelationSymbol, len(w.Relations))
	for i, r := range w.Relations {
		syms[i] = datalog.NewRelationSymbol(r.Name, r.Arity)
	}
	return syms
}

// Register declares every relation and pattern on b, then resolves the
// queries. Query patterns are registered too, so a lookup never needs an
// index the relation list forgot.
func (w *Workload) Register(b *factdb.Builder, terms *datalog.TermTable) ([]Query, error) {
	for _, r := range w.Relations {
		sym := datalog.NewRelationSymbol(r.Name, r.Arity)
		if err := b.AddSymbol(sym); err != nil {
			return nil, err
		}
		for _, p := range r.Patterns {
			if _, err := b.RegisterPattern(sym, datalog.MustParsePattern(p)); err != nil {
				return nil, err
			}
		}
	}

	parser := NewParser(terms)
	queries := make([]Query, len(w.Queries))
	for i, q := range w.Queries {
		sym, err := w.Symbol(q.Relation)
		if err != nil {
			return nil, err
		}
		pat := datalog.MustParsePattern(q.Pattern)
		handle, err := b.RegisterPattern(sym, pat)
		if err != nil {
			return nil, err
		}
		key, err := parser.ParseTuple(q.Key)
		if err != nil {
			return nil, fmt.Errorf("query %d key %q: %w", i, q.Key, err)
		}
		if len(key) != sym.Arity {
			return nil, fmt.Errorf("query %d key %q has %d columns, %s expects %d", i, q.Key, len(key), sym, sym.Arity)
		}
		for col, binding := range pat {
			if binding == datalog.Bound && key[col] == nil {
				return nil, fmt.Errorf("query %d key %q leaves bound column %d empty", i, q.Key, col)
			}
		}
		queries[i] = Query{Symbol: sym, Pattern: pat, Handle: handle, Key: key, Source: q.Key}
	}
	return queries, nil
}

// Batches parses every fact and groups them into batches of at most size
func (w *Workload) Batches(terms *datalog.TermTable, size int) ([]factdb.FactBatch, error) {
	parser := NewParser(terms)
	var batches []factdb.FactBatch
	for _, r := range w.Relations {
		literals := w.Facts[r.Name]
		if len(literals) == 0 {
			continue
		}
		sym := datalog.NewRelationSymbol(r.Name, r.Arity)
		tuples := make([]datalog.Tuple, len(literals))
		for i, lit := range literals {
			t, err := parser.ParseTuple(lit)
			if err != nil {
				return nil, fmt.Errorf("%s fact %d %q: %w", sym, i, lit, err)
			}
			tuples[i] = t
		}
		batches = append(batches, factdb.SplitBatch(sym, tuples, size)...)
	}
	return batches, nil
}

// Run executes the query against db and collects its results
func (q Query) Run(db *factdb.Database) ([]datalog.Tuple, error) {
	it, err := db.Get(q.Symbol, q.Key, q.Handle)
	if err != nil {
		return nil, err
	}
	return storage.Collect(it)
}
