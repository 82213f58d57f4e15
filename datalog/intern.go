package datalog

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// TermResolver maps identities back to terms
type TermResolver interface {
	Resolve(id int64) (Term, bool)
}

// TermTable hash-conses terms and hands out their identities.
// Uses sync.Map for lock-free concurrent reads; identities come from an atomic
// counter, so the storage order of terms is their first-interning order.
type TermTable struct {
	next      atomic.Int64
	constants sync.Map // constKey → *Constant
	compounds sync.Map // string → *Constructor or *Call
	vars      sync.Map // string → *Var
	byID      sync.Map // int64 → Term
}

type constKey struct {
	kind byte
	bits uint64
	str  string
}

const (
	kindInt byte = iota + 1
	kindFloat
	kindString
	kindBool
	kindTime
	kindKeyword
)

// NewTermTable creates an empty table
func NewTermTable() *TermTable {
	return &TermTable{}
}

// Int interns an integer constant
func (tt *TermTable) Int(i int64) Term {
	return tt.constant(constKey{kind: kindInt, bits: uint64(i)}, i)
}

// Float interns a float constant
func (tt *TermTable) Float(f float64) Term {
	return tt.constant(constKey{kind: kindFloat, bits: math.Float64bits(f)}, f)
}

// Text interns a string constant
func (tt *TermTable) Text(s string) Term {
	return tt.constant(constKey{kind: kindString, str: s}, s)
}

// Bool interns a boolean constant
func (tt *TermTable) Bool(b bool) Term {
	var bits uint64
	if b {
		bits = 1
	}
	return tt.constant(constKey{kind: kindBool, bits: bits}, b)
}

// Time interns a time constant (normalized to UTC)
func (tt *TermTable) Time(t time.Time) Term {
	t = t.UTC()
	return tt.constant(constKey{kind: kindTime, bits: uint64(t.UnixNano())}, t)
}

// Keyword interns a keyword constant
func (tt *TermTable) Keyword(s string) Term {
	return tt.constant(constKey{kind: kindKeyword, str: s}, NewKeyword(s))
}

// Constant interns an arbitrary payload; see value.go for the accepted types
func (tt *TermTable) Constant(v Value) (Term, error) {
	switch val := v.(type) {
	case int:
		return tt.Int(int64(val)), nil
	case int64:
		return tt.Int(val), nil
	case float64:
		return tt.Float(val), nil
	case string:
		return tt.Text(val), nil
	case bool:
		return tt.Bool(val), nil
	case time.Time:
		return tt.Time(val), nil
	case Keyword:
		return tt.Keyword(val.String()), nil
	default:
		return nil, fmt.Errorf("unsupported constant type %T", v)
	}
}

func (tt *TermTable) constant(key constKey, v Value) Term {
	// Fast path: load existing (lock-free)
	if val, ok := tt.constants.Load(key); ok {
		return val.(*Constant)
	}

	// Slow path: create and store
	c := &Constant{id: tt.next.Add(1), value: v}
	// Resolvable before it is reachable through the intern map
	tt.byID.Store(c.id, c)
	actual, loaded := tt.constants.LoadOrStore(key, c)
	if loaded {
		tt.byID.Delete(c.id)
	}
	return actual.(*Constant)
}

// Construct interns a constructor term. Args must be non-nil terms from this table.
func (tt *TermTable) Construct(symbol string, args ...Term) Term {
	key := compoundKey('c', symbol, args)
	if val, ok := tt.compounds.Load(key); ok {
		return val.(*Constructor)
	}

	c := &Constructor{
		symbol: symbol,
		args:   append([]Term(nil), args...),
		ground: true,
	}
	for _, arg := range args {
		if !arg.IsGround() {
			c.ground = false
		}
		if arg.ContainsUnevaluatedTerm() {
			c.uneval = true
		}
	}
	c.id = tt.next.Add(1)
	// Resolvable before it is reachable through the intern map
	tt.byID.Store(c.id, c)
	actual, loaded := tt.compounds.LoadOrStore(key, c)
	if loaded {
		tt.byID.Delete(c.id)
	}
	return actual.(*Constructor)
}

// Call interns an unevaluated function application
func (tt *TermTable) Call(fn string, args ...Term) Term {
	key := compoundKey('f', fn, args)
	if val, ok := tt.compounds.Load(key); ok {
		return val.(*Call)
	}

	c := &Call{
		fn:     fn,
		args:   append([]Term(nil), args...),
		ground: true,
	}
	for _, arg := range args {
		if !arg.IsGround() {
			c.ground = false
		}
	}
	c.id = tt.next.Add(1)
	// Resolvable before it is reachable through the intern map
	tt.byID.Store(c.id, c)
	actual, loaded := tt.compounds.LoadOrStore(key, c)
	if loaded {
		tt.byID.Delete(c.id)
	}
	return actual.(*Call)
}

// Var interns a variable by name
func (tt *TermTable) Var(name string) Term {
	if val, ok := tt.vars.Load(name); ok {
		return val.(*Var)
	}

	v := &Var{id: tt.next.Add(1), name: name}
	// Resolvable before it is reachable through the intern map
	tt.byID.Store(v.id, v)
	actual, loaded := tt.vars.LoadOrStore(name, v)
	if loaded {
		tt.byID.Delete(v.id)
	}
	return actual.(*Var)
}

// Resolve returns the term with the given identity
func (tt *TermTable) Resolve(id int64) (Term, bool) {
	switch id {
	case math.MinInt64:
		return MinTerm, true
	case math.MaxInt64:
		return MaxTerm, true
	}
	if val, ok := tt.byID.Load(id); ok {
		return val.(Term), true
	}
	return nil, false
}

// Tuple builds a tuple from Go values, interning each as a constant.
// Terms are passed through unchanged.
func (tt *TermTable) Tuple(values ...interface{}) (Tuple, error) {
	tuple := make(Tuple, len(values))
	for i, v := range values {
		if t, ok := v.(Term); ok {
			tuple[i] = t
			continue
		}
		t, err := tt.Constant(v)
		if err != nil {
			return nil, fmt.Errorf("column %d: %w", i, err)
		}
		tuple[i] = t
	}
	return tuple, nil
}

// MustTuple is Tuple for literals known to be valid (tests, fixtures)
func (tt *TermTable) MustTuple(values ...interface{}) Tuple {
	tuple, err := tt.Tuple(values...)
	if err != nil {
		panic(err)
	}
	return tuple
}

func compoundKey(kind byte, name string, args []Term) string {
	var sb strings.Builder
	sb.Grow(len(name) + 2 + 8*len(args))
	sb.WriteByte(kind)
	sb.WriteString(name)
	sb.WriteByte(0)
	var buf [20]byte
	for _, arg := range args {
		if arg == nil {
			panic("datalog: nil argument in compound term " + name)
		}
		sb.Write(strconv.AppendInt(buf[:0], arg.ID(), 36))
		sb.WriteByte(',')
	}
	return sb.String()
}
