package datalog

import (
	"math"
	"strings"
)

// Term is a value that can appear in a tuple column.
// Every term carries a stable integer identity; two terms are the same term
// iff their identities are equal, and identities define the storage order.
type Term interface {
	// ID returns the term's identity (the sort key used by every index)
	ID() int64

	// IsGround reports whether the term contains no variables
	IsGround() bool

	// ContainsUnevaluatedTerm reports whether the term embeds a computation
	// (function call, solver query) that has not been reduced to a value yet
	ContainsUnevaluatedTerm() bool

	String() string
}

// Sentinel bounds for range queries. They compare below/above every interned
// term and must never be stored.
var (
	MinTerm Term = sentinel{id: math.MinInt64, name: "⊥"}
	MaxTerm Term = sentinel{id: math.MaxInt64, name: "⊤"}
)

type sentinel struct {
	id   int64
	name string
}

func (s sentinel) ID() int64                     { return s.id }
func (s sentinel) IsGround() bool                { return true }
func (s sentinel) ContainsUnevaluatedTerm() bool { return false }
func (s sentinel) String() string                { return s.name }

// IsSentinel reports whether t is MinTerm or MaxTerm
func IsSentinel(t Term) bool {
	_, ok := t.(sentinel)
	return ok
}

// Constant is an atomic ground value (see value.go for payload types)
type Constant struct {
	id    int64
	value Value
}

func (c *Constant) ID() int64                     { return c.id }
func (c *Constant) IsGround() bool                { return true }
func (c *Constant) ContainsUnevaluatedTerm() bool { return false }
func (c *Constant) String() string                { return FormatValue(c.value) }

// Value returns the constant's payload
func (c *Constant) Value() Value { return c.value }

// Constructor is a compound term: a constructor symbol applied to arguments.
// A nullary constructor is written as its bare symbol.
type Constructor struct {
	id     int64
	symbol string
	args   []Term
	ground bool
	uneval bool
}

func (c *Constructor) ID() int64                     { return c.id }
func (c *Constructor) IsGround() bool                { return c.ground }
func (c *Constructor) ContainsUnevaluatedTerm() bool { return c.uneval }

// Symbol returns the constructor symbol
func (c *Constructor) Symbol() string { return c.symbol }

// Args returns the constructor arguments. Callers must not modify the slice.
func (c *Constructor) Args() []Term { return c.args }

func (c *Constructor) String() string {
	if len(c.args) == 0 {
		return c.symbol
	}
	return "(" + c.symbol + " " + joinTerms(c.args) + ")"
}

// Var is a logic variable. Variables are never ground.
type Var struct {
	id   int64
	name string
}

func (v *Var) ID() int64                     { return v.id }
func (v *Var) IsGround() bool                { return false }
func (v *Var) ContainsUnevaluatedTerm() bool { return false }
func (v *Var) String() string                { return v.name }

// Name returns the variable name
func (v *Var) Name() string { return v.name }

// Call is a function application that still has to be evaluated
// (e.g. a user function or an SMT query). It is ground when its arguments are,
// but it always contains an unevaluated term.
type Call struct {
	id     int64
	fn     string
	args   []Term
	ground bool
}

func (c *Call) ID() int64                     { return c.id }
func (c *Call) IsGround() bool                { return c.ground }
func (c *Call) ContainsUnevaluatedTerm() bool { return true }

// Function returns the called function's name
func (c *Call) Function() string { return c.fn }

// Args returns the call arguments. Callers must not modify the slice.
func (c *Call) Args() []Term { return c.args }

func (c *Call) String() string {
	if len(c.args) == 0 {
		return "(@" + c.fn + ")"
	}
	return "(@" + c.fn + " " + joinTerms(c.args) + ")"
}

// IsNormal reports whether t may be stored as part of a fact:
// ground, fully evaluated and not a range sentinel.
func IsNormal(t Term) bool {
	return t != nil && !IsSentinel(t) && t.IsGround() && !t.ContainsUnevaluatedTerm()
}

func joinTerms(terms []Term) string {
	parts := make([]string, len(terms))
	for i, t := range terms {
		if t == nil {
			parts[i] = "nil"
			continue
		}
		parts[i] = t.String()
	}
	return strings.Join(parts, " ")
}
