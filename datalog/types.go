package datalog

import (
	"fmt"
	"strings"
)

// Tuple is one row of a relation: one term per column
type Tuple []Term

// String returns a string representation of the tuple
func (t Tuple) String() string {
	return "[" + joinTerms(t) + "]"
}

// RelationSymbol names a predicate of fixed arity
type RelationSymbol struct {
	Name  string
	Arity int
}

// NewRelationSymbol creates a relation symbol
func NewRelationSymbol(name string, arity int) RelationSymbol {
	return RelationSymbol{Name: name, Arity: arity}
}

// String returns name/arity
func (s RelationSymbol) String() string {
	return fmt.Sprintf("%s/%d", s.Name, s.Arity)
}

// BindingType describes the role a column plays in one query shape
type BindingType uint8

const (
	Bound   BindingType = iota // value supplied at lookup time
	Free                       // value returned unconstrained
	Ignored                    // column projected out of the index
)

// String returns the single-character pattern notation
func (b BindingType) String() string {
	switch b {
	case Bound:
		return "b"
	case Free:
		return "f"
	case Ignored:
		return "_"
	default:
		return fmt.Sprintf("BindingType(%d)", uint8(b))
	}
}

// BindingPattern annotates every column of a relation with a BindingType
type BindingPattern []BindingType

// ParsePattern parses the compact notation: b=bound, f=free, _=ignored.
// "bf_" is [Bound Free Ignored].
func ParsePattern(s string) (BindingPattern, error) {
	pat := make(BindingPattern, 0, len(s))
	for i, ch := range s {
		switch ch {
		case 'b', 'B':
			pat = append(pat, Bound)
		case 'f', 'F':
			pat = append(pat, Free)
		case '_', 'i', 'I':
			pat = append(pat, Ignored)
		default:
			return nil, fmt.Errorf("invalid binding %q at position %d in pattern %q", ch, i, s)
		}
	}
	return pat, nil
}

// MustParsePattern is ParsePattern for literals known to be valid
func MustParsePattern(s string) BindingPattern {
	pat, err := ParsePattern(s)
	if err != nil {
		panic(err)
	}
	return pat
}

// AllFree returns the canonical pattern with every column free
func AllFree(arity int) BindingPattern {
	pat := make(BindingPattern, arity)
	for i := range pat {
		pat[i] = Free
	}
	return pat
}

// String returns the compact notation
func (p BindingPattern) String() string {
	var sb strings.Builder
	for _, b := range p {
		sb.WriteString(b.String())
	}
	return sb.String()
}

// Key returns a structural key: equal patterns have equal keys
func (p BindingPattern) Key() string {
	return p.String()
}

// IsProjected reports whether any column is ignored.
// Only unprojected (canonical) patterns can back a master index.
func (p BindingPattern) IsProjected() bool {
	for _, b := range p {
		if b == Ignored {
			return true
		}
	}
	return false
}

// IsBound reports whether column i is bound
func (p BindingPattern) IsBound(i int) bool {
	return p[i] == Bound
}

// ComparatorOrder returns the column permutation an index sorts by:
// bound columns in original order, then free columns. Ignored columns are left out.
func (p BindingPattern) ComparatorOrder() []int {
	order := make([]int, 0, len(p))
	for i, b := range p {
		if b == Bound {
			order = append(order, i)
		}
	}
	for i, b := range p {
		if b == Free {
			order = append(order, i)
		}
	}
	return order
}

// Validate checks the pattern against a relation arity
func (p BindingPattern) Validate(arity int) error {
	if len(p) != arity {
		return fmt.Errorf("pattern %s has %d columns, relation arity is %d", p, len(p), arity)
	}
	for i, b := range p {
		switch b {
		case Bound, Free, Ignored:
		default:
			return fmt.Errorf("pattern column %d has unknown binding %d", i, uint8(b))
		}
	}
	return nil
}

// Clone returns a copy that does not alias p
func (p BindingPattern) Clone() BindingPattern {
	return append(BindingPattern(nil), p...)
}
