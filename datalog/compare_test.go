package datalog

import (
	"bytes"
	"math"
	"testing"
)

func TestCompareTuplesOn(t *testing.T) {
	tt := NewTermTable()
	one, two := tt.Int(1), tt.Int(2)
	a, b := tt.Text("a"), tt.Text("b")

	tests := []struct {
		name  string
		order []int
		x, y  Tuple
		want  int
	}{
		{"first column decides", []int{0, 1}, Tuple{one, b}, Tuple{two, a}, -1},
		{"permuted order", []int{1, 0}, Tuple{one, b}, Tuple{two, a}, 1},
		{"equal", []int{0, 1}, Tuple{one, a}, Tuple{one, a}, 0},
		{"projection collapses", []int{1}, Tuple{one, a}, Tuple{two, a}, 0},
		{"min bound", []int{0, 1}, Tuple{one, MinTerm}, Tuple{one, a}, -1},
		{"max bound", []int{0, 1}, Tuple{one, MaxTerm}, Tuple{one, b}, 1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := CompareTuplesOn(tc.order, tc.x, tc.y); got != tc.want {
				t.Errorf("CompareTuplesOn(%v, %v, %v) = %d, want %d", tc.order, tc.x, tc.y, got, tc.want)
			}
		})
	}
}

func TestTuplesEqual(t *testing.T) {
	tt := NewTermTable()
	if !TuplesEqual(tt.MustTuple(1, "a"), tt.MustTuple(1, "a")) {
		t.Error("expected structurally equal tuples to be equal")
	}
	if TuplesEqual(tt.MustTuple(1, "a"), tt.MustTuple(1, "b")) {
		t.Error("expected different tuples to differ")
	}
	if TuplesEqual(tt.MustTuple(1), tt.MustTuple(1, "a")) {
		t.Error("expected tuples of different length to differ")
	}
}

func TestCompareSymbols(t *testing.T) {
	if CompareSymbols(NewRelationSymbol("edge", 2), NewRelationSymbol("path", 2)) >= 0 {
		t.Error("expected edge < path")
	}
	if CompareSymbols(NewRelationSymbol("p", 1), NewRelationSymbol("p", 2)) >= 0 {
		t.Error("expected p/1 < p/2")
	}
	if CompareSymbols(NewRelationSymbol("p", 2), NewRelationSymbol("p", 2)) != 0 {
		t.Error("expected equal symbols to compare equal")
	}
}

func TestAppendIDPreservesOrder(t *testing.T) {
	ids := []int64{math.MinInt64, -1 << 40, -1, 0, 1, 2, 1 << 40, math.MaxInt64}
	for i := 1; i < len(ids); i++ {
		prev := AppendID(nil, ids[i-1])
		cur := AppendID(nil, ids[i])
		if bytes.Compare(prev, cur) >= 0 {
			t.Errorf("encoding of %d should sort before %d", ids[i-1], ids[i])
		}
		back, err := IDFromBytes(cur)
		if err != nil || back != ids[i] {
			t.Errorf("IDFromBytes round trip of %d gave %d, %v", ids[i], back, err)
		}
	}
}
