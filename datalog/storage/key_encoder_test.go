package storage

import (
	"bytes"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wbrown/janus-factdb/datalog"
)

func TestKeyEncodersPreserveTupleOrder(t *testing.T) {
	tt := datalog.NewTermTable()
	var tuples []datalog.Tuple
	for i := 0; i < 6; i++ {
		for _, s := range []string{"z", "m", "a"} {
			tuples = append(tuples, tt.MustTuple(i, s))
		}
	}
	order := []int{1, 0}
	cmp := NewComparator(order)

	for _, strategy := range []KeyEncodingStrategy{BinaryStrategy, L85Strategy} {
		t.Run(strategy.String(), func(t *testing.T) {
			enc := NewKeyEncoder(strategy)

			sorted := append([]datalog.Tuple(nil), tuples...)
			sort.Slice(sorted, func(i, j int) bool { return cmp(sorted[i], sorted[j]) < 0 })

			keys := make([][]byte, len(tuples))
			for i, tuple := range tuples {
				keys[i] = enc.EncodeKey(7, order, tuple)
			}
			sort.Slice(keys, func(i, j int) bool { return bytes.Compare(keys[i], keys[j]) < 0 })

			for i, tuple := range sorted {
				assert.Equal(t, enc.EncodeKey(7, order, tuple), keys[i], "position %d", i)
				assert.True(t, bytes.HasPrefix(keys[i], enc.EncodePrefix(7)))
			}

			// Range bounds built from sentinels enclose every real key
			low := enc.EncodeKey(7, order, datalog.Tuple{datalog.MinTerm, datalog.MinTerm})
			high := enc.EncodeKey(7, order, datalog.Tuple{datalog.MaxTerm, datalog.MaxTerm})
			assert.Negative(t, bytes.Compare(low, keys[0]))
			assert.Positive(t, bytes.Compare(high, keys[len(keys)-1]))

			// Neighbouring containers do not interleave
			next := enc.EncodeKey(8, order, datalog.Tuple{datalog.MinTerm, datalog.MinTerm})
			assert.Positive(t, bytes.Compare(next, high))
		})
	}
}

func TestParseKeyEncoding(t *testing.T) {
	s, err := ParseKeyEncoding("L85")
	require.NoError(t, err)
	assert.Equal(t, L85Strategy, s)

	s, err = ParseKeyEncoding("")
	require.NoError(t, err)
	assert.Equal(t, BinaryStrategy, s)

	_, err = ParseKeyEncoding("hex")
	assert.Error(t, err)
}
