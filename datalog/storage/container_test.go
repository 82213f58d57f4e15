package storage

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wbrown/janus-factdb/datalog"
)

type backendCase struct {
	name    string
	factory func(t *testing.T, tt *datalog.TermTable) Factory
}

func backends() []backendCase {
	return []backendCase{
		{
			name: "btree",
			factory: func(t *testing.T, tt *datalog.TermTable) Factory {
				// Tiny batches so scans cross batch boundaries
				return BTreeFactory{Degree: 4, BatchSize: 3}
			},
		},
		{
			name: "badger-binary",
			factory: func(t *testing.T, tt *datalog.TermTable) Factory {
				store, err := NewBadgerStore(tt, BinaryStrategy)
				require.NoError(t, err)
				return store
			},
		},
		{
			name: "badger-l85",
			factory: func(t *testing.T, tt *datalog.TermTable) Factory {
				store, err := NewBadgerStore(tt, L85Strategy)
				require.NoError(t, err)
				return store
			},
		},
	}
}

func bounds(tt *datalog.TermTable, first int64) (datalog.Tuple, datalog.Tuple) {
	return datalog.Tuple{tt.Int(first), datalog.MinTerm}, datalog.Tuple{tt.Int(first), datalog.MaxTerm}
}

func TestContainerSetSemantics(t *testing.T) {
	for _, bc := range backends() {
		t.Run(bc.name, func(t *testing.T) {
			tt := datalog.NewTermTable()
			factory := bc.factory(t, tt)
			defer factory.Close()

			c, err := factory.NewContainer([]int{0, 1})
			require.NoError(t, err)

			tuple := tt.MustTuple(1, "a")
			added, err := c.Insert(tuple)
			require.NoError(t, err)
			assert.True(t, added)

			added, err = c.Insert(tt.MustTuple(1, "a"))
			require.NoError(t, err)
			assert.False(t, added, "structurally equal tuple must be a no-op")

			found, err := c.Contains(tt.MustTuple(1, "a"))
			require.NoError(t, err)
			assert.True(t, found)

			found, err = c.Contains(tt.MustTuple(1, "b"))
			require.NoError(t, err)
			assert.False(t, found)
		})
	}
}

func TestContainerScanClosedRange(t *testing.T) {
	for _, bc := range backends() {
		t.Run(bc.name, func(t *testing.T) {
			tt := datalog.NewTermTable()
			factory := bc.factory(t, tt)
			defer factory.Close()

			c, err := factory.NewContainer([]int{0, 1})
			require.NoError(t, err)

			// Intern the second column first so identities disagree with insertion order
			letters := []string{"e", "d", "c", "b", "a"}
			for _, l := range letters {
				tt.Text(l)
			}
			for _, first := range []int64{2, 1, 3} {
				for _, l := range letters {
					_, err := c.Insert(tt.MustTuple(first, l))
					require.NoError(t, err)
				}
			}

			lower, upper := bounds(tt, 1)
			it, err := c.Scan(lower, upper)
			require.NoError(t, err)
			got, err := Collect(it)
			require.NoError(t, err)

			require.Len(t, got, len(letters))
			for i, tuple := range got {
				assert.Equal(t, tt.Int(1), tuple[0])
				// Sorted by the identity of the second column: interning order
				assert.Equal(t, tt.Text(letters[i]), tuple[1])
			}

			// Exact-bound range
			exact := tt.MustTuple(2, "c")
			it, err = c.Scan(exact, exact)
			require.NoError(t, err)
			got, err = Collect(it)
			require.NoError(t, err)
			require.Len(t, got, 1)
			assert.True(t, datalog.TuplesEqual(exact, got[0]))

			// Full range
			it, err = c.Scan(datalog.Tuple{datalog.MinTerm, datalog.MinTerm}, datalog.Tuple{datalog.MaxTerm, datalog.MaxTerm})
			require.NoError(t, err)
			got, err = Collect(it)
			require.NoError(t, err)
			assert.Len(t, got, 15)
			for i := 1; i < len(got); i++ {
				assert.Negative(t, datalog.CompareTuplesOn([]int{0, 1}, got[i-1], got[i]))
			}

			// Empty range
			lower, upper = bounds(tt, 99)
			it, err = c.Scan(lower, upper)
			require.NoError(t, err)
			got, err = Collect(it)
			require.NoError(t, err)
			assert.Empty(t, got)
		})
	}
}

func TestContainerProjectedOrder(t *testing.T) {
	for _, bc := range backends() {
		t.Run(bc.name, func(t *testing.T) {
			tt := datalog.NewTermTable()
			factory := bc.factory(t, tt)
			defer factory.Close()

			// Column 0 ignored: keys are the second column only
			c, err := factory.NewContainer([]int{1})
			require.NoError(t, err)

			added, err := c.Insert(tt.MustTuple(1, "x"))
			require.NoError(t, err)
			assert.True(t, added)

			added, err = c.Insert(tt.MustTuple(2, "x"))
			require.NoError(t, err)
			assert.False(t, added, "tuples equal on every ordered column share a slot")

			it, err := c.Scan(datalog.Tuple{datalog.MinTerm, datalog.MinTerm}, datalog.Tuple{datalog.MaxTerm, datalog.MaxTerm})
			require.NoError(t, err)
			got, err := Collect(it)
			require.NoError(t, err)
			require.Len(t, got, 1)
			assert.Equal(t, tt.Int(1), got[0][0], "first inserted tuple represents the key")
		})
	}
}

func TestContainerScanIsSnapshot(t *testing.T) {
	for _, bc := range backends() {
		t.Run(bc.name, func(t *testing.T) {
			tt := datalog.NewTermTable()
			factory := bc.factory(t, tt)
			defer factory.Close()

			c, err := factory.NewContainer([]int{0, 1})
			require.NoError(t, err)

			for i := 0; i < 10; i++ {
				_, err := c.Insert(tt.MustTuple(1, i))
				require.NoError(t, err)
			}

			lower, upper := bounds(tt, 1)
			it, err := c.Scan(lower, upper)
			require.NoError(t, err)

			// Writes after the scan started do not disturb it
			for i := 10; i < 20; i++ {
				_, err := c.Insert(tt.MustTuple(1, i))
				require.NoError(t, err)
			}

			got, err := Collect(it)
			require.NoError(t, err)
			assert.Len(t, got, 10)
		})
	}
}

func TestContainerScanTuplesAreCallerOwned(t *testing.T) {
	for _, bc := range backends() {
		t.Run(bc.name, func(t *testing.T) {
			tt := datalog.NewTermTable()
			factory := bc.factory(t, tt)
			defer factory.Close()

			c, err := factory.NewContainer([]int{0, 1})
			require.NoError(t, err)
			for i := 0; i < 5; i++ {
				_, err := c.Insert(tt.MustTuple(1, i))
				require.NoError(t, err)
			}

			lower, upper := bounds(tt, 1)
			it, err := c.Scan(lower, upper)
			require.NoError(t, err)
			scanned, err := Collect(it)
			require.NoError(t, err)
			require.Len(t, scanned, 5)
			for _, tuple := range scanned {
				tuple[0] = tt.Int(9)
				tuple[1] = tt.Int(-1)
			}

			it, err = c.Scan(lower, upper)
			require.NoError(t, err)
			again, err := Collect(it)
			require.NoError(t, err)
			want := make([]string, 5)
			got := make([]string, len(again))
			for i := range want {
				want[i] = tt.MustTuple(1, i).String()
			}
			for i, tuple := range again {
				got[i] = tuple.String()
			}
			assert.ElementsMatch(t, want, got)
			ok, err := c.Contains(tt.MustTuple(1, 3))
			require.NoError(t, err)
			assert.True(t, ok)
		})
	}
}

func TestContainerClear(t *testing.T) {
	for _, bc := range backends() {
		t.Run(bc.name, func(t *testing.T) {
			tt := datalog.NewTermTable()
			factory := bc.factory(t, tt)
			defer factory.Close()

			a, err := factory.NewContainer([]int{0})
			require.NoError(t, err)
			b, err := factory.NewContainer([]int{0})
			require.NoError(t, err)

			for i := 0; i < 5; i++ {
				_, err := a.Insert(tt.MustTuple(i))
				require.NoError(t, err)
				_, err = b.Insert(tt.MustTuple(i))
				require.NoError(t, err)
			}

			require.NoError(t, a.Clear())

			all := func(c Container) []datalog.Tuple {
				it, err := c.Scan(datalog.Tuple{datalog.MinTerm}, datalog.Tuple{datalog.MaxTerm})
				require.NoError(t, err)
				got, err := Collect(it)
				require.NoError(t, err)
				return got
			}
			assert.Empty(t, all(a))
			assert.Len(t, all(b), 5, "clearing one container leaves its neighbours intact")

			added, err := a.Insert(tt.MustTuple(0))
			require.NoError(t, err)
			assert.True(t, added)
		})
	}
}

func TestContainerConcurrentInsert(t *testing.T) {
	for _, bc := range backends() {
		t.Run(bc.name, func(t *testing.T) {
			tt := datalog.NewTermTable()
			factory := bc.factory(t, tt)
			defer factory.Close()

			c, err := factory.NewContainer([]int{0, 1})
			require.NoError(t, err)

			const goroutines = 8
			const perGoroutine = 100
			var added atomic.Int64
			var wg sync.WaitGroup
			errs := make(chan error, goroutines)

			// Every goroutine inserts the same tuples: each must be reported new once
			for g := 0; g < goroutines; g++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for i := 0; i < perGoroutine; i++ {
						ok, err := c.Insert(tt.MustTuple(i, fmt.Sprintf("v%d", i%7)))
						if err != nil {
							errs <- err
							return
						}
						if ok {
							added.Add(1)
						}
					}
				}()
			}
			wg.Wait()
			close(errs)
			for err := range errs {
				t.Fatalf("insert failed: %v", err)
			}

			assert.Equal(t, int64(perGoroutine), added.Load())
		})
	}
}

func TestParseBackend(t *testing.T) {
	b, err := ParseBackend("BADGER")
	require.NoError(t, err)
	assert.Equal(t, BackendBadger, b)

	b, err = ParseBackend("")
	require.NoError(t, err)
	assert.Equal(t, BackendBTree, b)

	_, err = ParseBackend("rocks")
	assert.Error(t, err)
}

func TestNewBadgerStoreNeedsResolver(t *testing.T) {
	_, err := NewBadgerStore(nil, BinaryStrategy)
	assert.Error(t, err)
}
