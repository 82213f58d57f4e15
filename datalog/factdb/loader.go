package factdb

import (
	"context"
	"time"

	"github.com/wbrown/janus-factdb/datalog"
	"github.com/wbrown/janus-factdb/datalog/annotations"
)

// FactBatch is a group of facts bound for one relation
type FactBatch struct {
	Symbol datalog.RelationSymbol
	Tuples []datalog.Tuple
}

// SplitBatch cuts tuples into batches of at most size facts
func SplitBatch(sym datalog.RelationSymbol, tuples []datalog.Tuple, size int) []FactBatch {
	if size <= 0 {
		size = 100
	}
	var batches []FactBatch
	for i := 0; i < len(tuples); i += size {
		end := i + size
		if end > len(tuples) {
			end = len(tuples)
		}
		batches = append(batches, FactBatch{Symbol: sym, Tuples: tuples[i:end]})
	}
	return batches
}

// LoadParallel inserts batches concurrently through AddAll and returns how
// many facts were new. Batches may target the same relation.
func LoadParallel(ctx context.Context, db *Database, batches []FactBatch, workers int) (int, error) {
	pool := NewWorkerPool(workers)
	start := time.Now()

	if db.collector.Enabled() {
		db.collector.AddTiming(annotations.LoadBegin, start, map[string]interface{}{
			"batches.count": len(batches),
			"workers":       pool.WorkerCount(),
		})
	}

	counts, err := ExecuteParallel(ctx, pool, batches, func(_ context.Context, b FactBatch) (int, error) {
		return db.addAll(b.Symbol, b.Tuples)
	})

	total := 0
	for _, n := range counts {
		total += n
	}

	if db.collector.Enabled() {
		data := map[string]interface{}{
			"batches.count": len(batches),
			"facts.new":     total,
			"success":       err == nil,
		}
		if err != nil {
			data["error"] = err.Error()
		}
		db.collector.AddTiming(annotations.LoadComplete, start, data)
	}
	return total, err
}
