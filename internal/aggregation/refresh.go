package aggregation

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/freshtally/freshtally/internal/core/aggregation"
	"github.com/freshtally/freshtally/internal/core/storage"
)

// RefreshStats counts the results of one refresh sweep.
type RefreshStats struct {
	Pairs      int
	Recomputed int
	Skipped    int
	Failed     int
}

func (s *RefreshStats) add(o RefreshStats) {
	s.Recomputed += o.Recomputed
	s.Skipped += o.Skipped
	s.Failed += o.Failed
}

// Refresher recomputes every indexed pair. Sales velocity and expiry move with
// time even when no change event arrives, so this runs on a schedule.
type Refresher struct {
	engine   Recomputer
	index    storage.StoreIndex
	workers  int
	recorder Recorder
}

// NewRefresher creates a Refresher. recorder may be nil.
func NewRefresher(engine Recomputer, index storage.StoreIndex, workers int, recorder Recorder) *Refresher {
	if engine == nil || index == nil {
		panic("aggregation: NewRefresher requires an engine and a store index")
	}
	if workers <= 0 {
		workers = defaultFanoutWorkers
	}
	if recorder == nil {
		recorder = noopRecorder{}
	}
	return &Refresher{engine: engine, index: index, workers: workers, recorder: recorder}
}

// RefreshAll recomputes every indexed (store, product) pair with a bounded
// worker pool. Per-pair failures are counted, not returned.
func (r *Refresher) RefreshAll(ctx context.Context) (RefreshStats, error) {
	pairs, err := r.index.Pairs(ctx)
	if err != nil {
		return RefreshStats{}, fmt.Errorf("list index pairs: %w", err)
	}

	stats := RefreshStats{Pairs: len(pairs)}
	workerCount := minInt(r.workers, len(pairs))
	if workerCount <= 0 {
		slog.Debug("[Refresh] Store index is empty")
		return stats, nil
	}

	slog.Info("[Refresh] Starting sweep", "pairs", len(pairs), "workers", workerCount)

	jobs := make(chan aggregation.Key, len(pairs))
	results := make(chan RefreshStats, workerCount)

	var wg sync.WaitGroup
	wg.Add(workerCount)
	for i := 0; i < workerCount; i++ {
		go func() {
			defer wg.Done()
			var local RefreshStats
			for key := range jobs {
				if ctx.Err() != nil {
					continue
				}
				r.refreshOne(ctx, key, &local)
			}
			results <- local
		}()
	}

	for _, key := range pairs {
		jobs <- key
	}
	close(jobs)

	wg.Wait()
	close(results)

	for local := range results {
		stats.add(local)
	}

	slog.Info("[Refresh] Sweep complete",
		"pairs", stats.Pairs,
		"recomputed", stats.Recomputed,
		"skipped", stats.Skipped,
		"failed", stats.Failed)

	if err := ctx.Err(); err != nil {
		return stats, fmt.Errorf("refresh interrupted: %w", err)
	}
	return stats, nil
}

func (r *Refresher) refreshOne(ctx context.Context, key aggregation.Key, local *RefreshStats) {
	start := time.Now()
	_, err := r.engine.Recompute(ctx, key)
	elapsed := time.Since(start)

	switch {
	case err == nil:
		local.Recomputed++
		r.recorder.RecordRecompute(TriggerRefresh, OutcomeRecomputed, elapsed)
	case IsSkip(err):
		local.Skipped++
		slog.Debug("[Refresh] Pair skipped", "store_id", key.StoreID, "product_id", key.ProductID, "reason", err)
		r.recorder.RecordRecompute(TriggerRefresh, OutcomeSkipped, elapsed)
	default:
		local.Failed++
		slog.Error("[Refresh] Pair failed", "store_id", key.StoreID, "product_id", key.ProductID, "error", err)
		r.recorder.RecordRecompute(TriggerRefresh, OutcomeFailed, elapsed)
	}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
