package aggregation

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	v1 "github.com/freshtally/freshtally/internal/api/v1"
	"github.com/freshtally/freshtally/internal/core/aggregation"
	"github.com/freshtally/freshtally/internal/core/storage"
)

const defaultFanoutWorkers = 10

// Recomputer rebuilds one aggregated product.
type Recomputer interface {
	Recompute(ctx context.Context, key aggregation.Key) (*aggregation.AggregatedProduct, error)
}

// Resolver turns upstream change events into recomputations of the affected
// (store, product) pairs.
type Resolver struct {
	engine   Recomputer
	index    storage.StoreIndex
	workers  int
	recorder Recorder
}

// NewResolver creates a Resolver. workers bounds concurrent recomputations per
// master change; non-positive means the default. recorder may be nil.
func NewResolver(engine Recomputer, index storage.StoreIndex, workers int, recorder Recorder) *Resolver {
	if engine == nil {
		panic("aggregation: NewResolver requires a non-nil engine")
	}
	if index == nil {
		panic("aggregation: NewResolver requires a non-nil store index")
	}
	if workers <= 0 {
		workers = defaultFanoutWorkers
	}
	if recorder == nil {
		recorder = noopRecorder{}
	}
	return &Resolver{engine: engine, index: index, workers: workers, recorder: recorder}
}

// OnMasterChange recomputes every store carrying the product when its name,
// category or price changed. It waits for all stores; one store failing does
// not stop the others. The returned error joins the per-store failures.
func (r *Resolver) OnMasterChange(ctx context.Context, ch *v1.MasterChange) (*Report, error) {
	if ch.ProductID == "" {
		return r.skip(TriggerMaster, ErrMissingIdentifier), nil
	}
	if !masterChanged(ch.Before, ch.After) {
		slog.Info("[Resolver] Master change ignored, monitored fields unchanged", "product_id", ch.ProductID)
		return r.skip(TriggerMaster, ErrNoRelevantChange), nil
	}

	stores, err := r.index.StoresForProduct(ctx, ch.ProductID)
	if err != nil {
		slog.Error("[Resolver] Store lookup failed", "product_id", ch.ProductID, "error", err)
		return &Report{Trigger: TriggerMaster, Outcome: OutcomeFailed, Reason: err.Error()}, err
	}
	r.recorder.RecordFanout(TriggerMaster, len(stores))

	if len(stores) == 0 {
		slog.Info("[Resolver] No stores carry product", "product_id", ch.ProductID)
		report := &Report{Trigger: TriggerMaster, Outcome: OutcomeSkipped, Reason: "no stores carry product"}
		return report, nil
	}

	results := make([]error, len(stores))
	var g errgroup.Group
	g.SetLimit(r.workers)
	for i, storeID := range stores {
		g.Go(func() error {
			results[i] = r.recompute(ctx, TriggerMaster, aggregation.Key{StoreID: storeID, ProductID: ch.ProductID})
			return nil
		})
	}
	_ = g.Wait()

	report := &Report{Trigger: TriggerMaster}
	for i, storeID := range stores {
		key := aggregation.Key{StoreID: storeID, ProductID: ch.ProductID}
		switch err := results[i]; {
		case err == nil:
			report.Recomputed = append(report.Recomputed, key)
		case IsSkip(err):
			report.Skipped = append(report.Skipped, newKeyResult(key, err))
		default:
			report.Failed = append(report.Failed, newKeyResult(key, err))
		}
	}
	report.settle()

	slog.Info("[Resolver] Master fan-out complete",
		"product_id", ch.ProductID,
		"stores", len(stores),
		"recomputed", len(report.Recomputed),
		"skipped", len(report.Skipped),
		"failed", len(report.Failed))

	return report, report.Err()
}

// OnBatchChange recomputes the one pair a batch belongs to. Deletions use the
// removed batch's store and product.
func (r *Resolver) OnBatchChange(ctx context.Context, ch *v1.BatchChange) (*Report, error) {
	storeID, productID := ch.Subject()
	return r.onSingle(ctx, TriggerBatch, "batch_id", ch.BatchID, aggregation.Key{StoreID: storeID, ProductID: productID})
}

// OnTransactionChange recomputes the one pair a sale belongs to.
func (r *Resolver) OnTransactionChange(ctx context.Context, ch *v1.TransactionChange) (*Report, error) {
	storeID, productID := ch.Subject()
	return r.onSingle(ctx, TriggerTransaction, "transaction_id", ch.TransactionID, aggregation.Key{StoreID: storeID, ProductID: productID})
}

func (r *Resolver) onSingle(ctx context.Context, trigger Trigger, idAttr, id string, key aggregation.Key) (*Report, error) {
	if !key.Valid() {
		slog.Warn("[Resolver] Change skipped, store or product missing",
			"trigger", trigger,
			idAttr, id,
			"store_id", key.StoreID,
			"product_id", key.ProductID)
		return r.skip(trigger, ErrMissingIdentifier), nil
	}

	if err := r.index.Track(ctx, key.ProductID, key.StoreID); err != nil {
		// The recomputation below is still correct; only future fan-outs may miss this store.
		slog.Error("[Resolver] Store index update failed", "store_id", key.StoreID, "product_id", key.ProductID, "error", err)
	}

	report := &Report{Trigger: trigger}
	err := r.recompute(ctx, trigger, key)
	switch {
	case err == nil:
		report.Recomputed = []aggregation.Key{key}
	case IsSkip(err):
		report.Skipped = []KeyResult{newKeyResult(key, err)}
		report.Reason = rootReason(err)
	default:
		report.Failed = []KeyResult{newKeyResult(key, err)}
	}
	report.settle()
	return report, report.Err()
}

// recompute runs one recomputation and logs and records its outcome.
func (r *Resolver) recompute(ctx context.Context, trigger Trigger, key aggregation.Key) error {
	start := time.Now()
	_, err := r.engine.Recompute(ctx, key)
	elapsed := time.Since(start)

	switch {
	case err == nil:
		r.recorder.RecordRecompute(trigger, OutcomeRecomputed, elapsed)
	case IsSkip(err):
		slog.Warn("[Resolver] Recomputation skipped",
			"trigger", trigger,
			"store_id", key.StoreID,
			"product_id", key.ProductID,
			"reason", err)
		r.recorder.RecordRecompute(trigger, OutcomeSkipped, elapsed)
		r.recorder.RecordSkip(trigger, rootReason(err))
	default:
		slog.Error("[Resolver] Recomputation failed",
			"trigger", trigger,
			"store_id", key.StoreID,
			"product_id", key.ProductID,
			"error", err)
		r.recorder.RecordRecompute(trigger, OutcomeFailed, elapsed)
	}
	return err
}

func (r *Resolver) skip(trigger Trigger, reason error) *Report {
	r.recorder.RecordSkip(trigger, reason.Error())
	return skipped(trigger, reason)
}

// masterChanged reports whether a monitored field differs. A creation or a
// deletion counts as a change.
func masterChanged(before, after *v1.ProductMaster) bool {
	if before == nil || after == nil {
		return before != after
	}
	return before.Name != after.Name ||
		before.Category != after.Category ||
		!before.SellingPrice.Equal(after.SellingPrice)
}

func rootReason(err error) string {
	for _, sentinel := range []error{ErrProductNotFound, ErrMissingIdentifier, ErrNoRelevantChange} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return err.Error()
}
