package aggregation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	v1 "github.com/freshtally/freshtally/internal/api/v1"
	"github.com/freshtally/freshtally/internal/core/aggregation"
	"github.com/freshtally/freshtally/internal/core/storage"
)

// EngineOptions holds the aggregation policy.
type EngineOptions struct {
	Scope  aggregation.BatchScope
	Window aggregation.WindowSpec
}

func (o EngineOptions) normalized() EngineOptions {
	n := o
	if n.Scope == "" {
		n.Scope = aggregation.ScopeGlobal
	}
	if n.Window.Size <= 0 {
		n.Window = aggregation.WindowSpec{Size: 30 * 24 * time.Hour}
	}
	return n
}

// Engine recomputes one aggregated product from the raw catalog.
// It holds no state between calls; concurrent recomputations only share the stores.
type Engine struct {
	catalog    storage.CatalogReader
	aggregates storage.AggregateStore
	opts       EngineOptions
	nowFn      func() time.Time
}

// NewEngine creates an Engine. Panics if a store is nil.
func NewEngine(catalog storage.CatalogReader, aggregates storage.AggregateStore, opts EngineOptions) *Engine {
	if catalog == nil {
		panic("aggregation: NewEngine requires a non-nil catalog reader")
	}
	if aggregates == nil {
		panic("aggregation: NewEngine requires a non-nil aggregate store")
	}
	return &Engine{
		catalog:    catalog,
		aggregates: aggregates,
		opts:       opts.normalized(),
		nowFn:      time.Now,
	}
}

// Recompute rebuilds the record for key and merge-writes it.
//
// The four reads run concurrently. A missing master record returns
// ErrProductNotFound and nothing is written.
func (e *Engine) Recompute(ctx context.Context, key aggregation.Key) (*aggregation.AggregatedProduct, error) {
	if !key.Valid() {
		return nil, ErrMissingIdentifier
	}

	var (
		master   *v1.ProductMaster
		batches  []*v1.Batch
		txs      []*v1.Transaction
		previous *aggregation.AggregatedProduct
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := e.catalog.GetProduct(gctx, key.ProductID)
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrProductNotFound, key.ProductID)
		}
		if err != nil {
			return fmt.Errorf("read product master: %w", err)
		}
		master = p
		return nil
	})
	g.Go(func() error {
		b, err := e.catalog.ListBatchesByProduct(gctx, key.ProductID)
		if err != nil {
			return fmt.Errorf("read batches: %w", err)
		}
		batches = b
		return nil
	})
	g.Go(func() error {
		t, err := e.catalog.ListTransactions(gctx, key.ProductID, key.StoreID)
		if err != nil {
			return fmt.Errorf("read transactions: %w", err)
		}
		txs = t
		return nil
	})
	g.Go(func() error {
		p, err := e.aggregates.GetAggregate(gctx, key)
		if errors.Is(err, storage.ErrNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read previous aggregate: %w", err)
		}
		previous = p
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	now := e.nowFn().UTC()
	record := aggregation.Merge(key, aggregation.Inputs{
		Master:   master,
		Stock:    aggregation.ComputeStock(key, batches, txs, e.opts.Scope),
		Velocity: aggregation.ComputeVelocity(key, txs, now, e.opts.Window),
		Expiry:   aggregation.ResolveExpiry(key, batches, now, e.opts.Scope),
	}, previous, now)

	if err := e.aggregates.MergeAggregate(ctx, &record); err != nil {
		return nil, fmt.Errorf("write aggregate: %w", err)
	}

	slog.Debug("[Engine] Recomputed aggregate",
		"store_id", key.StoreID,
		"product_id", key.ProductID,
		"stock", record.Stock,
		"sales_velocity", record.SalesVelocity,
		"batches", len(batches),
		"transactions", len(txs),
		"first_aggregation", previous == nil)

	return &record, nil
}
