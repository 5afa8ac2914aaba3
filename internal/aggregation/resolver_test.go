package aggregation

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	v1 "github.com/freshtally/freshtally/internal/api/v1"
	"github.com/freshtally/freshtally/internal/core/aggregation"
)

// recordingEngine records the keys it is asked to recompute.
type recordingEngine struct {
	mu       sync.Mutex
	keys     []aggregation.Key
	failFor  map[string]error
	inFlight int32
	maxSeen  int32
	delay    time.Duration
}

func (r *recordingEngine) Recompute(ctx context.Context, key aggregation.Key) (*aggregation.AggregatedProduct, error) {
	n := atomic.AddInt32(&r.inFlight, 1)
	defer atomic.AddInt32(&r.inFlight, -1)
	for {
		seen := atomic.LoadInt32(&r.maxSeen)
		if n <= seen || atomic.CompareAndSwapInt32(&r.maxSeen, seen, n) {
			break
		}
	}
	if r.delay > 0 {
		time.Sleep(r.delay)
	}

	r.mu.Lock()
	r.keys = append(r.keys, key)
	r.mu.Unlock()

	if err := r.failFor[key.StoreID]; err != nil {
		return nil, err
	}
	return &aggregation.AggregatedProduct{StoreID: key.StoreID, ProductID: key.ProductID}, nil
}

func (r *recordingEngine) storesSeen() map[string]bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]bool)
	for _, k := range r.keys {
		out[k.StoreID] = true
	}
	return out
}

func milkMaster(category string) *v1.ProductMaster {
	return &v1.ProductMaster{ProductID: "P1", Name: "Milk", Category: category, SellingPrice: decimal.RequireFromString("2.50")}
}

func indexWith(productID string, stores ...string) *mockStoreIndex {
	idx := newMockStoreIndex()
	for _, s := range stores {
		_ = idx.Track(context.Background(), productID, s)
	}
	return idx
}

func TestResolver_MasterCategoryChangeFansOut(t *testing.T) {
	engine := &recordingEngine{}
	recorder := newCountingRecorder()
	resolver := NewResolver(engine, indexWith("P1", "S1", "S2", "S3"), 2, recorder)

	report, err := resolver.OnMasterChange(context.Background(), &v1.MasterChange{
		ProductID: "P1",
		Before:    milkMaster("Dairy"),
		After:     milkMaster("Chilled"),
	})
	require.NoError(t, err)
	assert.Equal(t, OutcomeRecomputed, report.Outcome)
	assert.Len(t, report.Recomputed, 3)
	assert.Equal(t, map[string]bool{"S1": true, "S2": true, "S3": true}, engine.storesSeen())
	assert.Equal(t, []int{3}, recorder.fanouts)
	assert.Equal(t, 3, recorder.outcomes[OutcomeRecomputed])
}

func TestResolver_MasterUnchangedSkips(t *testing.T) {
	engine := &recordingEngine{}
	resolver := NewResolver(engine, indexWith("P1", "S1"), 2, nil)

	after := milkMaster("Dairy")
	after.SellingPrice = decimal.RequireFromString("2.5000")

	report, err := resolver.OnMasterChange(context.Background(), &v1.MasterChange{
		ProductID: "P1",
		Before:    milkMaster("Dairy"),
		After:     after,
	})
	require.NoError(t, err)
	assert.Equal(t, OutcomeSkipped, report.Outcome)
	assert.Equal(t, ErrNoRelevantChange.Error(), report.Reason)
	assert.Empty(t, engine.keys)
}

func TestResolver_MasterCreateAndDeleteAreRelevant(t *testing.T) {
	assert.True(t, masterChanged(nil, milkMaster("Dairy")))
	assert.True(t, masterChanged(milkMaster("Dairy"), nil))
	assert.False(t, masterChanged(nil, nil))

	renamed := milkMaster("Dairy")
	renamed.Name = "Whole Milk"
	assert.True(t, masterChanged(milkMaster("Dairy"), renamed))
}

func TestResolver_MasterFanoutIsolatesFailures(t *testing.T) {
	engine := &recordingEngine{failFor: map[string]error{
		"S2": errors.New("write aggregate: connection refused"),
		"S3": ErrProductNotFound,
	}}
	resolver := NewResolver(engine, indexWith("P1", "S1", "S2", "S3", "S4"), 4, nil)

	report, err := resolver.OnMasterChange(context.Background(), &v1.MasterChange{
		ProductID: "P1",
		Before:    milkMaster("Dairy"),
		After:     milkMaster("Bakery"),
	})
	require.Error(t, err)
	assert.ErrorContains(t, err, "connection refused")

	assert.Equal(t, OutcomePartial, report.Outcome)
	assert.Equal(t, []aggregation.Key{{StoreID: "S1", ProductID: "P1"}, {StoreID: "S4", ProductID: "P1"}}, report.Recomputed)
	require.Len(t, report.Failed, 1)
	assert.Equal(t, "S2", report.Failed[0].StoreID)
	require.Len(t, report.Skipped, 1)
	assert.ErrorIs(t, report.Skipped[0].Err(), ErrProductNotFound)

	// Every store ran even though one failed.
	assert.Len(t, engine.storesSeen(), 4)
}

func TestResolver_MasterFanoutBoundedConcurrency(t *testing.T) {
	engine := &recordingEngine{delay: 5 * time.Millisecond}
	stores := []string{"S1", "S2", "S3", "S4", "S5", "S6", "S7", "S8"}
	resolver := NewResolver(engine, indexWith("P1", stores...), 3, nil)

	_, err := resolver.OnMasterChange(context.Background(), &v1.MasterChange{ProductID: "P1", After: milkMaster("Dairy")})
	require.NoError(t, err)
	assert.Len(t, engine.storesSeen(), len(stores))
	assert.LessOrEqual(t, atomic.LoadInt32(&engine.maxSeen), int32(3))
}

func TestResolver_MasterNoStores(t *testing.T) {
	engine := &recordingEngine{}
	resolver := NewResolver(engine, newMockStoreIndex(), 2, nil)

	report, err := resolver.OnMasterChange(context.Background(), &v1.MasterChange{ProductID: "P9", After: milkMaster("Dairy")})
	require.NoError(t, err)
	assert.Equal(t, OutcomeSkipped, report.Outcome)
	assert.Empty(t, engine.keys)
}

func TestResolver_MasterIndexFailure(t *testing.T) {
	idx := newMockStoreIndex()
	idx.err = errors.New("index unavailable")
	resolver := NewResolver(&recordingEngine{}, idx, 2, nil)

	report, err := resolver.OnMasterChange(context.Background(), &v1.MasterChange{ProductID: "P1", After: milkMaster("Dairy")})
	require.Error(t, err)
	assert.Equal(t, OutcomeFailed, report.Outcome)
}

func TestResolver_BatchDeleteUsesBeforeImage(t *testing.T) {
	catalog := newMockCatalog()
	seedMilk(catalog)
	catalog.txs = []*v1.Transaction{{TransactionID: "T1", ProductID: "P1", StoreID: "S1", Quantity: 30, TransactionDate: testNow}}
	store := newMockAggregateStore()
	idx := newMockStoreIndex()
	resolver := NewResolver(newTestEngine(catalog, store, aggregation.ScopeGlobal), idx, 2, nil)

	_, err := resolver.OnBatchChange(context.Background(), &v1.BatchChange{BatchID: "B2", After: catalog.batches[1]})
	require.NoError(t, err)

	removed := catalog.removeBatch("B2")
	require.NotNil(t, removed)

	// The batch was received in S2; deleting it recomputes S2 only.
	report, err := resolver.OnBatchChange(context.Background(), &v1.BatchChange{BatchID: "B2", Before: removed})
	require.NoError(t, err)
	assert.Equal(t, OutcomeRecomputed, report.Outcome)
	assert.Equal(t, []aggregation.Key{{StoreID: "S2", ProductID: "P1"}}, report.Recomputed)

	// Global scope: S2 sees B1 only now.
	assert.Equal(t, int64(100), store.records[aggregation.Key{StoreID: "S2", ProductID: "P1"}].Stock)

	stores, err := idx.StoresForProduct(context.Background(), "P1")
	require.NoError(t, err)
	assert.Equal(t, []string{"S2"}, stores)
}

func TestResolver_SingleChangeMissingIdentifier(t *testing.T) {
	engine := &recordingEngine{}
	recorder := newCountingRecorder()
	resolver := NewResolver(engine, newMockStoreIndex(), 2, recorder)

	tests := []struct {
		name string
		run  func() (*Report, error)
	}{
		{
			name: "batch without store",
			run: func() (*Report, error) {
				return resolver.OnBatchChange(context.Background(), &v1.BatchChange{
					BatchID: "B1", After: &v1.Batch{BatchID: "B1", ProductID: "P1"},
				})
			},
		},
		{
			name: "transaction without images",
			run: func() (*Report, error) {
				return resolver.OnTransactionChange(context.Background(), &v1.TransactionChange{TransactionID: "T1"})
			},
		},
		{
			name: "transaction without product",
			run: func() (*Report, error) {
				return resolver.OnTransactionChange(context.Background(), &v1.TransactionChange{
					TransactionID: "T1", Before: &v1.Transaction{TransactionID: "T1", StoreID: "S1"},
				})
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			report, err := tc.run()
			require.NoError(t, err)
			assert.Equal(t, OutcomeSkipped, report.Outcome)
			assert.Equal(t, ErrMissingIdentifier.Error(), report.Reason)
		})
	}
	assert.Empty(t, engine.keys)
	assert.Equal(t, 3, recorder.skips[ErrMissingIdentifier.Error()])
}

func TestResolver_TransactionFailureReturned(t *testing.T) {
	engine := &recordingEngine{failFor: map[string]error{"S1": errors.New("read batches: timeout")}}
	resolver := NewResolver(engine, newMockStoreIndex(), 2, nil)

	report, err := resolver.OnTransactionChange(context.Background(), &v1.TransactionChange{
		TransactionID: "T1",
		After:         &v1.Transaction{TransactionID: "T1", ProductID: "P1", StoreID: "S1", Quantity: 1, TransactionDate: testNow},
	})
	require.Error(t, err)
	assert.Equal(t, OutcomeFailed, report.Outcome)
	require.Len(t, report.Failed, 1)
	assert.Equal(t, "read batches: timeout", report.Failed[0].Error)
}

func TestResolver_TransactionProductNotFoundIsSkip(t *testing.T) {
	catalog := newMockCatalog()
	resolver := NewResolver(newTestEngine(catalog, newMockAggregateStore(), aggregation.ScopeGlobal), newMockStoreIndex(), 2, nil)

	report, err := resolver.OnTransactionChange(context.Background(), &v1.TransactionChange{
		TransactionID: "T1",
		After:         &v1.Transaction{TransactionID: "T1", ProductID: "P404", StoreID: "S1", Quantity: 1, TransactionDate: testNow},
	})
	require.NoError(t, err)
	assert.Equal(t, OutcomeSkipped, report.Outcome)
	assert.Equal(t, ErrProductNotFound.Error(), report.Reason)
}
