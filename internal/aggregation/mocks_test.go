package aggregation

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	v1 "github.com/freshtally/freshtally/internal/api/v1"
	"github.com/freshtally/freshtally/internal/core/aggregation"
	"github.com/freshtally/freshtally/internal/core/storage"
)

// mockCatalog is an in-memory storage.CatalogReader.
type mockCatalog struct {
	mu       sync.Mutex
	products map[string]*v1.ProductMaster
	batches  []*v1.Batch
	txs      []*v1.Transaction

	// failTxFor makes ListTransactions fail for one store.
	failTxFor string
}

func newMockCatalog() *mockCatalog {
	return &mockCatalog{products: make(map[string]*v1.ProductMaster)}
}

func (m *mockCatalog) GetProduct(ctx context.Context, productID string) (*v1.ProductMaster, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[productID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *mockCatalog) ListBatchesByProduct(ctx context.Context, productID string) ([]*v1.Batch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*v1.Batch
	for _, b := range m.batches {
		if b.ProductID == productID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *mockCatalog) ListTransactions(ctx context.Context, productID, storeID string) ([]*v1.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if storeID == m.failTxFor {
		return nil, errors.New("connection reset by peer")
	}
	var out []*v1.Transaction
	for _, tx := range m.txs {
		if tx.ProductID == productID && tx.StoreID == storeID {
			out = append(out, tx)
		}
	}
	return out, nil
}

func (m *mockCatalog) removeBatch(batchID string) *v1.Batch {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, b := range m.batches {
		if b.BatchID == batchID {
			m.batches = append(m.batches[:i], m.batches[i+1:]...)
			return b
		}
	}
	return nil
}

// mockAggregateStore is an in-memory storage.AggregateStore with the same
// insert-only policy for discount fields as the postgres adapter.
type mockAggregateStore struct {
	mu      sync.Mutex
	records map[aggregation.Key]aggregation.AggregatedProduct
	writes  int
}

func newMockAggregateStore() *mockAggregateStore {
	return &mockAggregateStore{records: make(map[aggregation.Key]aggregation.AggregatedProduct)}
}

func (m *mockAggregateStore) GetAggregate(ctx context.Context, key aggregation.Key) (*aggregation.AggregatedProduct, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.records[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &p, nil
}

func (m *mockAggregateStore) MergeAggregate(ctx context.Context, p *aggregation.AggregatedProduct) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes++
	next := *p
	if existing, ok := m.records[p.Key()]; ok {
		next.Discount = existing.Discount
	}
	m.records[p.Key()] = next
	return nil
}

func (m *mockAggregateStore) ListAggregatesByStore(ctx context.Context, storeID string) ([]*aggregation.AggregatedProduct, error) {
	return nil, nil
}

func (m *mockAggregateStore) UpdateDiscount(ctx context.Context, key aggregation.Key, u *v1.DiscountUpdate, now time.Time) (*aggregation.AggregatedProduct, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.records[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	if u.Percentage != nil {
		p.Percentage = *u.Percentage
	}
	if u.DiscountedPrice != nil {
		p.DiscountedPrice = *u.DiscountedPrice
	}
	p.LastDiscountUpdate = &now
	m.records[key] = p
	return &p, nil
}

func (m *mockAggregateStore) ListExpiringDiscounts(ctx context.Context, from, to time.Time) ([]*aggregation.AggregatedProduct, error) {
	return nil, nil
}

// mockStoreIndex is an in-memory storage.StoreIndex.
type mockStoreIndex struct {
	mu     sync.Mutex
	stores map[string]map[string]struct{}
	err    error
}

func newMockStoreIndex() *mockStoreIndex {
	return &mockStoreIndex{stores: make(map[string]map[string]struct{})}
}

func (m *mockStoreIndex) StoresForProduct(ctx context.Context, productID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var out []string
	for s := range m.stores[productID] {
		out = append(out, s)
	}
	sort.Strings(out)
	return out, nil
}

func (m *mockStoreIndex) Track(ctx context.Context, productID, storeID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stores[productID] == nil {
		m.stores[productID] = make(map[string]struct{})
	}
	m.stores[productID][storeID] = struct{}{}
	return nil
}

func (m *mockStoreIndex) Pairs(ctx context.Context) ([]aggregation.Key, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []aggregation.Key
	for p, stores := range m.stores {
		for s := range stores {
			out = append(out, aggregation.Key{StoreID: s, ProductID: p})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out, nil
}

// countingRecorder records calls for assertions.
type countingRecorder struct {
	mu       sync.Mutex
	outcomes map[Outcome]int
	skips    map[string]int
	fanouts  []int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{outcomes: make(map[Outcome]int), skips: make(map[string]int)}
}

func (c *countingRecorder) RecordRecompute(_ Trigger, outcome Outcome, _ time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.outcomes[outcome]++
}

func (c *countingRecorder) RecordFanout(_ Trigger, stores int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fanouts = append(c.fanouts, stores)
}

func (c *countingRecorder) RecordSkip(_ Trigger, reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.skips[reason]++
}
