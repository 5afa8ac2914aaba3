package ingestion

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/freshtally/freshtally/internal/aggregation"
	v1 "github.com/freshtally/freshtally/internal/api/v1"
	"github.com/freshtally/freshtally/internal/core/storage"
)

// Dispatcher hands change events to the aggregation core and reports what it did.
type Dispatcher interface {
	OnMasterChange(ctx context.Context, ch *v1.MasterChange) (*aggregation.Report, error)
	OnBatchChange(ctx context.Context, ch *v1.BatchChange) (*aggregation.Report, error)
	OnTransactionChange(ctx context.Context, ch *v1.TransactionChange) (*aggregation.Report, error)
}

type Service struct {
	reader           storage.CatalogReader
	writer           storage.CatalogWriter
	dispatcher       Dispatcher
	fieldMap         FieldMap
	maxBodySizeBytes int
	nowFn            func() time.Time
}

// NewService creates the write-side service. A nil fieldMap uses DefaultFieldMap.
func NewService(reader storage.CatalogReader, writer storage.CatalogWriter, dispatcher Dispatcher, fieldMap FieldMap, maxBodySizeMB int) *Service {
	if reader == nil {
		panic("ingestion: catalog reader must not be nil")
	}
	if writer == nil {
		panic("ingestion: catalog writer must not be nil")
	}
	if dispatcher == nil {
		panic("ingestion: dispatcher must not be nil")
	}
	if fieldMap == nil {
		fieldMap = DefaultFieldMap()
	}
	if maxBodySizeMB <= 0 {
		maxBodySizeMB = 1 // default to 1MB
	}
	return &Service{
		reader:           reader,
		writer:           writer,
		dispatcher:       dispatcher,
		fieldMap:         fieldMap,
		maxBodySizeBytes: maxBodySizeMB * 1024 * 1024,
		nowFn:            func() time.Time { return time.Now().UTC() },
	}
}

// RegisterRoutes registers the write-side routes.
func (s *Service) RegisterRoutes(r gin.IRouter) {
	// Write-through: persist, then dispatch the matching change.
	r.PUT("/v1/products/:product_id", s.UpsertProductHandler)
	r.DELETE("/v1/products/:product_id", s.DeleteProductHandler)
	r.POST("/v1/batches", s.CreateBatchHandler)
	r.DELETE("/v1/batches/:batch_id", s.DeleteBatchHandler)
	r.POST("/v1/transactions", s.CreateTransactionHandler)
	r.DELETE("/v1/transactions/:transaction_id", s.DeleteTransactionHandler)

	// Change events delivered by an external trigger.
	r.POST("/v1/changes/products", s.MasterChangeHandler)
	r.POST("/v1/changes/batches", s.BatchChangeHandler)
	r.POST("/v1/changes/transactions", s.TransactionChangeHandler)

	r.POST("/v1/stores/:store_id/pos-transactions", s.ImportPOSHandler)
}
