package ingestion

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/freshtally/freshtally/internal/aggregation"
	v1 "github.com/freshtally/freshtally/internal/api/v1"
	httperr "github.com/freshtally/freshtally/internal/core/errors"
	"github.com/freshtally/freshtally/internal/core/storage"
)

const (
	msgReadBodyFailed   = "Failed to read request body"
	msgInvalidJSON      = "Invalid JSON body"
	msgPersistFailed    = "Failed to persist record"
	msgDuplicateRecord  = "Record already exists"
	msgRecordNotFound   = "Record not found"
	msgAggregationError = "Aggregation failed"
)

// ingestionError carries the structured HTTP error shape from a helper back to the handler.
type ingestionError struct {
	statusCode int
	errorType  string
	message    string
	details    interface{}
}

func (e *ingestionError) Error() string {
	return e.message
}

func validationError(err error) *ingestionError {
	return &ingestionError{
		statusCode: http.StatusBadRequest,
		errorType:  httperr.HttpValidationError,
		message:    err.Error(),
	}
}

// storageError maps a catalog write failure onto an HTTP error.
func storageError(err error, attrs ...any) *ingestionError {
	switch {
	case errors.Is(err, storage.ErrDuplicate):
		slog.Info("[Ingestion] Duplicate record rejected", attrs...)
		return &ingestionError{statusCode: http.StatusConflict, errorType: httperr.HttpDuplicateError, message: msgDuplicateRecord}
	case errors.Is(err, storage.ErrNotFound):
		return &ingestionError{statusCode: http.StatusNotFound, errorType: httperr.HttpNotFoundError, message: msgRecordNotFound}
	default:
		slog.Error("[Ingestion] Failed to persist record", append(attrs, "error", err)...)
		return &ingestionError{statusCode: http.StatusInternalServerError, errorType: httperr.HttpInternalError, message: msgPersistFailed}
	}
}

// UpsertProductHandler creates or replaces a product master and fans the change out.
func (s *Service) UpsertProductHandler(c *gin.Context) {
	var p v1.ProductMaster
	if err := s.bindJSON(c, &p); err != nil {
		writeError(c, err)
		return
	}

	productID := c.Param("product_id")
	if p.ProductID != "" && p.ProductID != productID {
		writeError(c, validationError(errors.New("product_id in body does not match path")))
		return
	}
	p.ProductID = productID
	if err := p.Validate(); err != nil {
		writeError(c, validationError(err))
		return
	}
	p.UpdatedAt = s.nowFn()

	ctx := c.Request.Context()
	before, err := s.writer.UpsertProduct(ctx, &p)
	if err != nil {
		writeError(c, storageError(err, "product_id", p.ProductID))
		return
	}
	slog.Info("[Ingestion] Product saved", "product_id", p.ProductID, "created", before == nil)

	report := logDispatch(s.dispatcher.OnMasterChange(ctx, &v1.MasterChange{ProductID: p.ProductID, Before: before, After: &p}))

	status := http.StatusOK
	if before == nil {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"product": p, "aggregation": report})
}

// DeleteProductHandler removes a product master. Aggregated rows are left in place.
func (s *Service) DeleteProductHandler(c *gin.Context) {
	productID := c.Param("product_id")
	ctx := c.Request.Context()

	before, err := s.writer.DeleteProduct(ctx, productID)
	if err != nil {
		writeError(c, storageError(err, "product_id", productID))
		return
	}
	slog.Info("[Ingestion] Product deleted", "product_id", productID)

	report := logDispatch(s.dispatcher.OnMasterChange(ctx, &v1.MasterChange{ProductID: productID, Before: before}))
	c.JSON(http.StatusOK, gin.H{"product": before, "aggregation": report})
}

// CreateBatchHandler records a received lot and recomputes its (store, product).
func (s *Service) CreateBatchHandler(c *gin.Context) {
	var b v1.Batch
	if err := s.bindJSON(c, &b); err != nil {
		writeError(c, err)
		return
	}
	if err := b.Validate(); err != nil {
		writeError(c, validationError(err))
		return
	}
	if b.ReceivedAt.IsZero() {
		b.ReceivedAt = s.nowFn()
	}

	ctx := c.Request.Context()
	if err := s.writer.CreateBatch(ctx, &b); err != nil {
		writeError(c, storageError(err, "batch_id", b.BatchID))
		return
	}
	slog.Debug("[Ingestion] Batch created", "batch_id", b.BatchID, "store_id", b.StoreID, "product_id", b.ProductID)

	report := logDispatch(s.dispatcher.OnBatchChange(ctx, &v1.BatchChange{BatchID: b.BatchID, After: &b}))
	c.JSON(http.StatusCreated, gin.H{"batch": b, "aggregation": report})
}

// DeleteBatchHandler removes a lot. The removed row is the change's before image.
func (s *Service) DeleteBatchHandler(c *gin.Context) {
	batchID := c.Param("batch_id")
	ctx := c.Request.Context()

	removed, err := s.writer.DeleteBatch(ctx, batchID)
	if err != nil {
		writeError(c, storageError(err, "batch_id", batchID))
		return
	}

	report := logDispatch(s.dispatcher.OnBatchChange(ctx, &v1.BatchChange{BatchID: batchID, Before: removed}))
	c.JSON(http.StatusOK, gin.H{"batch": removed, "aggregation": report})
}

// CreateTransactionHandler records a sale and recomputes its (store, product).
func (s *Service) CreateTransactionHandler(c *gin.Context) {
	var tx v1.Transaction
	if err := s.bindJSON(c, &tx); err != nil {
		writeError(c, err)
		return
	}
	if err := tx.Validate(); err != nil {
		writeError(c, validationError(err))
		return
	}

	ctx := c.Request.Context()
	if err := s.writer.CreateTransaction(ctx, &tx); err != nil {
		writeError(c, storageError(err, "transaction_id", tx.TransactionID))
		return
	}

	report := logDispatch(s.dispatcher.OnTransactionChange(ctx, &v1.TransactionChange{TransactionID: tx.TransactionID, After: &tx}))
	c.JSON(http.StatusCreated, gin.H{"transaction": tx, "aggregation": report})
}

// DeleteTransactionHandler reverses a sale.
func (s *Service) DeleteTransactionHandler(c *gin.Context) {
	transactionID := c.Param("transaction_id")
	ctx := c.Request.Context()

	removed, err := s.writer.DeleteTransaction(ctx, transactionID)
	if err != nil {
		writeError(c, storageError(err, "transaction_id", transactionID))
		return
	}

	report := logDispatch(s.dispatcher.OnTransactionChange(ctx, &v1.TransactionChange{TransactionID: transactionID, Before: removed}))
	c.JSON(http.StatusOK, gin.H{"transaction": removed, "aggregation": report})
}

// MasterChangeHandler accepts a master change event from an external trigger.
func (s *Service) MasterChangeHandler(c *gin.Context) {
	var ch v1.MasterChange
	if err := s.bindJSON(c, &ch); err != nil {
		writeError(c, err)
		return
	}
	if err := ch.Validate(); err != nil {
		writeError(c, validationError(err))
		return
	}
	report, err := s.dispatcher.OnMasterChange(c.Request.Context(), &ch)
	writeReport(c, report, err)
}

// BatchChangeHandler accepts a batch change event from an external trigger.
func (s *Service) BatchChangeHandler(c *gin.Context) {
	var ch v1.BatchChange
	if err := s.bindJSON(c, &ch); err != nil {
		writeError(c, err)
		return
	}
	if err := ch.Validate(); err != nil {
		writeError(c, validationError(err))
		return
	}
	report, err := s.dispatcher.OnBatchChange(c.Request.Context(), &ch)
	writeReport(c, report, err)
}

// TransactionChangeHandler accepts a transaction change event from an external trigger.
func (s *Service) TransactionChangeHandler(c *gin.Context) {
	var ch v1.TransactionChange
	if err := s.bindJSON(c, &ch); err != nil {
		writeError(c, err)
		return
	}
	if err := ch.Validate(); err != nil {
		writeError(c, validationError(err))
		return
	}
	report, err := s.dispatcher.OnTransactionChange(c.Request.Context(), &ch)
	writeReport(c, report, err)
}

// bindJSON reads a size-limited body and binds it into dst.
func (s *Service) bindJSON(c *gin.Context, dst interface{}) *ingestionError {
	maxBytes := int64(s.maxBodySizeBytes)
	limitedBody := io.LimitReader(c.Request.Body, maxBytes+1) // +1 to detect oversized requests

	bodyBytes, err := io.ReadAll(limitedBody)
	if err != nil {
		slog.Error("[Ingestion] Failed to read request body", "error", err)
		return &ingestionError{
			statusCode: http.StatusInternalServerError,
			errorType:  httperr.HttpInternalError,
			message:    msgReadBodyFailed,
		}
	}

	if int64(len(bodyBytes)) > maxBytes {
		slog.Warn("[Ingestion] Request body exceeds maximum size", "size", len(bodyBytes), "max", maxBytes)
		return &ingestionError{
			statusCode: http.StatusRequestEntityTooLarge,
			errorType:  httperr.HttpInvalidJsonError,
			message:    "Request body exceeds maximum allowed size",
			details: map[string]interface{}{
				"max_size_mb": maxBytes / (1024 * 1024),
			},
		}
	}

	c.Request.Body = io.NopCloser(bytes.NewReader(bodyBytes))
	if err := c.ShouldBindJSON(dst); err != nil {
		slog.Warn("[Ingestion] Invalid JSON body received", "error", err, "payload_size", len(bodyBytes))
		return &ingestionError{
			statusCode: http.StatusBadRequest,
			errorType:  httperr.HttpInvalidJsonError,
			message:    msgInvalidJSON,
		}
	}
	return nil
}

// logDispatch logs aggregation failures that follow a committed write. The
// write stands; the report tells the caller what aggregation did.
func logDispatch(report *aggregation.Report, err error) *aggregation.Report {
	if err != nil {
		slog.Error("[Ingestion] Aggregation failed after write", "error", err)
	}
	return report
}

// writeReport answers a change event. Skips are successful outcomes; only a
// change that recomputed nothing because of failures is an error.
func writeReport(c *gin.Context, report *aggregation.Report, err error) {
	if report == nil || report.Outcome == aggregation.OutcomeFailed {
		if err != nil {
			slog.Error("[Ingestion] Change dispatch failed", "error", err)
		}
		resp := httperr.ErrorResponse{ErrorType: httperr.HttpInternalError, Message: msgAggregationError}
		if report != nil {
			resp.Details = report
		}
		c.JSON(http.StatusInternalServerError, resp)
		return
	}
	if err != nil {
		slog.Warn("[Ingestion] Change partially applied", "error", err)
	}
	c.JSON(http.StatusOK, report)
}

// writeError serializes an ingestionError as the JSON HTTP response.
func writeError(c *gin.Context, err *ingestionError) {
	c.JSON(err.statusCode, httperr.ErrorResponse{
		ErrorType: err.errorType,
		Message:   err.message,
		Details:   err.details,
	})
}
