package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/freshtally/freshtally/internal/aggregation"
	v1 "github.com/freshtally/freshtally/internal/api/v1"
	coreagg "github.com/freshtally/freshtally/internal/core/aggregation"
	"github.com/freshtally/freshtally/internal/core/storage"
)

// POS exports disagree on timestamp layouts.
var posTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// POSImportRequest carries raw sale records exactly as the POS exported them.
type POSImportRequest struct {
	Records []map[string]interface{} `json:"records"`
}

// POSImportResult summarizes an import.
type POSImportResult struct {
	Imported        int                   `json:"imported"`
	Duplicates      int                   `json:"duplicates"`
	CreatedProducts []string              `json:"created_products,omitempty"`
	Rejected        []POSRejection        `json:"rejected,omitempty"`
	Aggregation     []*aggregation.Report `json:"aggregation,omitempty"`
}

// POSRejection names a record that could not be mapped.
type POSRejection struct {
	Index int    `json:"index"`
	Error string `json:"error"`
}

// posSale is one mapped record.
type posSale struct {
	tx        v1.Transaction
	name      string
	unitPrice decimal.Decimal
}

// ImportPOSHandler maps raw POS sales onto transactions for the path store.
// Products the catalog has never seen are created with placeholder metadata.
func (s *Service) ImportPOSHandler(c *gin.Context) {
	storeID := c.Param("store_id")

	var req POSImportRequest
	if err := s.bindJSON(c, &req); err != nil {
		writeError(c, err)
		return
	}
	if len(req.Records) == 0 {
		writeError(c, validationError(errors.New("records must not be empty")))
		return
	}

	ctx := c.Request.Context()
	result := POSImportResult{}
	known := make(map[string]bool)

	for i, record := range req.Records {
		sale, err := s.mapSale(storeID, record)
		if err != nil {
			result.Rejected = append(result.Rejected, POSRejection{Index: i, Error: err.Error()})
			continue
		}

		productID := sale.tx.ProductID
		if !known[productID] {
			created, report, err := s.ensureProduct(ctx, sale)
			if err != nil {
				writeError(c, storageError(err, "product_id", productID, "store_id", storeID))
				return
			}
			if created {
				result.CreatedProducts = append(result.CreatedProducts, productID)
			}
			if report != nil {
				result.Aggregation = append(result.Aggregation, report)
			}
			known[productID] = true
		}

		if err := s.writer.CreateTransaction(ctx, &sale.tx); err != nil {
			if errors.Is(err, storage.ErrDuplicate) {
				result.Duplicates++
				continue
			}
			writeError(c, storageError(err, "transaction_id", sale.tx.TransactionID, "store_id", storeID))
			return
		}
		result.Imported++

		tx := sale.tx
		report := logDispatch(s.dispatcher.OnTransactionChange(ctx, &v1.TransactionChange{TransactionID: tx.TransactionID, After: &tx}))
		if report != nil {
			result.Aggregation = append(result.Aggregation, report)
		}
	}

	slog.Info("[Ingestion] POS import finished",
		"store_id", storeID,
		"records", len(req.Records),
		"imported", result.Imported,
		"duplicates", result.Duplicates,
		"rejected", len(result.Rejected),
		"created_products", len(result.CreatedProducts))

	c.JSON(http.StatusOK, result)
}

// ensureProduct creates a placeholder master for an unknown product.
func (s *Service) ensureProduct(ctx context.Context, sale *posSale) (bool, *aggregation.Report, error) {
	productID := sale.tx.ProductID

	_, err := s.reader.GetProduct(ctx, productID)
	if err == nil {
		return false, nil, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return false, nil, err
	}

	name := sale.name
	if name == "" {
		name = coreagg.UnknownProductName
	}
	p := &v1.ProductMaster{
		ProductID:    productID,
		Name:         name,
		Category:     coreagg.DefaultCategory,
		SellingPrice: sale.unitPrice,
		UpdatedAt:    s.nowFn(),
	}
	before, err := s.writer.UpsertProduct(ctx, p)
	if err != nil {
		return false, nil, err
	}
	slog.Info("[Ingestion] Created product from POS sale", "product_id", productID, "name", name)

	report := logDispatch(s.dispatcher.OnMasterChange(ctx, &v1.MasterChange{ProductID: productID, Before: before, After: p}))
	return true, report, nil
}

// mapSale applies the field map to one raw record.
func (s *Service) mapSale(storeID string, record map[string]interface{}) (*posSale, error) {
	fm := s.fieldMap

	productID := extractString(record, fm.Source(FieldProductID))
	if productID == "" {
		productID = extractString(record, fm.Source(FieldSKU))
	}
	if productID == "" {
		return nil, fmt.Errorf("record has neither %s nor %s", FieldProductID, FieldSKU)
	}

	at := s.nowFn()
	if raw := extractString(record, fm.Source(FieldTimestamp)); raw != "" {
		parsed, err := parsePOSTime(raw)
		if err != nil {
			return nil, err
		}
		at = parsed
	}

	quantity := coreagg.ExtractQuantity(record, fm.Source(FieldQuantity))
	if quantity < 0 {
		return nil, fmt.Errorf("%s must not be negative", FieldQuantity)
	}

	transactionID := extractString(record, fm.Source(FieldTransactionID))
	if transactionID == "" {
		transactionID = uuid.NewString()
	}

	return &posSale{
		tx: v1.Transaction{
			TransactionID:   transactionID,
			ProductID:       productID,
			StoreID:         storeID,
			Quantity:        quantity,
			TransactionDate: at,
		},
		name:      extractString(record, fm.Source(FieldProductName)),
		unitPrice: coreagg.ExtractDecimal(record, fm.Source(FieldUnitPrice)),
	}, nil
}

func parsePOSTime(raw string) (time.Time, error) {
	for _, layout := range posTimeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized %s %q", FieldTimestamp, raw)
}

// extractString reads an identifier-like field. Numeric SKUs are common, so
// numbers are formatted without exponent.
func extractString(data map[string]interface{}, field string) string {
	v, ok := data[field]
	if !ok || v == nil {
		return ""
	}
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	default:
		return strings.TrimSpace(fmt.Sprint(val))
	}
}
