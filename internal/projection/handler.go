package projection

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	v1 "github.com/freshtally/freshtally/internal/api/v1"
	"github.com/freshtally/freshtally/internal/core/aggregation"
	httperr "github.com/freshtally/freshtally/internal/core/errors"
	"github.com/freshtally/freshtally/internal/core/storage"
)

// RegisterRoutes registers all projection API routes on the given router.
func (s *Service) RegisterRoutes(r gin.IRouter) {
	stores := r.Group("/v1/stores/:store_id")
	stores.GET("/products", s.HandleListProducts)
	stores.GET("/products/:product_id", s.HandleGetProduct)
	stores.PATCH("/products/:product_id/discount", s.HandleUpdateDiscount)
	stores.GET("/summary", s.HandleSummary)
	stores.GET("/notifications", s.HandleListNotifications)

	r.POST("/v1/admin/store-index/rebuild", s.HandleRebuildStoreIndex)
}

type productURI struct {
	StoreID   string `uri:"store_id" binding:"required"`
	ProductID string `uri:"product_id" binding:"required"`
}

// HandleListProducts handles GET /v1/stores/:store_id/products
// Query parameters: category, sort
func (s *Service) HandleListProducts(c *gin.Context) {
	var query ListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		writeBadRequest(c, "Invalid query parameters", err)
		return
	}

	storeID := c.Param("store_id")
	products, err := s.ListProducts(c.Request.Context(), storeID, query)
	if err != nil {
		writeQueryError(c, "Failed to list products", err)
		return
	}
	c.JSON(http.StatusOK, ProductListResponse{StoreID: storeID, Products: products})
}

// HandleGetProduct handles GET /v1/stores/:store_id/products/:product_id
func (s *Service) HandleGetProduct(c *gin.Context) {
	var uri productURI
	if err := c.ShouldBindUri(&uri); err != nil {
		writeBadRequest(c, "Invalid path parameters", err)
		return
	}

	p, err := s.GetProduct(c.Request.Context(), aggregation.Key{StoreID: uri.StoreID, ProductID: uri.ProductID})
	if err != nil {
		writeQueryError(c, "Failed to get product", err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// HandleUpdateDiscount handles PATCH /v1/stores/:store_id/products/:product_id/discount
func (s *Service) HandleUpdateDiscount(c *gin.Context) {
	var uri productURI
	if err := c.ShouldBindUri(&uri); err != nil {
		writeBadRequest(c, "Invalid path parameters", err)
		return
	}

	var update v1.DiscountUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpInvalidJsonError,
			Message:   "Invalid JSON body",
		})
		return
	}

	p, err := s.UpdateDiscount(c.Request.Context(), aggregation.Key{StoreID: uri.StoreID, ProductID: uri.ProductID}, &update)
	if err != nil {
		writeQueryError(c, "Failed to update discount", err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// HandleSummary handles GET /v1/stores/:store_id/summary
// Query parameters: expiring_within (Go duration, default 72h)
func (s *Service) HandleSummary(c *gin.Context) {
	var within time.Duration
	if raw := c.Query("expiring_within"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			writeBadRequest(c, "Invalid query parameters", errors.New("expiring_within must be a positive duration"))
			return
		}
		within = d
	}

	summary, err := s.Summary(c.Request.Context(), c.Param("store_id"), within)
	if err != nil {
		writeQueryError(c, "Failed to summarize store", err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// HandleListNotifications handles GET /v1/stores/:store_id/notifications
// Query parameters: limit
func (s *Service) HandleListNotifications(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeBadRequest(c, "Invalid query parameters", err)
			return
		}
		limit = n
	}

	notes, err := s.ListNotifications(c.Request.Context(), c.Param("store_id"), limit)
	if err != nil {
		writeQueryError(c, "Failed to list notifications", err)
		return
	}
	if notes == nil {
		notes = []*v1.Notification{}
	}
	c.JSON(http.StatusOK, gin.H{"notifications": notes})
}

// HandleRebuildStoreIndex handles POST /v1/admin/store-index/rebuild
func (s *Service) HandleRebuildStoreIndex(c *gin.Context) {
	pairs, err := s.RebuildStoreIndex(c.Request.Context())
	if err != nil {
		writeQueryError(c, "Failed to rebuild store index", err)
		return
	}
	c.JSON(http.StatusOK, RebuildResponse{Pairs: pairs})
}

func writeBadRequest(c *gin.Context, message string, err error) {
	c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
		ErrorType: httperr.HttpInvalidRequestError,
		Message:   message,
		Details:   err.Error(),
	})
}

// writeQueryError maps service errors: invalid input is 400, a missing
// record is 404, anything else is 500.
func writeQueryError(c *gin.Context, message string, err error) {
	switch {
	case errors.Is(err, ErrInvalidQuery):
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpValidationError,
			Message:   message,
			Details:   err.Error(),
		})
	case errors.Is(err, storage.ErrNotFound):
		c.JSON(http.StatusNotFound, httperr.ErrorResponse{
			ErrorType: httperr.HttpNotFoundError,
			Message:   message,
			Details:   err.Error(),
		})
	default:
		slog.Error("[Projection] Request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, httperr.ErrorResponse{
			ErrorType: httperr.HttpInternalError,
			Message:   message,
			Details:   err.Error(),
		})
	}
}
