package projection

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	v1 "github.com/freshtally/freshtally/internal/api/v1"
	httperr "github.com/freshtally/freshtally/internal/core/errors"
)

func newTestRouter(svc *Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	svc.RegisterRoutes(r)
	return r
}

func serve(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestHandlers_StatusMapping(t *testing.T) {
	tests := []struct {
		name           string
		method         string
		path           string
		body           string
		storeErr       error
		expectedStatus int
		expectedType   string
	}{
		{
			name:           "get existing product",
			method:         http.MethodGet,
			path:           "/v1/stores/S1/products/P1",
			expectedStatus: http.StatusOK,
		},
		{
			name:           "get missing product returns 404",
			method:         http.MethodGet,
			path:           "/v1/stores/S1/products/P9",
			expectedStatus: http.StatusNotFound,
			expectedType:   httperr.HttpNotFoundError,
		},
		{
			name:           "store failure returns 500",
			method:         http.MethodGet,
			path:           "/v1/stores/S1/products/P1",
			storeErr:       errors.New("db failure"),
			expectedStatus: http.StatusInternalServerError,
			expectedType:   httperr.HttpInternalError,
		},
		{
			name:           "list with bad sort returns 400",
			method:         http.MethodGet,
			path:           "/v1/stores/S1/products?sort=price",
			expectedStatus: http.StatusBadRequest,
			expectedType:   httperr.HttpValidationError,
		},
		{
			name:           "discount on missing product returns 404",
			method:         http.MethodPatch,
			path:           "/v1/stores/S1/products/P9/discount",
			body:           `{"discount_percentage":"10"}`,
			expectedStatus: http.StatusNotFound,
			expectedType:   httperr.HttpNotFoundError,
		},
		{
			name:           "discount with malformed body returns 400",
			method:         http.MethodPatch,
			path:           "/v1/stores/S1/products/P1/discount",
			body:           `{"discount_percentage":`,
			expectedStatus: http.StatusBadRequest,
			expectedType:   httperr.HttpInvalidJsonError,
		},
		{
			name:           "summary with bad window returns 400",
			method:         http.MethodGet,
			path:           "/v1/stores/S1/summary?expiring_within=soon",
			expectedStatus: http.StatusBadRequest,
			expectedType:   httperr.HttpInvalidRequestError,
		},
		{
			name:           "notifications with bad limit returns 400",
			method:         http.MethodGet,
			path:           "/v1/stores/S1/notifications?limit=ten",
			expectedStatus: http.StatusBadRequest,
			expectedType:   httperr.HttpInvalidRequestError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			aggs := newFakeAggregates(product("S1", "P1", "Milk", "Dairy", 10, 3, nil))
			aggs.err = tt.storeErr
			svc, _, _ := newTestService(aggs)

			resp := serve(newTestRouter(svc), tt.method, tt.path, tt.body)

			require.Equal(t, tt.expectedStatus, resp.Code, resp.Body.String())
			if tt.expectedType != "" {
				var body httperr.ErrorResponse
				require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
				require.Equal(t, tt.expectedType, body.ErrorType)
			}
		})
	}
}

func TestHandleUpdateDiscount_Success(t *testing.T) {
	aggs := newFakeAggregates(product("S1", "P1", "Milk", "Dairy", 10, 3, nil))
	svc, _, _ := newTestService(aggs)

	resp := serve(newTestRouter(svc), http.MethodPatch, "/v1/stores/S1/products/P1/discount",
		`{"discount_percentage":"25","discount_expiry":"2024-06-03T00:00:00Z"}`)

	require.Equal(t, http.StatusOK, resp.Code)
	require.NotNil(t, aggs.lastUpdate)
	require.NotNil(t, aggs.lastUpdate.DiscountExpiry)
	require.True(t, aggs.lastUpdate.DiscountExpiry.Equal(time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	require.Equal(t, "25", body["discount_percentage"])
}

func TestHandleListProducts_Success(t *testing.T) {
	aggs := newFakeAggregates(
		product("S1", "P1", "Milk", "Dairy", 10, 3, nil),
		product("S1", "P2", "Bread", "Bakery", 0, 5, nil),
	)
	svc, _, _ := newTestService(aggs)

	resp := serve(newTestRouter(svc), http.MethodGet, "/v1/stores/S1/products?category=bakery", "")

	require.Equal(t, http.StatusOK, resp.Code)
	var body ProductListResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	require.Equal(t, "S1", body.StoreID)
	require.Len(t, body.Products, 1)
	require.Equal(t, "P2", body.Products[0].ProductID)
}

func TestHandleListNotifications_EmptyIsArray(t *testing.T) {
	svc, notes, _ := newTestService(newFakeAggregates())
	notes.notes = append(notes.notes, &v1.Notification{ID: "n1", StoreID: "S2"})

	resp := serve(newTestRouter(svc), http.MethodGet, "/v1/stores/S1/notifications", "")

	require.Equal(t, http.StatusOK, resp.Code)
	require.JSONEq(t, `{"notifications":[]}`, resp.Body.String())
}

func TestHandleRebuildStoreIndex(t *testing.T) {
	svc, _, _ := newTestService(newFakeAggregates())

	resp := serve(newTestRouter(svc), http.MethodPost, "/v1/admin/store-index/rebuild", "")

	require.Equal(t, http.StatusOK, resp.Code)
	require.JSONEq(t, `{"pairs":7}`, resp.Body.String())
}

func TestHandleSummary(t *testing.T) {
	aggs := newFakeAggregates(product("S1", "P1", "Milk", "Dairy", 10, 3, at(time.Hour)))
	svc, _, _ := newTestService(aggs)

	resp := serve(newTestRouter(svc), http.MethodGet, "/v1/stores/S1/summary?expiring_within=2h", "")

	require.Equal(t, http.StatusOK, resp.Code)
	var body StoreSummary
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	require.Equal(t, 1, body.ExpiringSoon)
	require.Equal(t, "2h0m0s", body.ExpiringWithin)
}
