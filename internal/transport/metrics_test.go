package transport

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/shelf/internal/events"
	"github.com/roach88/shelf/internal/migration"
)

func TestMetricsFromEvents(t *testing.T) {
	f := newAPI(t, migration.V2)
	f.do(t, http.MethodPost, "/api/v1/products", admin, productBody{ID: 1, Name: "Cola", Price: 100, Stock: 5})
	f.do(t, http.MethodPost, "/api/v1/products/1/purchase", "bob", purchaseBody{Paid: 130})
	f.do(t, http.MethodPost, "/api/v1/products/1/purchase", "bob", purchaseBody{Paid: 100})
	f.do(t, http.MethodPost, "/api/v1/withdraw", admin, nil)

	f.shop.Bus().Drain(context.Background())

	assert.Equal(t, 2.0, testutil.ToFloat64(f.metrics.events.WithLabelValues(events.TypeProductPurchased)))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.events.WithLabelValues(events.TypeProductAdded)))
	assert.Equal(t, 200.0, testutil.ToFloat64(f.metrics.revenue))
	assert.Equal(t, 30.0, testutil.ToFloat64(f.metrics.refunded))
	assert.Equal(t, 200.0, testutil.ToFloat64(f.metrics.withdrawn))
}

func TestMetricsEndpoint(t *testing.T) {
	f := newAPI(t, migration.V2)
	f.do(t, http.MethodPost, "/api/v1/products", admin, productBody{ID: 1, Name: "Cola", Price: 100, Stock: 5})
	f.do(t, http.MethodGet, "/api/v1/products/1", "", nil)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	text := string(body)
	assert.Contains(t, text, `shelf_http_requests_total{method="GET",route="/api/v1/products/{id:[0-9]+}",status="200"} 1`)
	assert.Contains(t, text, "shelf_products_live 1")
	assert.Contains(t, text, "shelf_custodied_balance 0")
}
