package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/giovaniif/vending/domain/bank"
	"github.com/giovaniif/vending/infra/config"
	"github.com/giovaniif/vending/infra/events"
	"github.com/giovaniif/vending/infra/gateways"
	"github.com/giovaniif/vending/infra/metrics"
	"github.com/giovaniif/vending/infra/repositories"
	"github.com/giovaniif/vending/use_cases/purchase"
	"github.com/giovaniif/vending/use_cases/stock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testMachine struct {
	router    *gin.Engine
	register  *bank.Bank
	publisher *events.PublisherMemory
}

func newTestMachine(t *testing.T, rdb *redis.Client) *testMachine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	machine := config.DefaultMachine()
	itemRepository, err := repositories.NewItemRepositoryMemoryWith(machine.Catalog)
	require.NoError(t, err)
	register, err := bank.New(machine.InitialTotal, machine.Coins)
	require.NoError(t, err)
	publisher := events.NewPublisherMemory()
	registry := prometheus.NewRegistry()
	recorder := metrics.NewRecorder(registry)

	router := NewRouter(Dependencies{
		Currency: machine.Currency,
		Stock:    stock.NewStock(itemRepository, zerolog.Nop()),
		Purchase: purchase.NewPurchase(itemRepository, register, gateways.NewPurchaseGatewayMemory(), publisher, recorder, zerolog.Nop()),
		Bank:     register,
		Redis:    rdb,
		Metrics:  metrics.NewHTTP(registry),
		Gatherer: registry,
		Logger:   zerolog.Nop(),
	})
	return &testMachine{router: router, register: register, publisher: publisher}
}

func (m *testMachine) do(t *testing.T, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var payload bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&payload).Encode(body))
	}
	req := httptest.NewRequest(method, path, &payload)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	m.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestListItems(t *testing.T) {
	m := newTestMachine(t, nil)

	w := m.do(t, http.MethodGet, "/items", nil, nil)

	require.Equal(t, http.StatusOK, w.Code)
	items := decode[[]itemResponse](t, w)
	require.Len(t, items, 3)
	assert.Equal(t, "Cola", items[0].Name)
	assert.Equal(t, "1.50", items[0].Price)
	assert.Equal(t, "1. Cola - £1.50", items[0].Display)
}

func TestAddAndRemoveItem(t *testing.T) {
	m := newTestMachine(t, nil)

	w := m.do(t, http.MethodPost, "/items", map[string]any{"id": 4, "name": "Water", "price": "£0.80"}, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "0.80", decode[itemResponse](t, w).Price)

	w = m.do(t, http.MethodPost, "/items", map[string]any{"id": 4, "name": "Water", "price": "0.80"}, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	items := decode[[]itemResponse](t, m.do(t, http.MethodGet, "/items", nil, nil))
	count := 0
	for _, it := range items {
		if it.Id == 4 {
			count++
		}
	}
	assert.Equal(t, 1, count)

	w = m.do(t, http.MethodDelete, "/items/4", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = m.do(t, http.MethodDelete, "/items/4", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = m.do(t, http.MethodDelete, "/items/four", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAddItemValidation(t *testing.T) {
	m := newTestMachine(t, nil)

	testCases := []struct {
		name string
		body map[string]any
	}{
		{"missing id", map[string]any{"name": "Water", "price": "1"}},
		{"empty name", map[string]any{"id": 5, "name": " ", "price": "1"}},
		{"negative price", map[string]any{"id": 5, "name": "Water", "price": "-1"}},
		{"malformed price", map[string]any{"id": 5, "name": "Water", "price": "one"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := m.do(t, http.MethodPost, "/items", tc.body, nil)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestPurchase(t *testing.T) {
	m := newTestMachine(t, nil)

	w := m.do(t, http.MethodPost, "/purchase", PurchaseRequest{ItemId: 2, Tendered: "£2.00"}, nil)

	require.Equal(t, http.StatusOK, w.Code)
	response := decode[purchaseResponse](t, w)
	assert.True(t, response.Change.Equal(decimal.RequireFromString("0.75")))
	assert.Len(t, response.Dispensed, 3)
	assert.Equal(t, "Payment successful. Change: £0.75", response.Message)
	assert.False(t, response.Replayed)
	assert.Len(t, m.publisher.Published(), 1)

	bankState := decode[bankResponse](t, m.do(t, http.MethodGet, "/bank", nil, nil))
	assert.Equal(t, "1.25", bankState.Total)
	assert.Equal(t, "£", bankState.Currency)
}

func TestPurchaseErrors(t *testing.T) {
	m := newTestMachine(t, nil)

	testCases := []struct {
		name    string
		request PurchaseRequest
		status  int
	}{
		{"unknown item", PurchaseRequest{ItemId: 42, Tendered: "5"}, http.StatusNotFound},
		{"insufficient funds", PurchaseRequest{ItemId: 1, Tendered: "1.00"}, http.StatusPaymentRequired},
		{"negative amount", PurchaseRequest{ItemId: 1, Tendered: "-2"}, http.StatusBadRequest},
		{"malformed amount", PurchaseRequest{ItemId: 1, Tendered: "two pounds"}, http.StatusBadRequest},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := m.do(t, http.MethodPost, "/purchase", tc.request, nil)
			assert.Equal(t, tc.status, w.Code)
		})
	}
	assert.True(t, m.register.Total().IsZero())
	assert.Empty(t, m.publisher.Published())
}

func TestPurchaseIdempotencyKeyReplays(t *testing.T) {
	m := newTestMachine(t, nil)
	headers := map[string]string{"Idempotency-Key": "order-1"}

	first := decode[purchaseResponse](t, m.do(t, http.MethodPost, "/purchase", PurchaseRequest{ItemId: 1, Tendered: "2"}, headers))
	w := m.do(t, http.MethodPost, "/purchase", PurchaseRequest{ItemId: 1, Tendered: "2"}, headers)

	require.Equal(t, http.StatusOK, w.Code)
	second := decode[purchaseResponse](t, w)
	assert.True(t, second.Replayed)
	assert.Equal(t, first.TransactionId, second.TransactionId)
	count, _ := m.register.Count(decimal.RequireFromString("0.50"))
	assert.Equal(t, 9, count)
	assert.Equal(t, "1.50", m.register.Total().StringFixed(2))
}

func TestHealth(t *testing.T) {
	m := newTestMachine(t, nil)
	body := decode[map[string]any](t, m.do(t, http.MethodGet, "/health", nil, nil))
	assert.Equal(t, "healthy", body["status"])

	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()
	m = newTestMachine(t, rdb)

	body = decode[map[string]any](t, m.do(t, http.MethodGet, "/health", nil, nil))
	assert.Equal(t, map[string]any{"redis": "up"}, body["checks"])

	mr.Close()
	body = decode[map[string]any](t, m.do(t, http.MethodGet, "/health", nil, nil))
	assert.Equal(t, "degraded", body["status"])
}

func TestRequestIdHeader(t *testing.T) {
	m := newTestMachine(t, nil)
	w := m.do(t, http.MethodGet, "/items", nil, map[string]string{"X-Request-ID": "abc"})
	assert.Equal(t, "abc", w.Header().Get("X-Request-ID"))
}

func TestMetricsEndpoint(t *testing.T) {
	m := newTestMachine(t, nil)
	m.do(t, http.MethodDelete, "/items/77", nil, nil)
	m.do(t, http.MethodPost, "/purchase", PurchaseRequest{ItemId: 1, Tendered: "2"}, nil)

	w := m.do(t, http.MethodGet, "/metrics", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `http_requests_total{method="DELETE",route="/items/:id",status="404"} 1`)
	assert.Contains(t, body, `vending_purchases_total{outcome="succeeded"} 1`)
	assert.NotContains(t, body, `route="/metrics"`)
}
