package inventory

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/lotledger/internal/costing"
	"github.com/odyssey-erp/lotledger/internal/dataset"
	"github.com/odyssey-erp/lotledger/internal/docstore"
	"github.com/odyssey-erp/lotledger/internal/platform/cache"
)

const shopDocument = `{
  "business": {"name": "Corner Shop", "currency": "USD"},
  "items": [
    {"id": "x", "name": "Widget", "purchasePrice": 90, "lowStockThreshold": 5},
    {"id": "y", "name": "Gadget", "purchasePrice": 50}
  ],
  "purchases": [
    {"id": "p1", "date": "2024-01-01", "items": [{"itemId": "x", "quantity": 20, "unit_price_local": 100}]},
    {"id": "p2", "date": "2024-01-02", "currency": "EUR", "fx_rate_to_business": 1.1, "items": [{"itemId": "x", "quantity": 10, "unit_price_foreign": 100}]}
  ],
  "sales": [
    {"id": "s1", "date": "2024-01-03", "items": [{"itemId": "x", "quantity": 25, "price": 150}], "discount": {"type": "flat", "value": 50}},
    {"id": "s2", "date": "2024-01-04", "items": [{"itemId": "y", "quantity": 4, "price": "$80"}]}
  ],
  "payments": []
}`

type countingStore struct {
	docstore.Store
	loads int
	fail  error
}

func (s *countingStore) Load(ctx context.Context, id string) (*dataset.Document, int64, error) {
	s.loads++
	if s.fail != nil {
		return nil, 0, s.fail
	}
	return s.Store.Load(ctx, id)
}

func seededStore(t *testing.T) *countingStore {
	t.Helper()
	mem := docstore.NewMemoryStore()
	doc, err := dataset.ParseDocument([]byte(shopDocument))
	require.NoError(t, err)
	_, err = mem.Save(context.Background(), "business", doc)
	require.NoError(t, err)
	return &countingStore{Store: mem}
}

func TestServiceStock(t *testing.T) {
	svc := NewService(seededStore(t), nil, ServiceConfig{}, nil)

	view, err := svc.Stock(context.Background())
	require.NoError(t, err)
	require.Equal(t, "business", view.DatasetID)
	require.Equal(t, int64(1), view.Revision)
	require.Len(t, view.Rows, 2)

	x := view.Rows[0]
	require.True(t, x.OnHand.Equal(dec("5")))
	require.True(t, x.StockValue.Equal(dec("550")))
	require.Equal(t, costing.StatusLowStock, x.Status)
	require.Equal(t, "2024-01-03", x.LastSaleDate)

	y := view.Rows[1]
	require.Equal(t, costing.StatusOutOfStock, y.Status)
	require.True(t, y.LastSalePrice.Equal(dec("80")))

	require.True(t, view.Totals.COGS.Equal(dec("2750")))
	require.True(t, view.Totals.Unbacked["y"].Equal(dec("4")))
}

func TestServiceSaleProfit(t *testing.T) {
	svc := NewService(seededStore(t), nil, ServiceConfig{DatasetID: "business"}, nil)

	profit, err := svc.SaleProfit(context.Background(), "s1")
	require.NoError(t, err)
	require.True(t, profit.COGS.Equal(dec("2550")))
	require.True(t, profit.TotalProfit.Equal(dec("1150")))

	_, err = svc.SaleProfit(context.Background(), "nope")
	require.ErrorIs(t, err, ErrSaleNotFound)

	costs, err := svc.SaleCosts(context.Background())
	require.NoError(t, err)
	require.True(t, costs["s2"].COGS.Equal(dec("200")))
}

func TestServiceMissingDataset(t *testing.T) {
	svc := NewService(docstore.NewMemoryStore(), nil, ServiceConfig{DatasetID: "ghost"}, nil)
	_, err := svc.Stock(context.Background())
	require.ErrorIs(t, err, ErrDatasetNotFound)

	broken := &countingStore{fail: errors.New("connection refused")}
	_, err = NewService(broken, nil, ServiceConfig{}, nil).Stock(context.Background())
	require.ErrorContains(t, err, "connection refused")
	require.NotErrorIs(t, err, ErrDatasetNotFound)
}

func TestServiceCachesReportPerRevision(t *testing.T) {
	ctx := context.Background()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	c := cache.NewCache(client, time.Minute)

	store := seededStore(t)
	svc := NewService(store, c, ServiceConfig{}, nil)

	first, err := svc.Stock(ctx)
	require.NoError(t, err)
	require.True(t, srv.Exists("inventory:report:business:1:1"))

	second, err := svc.Stock(ctx)
	require.NoError(t, err)
	require.True(t, first.Totals.COGS.Equal(second.Totals.COGS))
	require.Equal(t, first.Rows[0].LastSaleDate, second.Rows[0].LastSaleDate)

	// a new revision produces a new key
	doc, _, err := store.Store.Load(ctx, "business")
	require.NoError(t, err)
	_, err = store.Store.Save(ctx, "business", doc)
	require.NoError(t, err)
	_, err = svc.Stock(ctx)
	require.NoError(t, err)
	require.True(t, srv.Exists("inventory:report:business:2:1"))

	require.NoError(t, c.Bump(ctx))
	_, err = svc.Stock(ctx)
	require.NoError(t, err)
	require.True(t, srv.Exists("inventory:report:business:2:2"))
}

func TestServiceFallsBackWhenCacheDown(t *testing.T) {
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	srv.Close()

	svc := NewService(seededStore(t), cache.NewCache(client, time.Minute), ServiceConfig{}, nil)
	view, err := svc.Stock(context.Background())
	require.NoError(t, err)
	require.True(t, view.Rows[0].StockValue.Equal(dec("550")))
}

func TestRefreshValuation(t *testing.T) {
	out, err := NewService(seededStore(t), nil, ServiceConfig{}, nil).RefreshValuation(context.Background())
	require.NoError(t, err)
	require.Equal(t, Refresh{DatasetID: "business", Revision: 1, Items: 2, LowStock: 1, OutOfStock: 1, Unbacked: 1}, out)
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	r := chi.NewRouter()
	r.Route("/api", NewHandler(nil, NewService(seededStore(t), nil, ServiceConfig{}, nil)).MountRoutes)
	return r
}

func TestHandlerRoutes(t *testing.T) {
	router := newTestRouter(t)

	cases := []struct {
		path        string
		status      int
		contentType string
	}{
		{"/api/stock", http.StatusOK, "application/json"},
		{"/api/stock?format=csv", http.StatusOK, "text/csv; charset=utf-8"},
		{"/api/stock?format=xlsx", http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"},
		{"/api/stock?format=pdf", http.StatusBadRequest, "application/problem+json"},
		{"/api/stock/summary", http.StatusOK, "application/json"},
		{"/api/stock/summary?format=csv", http.StatusOK, "text/csv; charset=utf-8"},
		{"/api/sales/costs", http.StatusOK, "application/json"},
		{"/api/sales/s1/profit", http.StatusOK, "application/json"},
		{"/api/sales/zzz/profit", http.StatusNotFound, "application/problem+json"},
	}
	for _, tc := range cases {
		t.Run(tc.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tc.path, nil))
			require.Equal(t, tc.status, rec.Code)
			require.Equal(t, tc.contentType, rec.Header().Get("Content-Type"))
		})
	}
}

func TestHandlerProfitBody(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestRouter(t).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sales/s1/profit", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		TotalProfit string `json:"totalProfit"`
		ItemProfits map[string]struct {
			UnitCOGS string `json:"unitCogs"`
		} `json:"itemProfits"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "1150", body.TotalProfit)
	require.Equal(t, "102", body.ItemProfits["x"].UnitCOGS)
}
