package ideris

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/supportops/operations-service/internal/domain"
	"github.com/supportops/operations-service/pkg/logging"
	"github.com/supportops/operations-service/pkg/metrics"
)

const testSecret = "test-private-key"

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	logger := logging.New(&logging.Config{
		Level:       logging.LevelError,
		ServiceName: "operations-service-test",
		Output:      io.Discard,
	})

	client := NewClient(&Config{
		BaseURL:    server.URL,
		PrivateKey: testSecret,
		Timeout:    5 * time.Second,
	}, logger, metrics.New(metrics.DefaultConfig("ideris-test")))

	return client, server
}

// loginHandler answers POST /Login and delegates everything else
func loginHandler(t *testing.T, tokenBody string, next http.HandlerFunc) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && r.URL.Path == "/Login" {
			body, err := io.ReadAll(r.Body)
			require.NoError(t, err)
			assert.Equal(t, `"`+testSecret+`"`, string(body))
			w.Write([]byte(tokenBody))
			return
		}
		assert.Equal(t, "Bearer the-token", r.Header.Get("Authorization"))
		next(w, r)
	})
}

// TestParseToken tests the login response token shapes
func TestParseToken(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		expected  string
		expectErr bool
	}{
		{
			name:     "Object with token field",
			body:     `{"token":"abc.def.ghi"}`,
			expected: "abc.def.ghi",
		},
		{
			name:     "Object with jwt field",
			body:     `{"jwt":"abc.def.ghi"}`,
			expected: "abc.def.ghi",
		},
		{
			name:     "JSON string",
			body:     `"some-opaque-token"`,
			expected: "some-opaque-token",
		},
		{
			name:     "Quoted three-segment token with surrounding whitespace",
			body:     "  \"eyJhb.eyJzd.SflKx\"\n",
			expected: "eyJhb.eyJzd.SflKx",
		},
		{
			name:     "Bare three-segment token",
			body:     "eyJhb.eyJzd.SflKx",
			expected: "eyJhb.eyJzd.SflKx",
		},
		{
			name:      "Unrecognizable body",
			body:      `{"message":"ok"}`,
			expectErr: true,
		},
		{
			name:      "Empty body",
			body:      "",
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := parseToken([]byte(tt.body))
			if tt.expectErr {
				assert.ErrorIs(t, err, domain.ErrUnauthorized)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.expected, token)
			}
		})
	}
}

// TestAuthenticateLazy tests that the first call logs in once and reuses the token
func TestAuthenticateLazy(t *testing.T) {
	logins := 0
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/Login" {
			logins++
			w.Write([]byte(`{"token":"the-token"}`))
			return
		}
		assert.Equal(t, "Bearer the-token", r.Header.Get("Authorization"))
		w.Write([]byte(`{"obj":[]}`))
	})

	client, _ := newTestClient(t, handler)

	_, err := client.SearchSKUs(context.Background(), []string{"SKU-1"})
	require.NoError(t, err)
	_, err = client.SearchSKUs(context.Background(), []string{"SKU-2"})
	require.NoError(t, err)

	assert.Equal(t, 1, logins)
}

// TestFindOrderDirect tests the direct order lookup
func TestFindOrderDirect(t *testing.T) {
	handler := loginHandler(t, `{"token":"the-token"}`, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/order/PED-001", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"obj": map[string]interface{}{
				"id":                12345,
				"code":              "PED-001",
				"statusDescription": "Pago",
				"statusId":          2,
				"customer":          map[string]interface{}{"name": "Maria Silva"},
				"items":             []map[string]interface{}{{"image": "item.jpg"}},
			},
		})
	})

	client, _ := newTestClient(t, handler)

	order, err := client.FindOrder(context.Background(), "PED-001")
	require.NoError(t, err)
	assert.Equal(t, "12345", order.ID)
	assert.Equal(t, "PED-001", order.Code)
	assert.Equal(t, "Pago", order.Status)
	assert.Equal(t, 2, order.StatusID)
	assert.Equal(t, "Maria Silva", order.Customer)
	assert.Equal(t, "item.jpg", order.ItemImage)
}

// TestFindOrderFallbackSearch tests the search fallback after a direct miss
func TestFindOrderFallbackSearch(t *testing.T) {
	handler := loginHandler(t, `{"token":"the-token"}`, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/order/PED-002" {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		require.Equal(t, "/order/search", r.URL.Path)
		assert.Equal(t, "PED-002", r.URL.Query().Get("orderCode"))
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
		json.NewEncoder(w).Encode(map[string]interface{}{
			"items": []map[string]interface{}{
				{"id": 777, "orderCode": "PED-002", "status": "Enviado"},
			},
		})
	})

	client, _ := newTestClient(t, handler)

	order, err := client.FindOrder(context.Background(), "PED-002")
	require.NoError(t, err)
	assert.Equal(t, "PED-002", order.Code)
	assert.Equal(t, "Enviado", order.Status)
}

// TestFindOrderNotFound tests an order missing from both lookups
func TestFindOrderNotFound(t *testing.T) {
	handler := loginHandler(t, `{"token":"the-token"}`, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/order/search" {
			w.Write([]byte(`{"obj":[]}`))
			return
		}
		http.Error(w, "not found", http.StatusNotFound)
	})

	client, _ := newTestClient(t, handler)

	_, err := client.FindOrder(context.Background(), "PED-404")
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}

// TestSearchSKUs tests the multi-SKU search and product normalization
func TestSearchSKUs(t *testing.T) {
	handler := loginHandler(t, `{"token":"the-token"}`, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/sku/search", r.URL.Path)
		assert.Equal(t, []string{"SKU-1", "SKU-2", "SKU-3", "SKU-4"}, r.URL.Query()["sku"])
		w.Write([]byte(`{"obj":[
			{"id":1,"sku":"SKU-1","title":"Produto A","thumbnail":"thumb.jpg","image":"full.jpg","stocks":[{"currentStock":3},{"currentStock":5}]},
			{"id":2,"sku":"SKU-2","title":"Produto B","image":"full-b.jpg","stockAmount":4,"stocks":[]},
			{"id":3,"sku":"SKU-3","title":"Produto C","stockAmount":9},
			{"id":4,"sku":"SKU-4","nome":"Produto Alternativo","stocks":[{"currentStock":2}]}
		]}`))
	})

	client, _ := newTestClient(t, handler)

	products, err := client.SearchSKUs(context.Background(), []string{"SKU-1", "SKU-2", "SKU-3", "SKU-4"})
	require.NoError(t, err)
	require.Len(t, products, 4)

	assert.Equal(t, 8, products[0].StockAmount)
	assert.Equal(t, "thumb.jpg", products[0].ImageURL)

	// An empty stocks array overrides the direct field
	assert.Equal(t, 0, products[1].StockAmount)
	assert.Equal(t, "full-b.jpg", products[1].ImageURL)

	// No stocks array falls back to the direct field
	assert.Equal(t, 9, products[2].StockAmount)

	// A missing title falls back to the alternate name field
	assert.Equal(t, "Produto Alternativo", products[3].Title)
	assert.Equal(t, 2, products[3].StockAmount)
}

// TestSearchSKUsEmptyResult tests that no matches is not an error
func TestSearchSKUsEmptyResult(t *testing.T) {
	handler := loginHandler(t, `{"token":"the-token"}`, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"obj":[]}`))
	})

	client, _ := newTestClient(t, handler)

	products, err := client.SearchSKUs(context.Background(), []string{"SKU-MISSING"})
	require.NoError(t, err)
	assert.Empty(t, products)
}

// TestUpdateStock tests the stock mutation payload
func TestUpdateStock(t *testing.T) {
	handler := loginHandler(t, `{"token":"the-token"}`, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		require.Equal(t, "/sku/stock", r.URL.Path)

		var payload map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "SKU-1", payload["sku"])
		assert.Equal(t, float64(15), payload["currentStock"])

		w.Write([]byte(`{"obj":true}`))
	})

	client, _ := newTestClient(t, handler)

	err := client.UpdateStock(context.Background(), "SKU-1", 15)
	require.NoError(t, err)
}

// TestUpdateStockRemoteFailure tests that a remote error is surfaced
func TestUpdateStockRemoteFailure(t *testing.T) {
	handler := loginHandler(t, `{"token":"the-token"}`, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	client, _ := newTestClient(t, handler)

	err := client.UpdateStock(context.Background(), "SKU-1", 15)
	assert.Error(t, err)
}

// TestUnauthorizedNotRetried tests that a 401 mid-session is not retried with a fresh login
func TestUnauthorizedNotRetried(t *testing.T) {
	logins := 0
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/Login" {
			logins++
			w.Write([]byte(`{"token":"the-token"}`))
			return
		}
		http.Error(w, "expired", http.StatusUnauthorized)
	})

	client, _ := newTestClient(t, handler)

	_, err := client.SearchSKUs(context.Background(), []string{"SKU-1"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	assert.Equal(t, 1, logins)
}

// TestListMarketplaceAccounts tests account listing and naming
func TestListMarketplaceAccounts(t *testing.T) {
	handler := loginHandler(t, `{"token":"the-token"}`, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/settings/marketplace", r.URL.Path)
		w.Write([]byte(`{"obj":[
			{"id":10,"descricao":"Mercado Livre"},
			{"id":11}
		]}`))
	})

	client, _ := newTestClient(t, handler)

	accounts, err := client.ListMarketplaceAccounts(context.Background())
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.Equal(t, "Mercado Livre", accounts[0].Name)
	assert.Equal(t, "10", accounts[0].AuthenticationID)
	assert.Equal(t, "Conta 11", accounts[1].Name)
}

// TestCountOpenOrders tests the open-order count query
func TestCountOpenOrders(t *testing.T) {
	handler := loginHandler(t, `{"token":"the-token"}`, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/order/search", r.URL.Path)
		assert.Equal(t, "1007", r.URL.Query().Get("statusId"))
		assert.Equal(t, "10", r.URL.Query().Get("authenticationId"))
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
		w.Write([]byte(`{"total":42,"items":[]}`))
	})

	client, _ := newTestClient(t, handler)

	count, err := client.CountOpenOrders(context.Background(), "10")
	require.NoError(t, err)
	assert.Equal(t, 42, count)
}

// TestAuthenticateFailure tests the login failure paths
func TestAuthenticateFailure(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "denied", http.StatusForbidden)
	})

	client, _ := newTestClient(t, handler)

	err := client.Authenticate(context.Background())
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}
