package shopify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(server *httptest.Server) *Client {
	return &Client{
		apiVersion:  "2024-10",
		accessToken: "shpat_test",
		httpClient:  &http.Client{Timeout: 5 * time.Second},
		baseURL:     server.URL,
	}
}

func variantJSON() map[string]any {
	return map[string]any{
		"variant": map[string]any{
			"id":                   42,
			"product_id":           7,
			"price":                "20.00",
			"compare_at_price":     "25.00",
			"inventory_item_id":    99,
			"inventory_quantity":   8,
			"inventory_management": "shopify",
			"updated_at":           "2026-08-01T10:00:00Z",
		},
	}
}

func TestGetVariant(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "shpat_test", r.Header.Get("X-Shopify-Access-Token"))
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/variants/42.json":
			json.NewEncoder(w).Encode(variantJSON())
		case "/products/7.json":
			json.NewEncoder(w).Encode(map[string]any{
				"product": map[string]any{
					"id": 7, "tags": "sale, clearance", "vendor": "Acme", "product_type": "Shoes",
				},
			})
		case "/collects.json":
			assert.Equal(t, "7", r.URL.Query().Get("product_id"))
			json.NewEncoder(w).Encode(map[string]any{
				"collects": []map[string]any{{"collection_id": 301}},
			})
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client := newTestClient(server)
	v, err := client.GetVariant(context.Background(), "demo.myshopify.com", "42")
	require.NoError(t, err)

	assert.Equal(t, "42", v.ID)
	assert.Equal(t, "7", v.ProductID)
	assert.Equal(t, 20.00, v.Price)
	require.NotNil(t, v.CompareAtPrice)
	assert.Equal(t, 25.00, *v.CompareAtPrice)
	assert.Equal(t, 8, v.InventoryQuantity)
	assert.True(t, v.InventoryTracked)
	assert.Equal(t, []string{"sale", "clearance"}, v.ProductTags)
	assert.Equal(t, "Acme", v.ProductVendor)
	assert.Equal(t, "Shoes", v.ProductType)
	assert.Equal(t, []string{"301"}, v.CollectionIDs)
}

func TestGetVariantByInventoryItem(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/variants.json":
			assert.Equal(t, "99", r.URL.Query().Get("inventory_item_ids"))
			json.NewEncoder(w).Encode(map[string]any{
				"variants": []any{variantJSON()["variant"]},
			})
		case "/products/7.json":
			json.NewEncoder(w).Encode(map[string]any{"product": map[string]any{"id": 7}})
		case "/collects.json":
			json.NewEncoder(w).Encode(map[string]any{"collects": []any{}})
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client := newTestClient(server)
	v, err := client.GetVariantByInventoryItem(context.Background(), "demo.myshopify.com", "99")
	require.NoError(t, err)
	assert.Equal(t, "42", v.ID)
	assert.Equal(t, "99", v.InventoryItemID)
}

func TestGetVariantByInventoryItemNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"variants": []any{}})
	}))
	defer server.Close()

	client := newTestClient(server)
	_, err := client.GetVariantByInventoryItem(context.Background(), "demo.myshopify.com", "404")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateVariantPrice(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		require.Equal(t, "/variants/42.json", r.URL.Path)

		var req variantUpdateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "25.00", req.Variant.Price)

		resp := variantJSON()
		resp["variant"].(map[string]any)["price"] = "25.00"
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := newTestClient(server)
	res, err := client.UpdateVariantPrice(context.Background(), "demo.myshopify.com", "7", "42", 25.00, nil)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 25.00, res.Variant.Price)
}

func TestUpdateVariantPriceUserErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"errors":{"price":["must be greater than or equal to 0"]}}`))
	}))
	defer server.Close()

	client := newTestClient(server)
	res, err := client.UpdateVariantPrice(context.Background(), "demo.myshopify.com", "7", "42", -1, nil)
	require.NoError(t, err, "user errors are a mutation failure, not a transport fault")
	assert.False(t, res.Success)
	require.Len(t, res.UserErrors, 1)
	assert.Contains(t, res.UserErrors[0], "price")
}

func TestVerifyWebhookHMAC(t *testing.T) {
	body := []byte(`{"inventory_item_id":99}`)
	// HMAC-SHA256("secret", body) base64
	valid := "Pz7wcKT0DU8Ox/VXfphPskHs20QjfptcUI2SBWexqYc="

	assert.True(t, VerifyWebhookHMAC("secret", body, valid))
	assert.False(t, VerifyWebhookHMAC("secret", body, "bogus"))
	assert.False(t, VerifyWebhookHMAC("wrong", body, valid))
	assert.False(t, VerifyWebhookHMAC("", body, valid))
}
