// Package shopify is the client for the commerce platform's Admin REST API:
// variant/inventory queries and price mutations.
package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/ignite/shopify-repricer/internal/config"
	"github.com/ignite/shopify-repricer/internal/domain"
	"github.com/ignite/shopify-repricer/internal/pkg/httpretry"
)

// ErrNotFound is returned when a variant or product does not exist.
var ErrNotFound = fmt.Errorf("shopify: resource not found")

// Client is a Shopify Admin API client. One client serves all shops; the
// shop domain is passed per call.
type Client struct {
	apiVersion  string
	accessToken string
	httpClient  httpretry.HTTPDoer

	// baseURL overrides the per-shop Admin URL when set (tests only).
	baseURL string
}

// NewClient creates a new Shopify Admin API client.
func NewClient(cfg config.ShopifyConfig) *Client {
	return &Client{
		apiVersion:  cfg.APIVersion,
		accessToken: cfg.AccessToken,
		httpClient: httpretry.NewRetryClient(&http.Client{
			Timeout: cfg.Timeout(),
		}, cfg.MaxRetries),
	}
}

// doRequest makes an HTTP request to the Admin API for the given shop.
func (c *Client) doRequest(ctx context.Context, method, shop, path string, params url.Values, body any) (int, []byte, error) {
	fullURL := fmt.Sprintf("https://%s/admin/api/%s%s", shop, c.apiVersion, path)
	if c.baseURL != "" {
		fullURL = c.baseURL + path
	}
	if len(params) > 0 {
		fullURL += "?" + params.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("encoding request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, reqBody)
	if err != nil {
		return 0, nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("X-Shopify-Access-Token", c.accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("reading response: %w", err)
	}
	return resp.StatusCode, respBody, nil
}

// GetVariant fetches a variant and its product's matching fields
// (tags, vendor, type, collections).
func (c *Client) GetVariant(ctx context.Context, shop, variantID string) (*domain.Variant, error) {
	status, body, err := c.doRequest(ctx, http.MethodGet, shop, "/variants/"+variantID+".json", nil, nil)
	if err != nil {
		return nil, fmt.Errorf("fetching variant %s: %w", variantID, err)
	}
	if status == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("variant API error (status %d): %s", status, string(body))
	}

	var env variantEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decoding variant: %w", err)
	}
	v := env.Variant.toDomain()
	if err := c.enrichWithProduct(ctx, shop, v); err != nil {
		return nil, err
	}
	return v, nil
}

// GetVariantByInventoryItem resolves the variant owning an inventory item.
func (c *Client) GetVariantByInventoryItem(ctx context.Context, shop, inventoryItemID string) (*domain.Variant, error) {
	params := url.Values{}
	params.Set("inventory_item_ids", inventoryItemID)
	status, body, err := c.doRequest(ctx, http.MethodGet, shop, "/variants.json", params, nil)
	if err != nil {
		return nil, fmt.Errorf("resolving inventory item %s: %w", inventoryItemID, err)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("variants API error (status %d): %s", status, string(body))
	}

	var env variantsEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decoding variants: %w", err)
	}
	if len(env.Variants) == 0 {
		return nil, ErrNotFound
	}
	v := env.Variants[0].toDomain()
	if err := c.enrichWithProduct(ctx, shop, v); err != nil {
		return nil, err
	}
	return v, nil
}

// enrichWithProduct fills the product-level fields needed by campaign target
// matching.
func (c *Client) enrichWithProduct(ctx context.Context, shop string, v *domain.Variant) error {
	status, body, err := c.doRequest(ctx, http.MethodGet, shop, "/products/"+v.ProductID+".json", nil, nil)
	if err != nil {
		return fmt.Errorf("fetching product %s: %w", v.ProductID, err)
	}
	if status != http.StatusOK {
		return fmt.Errorf("product API error (status %d): %s", status, string(body))
	}
	var env productEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("decoding product: %w", err)
	}
	v.ProductVendor = env.Product.Vendor
	v.ProductType = env.Product.ProductType
	for _, tag := range strings.Split(env.Product.Tags, ",") {
		if t := strings.TrimSpace(tag); t != "" {
			v.ProductTags = append(v.ProductTags, t)
		}
	}

	params := url.Values{}
	params.Set("product_id", v.ProductID)
	status, body, err = c.doRequest(ctx, http.MethodGet, shop, "/collects.json", params, nil)
	if err != nil {
		return fmt.Errorf("fetching collects for product %s: %w", v.ProductID, err)
	}
	if status == http.StatusOK {
		var env collectsEnvelope
		if err := json.Unmarshal(body, &env); err == nil {
			for _, col := range env.Collects {
				v.CollectionIDs = append(v.CollectionIDs, strconv.FormatInt(col.CollectionID, 10))
			}
		}
	}
	return nil
}

// UpdateVariantPrice mutates a variant's price (and optionally compare-at
// price). Platform-side validation errors come back in the result's
// UserErrors, not as a Go error: they are a mutation failure, not a
// transport fault.
func (c *Client) UpdateVariantPrice(ctx context.Context, shop, productID, variantID string, newPrice float64, newCompareAt *float64) (*domain.PriceUpdateResult, error) {
	id, err := strconv.ParseInt(variantID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid variant id %q: %w", variantID, err)
	}

	var req variantUpdateRequest
	req.Variant.ID = id
	req.Variant.Price = strconv.FormatFloat(newPrice, 'f', 2, 64)
	if newCompareAt != nil {
		s := strconv.FormatFloat(*newCompareAt, 'f', 2, 64)
		req.Variant.CompareAtPrice = &s
	}

	status, body, err := c.doRequest(ctx, http.MethodPut, shop, "/variants/"+variantID+".json", nil, req)
	if err != nil {
		return nil, fmt.Errorf("updating variant %s: %w", variantID, err)
	}

	switch {
	case status == http.StatusOK:
		var env variantEnvelope
		if err := json.Unmarshal(body, &env); err != nil {
			return nil, fmt.Errorf("decoding update response: %w", err)
		}
		return &domain.PriceUpdateResult{Success: true, Variant: env.Variant.toDomain()}, nil

	case status == http.StatusUnprocessableEntity:
		return &domain.PriceUpdateResult{Success: false, UserErrors: parseUserErrors(body)}, nil

	case status == http.StatusNotFound:
		return &domain.PriceUpdateResult{Success: false, UserErrors: []string{"variant not found"}}, nil

	default:
		return nil, fmt.Errorf("variant update error (status %d): %s", status, string(body))
	}
}

// parseUserErrors flattens Shopify's {"errors": {...}} envelope, which may
// hold a string, a list, or a field→messages map.
func parseUserErrors(body []byte) []string {
	var envelope struct {
		Errors json.RawMessage `json:"errors"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Errors) == 0 {
		return []string{string(body)}
	}

	var asString string
	if json.Unmarshal(envelope.Errors, &asString) == nil {
		return []string{asString}
	}
	var asList []string
	if json.Unmarshal(envelope.Errors, &asList) == nil {
		return asList
	}
	var asMap map[string][]string
	if json.Unmarshal(envelope.Errors, &asMap) == nil {
		var out []string
		for field, msgs := range asMap {
			for _, m := range msgs {
				out = append(out, field+" "+m)
			}
		}
		return out
	}
	return []string{string(envelope.Errors)}
}
