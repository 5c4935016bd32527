package ideris

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/supportops/operations-service/internal/domain"
	"github.com/supportops/operations-service/pkg/logging"
	"github.com/supportops/operations-service/pkg/metrics"
)

var tracer = otel.Tracer("operations-service/infrastructure/ideris")

// tokenShape recognizes a bare three-segment dot-delimited token. Used as
// a fallback when the login response is neither a JSON object nor a JSON
// string.
var tokenShape = regexp.MustCompile(`^[A-Za-z0-9\-_]+\.[A-Za-z0-9\-_]+\.[A-Za-z0-9\-_]+$`)

// openOrderStatusID is the gateway's status filter for orders still open.
const openOrderStatusID = 1007

// Config holds the connection settings for the Ideris API.
type Config struct {
	BaseURL    string
	PrivateKey string
	Timeout    time.Duration
}

// DefaultConfig returns the production API endpoint with a 30s timeout.
func DefaultConfig() *Config {
	return &Config{
		BaseURL: "https://apiv3.ideris.com.br",
		Timeout: 30 * time.Second,
	}
}

// Client talks to the Ideris inventory API. It holds a process-wide bearer
// token obtained lazily on the first call; a 401 mid-session is surfaced to
// the caller rather than retried with a fresh login.
type Client struct {
	config     *Config
	httpClient *http.Client
	logger     *logging.Logger
	metrics    *metrics.Metrics

	mu    sync.Mutex
	token string
}

// NewClient creates an Ideris API client.
func NewClient(config *Config, logger *logging.Logger, m *metrics.Metrics) *Client {
	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		logger:  logger.WithComponent("ideris-client"),
		metrics: m,
	}
}

// Authenticate posts the shared secret and stores the returned bearer token.
// The token is replaced unconditionally, even if one is already held.
func (c *Client) Authenticate(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "ideris.Authenticate")
	defer span.End()

	token, err := c.login(ctx)
	if err != nil {
		span.RecordError(err)
		return err
	}

	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
	return nil
}

// FindOrder looks up an order by code. A direct lookup is tried first; any
// failure there falls back to a code search with limit 1.
func (c *Client) FindOrder(ctx context.Context, code string) (*domain.Order, error) {
	ctx, span := tracer.Start(ctx, "ideris.FindOrder",
		trace.WithAttributes(attribute.String("order.code", code)),
	)
	defer span.End()

	body, _, err := c.do(ctx, "FindOrder", http.MethodGet, "/order/"+url.PathEscape(code), nil, nil)
	if err == nil {
		var direct struct {
			Obj *orderPayload `json:"obj"`
		}
		if err := json.Unmarshal(body, &direct); err == nil && direct.Obj != nil {
			return direct.Obj.toDomain(), nil
		}
	}

	query := url.Values{}
	query.Set("orderCode", code)
	query.Set("limit", "1")

	body, _, err = c.do(ctx, "FindOrder", http.MethodGet, "/order/search", query, nil)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	var orders []orderPayload
	if err := unwrapList(body, &orders); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to decode order search response: %w", err)
	}
	if len(orders) == 0 {
		return nil, domain.ErrOrderNotFound
	}
	return orders[0].toDomain(), nil
}

// SearchSKUs fetches products for the given SKUs in one query, one repeated
// `sku` parameter per requested SKU. An empty result is not an error.
func (c *Client) SearchSKUs(ctx context.Context, skus []string) ([]domain.Product, error) {
	ctx, span := tracer.Start(ctx, "ideris.SearchSKUs",
		trace.WithAttributes(attribute.Int("sku.count", len(skus))),
	)
	defer span.End()

	query := url.Values{}
	for _, sku := range skus {
		query.Add("sku", sku)
	}

	body, _, err := c.do(ctx, "SearchSKUs", http.MethodGet, "/sku/search", query, nil)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	var items []skuPayload
	if err := unwrapList(body, &items); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to decode sku search response: %w", err)
	}

	products := make([]domain.Product, 0, len(items))
	for i := range items {
		products = append(products, items[i].toDomain())
	}

	span.SetAttributes(attribute.Int("products.matched", len(products)))
	return products, nil
}

// UpdateStock pushes a new absolute stock quantity for a single SKU.
func (c *Client) UpdateStock(ctx context.Context, sku string, quantity int) error {
	ctx, span := tracer.Start(ctx, "ideris.UpdateStock",
		trace.WithAttributes(
			attribute.String("product.sku", sku),
			attribute.Int("stock.quantity", quantity),
		),
	)
	defer span.End()

	payload := map[string]interface{}{
		"sku":          sku,
		"currentStock": quantity,
	}

	_, _, err := c.do(ctx, "UpdateStock", http.MethodPut, "/sku/stock", nil, payload)
	if err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

// ListMarketplaceAccounts returns the marketplace integrations configured
// on the gateway.
func (c *Client) ListMarketplaceAccounts(ctx context.Context) ([]domain.MarketplaceAccount, error) {
	ctx, span := tracer.Start(ctx, "ideris.ListMarketplaceAccounts")
	defer span.End()

	body, _, err := c.do(ctx, "ListMarketplaceAccounts", http.MethodGet, "/settings/marketplace", nil, nil)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	var items []marketplaceAccountPayload
	if err := unwrapList(body, &items); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to decode marketplace accounts response: %w", err)
	}

	accounts := make([]domain.MarketplaceAccount, 0, len(items))
	for i := range items {
		accounts = append(accounts, items[i].toDomain())
	}
	return accounts, nil
}

// CountOpenOrders returns the number of open orders for one marketplace
// account. Only the search total is read; no order payloads are fetched.
func (c *Client) CountOpenOrders(ctx context.Context, authenticationID string) (int, error) {
	ctx, span := tracer.Start(ctx, "ideris.CountOpenOrders",
		trace.WithAttributes(attribute.String("account.authentication_id", authenticationID)),
	)
	defer span.End()

	query := url.Values{}
	query.Set("statusId", strconv.Itoa(openOrderStatusID))
	query.Set("authenticationId", authenticationID)
	query.Set("limit", "1")

	body, _, err := c.do(ctx, "CountOpenOrders", http.MethodGet, "/order/search", query, nil)
	if err != nil {
		span.RecordError(err)
		return 0, err
	}

	var response struct {
		Total int `json:"total"`
	}
	if err := json.Unmarshal(body, &response); err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("failed to decode open order count response: %w", err)
	}
	return response.Total, nil
}

// login posts the shared secret as a quoted JSON string and extracts the
// bearer token from whichever shape the gateway answers with: a JSON object
// carrying token/jwt, a JSON string, or a bare three-segment token.
func (c *Client) login(ctx context.Context) (string, error) {
	secret, err := json.Marshal(c.config.PrivateKey)
	if err != nil {
		return "", fmt.Errorf("failed to encode login secret: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/Login", bytes.NewReader(secret))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "*/*")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.record(ctx, "Authenticate", 0, start, false)
		return "", fmt.Errorf("failed to reach login endpoint: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.record(ctx, "Authenticate", resp.StatusCode, start, false)
		return "", fmt.Errorf("failed to read login response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		c.record(ctx, "Authenticate", resp.StatusCode, start, false)
		return "", fmt.Errorf("login rejected: status %d: %w", resp.StatusCode, domain.ErrUnauthorized)
	}

	token, err := parseToken(body)
	c.record(ctx, "Authenticate", resp.StatusCode, start, err == nil)
	return token, err
}

func parseToken(body []byte) (string, error) {
	var object struct {
		Token string `json:"token"`
		Jwt   string `json:"jwt"`
	}
	if err := json.Unmarshal(body, &object); err == nil {
		if object.Token != "" {
			return object.Token, nil
		}
		if object.Jwt != "" {
			return object.Jwt, nil
		}
	}

	var raw string
	if err := json.Unmarshal(body, &raw); err == nil && raw != "" {
		return raw, nil
	}

	cleaned := strings.Trim(strings.TrimSpace(string(body)), `"`)
	if tokenShape.MatchString(cleaned) {
		return cleaned, nil
	}

	return "", fmt.Errorf("no token in login response: %w", domain.ErrUnauthorized)
}

// ensureToken returns the cached bearer token, logging in first if none is
// held yet.
func (c *Client) ensureToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" {
		return c.token, nil
	}

	token, err := c.login(ctx)
	if err != nil {
		return "", err
	}
	c.token = token
	return token, nil
}

// do executes one authenticated API request and returns the raw response
// body. Every request is recorded as a single gateway call.
func (c *Client) do(ctx context.Context, operation, method, path string, query url.Values, payload interface{}) ([]byte, int, error) {
	token, err := c.ensureToken(ctx)
	if err != nil {
		return nil, 0, err
	}

	endpoint := c.config.BaseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.record(ctx, operation, 0, start, false)
		return nil, 0, fmt.Errorf("failed to call %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.record(ctx, operation, resp.StatusCode, start, false)
		return nil, resp.StatusCode, fmt.Errorf("failed to read response from %s: %w", path, err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		c.record(ctx, operation, resp.StatusCode, start, false)
		return nil, resp.StatusCode, fmt.Errorf("%s %s: status 401: %w", method, path, domain.ErrUnauthorized)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		c.record(ctx, operation, resp.StatusCode, start, false)
		return nil, resp.StatusCode, fmt.Errorf("%s %s: status %d", method, path, resp.StatusCode)
	}

	c.record(ctx, operation, resp.StatusCode, start, true)
	return body, resp.StatusCode, nil
}

func (c *Client) record(ctx context.Context, operation string, status int, start time.Time, success bool) {
	duration := time.Since(start)
	if c.metrics != nil {
		c.metrics.RecordGatewayCall(operation, success, duration)
	}
	if c.logger != nil {
		c.logger.GatewayCall(ctx, operation, status, duration, success)
	}
}

// unwrapList decodes a list response that may arrive as {"obj": [...]},
// {"items": [...]} or a bare array.
func unwrapList(body []byte, out interface{}) error {
	var envelope struct {
		Obj   json.RawMessage `json:"obj"`
		Items json.RawMessage `json:"items"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil {
		if len(envelope.Obj) > 0 && string(envelope.Obj) != "null" {
			return json.Unmarshal(envelope.Obj, out)
		}
		if len(envelope.Items) > 0 && string(envelope.Items) != "null" {
			return json.Unmarshal(envelope.Items, out)
		}
	}
	return json.Unmarshal(body, out)
}
