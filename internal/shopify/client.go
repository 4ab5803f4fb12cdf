package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/Zeenoside1/shopify-product-addons-app/internal/config"
	"github.com/Zeenoside1/shopify-product-addons-app/pkg/errors"
)

// Admin API leaky bucket refills at 2 requests per second
const (
	requestsPerSecond = 2
	requestBurst      = 4
)

// ClientFactory hands out per-shop Admin API clients sharing one rate limiter per shop
type ClientFactory struct {
	cfg        config.ShopifyConfig
	httpClient *http.Client
	logger     *zap.Logger

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	baseURL  string
}

func NewClientFactory(cfg config.ShopifyConfig, logger *zap.Logger) *ClientFactory {
	return &ClientFactory{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger:   logger,
		limiters: make(map[string]*rate.Limiter),
	}
}

// SetBaseURL points every client at a fixed host instead of https://{shop}. Used by tests.
func (f *ClientFactory) SetBaseURL(u string) {
	f.baseURL = strings.TrimSuffix(u, "/")
}

// For returns a client for shopDomain authenticated with accessToken
func (f *ClientFactory) For(shopDomain, accessToken string) *Client {
	shopDomain = NormalizeShopDomain(shopDomain)

	f.mu.Lock()
	limiter, ok := f.limiters[shopDomain]
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestBurst)
		f.limiters[shopDomain] = limiter
	}
	f.mu.Unlock()

	base := f.baseURL
	if base == "" {
		base = "https://" + shopDomain
	}

	return &Client{
		shopDomain:  shopDomain,
		accessToken: accessToken,
		apiVersion:  f.cfg.APIVersion,
		baseURL:     base,
		httpClient:  f.httpClient,
		limiter:     limiter,
		logger:      f.logger,
	}
}

type Client struct {
	shopDomain  string
	accessToken string
	apiVersion  string
	baseURL     string
	httpClient  *http.Client
	limiter     *rate.Limiter
	logger      *zap.Logger
}

// NormalizeShopDomain removes https://, http://, and trailing slashes
func NormalizeShopDomain(shopDomain string) string {
	shopDomain = strings.TrimSpace(shopDomain)
	shopDomain = strings.TrimPrefix(shopDomain, "https://")
	shopDomain = strings.TrimPrefix(shopDomain, "http://")
	shopDomain = strings.TrimSuffix(shopDomain, "/")
	return strings.ToLower(shopDomain)
}

// GraphQLRequest represents a GraphQL request
type GraphQLRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables,omitempty"`
}

// GraphQLResponse represents a GraphQL response
type GraphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []GraphQLError  `json:"errors,omitempty"`
}

// GraphQLError represents a GraphQL error
type GraphQLError struct {
	Message string        `json:"message"`
	Path    []interface{} `json:"path,omitempty"`
}

// UserError is the userErrors entry returned by mutations
type UserError struct {
	Field   []string `json:"field"`
	Message string   `json:"message"`
}

// Execute executes a GraphQL query/mutation
func (c *Client) Execute(ctx context.Context, query string, variables map[string]interface{}) (*GraphQLResponse, error) {
	reqBody := GraphQLRequest{
		Query:     query,
		Variables: variables,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	body, err := c.do(ctx, http.MethodPost, "/graphql.json", jsonData)
	if err != nil {
		return nil, err
	}

	var graphQLResp GraphQLResponse
	if err := json.Unmarshal(body, &graphQLResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w, body: %s", err, string(body))
	}

	if len(graphQLResp.Errors) > 0 {
		errorMessages := make([]string, len(graphQLResp.Errors))
		for i, err := range graphQLResp.Errors {
			errorMessages[i] = err.Message
		}
		return nil, fmt.Errorf("graphQL errors: %s", strings.Join(errorMessages, "; "))
	}

	return &graphQLResp, nil
}

// ListProducts returns the raw REST products.json payload for passthrough
func (c *Client) ListProducts(ctx context.Context, limit int) (json.RawMessage, error) {
	if limit <= 0 || limit > 250 {
		limit = 50
	}
	body, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/products.json?limit=%d", limit), nil)
	if err != nil {
		return nil, err
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("shopify returned invalid JSON for products")
	}
	return json.RawMessage(body), nil
}

// ResolveProductHandle returns the numeric product ID for a handle, or "" if no product has it
func (c *Client) ResolveProductHandle(ctx context.Context, handle string) (string, error) {
	resp, err := c.Execute(ctx, ProductByHandleQuery, map[string]interface{}{"handle": handle})
	if err != nil {
		return "", err
	}

	var data struct {
		ProductByHandle *struct {
			ID string `json:"id"`
		} `json:"productByHandle"`
	}
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		return "", fmt.Errorf("failed to decode productByHandle: %w", err)
	}
	if data.ProductByHandle == nil {
		return "", nil
	}
	return NumericID(data.ProductByHandle.ID), nil
}

// CreateScriptTag registers src on the online store and returns the numeric script tag ID
func (c *Client) CreateScriptTag(ctx context.Context, src string) (int64, error) {
	resp, err := c.Execute(ctx, ScriptTagCreateMutation, map[string]interface{}{
		"input": ScriptTagInput{Src: src, DisplayScope: "ONLINE_STORE", Cache: false},
	})
	if err != nil {
		return 0, err
	}

	var data struct {
		ScriptTagCreate struct {
			ScriptTag *struct {
				ID string `json:"id"`
			} `json:"scriptTag"`
			UserErrors []UserError `json:"userErrors"`
		} `json:"scriptTagCreate"`
	}
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		return 0, fmt.Errorf("failed to decode scriptTagCreate: %w", err)
	}
	if len(data.ScriptTagCreate.UserErrors) > 0 {
		return 0, fmt.Errorf("scriptTagCreate: %s", data.ScriptTagCreate.UserErrors[0].Message)
	}
	if data.ScriptTagCreate.ScriptTag == nil {
		return 0, fmt.Errorf("scriptTagCreate returned no script tag")
	}

	var id int64
	if _, err := fmt.Sscan(NumericID(data.ScriptTagCreate.ScriptTag.ID), &id); err != nil {
		return 0, fmt.Errorf("unexpected script tag id %q", data.ScriptTagCreate.ScriptTag.ID)
	}
	return id, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/admin/api/%s%s", c.baseURL, c.apiVersion, path)
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Shopify-Access-Token", c.accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("Shopify API returned non-2xx",
			zap.String("shop", c.shopDomain),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
		)
		return nil, &errors.ErrUpstream{Service: "shopify", StatusCode: resp.StatusCode, Message: string(body)}
	}

	return body, nil
}

// NumericID strips the gid://shopify/Product/ prefix from a global ID
func NumericID(gid string) string {
	if i := strings.LastIndex(gid, "/"); i >= 0 {
		return gid[i+1:]
	}
	return gid
}
