package storefront

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Zeenoside1/shopify-product-addons-app/internal/domain"
	"github.com/Zeenoside1/shopify-product-addons-app/pkg/errors"
)

// Catalog lists the active add-ons of a product
type Catalog interface {
	List(ctx context.Context, shop, productID string) ([]domain.AddonDefinition, error)
}

// CatalogClient reads add-ons from the app's public GET /api/addons/:productId endpoint
type CatalogClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewCatalogClient(appURL string) *CatalogClient {
	return &CatalogClient{
		baseURL:    strings.TrimSuffix(appURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *CatalogClient) List(ctx context.Context, shop, productID string) ([]domain.AddonDefinition, error) {
	endpoint := fmt.Sprintf("%s/api/addons/%s?shop=%s", c.baseURL, url.PathEscape(productID), url.QueryEscape(shop))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch add-ons: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &errors.ErrUpstream{Service: "addons api", StatusCode: resp.StatusCode, Message: string(body)}
	}

	var addons []domain.AddonDefinition
	if err := json.Unmarshal(body, &addons); err != nil {
		return nil, fmt.Errorf("failed to decode add-ons: %w", err)
	}
	return addons, nil
}
