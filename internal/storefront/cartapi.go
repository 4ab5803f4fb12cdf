package storefront

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
	"time"

	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/Zeenoside1/shopify-product-addons-app/pkg/errors"
)

// HTTPCartAPI talks to the storefront AJAX cart endpoints as one shopper
type HTTPCartAPI struct {
	baseURL    string
	cartCookie string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[[]byte]
	logger     *zap.Logger
}

// NewHTTPCartAPI builds a client for storeURL. cartCookie is the shopper's cart token.
func NewHTTPCartAPI(storeURL, cartCookie string, logger *zap.Logger) *HTTPCartAPI {
	storeURL = strings.TrimSuffix(storeURL, "/")
	if !strings.HasPrefix(storeURL, "http://") && !strings.HasPrefix(storeURL, "https://") {
		storeURL = "https://" + storeURL
	}
	return &HTTPCartAPI{
		baseURL:    storeURL,
		cartCookie: cartCookie,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		breaker: gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
			Name:        "storefront-cart",
			MaxRequests: 1,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 3
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Warn("Circuit breaker state changed",
					zap.String("breaker", name),
					zap.String("from", from.String()),
					zap.String("to", to.String()),
				)
			},
		}),
		logger: logger,
	}
}

type ajaxCart struct {
	Token      string     `json:"token"`
	TotalPrice int64      `json:"total_price"`
	Currency   string     `json:"currency"`
	Items      []ajaxItem `json:"items"`
}

type ajaxItem struct {
	Key            string                 `json:"key"`
	ID             int64                  `json:"id"`
	ProductID      int64                  `json:"product_id"`
	Handle         string                 `json:"handle"`
	SKU            string                 `json:"sku"`
	Title          string                 `json:"title"`
	Quantity       int64                  `json:"quantity"`
	FinalPrice     int64                  `json:"final_price"`
	FinalLinePrice int64                  `json:"final_line_price"`
	Properties     map[string]interface{} `json:"properties"`
}

func (a *HTTPCartAPI) GetCart(ctx context.Context) (*Cart, error) {
	body, err := a.send(ctx, http.MethodGet, "/cart.js", "", nil)
	if err != nil {
		return nil, err
	}
	var raw ajaxCart
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode cart: %w", err)
	}
	return raw.toCart(), nil
}

func (a *HTTPCartAPI) AddLine(ctx context.Context, variantID string, quantity int64, properties map[string]string) error {
	form := url.Values{}
	form.Set("id", variantID)
	form.Set("quantity", strconv.FormatInt(quantity, 10))
	for k, v := range properties {
		form.Set("properties["+k+"]", v)
	}
	_, err := a.send(ctx, http.MethodPost, "/cart/add.js", "application/x-www-form-urlencoded", []byte(form.Encode()))
	return err
}

func (a *HTTPCartAPI) UpdateQuantity(ctx context.Context, lineKey string, quantity int64) error {
	payload, err := json.Marshal(map[string]map[string]int64{
		"updates": {lineKey: quantity},
	})
	if err != nil {
		return err
	}
	_, err = a.send(ctx, http.MethodPost, "/cart/update.js", "application/json", payload)
	return err
}

func (a *HTTPCartAPI) send(ctx context.Context, method, path, contentType string, payload []byte) ([]byte, error) {
	return a.breaker.Execute(func() ([]byte, error) {
		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, reader)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}
		if a.cartCookie != "" {
			req.AddCookie(&http.Cookie{Name: "cart", Value: a.cartCookie})
		}

		resp, err := a.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to execute request: %w", err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read response: %w", err)
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			a.logger.Warn("Storefront cart call failed",
				zap.String("path", path),
				zap.Int("status", resp.StatusCode),
			)
			return nil, &errors.ErrUpstream{Service: "storefront cart", StatusCode: resp.StatusCode, Message: string(body)}
		}
		return body, nil
	})
}

func (c ajaxCart) toCart() *Cart {
	cart := &Cart{
		Token:      c.Token,
		TotalPrice: minorUnits(c.TotalPrice),
		Currency:   c.Currency,
		Lines:      make([]CartLine, 0, len(c.Items)),
	}
	for _, it := range c.Items {
		props := make(map[string]string, len(it.Properties))
		for k, v := range it.Properties {
			if v == nil {
				continue
			}
			props[k] = fmt.Sprint(v)
		}
		cart.Lines = append(cart.Lines, CartLine{
			Key:        it.Key,
			VariantID:  strconv.FormatInt(it.ID, 10),
			ProductID:  strconv.FormatInt(it.ProductID, 10),
			Handle:     it.Handle,
			SKU:        it.SKU,
			Title:      it.Title,
			Quantity:   it.Quantity,
			UnitPrice:  minorUnits(it.FinalPrice),
			LinePrice:  minorUnits(it.FinalLinePrice),
			Properties: props,
		})
	}
	return cart
}

// minorUnits converts Shopify's integer cents into a decimal amount
func minorUnits(v int64) decimal.Decimal {
	return decimal.New(v, -2)
}
