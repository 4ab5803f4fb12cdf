package shopify

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/Zeenoside1/shopify-product-addons-app/internal/config"
	"github.com/Zeenoside1/shopify-product-addons-app/pkg/errors"
)

var shopDomainPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9\-]*\.myshopify\.com$`)

// IsValidShopDomain accepts only {name}.myshopify.com hosts
func IsValidShopDomain(shop string) bool {
	return shopDomainPattern.MatchString(shop)
}

// OAuth runs the authorization code grant against a shop
type OAuth struct {
	cfg        config.ShopifyConfig
	httpClient *http.Client
	baseURL    string
}

func NewOAuth(cfg config.ShopifyConfig) *OAuth {
	return &OAuth{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// SetBaseURL overrides https://{shop} for the token exchange. Used by tests.
func (o *OAuth) SetBaseURL(u string) {
	o.baseURL = strings.TrimSuffix(u, "/")
}

// AuthorizeURL builds the install redirect for shop
func (o *OAuth) AuthorizeURL(shop, state string) string {
	return fmt.Sprintf(
		"https://%s/admin/oauth/authorize?client_id=%s&scope=%s&redirect_uri=%s&state=%s",
		shop,
		url.QueryEscape(o.cfg.ClientID),
		url.QueryEscape(o.cfg.Scopes),
		url.QueryEscape(o.cfg.RedirectURI),
		url.QueryEscape(state),
	)
}

// AccessToken is the offline token granted by the code exchange
type AccessToken struct {
	AccessToken string `json:"access_token"`
	Scope       string `json:"scope"`
}

// ExchangeCode trades the callback code for an offline access token
func (o *OAuth) ExchangeCode(ctx context.Context, shop, code string) (*AccessToken, error) {
	b, err := json.Marshal(map[string]string{
		"client_id":     o.cfg.ClientID,
		"client_secret": o.cfg.ClientSecret,
		"code":          code,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	base := o.baseURL
	if base == "" {
		base = "https://" + shop
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+"/admin/oauth/access_token", bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode >= 300 {
		return nil, &errors.ErrUpstream{Service: "shopify oauth", StatusCode: resp.StatusCode, Message: string(raw)}
	}

	var out AccessToken
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	if out.AccessToken == "" {
		return nil, fmt.Errorf("token exchange returned no access_token")
	}
	return &out, nil
}

// VerifyQueryHMAC checks the hmac parameter Shopify appends to redirects
func VerifyQueryHMAC(q url.Values, secret string) bool {
	// computed on the sorted query string excluding hmac and signature
	keys := make([]string, 0, len(q))
	for k := range q {
		if k == "hmac" || k == "signature" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var parts []string
	for _, k := range keys {
		for _, v := range q[k] {
			parts = append(parts, k+"="+v)
		}
	}
	msg := strings.Join(parts, "&")

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(msg))
	expected := mac.Sum(nil)

	got, err := hex.DecodeString(q.Get("hmac"))
	if err != nil {
		return false
	}
	return hmac.Equal(expected, got)
}
