package api

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Zeenoside1/shopify-product-addons-app/internal/api/middleware"
	"github.com/Zeenoside1/shopify-product-addons-app/internal/config"
	"github.com/Zeenoside1/shopify-product-addons-app/internal/domain"
	"github.com/Zeenoside1/shopify-product-addons-app/internal/repository"
	"github.com/Zeenoside1/shopify-product-addons-app/internal/repository/redisstore"
	"github.com/Zeenoside1/shopify-product-addons-app/internal/security"
	"github.com/Zeenoside1/shopify-product-addons-app/internal/service"
	"github.com/Zeenoside1/shopify-product-addons-app/internal/shopify"
	"github.com/Zeenoside1/shopify-product-addons-app/pkg/errors"
)

const (
	testShop     = "demo.myshopify.com"
	testSecret   = "hush"
	testClientID = "client-id"
	operatorKey  = "operator-key"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type memAddonRepo struct {
	mu     sync.Mutex
	addons map[uuid.UUID]domain.AddonDefinition
}

func (r *memAddonRepo) Create(_ context.Context, a *domain.AddonDefinition) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a.ID = uuid.New()
	a.CreatedAt, a.UpdatedAt = time.Now().UTC(), time.Now().UTC()
	r.addons[a.ID] = *a
	return nil
}

func (r *memAddonRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.AddonDefinition, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.addons[id]
	if !ok {
		return nil, &errors.ErrNotFound{Resource: "addon", ID: id.String()}
	}
	return &a, nil
}

func (r *memAddonRepo) ListActiveByProduct(_ context.Context, shop, productID string) ([]*domain.AddonDefinition, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.AddonDefinition, 0)
	for _, a := range r.addons {
		if a.Shop == shop && a.ProductID == productID && a.Active {
			a := a
			out = append(out, &a)
		}
	}
	return out, nil
}

func (r *memAddonRepo) Update(_ context.Context, a *domain.AddonDefinition) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.addons[a.ID] = *a
	return nil
}

func (r *memAddonRepo) Deactivate(_ context.Context, id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.addons[id]
	if !ok {
		return false, &errors.ErrNotFound{Resource: "addon", ID: id.String()}
	}
	changed := a.Active
	a.Active = false
	r.addons[id] = a
	return changed, nil
}

type memShopRepo struct{}

func (memShopRepo) GetByDomain(_ context.Context, d string) (*domain.Shop, error) {
	return nil, &errors.ErrNotFound{Resource: "shop", ID: d}
}
func (memShopRepo) Upsert(context.Context, *domain.Shop) error { return nil }

func (memShopRepo) UpdateScriptTagID(context.Context, string, int64) error { return nil }

type routerFixture struct {
	router *gin.Engine
	addons *memAddonRepo
	redis  *redis.Client
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	keyHash, err := middleware.HashAPIKey(operatorKey)
	require.NoError(t, err)

	cfg := &config.Config{
		Environment: "test",
		Shopify: config.ShopifyConfig{
			ClientID:     testClientID,
			ClientSecret: testSecret,
			APIVersion:   "2024-10",
			Scopes:       "read_products",
			RedirectURI:  "https://app.example.com/auth/callback",
		},
		Security: config.SecurityConfig{AdminKeyHash: keyHash},
	}

	addons := &memAddonRepo{addons: make(map[uuid.UUID]domain.AddonDefinition)}
	repos := &repository.Repositories{
		Addon:       addons,
		Shop:        memShopRepo{},
		OAuthState:  redisstore.NewOAuthStateStore(client),
		Idempotency: redisstore.NewIdempotencyStore(client),
	}

	cipher, err := security.NewTokenCipher(base64.StdEncoding.EncodeToString(make([]byte, 32)))
	require.NoError(t, err)
	logger := zap.NewNop()
	shopifySvc := service.NewShopifyService(cfg.Shopify, repos, shopify.NewClientFactory(cfg.Shopify, logger), shopify.NewOAuth(cfg.Shopify), cipher, logger)
	svcs := &Services{
		Addons:  service.NewAddonService(repos, shopifySvc, logger),
		Shopify: shopifySvc,
	}

	return &routerFixture{
		router: NewRouter(cfg, repos, svcs, logger),
		addons: addons,
		redis:  client,
	}
}

func sessionToken(t *testing.T, shop string) string {
	t.Helper()
	claims := shopify.SessionClaims{
		Dest: "https://" + shop,
		RegisteredClaims: jwt.RegisteredClaims{
			Audience:  jwt.ClaimStrings{testClientID},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func (f *routerFixture) do(method, path, token string, body interface{}, headers ...string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func giftWrap() map[string]interface{} {
	return map[string]interface{}{
		"productId": "123",
		"name":      "Gift Wrap",
		"price":     5,
		"type":      "checkbox",
		"shop":      testShop,
	}
}

func (f *routerFixture) createGiftWrap(t *testing.T) domain.AddonDefinition {
	t.Helper()
	w := f.do(http.MethodPost, "/api/addons", operatorKey, giftWrap())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var addon domain.AddonDefinition
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &addon))
	return addon
}

func TestHealth(t *testing.T) {
	f := newRouterFixture(t)

	w := f.do(http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	_, err := time.Parse(time.RFC3339, body["timestamp"])
	assert.NoError(t, err)
}

func TestCreateThenListAddons(t *testing.T) {
	f := newRouterFixture(t)
	created := f.createGiftWrap(t)
	assert.Equal(t, "Gift Wrap", created.Name)
	assert.True(t, created.Active)

	w := f.do(http.MethodGet, "/api/addons/123?shop="+testShop, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	var list []domain.AddonDefinition
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)
	assert.Equal(t, "5.00", list[0].BasePrice.StringFixed(2))
}

func TestListAddonsEmptyIsArray(t *testing.T) {
	f := newRouterFixture(t)

	w := f.do(http.MethodGet, "/api/addons/999?shop="+testShop, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestListAddonsRequiresShop(t *testing.T) {
	f := newRouterFixture(t)

	w := f.do(http.MethodGet, "/api/addons/123", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPreflightOnPublicRoute(t *testing.T) {
	f := newRouterFixture(t)

	w := f.do(http.MethodOptions, "/api/addons/123", "", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCreateAddonValidation(t *testing.T) {
	f := newRouterFixture(t)

	body := giftWrap()
	delete(body, "name")
	w := f.do(http.MethodPost, "/api/addons", operatorKey, body)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp["fields"], "name")

	w = f.do(http.MethodPost, "/api/addons", operatorKey, "not an object")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdminRoutesRequireAuth(t *testing.T) {
	f := newRouterFixture(t)

	tests := []struct {
		name  string
		token string
	}{
		{"no token", ""},
		{"wrong key", "guess"},
		{"bad session token", "a.b.c"},
		{"session token for other app", func() string {
			claims := shopify.SessionClaims{Dest: "https://" + testShop, RegisteredClaims: jwt.RegisteredClaims{
				Audience:  jwt.ClaimStrings{"other-app"},
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
			}}
			s, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
			return s
		}()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do(http.MethodPost, "/api/addons", tt.token, giftWrap())
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
	assert.Empty(t, f.addons.addons)
}

func TestSessionTokenScopesShop(t *testing.T) {
	f := newRouterFixture(t)
	token := sessionToken(t, testShop)

	body := giftWrap()
	delete(body, "shop")
	w := f.do(http.MethodPost, "/api/addons", token, body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created domain.AddonDefinition
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, testShop, created.Shop)

	body["shop"] = "other.myshopify.com"
	w = f.do(http.MethodPost, "/api/addons", token, body)
	assert.Equal(t, http.StatusForbidden, w.Code)

	other := sessionToken(t, "other.myshopify.com")
	w = f.do(http.MethodDelete, "/api/addons/"+created.ID.String(), other, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.True(t, f.addons.addons[created.ID].Active)
}

func TestUpdateAddon(t *testing.T) {
	f := newRouterFixture(t)
	created := f.createGiftWrap(t)

	w := f.do(http.MethodPut, "/api/addons/"+created.ID.String(), operatorKey, map[string]interface{}{"price": "7.25"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var updated domain.AddonDefinition
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.Equal(t, "7.25", updated.BasePrice.StringFixed(2))
	assert.Equal(t, "Gift Wrap", updated.Name)

	w = f.do(http.MethodPut, "/api/addons/"+uuid.NewString(), operatorKey, map[string]interface{}{"name": "x"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.do(http.MethodPut, "/api/addons/not-a-uuid", operatorKey, map[string]interface{}{"name": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteAddonIsIdempotent(t *testing.T) {
	f := newRouterFixture(t)
	created := f.createGiftWrap(t)
	path := "/api/addons/" + created.ID.String()

	assert.Equal(t, http.StatusNoContent, f.do(http.MethodDelete, path, operatorKey, nil).Code)
	assert.Equal(t, http.StatusNoContent, f.do(http.MethodDelete, path, operatorKey, nil).Code)

	w := f.do(http.MethodGet, "/api/addons/123?shop="+testShop, "", nil)
	assert.JSONEq(t, `[]`, w.Body.String())

	assert.Equal(t, http.StatusNotFound, f.do(http.MethodDelete, "/api/addons/"+uuid.NewString(), operatorKey, nil).Code)
}

func TestCreateWithIdempotencyKey(t *testing.T) {
	f := newRouterFixture(t)

	first := f.do(http.MethodPost, "/api/addons", operatorKey, giftWrap(), middleware.IdempotencyKeyHeader, "k-1")
	require.Equal(t, http.StatusCreated, first.Code)

	replay := f.do(http.MethodPost, "/api/addons", operatorKey, giftWrap(), middleware.IdempotencyKeyHeader, "k-1")
	require.Equal(t, http.StatusCreated, replay.Code)
	assert.Equal(t, "true", replay.Header().Get("Idempotent-Replayed"))
	assert.JSONEq(t, first.Body.String(), replay.Body.String())
	assert.Len(t, f.addons.addons, 1)

	body := giftWrap()
	body["name"] = "Ribbon"
	conflict := f.do(http.MethodPost, "/api/addons", operatorKey, body, middleware.IdempotencyKeyHeader, "k-1")
	assert.Equal(t, http.StatusConflict, conflict.Code)
}

func TestFailedWriteIsNotRemembered(t *testing.T) {
	f := newRouterFixture(t)

	body := giftWrap()
	body["type"] = "radio"
	w := f.do(http.MethodPost, "/api/addons", operatorKey, body, middleware.IdempotencyKeyHeader, "k-2")
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(http.MethodPost, "/api/addons", operatorKey, body, middleware.IdempotencyKeyHeader, "k-2")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, w.Header().Get("Idempotent-Replayed"))
}

func TestListProductsForUninstalledShop(t *testing.T) {
	f := newRouterFixture(t)

	w := f.do(http.MethodGet, "/api/products?shop="+testShop, operatorKey, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.do(http.MethodGet, "/api/products", operatorKey, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(http.MethodGet, "/api/products?shop=other.myshopify.com", sessionToken(t, testShop), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestInstallRedirect(t *testing.T) {
	f := newRouterFixture(t)

	w := f.do(http.MethodGet, "/auth?shop="+testShop, "", nil)
	require.Equal(t, http.StatusFound, w.Code)

	loc, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, testShop, loc.Host)
	assert.Equal(t, testClientID, loc.Query().Get("client_id"))

	state := loc.Query().Get("state")
	require.NotEmpty(t, state)
	stored, err := f.redis.Get(context.Background(), "oauth:state:"+state).Result()
	require.NoError(t, err)
	assert.Equal(t, testShop, stored)

	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodGet, "/auth?shop=example.com", "", nil).Code)
}

func TestInstallCallbackRejectsBadHMAC(t *testing.T) {
	f := newRouterFixture(t)

	q := url.Values{}
	q.Set("shop", testShop)
	q.Set("code", "c")
	q.Set("state", "s")
	q.Set("hmac", "00")
	w := f.do(http.MethodGet, "/auth/callback?"+q.Encode(), "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
