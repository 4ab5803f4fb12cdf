package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/Zeenoside1/shopify-product-addons-app/internal/config"
	"github.com/Zeenoside1/shopify-product-addons-app/internal/domain"
	"github.com/Zeenoside1/shopify-product-addons-app/internal/repository"
	"github.com/Zeenoside1/shopify-product-addons-app/internal/security"
	"github.com/Zeenoside1/shopify-product-addons-app/internal/shopify"
	"github.com/Zeenoside1/shopify-product-addons-app/pkg/errors"
)

const oauthStateTTL = 10 * time.Minute

type ShopifyService struct {
	cfg     config.ShopifyConfig
	repos   *repository.Repositories
	clients *shopify.ClientFactory
	oauth   *shopify.OAuth
	cipher  *security.TokenCipher
	logger  *zap.Logger
}

// NewShopifyService creates the service that owns shop credentials and Admin API access
func NewShopifyService(
	cfg config.ShopifyConfig,
	repos *repository.Repositories,
	clients *shopify.ClientFactory,
	oauth *shopify.OAuth,
	cipher *security.TokenCipher,
	logger *zap.Logger,
) *ShopifyService {
	return &ShopifyService{
		cfg:     cfg,
		repos:   repos,
		clients: clients,
		oauth:   oauth,
		cipher:  cipher,
		logger:  logger,
	}
}

// ClientFor loads and decrypts the shop credential. ErrNotFound if the shop is not installed.
func (s *ShopifyService) ClientFor(ctx context.Context, shopDomain string) (*shopify.Client, error) {
	shopDomain = shopify.NormalizeShopDomain(shopDomain)
	shop, err := s.repos.Shop.GetByDomain(ctx, shopDomain)
	if err != nil {
		return nil, err
	}
	if !shop.IsInstalled() {
		return nil, &errors.ErrNotFound{Resource: "shop", ID: shopDomain}
	}
	token, err := s.cipher.Decrypt(shop.AccessTokenEnc)
	if err != nil {
		s.logger.Error("Failed to decrypt shop token", zap.String("shop", shopDomain), zap.Error(err))
		return nil, fmt.Errorf("failed to decrypt token for %s: %w", shopDomain, err)
	}
	return s.clients.For(shopDomain, token), nil
}

func (s *ShopifyService) ResolveProductHandle(ctx context.Context, shopDomain, handle string) (string, error) {
	client, err := s.ClientFor(ctx, shopDomain)
	if err != nil {
		return "", err
	}
	return client.ResolveProductHandle(ctx, handle)
}

// ListProducts passes the shop's REST product list through unchanged
func (s *ShopifyService) ListProducts(ctx context.Context, shopDomain string, limit int) (json.RawMessage, error) {
	client, err := s.ClientFor(ctx, shopDomain)
	if err != nil {
		return nil, err
	}
	return client.ListProducts(ctx, limit)
}

// BeginInstall issues a state nonce for shop and returns the authorize URL to redirect to
func (s *ShopifyService) BeginInstall(ctx context.Context, shopDomain string) (string, error) {
	shopDomain = shopify.NormalizeShopDomain(shopDomain)
	if !shopify.IsValidShopDomain(shopDomain) {
		return "", errors.NewValidation("shop", "must be a myshopify.com domain")
	}
	state, err := security.RandomState(24)
	if err != nil {
		return "", err
	}
	if err := s.repos.OAuthState.Save(ctx, state, shopDomain, oauthStateTTL); err != nil {
		return "", err
	}
	return s.oauth.AuthorizeURL(shopDomain, state), nil
}

// CompleteInstall verifies the callback, stores the encrypted token and registers the
// storefront script. The script tag is best-effort.
func (s *ShopifyService) CompleteInstall(ctx context.Context, q url.Values) (string, error) {
	shopDomain := shopify.NormalizeShopDomain(q.Get("shop"))
	code := q.Get("code")
	state := q.Get("state")
	if shopDomain == "" || code == "" || q.Get("hmac") == "" || state == "" {
		return "", errors.NewValidation("query", "missing shop/code/hmac/state")
	}
	if !shopify.IsValidShopDomain(shopDomain) {
		return "", errors.NewValidation("shop", "must be a myshopify.com domain")
	}
	if !shopify.VerifyQueryHMAC(q, s.cfg.ClientSecret) {
		return "", &errors.ErrUnauthorized{Message: "invalid hmac"}
	}

	boundShop, err := s.repos.OAuthState.Consume(ctx, state)
	if err != nil {
		if _, ok := err.(*errors.ErrNotFound); ok {
			return "", &errors.ErrUnauthorized{Message: "invalid or expired state"}
		}
		return "", err
	}
	if boundShop != shopDomain {
		return "", &errors.ErrUnauthorized{Message: "state was issued for another shop"}
	}

	tok, err := s.oauth.ExchangeCode(ctx, shopDomain, code)
	if err != nil {
		s.logger.Error("Token exchange failed", zap.String("shop", shopDomain), zap.Error(err))
		return "", err
	}

	enc, err := s.cipher.Encrypt(tok.AccessToken)
	if err != nil {
		return "", err
	}
	shop := &domain.Shop{
		Domain:         shopDomain,
		AccessTokenEnc: enc,
		Scope:          tok.Scope,
	}
	if err := s.repos.Shop.Upsert(ctx, shop); err != nil {
		return "", err
	}
	s.logger.Info("Shop installed", zap.String("shop", shopDomain), zap.String("scope", tok.Scope))

	s.registerScriptTag(ctx, shopDomain, tok.AccessToken)
	return shopDomain, nil
}

func (s *ShopifyService) registerScriptTag(ctx context.Context, shopDomain, accessToken string) {
	if s.cfg.ScriptTagURL == "" {
		return
	}
	id, err := s.clients.For(shopDomain, accessToken).CreateScriptTag(ctx, s.cfg.ScriptTagURL)
	if err != nil {
		s.logger.Warn("Failed to register storefront script tag", zap.String("shop", shopDomain), zap.Error(err))
		return
	}
	if err := s.repos.Shop.UpdateScriptTagID(ctx, shopDomain, id); err != nil {
		s.logger.Warn("Failed to store script tag ID", zap.String("shop", shopDomain), zap.Error(err))
	}
}
