package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/Zeenoside1/shopify-product-addons-app/internal/config"
	"github.com/Zeenoside1/shopify-product-addons-app/internal/shopify"
)

const (
	ShopContextKey     = "shop"
	OperatorContextKey = "operator"
)

// AdminAuth accepts either an App Bridge session token or the operator API key as the
// Bearer token. Session tokens pin the request to the shop in their dest claim.
func AdminAuth(cfg *config.Config, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			c.Abort()
			return
		}

		// Extract Bearer token
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header format"})
			c.Abort()
			return
		}

		token := strings.TrimSpace(parts[1])
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			c.Abort()
			return
		}

		if strings.Count(token, ".") == 2 {
			shop, err := shopify.VerifySessionToken(token, cfg.Shopify.ClientID, cfg.Shopify.ClientSecret)
			if err != nil {
				logger.Warn("Rejected session token", zap.Error(err))
				c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid session token"})
				c.Abort()
				return
			}
			c.Set(ShopContextKey, shop)
			c.Next()
			return
		}

		if cfg.Security.AdminKeyHash == "" || !VerifyAPIKey(token, cfg.Security.AdminKeyHash) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid API key"})
			c.Abort()
			return
		}
		c.Set(OperatorContextKey, true)
		c.Next()
	}
}

// GetShopFromContext returns the shop a session token was issued for. ok is false for
// operator requests, which may act on any shop.
func GetShopFromContext(c *gin.Context) (string, bool) {
	shop, exists := c.Get(ShopContextKey)
	if !exists {
		return "", false
	}
	s, ok := shop.(string)
	return s, ok && s != ""
}

// HashAPIKey hashes an API key using bcrypt
func HashAPIKey(apiKey string) (string, error) {
	// Use a cost of 10 for API keys (faster than passwords)
	hash, err := bcrypt.GenerateFromPassword([]byte(apiKey), 10)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyAPIKey verifies an API key against a hash
func VerifyAPIKey(apiKey, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(apiKey))
	return err == nil
}
