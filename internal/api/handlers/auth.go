package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Zeenoside1/shopify-product-addons-app/internal/config"
	"github.com/Zeenoside1/shopify-product-addons-app/internal/service"
)

// HandleInstall handles GET /auth?shop=
func HandleInstall(shopifySvc *service.ShopifyService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authURL, err := shopifySvc.BeginInstall(c.Request.Context(), c.Query("shop"))
		if err != nil {
			respondError(c, err, logger)
			return
		}
		c.Redirect(http.StatusFound, authURL)
	}
}

// HandleInstallCallback handles GET /auth/callback and sends the merchant back to the app in their admin
func HandleInstallCallback(cfg *config.Config, shopifySvc *service.ShopifyService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		shop, err := shopifySvc.CompleteInstall(c.Request.Context(), c.Request.URL.Query())
		if err != nil {
			logger.Warn("Install callback rejected", zap.Error(err), zap.String("shop", c.Query("shop")))
			respondError(c, err, logger)
			return
		}
		c.Redirect(http.StatusFound, fmt.Sprintf("https://%s/admin/apps/%s", shop, cfg.Shopify.ClientID))
	}
}
