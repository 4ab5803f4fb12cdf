package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Zeenoside1/shopify-product-addons-app/internal/api/middleware"
	"github.com/Zeenoside1/shopify-product-addons-app/internal/service"
	"github.com/Zeenoside1/shopify-product-addons-app/internal/shopify"
)

// HandleListProducts handles GET /api/products?shop=&limit=
func HandleListProducts(shopifySvc *service.ShopifyService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		shop := shopify.NormalizeShopDomain(c.Query("shop"))
		if sessionShop, ok := middleware.GetShopFromContext(c); ok {
			if shop != "" && shop != sessionShop {
				c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
				return
			}
			shop = sessionShop
		}
		if shop == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "shop is required"})
			return
		}

		limit := 50
		if raw := c.Query("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
				return
			}
			limit = n
		}

		raw, err := shopifySvc.ListProducts(c.Request.Context(), shop, limit)
		if err != nil {
			respondError(c, err, logger)
			return
		}
		c.Data(http.StatusOK, "application/json; charset=utf-8", raw)
	}
}
