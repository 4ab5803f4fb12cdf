package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Zeenoside1/shopify-product-addons-app/internal/api/middleware"
	"github.com/Zeenoside1/shopify-product-addons-app/internal/domain"
	"github.com/Zeenoside1/shopify-product-addons-app/internal/service"
	"github.com/Zeenoside1/shopify-product-addons-app/internal/shopify"
)

// HandleListAddons handles GET /api/addons/:productId?shop=
func HandleListAddons(addons *service.AddonService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := addons.List(c.Request.Context(), c.Query("shop"), c.Param("productId"))
		if err != nil {
			respondError(c, err, logger)
			return
		}
		c.JSON(http.StatusOK, list)
	}
}

// HandleCreateAddon handles POST /api/addons
func HandleCreateAddon(addons *service.AddonService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req service.CreateAddonRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
			return
		}

		if shop, ok := middleware.GetShopFromContext(c); ok {
			if req.Shop == "" {
				req.Shop = shop
			} else if shopify.NormalizeShopDomain(req.Shop) != shop {
				c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
				return
			}
		}

		addon, err := addons.Create(c.Request.Context(), req)
		if err != nil {
			respondError(c, err, logger)
			return
		}
		c.JSON(http.StatusCreated, addon)
	}
}

// HandleUpdateAddon handles PUT /api/addons/:id
func HandleUpdateAddon(addons *service.AddonService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseAddonID(c)
		if !ok {
			return
		}

		var req service.UpdateAddonRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
			return
		}

		if !authorizeAddon(c, addons, id, logger) {
			return
		}

		addon, err := addons.Update(c.Request.Context(), id, req)
		if err != nil {
			respondError(c, err, logger)
			return
		}
		c.JSON(http.StatusOK, addon)
	}
}

// HandleDeleteAddon handles DELETE /api/addons/:id. Deleting twice answers 204 both times.
func HandleDeleteAddon(addons *service.AddonService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseAddonID(c)
		if !ok {
			return
		}
		if !authorizeAddon(c, addons, id, logger) {
			return
		}

		if err := addons.SoftDelete(c.Request.Context(), id); err != nil {
			respondError(c, err, logger)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func parseAddonID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(strings.TrimSpace(c.Param("id")))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid addon ID"})
		return uuid.Nil, false
	}
	return id, true
}

// authorizeAddon writes the response and returns false when the addon is missing or
// belongs to another shop than the session token's
func authorizeAddon(c *gin.Context, addons *service.AddonService, id uuid.UUID, logger *zap.Logger) bool {
	shop, scoped := middleware.GetShopFromContext(c)
	if !scoped {
		return true
	}
	addon, err := addons.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, logger)
		return false
	}
	if !ownedBy(addon, shop) {
		// Same answer as an unknown ID so shops cannot probe each other's add-ons
		c.JSON(http.StatusNotFound, gin.H{"error": "addon not found: " + id.String()})
		return false
	}
	return true
}

func ownedBy(addon *domain.AddonDefinition, shop string) bool {
	return addon.Shop == shop
}
