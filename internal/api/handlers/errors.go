package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Zeenoside1/shopify-product-addons-app/pkg/errors"
)

// respondError maps the typed service errors to a status code and writes {"error": ...}
func respondError(c *gin.Context, err error, logger *zap.Logger) {
	switch e := err.(type) {
	case *errors.ErrValidation:
		body := gin.H{"error": e.Error()}
		if len(e.Fields) > 0 {
			body["fields"] = e.Fields
		}
		c.JSON(http.StatusBadRequest, body)
	case *errors.ErrNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": e.Error()})
	case *errors.ErrUnauthorized:
		c.JSON(http.StatusUnauthorized, gin.H{"error": e.Error()})
	case *errors.ErrConflict:
		c.JSON(http.StatusConflict, gin.H{"error": e.Error()})
	case *errors.ErrUpstream:
		logger.Error("Upstream call failed",
			zap.String("service", e.Service),
			zap.Int("status", e.StatusCode),
			zap.String("path", c.Request.URL.Path),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": e.Message})
	default:
		logger.Error("Request failed", zap.Error(err), zap.String("path", c.Request.URL.Path))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
