package service

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Zeenoside1/shopify-product-addons-app/internal/config"
	"github.com/Zeenoside1/shopify-product-addons-app/internal/storefront"
)

var selectionPurgeMu sync.Mutex

// RunSelectionPurgeOnce removes selections older than the configured TTL from every
// session. Does not block on errors; logs them.
func RunSelectionPurgeOnce(ctx context.Context, cfg config.StorefrontConfig, client *redis.Client, logger *zap.Logger) int {
	selectionPurgeMu.Lock()
	defer selectionPurgeMu.Unlock()

	removed, err := storefront.PurgeAllSessions(ctx, client, cfg.SelectionTTL, logger)
	if err != nil {
		logger.Warn("Selection purge failed", zap.Error(err), zap.Int("removed", removed))
		return removed
	}
	if removed > 0 {
		logger.Info("Selection purge: removed expired selections", zap.Int("removed", removed))
	}
	return removed
}

// RunSelectionPurgeLoop purges once, then every cfg.PurgeInterval. Call from a goroutine.
func RunSelectionPurgeLoop(ctx context.Context, cfg config.StorefrontConfig, client *redis.Client, logger *zap.Logger) {
	RunSelectionPurgeOnce(ctx, cfg, client, logger)

	interval := cfg.PurgeInterval
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			RunSelectionPurgeOnce(ctx, cfg, client, logger)
		}
	}
}
