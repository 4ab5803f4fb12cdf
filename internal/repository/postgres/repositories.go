package postgres

import (
	"database/sql"

	"go.uber.org/zap"

	"github.com/Zeenoside1/shopify-product-addons-app/internal/repository"
)

// NewRepositories creates the SQL-backed repositories. OAuth state lives in Redis
// and is attached by the caller.
func NewRepositories(db *sql.DB, logger *zap.Logger) *repository.Repositories {
	return &repository.Repositories{
		Addon: NewAddonRepository(db, logger),
		Shop:  NewShopRepository(db, logger),
	}
}
