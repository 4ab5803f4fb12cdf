package postgres

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"

	"github.com/Zeenoside1/shopify-product-addons-app/internal/domain"
	"github.com/Zeenoside1/shopify-product-addons-app/pkg/errors"
)

type shopRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewShopRepository creates a new shop repository
func NewShopRepository(db *sql.DB, logger *zap.Logger) *shopRepository {
	return &shopRepository{
		db:     db,
		logger: logger,
	}
}

func (r *shopRepository) GetByDomain(ctx context.Context, shopDomain string) (*domain.Shop, error) {
	query := `
		SELECT shop, access_token_enc, scope, script_tag_id, installed_at, updated_at, uninstalled_at
		FROM shops
		WHERE shop = $1
	`

	var shop domain.Shop
	var scriptTagID sql.NullInt64
	var uninstalledAt sql.NullTime

	err := r.db.QueryRowContext(ctx, query, shopDomain).Scan(
		&shop.Domain,
		&shop.AccessTokenEnc,
		&shop.Scope,
		&scriptTagID,
		&shop.InstalledAt,
		&shop.UpdatedAt,
		&uninstalledAt,
	)
	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "shop", ID: shopDomain}
	}
	if err != nil {
		r.logger.Error("Failed to get shop", zap.Error(err), zap.String("shop", shopDomain))
		return nil, err
	}

	if scriptTagID.Valid {
		shop.ScriptTagID = &scriptTagID.Int64
	}
	if uninstalledAt.Valid {
		shop.UninstalledAt = &uninstalledAt.Time
	}
	return &shop, nil
}

// Upsert stores the credential from a (re)install. A reinstall clears uninstalled_at
// and keeps the original installed_at.
func (r *shopRepository) Upsert(ctx context.Context, shop *domain.Shop) error {
	query := `
		INSERT INTO shops (shop, access_token_enc, scope, installed_at, updated_at, uninstalled_at)
		VALUES ($1, $2, $3, $4, $5, NULL)
		ON CONFLICT (shop) DO UPDATE SET
			access_token_enc = EXCLUDED.access_token_enc,
			scope = EXCLUDED.scope,
			updated_at = EXCLUDED.updated_at,
			uninstalled_at = NULL
	`

	now := time.Now().UTC()
	if shop.InstalledAt.IsZero() {
		shop.InstalledAt = now
	}
	shop.UpdatedAt = now
	shop.UninstalledAt = nil

	_, err := r.db.ExecContext(ctx, query,
		shop.Domain,
		shop.AccessTokenEnc,
		shop.Scope,
		shop.InstalledAt,
		shop.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to upsert shop", zap.Error(err), zap.String("shop", shop.Domain))
		return err
	}
	return nil
}

func (r *shopRepository) UpdateScriptTagID(ctx context.Context, shopDomain string, scriptTagID int64) error {
	query := `UPDATE shops SET script_tag_id = $2, updated_at = $3 WHERE shop = $1`

	result, err := r.db.ExecContext(ctx, query, shopDomain, scriptTagID, time.Now().UTC())
	if err != nil {
		r.logger.Error("Failed to update script tag ID", zap.Error(err), zap.String("shop", shopDomain))
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return &errors.ErrNotFound{Resource: "shop", ID: shopDomain}
	}
	return nil
}
