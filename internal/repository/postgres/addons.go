package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Zeenoside1/shopify-product-addons-app/internal/domain"
	"github.com/Zeenoside1/shopify-product-addons-app/pkg/errors"
)

const addonColumns = `id, shop, product_id, name, kind, base_price, required, options, active, created_at, updated_at`

type addonRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewAddonRepository creates a new add-on repository
func NewAddonRepository(db *sql.DB, logger *zap.Logger) *addonRepository {
	return &addonRepository{
		db:     db,
		logger: logger,
	}
}

func (r *addonRepository) Create(ctx context.Context, addon *domain.AddonDefinition) error {
	query := `
		INSERT INTO addons (` + addonColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	now := time.Now().UTC()
	if addon.ID == uuid.Nil {
		addon.ID = uuid.New()
	}
	if addon.CreatedAt.IsZero() {
		addon.CreatedAt = now
	}
	if addon.UpdatedAt.IsZero() {
		addon.UpdatedAt = now
	}

	optionsJSON, err := marshalOptions(addon.Options)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, query,
		addon.ID,
		addon.Shop,
		addon.ProductID,
		addon.Name,
		string(addon.Kind),
		addon.BasePrice,
		addon.Required,
		optionsJSON,
		addon.Active,
		addon.CreatedAt,
		addon.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create addon", zap.Error(err), zap.String("shop", addon.Shop))
		return err
	}

	return nil
}

func (r *addonRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.AddonDefinition, error) {
	query := `SELECT ` + addonColumns + ` FROM addons WHERE id = $1`

	addon, err := scanAddon(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "addon", ID: id.String()}
	}
	if err != nil {
		r.logger.Error("Failed to get addon by ID", zap.Error(err), zap.String("addon_id", id.String()))
		return nil, err
	}
	return addon, nil
}

func (r *addonRepository) ListActiveByProduct(ctx context.Context, shop, productID string) ([]*domain.AddonDefinition, error) {
	query := `
		SELECT ` + addonColumns + `
		FROM addons
		WHERE shop = $1 AND product_id = $2 AND active = true
		ORDER BY created_at ASC
	`
	rows, err := r.db.QueryContext(ctx, query, shop, productID)
	if err != nil {
		r.logger.Error("Failed to list addons", zap.Error(err), zap.String("shop", shop), zap.String("product_id", productID))
		return nil, err
	}
	defer rows.Close()

	addons := make([]*domain.AddonDefinition, 0)
	for rows.Next() {
		a, err := scanAddon(rows)
		if err != nil {
			r.logger.Error("Failed to scan addon", zap.Error(err))
			return nil, err
		}
		addons = append(addons, a)
	}
	return addons, rows.Err()
}

func (r *addonRepository) Update(ctx context.Context, addon *domain.AddonDefinition) error {
	query := `
		UPDATE addons
		SET product_id = $2, name = $3, kind = $4, base_price = $5, required = $6,
			options = $7, active = $8, updated_at = $9
		WHERE id = $1
	`

	addon.UpdatedAt = time.Now().UTC()
	optionsJSON, err := marshalOptions(addon.Options)
	if err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx, query,
		addon.ID,
		addon.ProductID,
		addon.Name,
		string(addon.Kind),
		addon.BasePrice,
		addon.Required,
		optionsJSON,
		addon.Active,
		addon.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to update addon", zap.Error(err), zap.String("addon_id", addon.ID.String()))
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return &errors.ErrNotFound{Resource: "addon", ID: addon.ID.String()}
	}
	return nil
}

func (r *addonRepository) Deactivate(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `UPDATE addons SET active = false, updated_at = $2 WHERE id = $1 AND active = true`

	result, err := r.db.ExecContext(ctx, query, id, time.Now().UTC())
	if err != nil {
		r.logger.Error("Failed to deactivate addon", zap.Error(err), zap.String("addon_id", id.String()))
		return false, err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	if rowsAffected > 0 {
		return true, nil
	}

	// Nothing changed: either already inactive or unknown
	var exists bool
	if err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM addons WHERE id = $1)`, id).Scan(&exists); err != nil {
		return false, err
	}
	if !exists {
		return false, &errors.ErrNotFound{Resource: "addon", ID: id.String()}
	}
	return false, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAddon(row rowScanner) (*domain.AddonDefinition, error) {
	var a domain.AddonDefinition
	var kind string
	var optionsJSON []byte
	err := row.Scan(
		&a.ID,
		&a.Shop,
		&a.ProductID,
		&a.Name,
		&kind,
		&a.BasePrice,
		&a.Required,
		&optionsJSON,
		&a.Active,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	a.Kind = domain.AddonKind(kind)
	a.Options = []domain.AddonOption{}
	if len(optionsJSON) > 0 {
		if err := json.Unmarshal(optionsJSON, &a.Options); err != nil {
			return nil, err
		}
	}
	return &a, nil
}

func marshalOptions(options []domain.AddonOption) ([]byte, error) {
	if options == nil {
		options = []domain.AddonOption{}
	}
	return json.Marshal(options)
}
