package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Zeenoside1/shopify-product-addons-app/internal/domain"
)

// AddonRepository defines add-on definition data access methods
type AddonRepository interface {
	Create(ctx context.Context, addon *domain.AddonDefinition) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.AddonDefinition, error)
	ListActiveByProduct(ctx context.Context, shop, productID string) ([]*domain.AddonDefinition, error)
	Update(ctx context.Context, addon *domain.AddonDefinition) error
	// Deactivate sets active=false. changed is false when the row was already inactive.
	Deactivate(ctx context.Context, id uuid.UUID) (changed bool, err error)
}

// ShopRepository defines installed shop data access methods
type ShopRepository interface {
	GetByDomain(ctx context.Context, domain string) (*domain.Shop, error)
	Upsert(ctx context.Context, shop *domain.Shop) error
	UpdateScriptTagID(ctx context.Context, domain string, scriptTagID int64) error
}

// OAuthStateRepository stores the nonce sent to Shopify's authorize endpoint
type OAuthStateRepository interface {
	Save(ctx context.Context, state, shop string, ttl time.Duration) error
	// Consume returns the shop bound to state and deletes it; ErrNotFound if absent or expired
	Consume(ctx context.Context, state string) (string, error)
}

// IdempotencyRepository remembers responses to replay for repeated Idempotency-Keys
type IdempotencyRepository interface {
	// Get returns nil, nil when the key is unknown
	Get(ctx context.Context, key string) (*domain.IdempotencyRecord, error)
	Save(ctx context.Context, record *domain.IdempotencyRecord, ttl time.Duration) error
}

// Repositories aggregates all repositories
type Repositories struct {
	Addon       AddonRepository
	Shop        ShopRepository
	OAuthState  OAuthStateRepository
	Idempotency IdempotencyRepository
}
