package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AddonOption is one choice of a dropdown add-on. Price is added on top of the
// add-on's base price.
type AddonOption struct {
	Label string          `json:"label"`
	Value string          `json:"value"`
	Price decimal.Decimal `json:"price"`
}

// AddonDefinition is an add-on offered on a product of a shop
type AddonDefinition struct {
	ID        uuid.UUID       `json:"id"`
	Shop      string          `json:"shop"`
	ProductID string          `json:"productId"` // numeric Shopify ID, or a handle pending resolution
	Name      string          `json:"name"`
	Kind      AddonKind       `json:"type"`
	BasePrice decimal.Decimal `json:"price"`
	Required  bool            `json:"required"` // checkbox only: pre-checked and locked
	Options   []AddonOption   `json:"options"`
	Active    bool            `json:"active"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// PriceFor returns the price charged when the add-on is selected with the given
// value. Checkboxes ignore value. Dropdowns add the matching option price to the
// base price; ok is false when value matches no option.
func (a *AddonDefinition) PriceFor(value string) (price decimal.Decimal, label string, ok bool) {
	if a.Kind != AddonKindDropdown {
		return a.BasePrice, a.Name, true
	}
	for _, opt := range a.Options {
		if opt.Value == value {
			return a.BasePrice.Add(opt.Price), opt.Label, true
		}
	}
	return decimal.Zero, "", false
}

// HasNumericProductID reports whether ProductID is already a Shopify numeric ID
func (a *AddonDefinition) HasNumericProductID() bool {
	if a.ProductID == "" {
		return false
	}
	for _, r := range a.ProductID {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Shop is an installed store and its Admin API credential
type Shop struct {
	Domain         string
	AccessTokenEnc string // AES-GCM, base64url(nonce|ciphertext)
	Scope          string
	ScriptTagID    *int64
	InstalledAt    time.Time
	UpdatedAt      time.Time
	UninstalledAt  *time.Time
}

// IsInstalled reports whether the shop currently has a usable credential
func (s *Shop) IsInstalled() bool {
	return s.UninstalledAt == nil && s.AccessTokenEnc != ""
}

// IdempotencyRecord is the stored response of a write request sent with an Idempotency-Key
type IdempotencyRecord struct {
	Key         string `json:"key"`
	RequestHash string `json:"requestHash"`
	StatusCode  int    `json:"statusCode"`
	Body        []byte `json:"body"`
}
