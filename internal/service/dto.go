package service

import "github.com/shopspring/decimal"

// CreateAddonRequest is the POST /api/addons payload
type CreateAddonRequest struct {
	ProductID string             `json:"productId" validate:"required,max=255"`
	Name      string             `json:"name" validate:"required,max=255"`
	Price     *decimal.Decimal   `json:"price" validate:"required"`
	Type      string             `json:"type" validate:"required"`
	Required  bool               `json:"required"`
	Options   []AddonOptionInput `json:"options" validate:"omitempty,dive"`
	Shop      string             `json:"shop" validate:"required"`
}

// AddonOptionInput is one dropdown choice. Value defaults to Label, Price to zero.
type AddonOptionInput struct {
	Label string           `json:"label" validate:"required,max=255"`
	Value string           `json:"value" validate:"max=255"`
	Price *decimal.Decimal `json:"price"`
}

// UpdateAddonRequest is the PUT /api/addons/:id payload. Nil fields are left unchanged.
type UpdateAddonRequest struct {
	ProductID *string            `json:"productId" validate:"omitempty,min=1,max=255"`
	Name      *string            `json:"name" validate:"omitempty,min=1,max=255"`
	Price     *decimal.Decimal   `json:"price"`
	Type      *string            `json:"type"`
	Required  *bool              `json:"required"`
	Options   []AddonOptionInput `json:"options" validate:"omitempty,dive"` // [] clears, nil keeps
	Active    *bool              `json:"active"`
}
