package storefront

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Zeenoside1/shopify-product-addons-app/internal/config"
)

// heuristicMinQuantity is the quantity above which a line at the surrogate unit price
// is taken to be the surrogate when no ID or SKU is configured
const heuristicMinQuantity = 50

// Surrogate is the hidden low-price product whose quantity carries the add-on total
type Surrogate struct {
	ProductID string
	VariantID string
	SKU       string
	UnitPrice decimal.Decimal
}

// SurrogateFromConfig reads the surrogate product from config. A malformed or
// non-positive unit price falls back to 0.01.
func SurrogateFromConfig(cfg config.StorefrontConfig) Surrogate {
	unit, err := decimal.NewFromString(cfg.SurrogateUnitPrice)
	if err != nil || !unit.IsPositive() {
		unit = decimal.New(1, -2)
	}
	return Surrogate{
		ProductID: cfg.SurrogateProductID,
		VariantID: cfg.SurrogateVariantID,
		SKU:       cfg.SurrogateSKU,
		UnitPrice: unit,
	}
}

// Is reports whether line is the surrogate by product or variant ID or by SKU token.
// Without any of those configured, a quantity above 50 at the surrogate unit price
// identifies it instead.
func (s Surrogate) Is(line CartLine) bool {
	if !s.identified() {
		return line.Quantity > heuristicMinQuantity && line.UnitPrice.Equal(s.UnitPrice)
	}
	if s.VariantID != "" && line.VariantID == s.VariantID {
		return true
	}
	if s.ProductID != "" && line.ProductID == s.ProductID {
		return true
	}
	return s.SKU != "" && strings.Contains(strings.ToUpper(line.SKU), strings.ToUpper(s.SKU))
}

func (s Surrogate) identified() bool {
	return s.VariantID != "" || s.ProductID != "" || s.SKU != ""
}

// QuantityFor converts an amount into surrogate units, rounding half away from zero
func (s Surrogate) QuantityFor(total decimal.Decimal) int64 {
	if !total.IsPositive() {
		return 0
	}
	return total.Div(s.UnitPrice).Round(0).IntPart()
}

// Amount is the price carried by quantity units
func (s Surrogate) Amount(quantity int64) decimal.Decimal {
	return s.UnitPrice.Mul(decimal.NewFromInt(quantity))
}
