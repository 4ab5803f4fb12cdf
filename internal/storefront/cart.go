package storefront

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
)

// CartLine is one row of the storefront cart
type CartLine struct {
	Key        string
	VariantID  string
	ProductID  string
	Handle     string
	SKU        string
	Title      string // product title plus variant title, as rendered
	Quantity   int64
	UnitPrice  decimal.Decimal
	LinePrice  decimal.Decimal
	Properties map[string]string
}

// Text is the rendered text of the line used by the fuzzy matcher
func (l CartLine) Text() string {
	var b strings.Builder
	b.WriteString(l.Title)
	for k, v := range l.Properties {
		b.WriteByte(' ')
		b.WriteString(k)
		b.WriteByte(' ')
		b.WriteString(v)
	}
	return strings.ToLower(b.String())
}

type Cart struct {
	Token      string
	Lines      []CartLine
	TotalPrice decimal.Decimal
	Currency   string
}

// CartAPI is the storefront cart endpoint set
type CartAPI interface {
	GetCart(ctx context.Context) (*Cart, error)
	AddLine(ctx context.Context, variantID string, quantity int64, properties map[string]string) error
	UpdateQuantity(ctx context.Context, lineKey string, quantity int64) error
}

// CartView is what the shopper sees of the cart. Lines are the rows currently rendered.
type CartView interface {
	Lines() []CartLine
	Hide(lineKey string)
	Annotate(a Annotations)
}
