package storefront

import "github.com/shopspring/decimal"

// LineAnnotation is the price a matched line should display including its add-ons
type LineAnnotation struct {
	LineKey   string          `json:"lineKey"`
	Delta     decimal.Decimal `json:"delta"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	LineTotal decimal.Decimal `json:"lineTotal"`
}

// Annotations are the display rewrites for one cart view
type Annotations struct {
	Lines      []LineAnnotation `json:"lines"`
	GrandTotal decimal.Decimal  `json:"grandTotal"`
	Currency   string           `json:"currency"`
}

// IsEmpty reports whether there is nothing to rewrite
func (a Annotations) IsEmpty() bool {
	return len(a.Lines) == 0
}

type lineMatch struct {
	line      CartLine
	selection *Selection
	method    MatchMethod
}

// annotate folds each matched selection into its line's displayed prices. The grand
// total is the non-surrogate lines plus neededTotal.
func annotate(cart *Cart, matches []lineMatch, surrogate Surrogate, neededTotal decimal.Decimal) Annotations {
	out := Annotations{
		Lines:    make([]LineAnnotation, 0, len(matches)),
		Currency: cart.Currency,
	}

	grand := decimal.Zero
	for _, line := range cart.Lines {
		if surrogate.Is(line) {
			continue
		}
		grand = grand.Add(line.LinePrice)
	}
	out.GrandTotal = grand.Add(neededTotal)

	for _, m := range matches {
		delta := m.selection.Total()
		out.Lines = append(out.Lines, LineAnnotation{
			LineKey:   m.line.Key,
			Delta:     delta,
			UnitPrice: m.line.UnitPrice.Add(delta),
			LineTotal: m.line.LinePrice.Add(delta.Mul(decimal.NewFromInt(m.line.Quantity))),
		})
	}
	return out
}
