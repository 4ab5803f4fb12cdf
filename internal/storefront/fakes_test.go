package storefront

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

type addCall struct {
	VariantID  string
	Quantity   int64
	Properties map[string]string
}

type updateCall struct {
	LineKey  string
	Quantity int64
}

// fakeCart is an in-memory storefront cart that records every write
type fakeCart struct {
	mu        sync.Mutex
	cart      Cart
	gets      int
	adds      []addCall
	updates   []updateCall
	getErr    error
	addErr    error
	updateErr error
	unitPrice decimal.Decimal
}

func newFakeCart(lines ...CartLine) *fakeCart {
	return &fakeCart{
		cart:      Cart{Token: "tok", Lines: lines, Currency: "GBP"},
		unitPrice: dec("0.01"),
	}
}

func (f *fakeCart) GetCart(context.Context) (*Cart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	if f.getErr != nil {
		return nil, f.getErr
	}
	c := f.cart
	c.Lines = append([]CartLine(nil), f.cart.Lines...)
	return &c, nil
}

func (f *fakeCart) AddLine(_ context.Context, variantID string, quantity int64, properties map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.addErr != nil {
		return f.addErr
	}
	f.adds = append(f.adds, addCall{VariantID: variantID, Quantity: quantity, Properties: properties})
	f.cart.Lines = append(f.cart.Lines, CartLine{
		Key:       variantID + ":added",
		VariantID: variantID,
		Quantity:  quantity,
		UnitPrice: f.unitPrice,
		LinePrice: f.unitPrice.Mul(decimal.NewFromInt(quantity)),
	})
	return nil
}

func (f *fakeCart) UpdateQuantity(_ context.Context, lineKey string, quantity int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updates = append(f.updates, updateCall{LineKey: lineKey, Quantity: quantity})
	kept := f.cart.Lines[:0]
	for _, l := range f.cart.Lines {
		if l.Key == lineKey {
			if quantity == 0 {
				continue
			}
			l.Quantity = quantity
			l.LinePrice = l.UnitPrice.Mul(decimal.NewFromInt(quantity))
		}
		kept = append(kept, l)
	}
	f.cart.Lines = kept
	return nil
}

func (f *fakeCart) mutations() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.adds) + len(f.updates)
}

type fakeView struct {
	lines       []CartLine
	hidden      []string
	annotations []Annotations
}

func (v *fakeView) Lines() []CartLine { return v.lines }

func (v *fakeView) Hide(lineKey string) { v.hidden = append(v.hidden, lineKey) }

func (v *fakeView) Annotate(a Annotations) { v.annotations = append(v.annotations, a) }

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

var testSurrogate = Surrogate{
	ProductID: "9000",
	VariantID: "9001",
	SKU:       "ADDON-PRICE-ADJ",
	UnitPrice: decimal.New(1, -2),
}

func productLine(key, productID, variantID, title string, qty int64, unit string) CartLine {
	u := dec(unit)
	return CartLine{
		Key:       key,
		ProductID: productID,
		VariantID: variantID,
		Title:     title,
		Quantity:  qty,
		UnitPrice: u,
		LinePrice: u.Mul(decimal.NewFromInt(qty)),
	}
}

func surrogateLine(qty int64) CartLine {
	return CartLine{
		Key:       "9001:existing",
		ProductID: "9000",
		VariantID: "9001",
		SKU:       "ADDON-PRICE-ADJ",
		Title:     "Add-on price adjustment",
		Quantity:  qty,
		UnitPrice: dec("0.01"),
		LinePrice: dec("0.01").Mul(decimal.NewFromInt(qty)),
	}
}
