package storefront

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Line item properties attached at add-to-cart time
const (
	PropertySelectionID = "_addon_selection_id"
	PropertyAddons      = "_addons"
)

var ErrSelectionNotFound = errors.New("selection not found")

// ChosenAddon is one add-on the shopper picked, priced at selection time. Value is
// the display label of a dropdown option and OptionValue its stored value.
type ChosenAddon struct {
	AddonID     string          `json:"addonId"`
	Name        string          `json:"name"`
	Value       string          `json:"value"`
	OptionValue string          `json:"optionValue,omitempty"`
	Price       decimal.Decimal `json:"price"`
}

// Selection is the set of add-ons chosen for one product. The total is always derived
// from ChosenAddons.
type Selection struct {
	ID           string
	ProductID    string
	VariantID    string
	ChosenAddons []ChosenAddon
	Timestamp    time.Time

	total decimal.Decimal
}

func NewSelection(id, productID, variantID string, addons []ChosenAddon, at time.Time) *Selection {
	s := &Selection{
		ID:           id,
		ProductID:    productID,
		VariantID:    variantID,
		ChosenAddons: append([]ChosenAddon(nil), addons...),
		Timestamp:    at,
	}
	s.recompute()
	return s
}

func (s *Selection) Total() decimal.Decimal {
	return s.total
}

// Add appends or replaces the add-on with the same AddonID
func (s *Selection) Add(a ChosenAddon) {
	for i := range s.ChosenAddons {
		if s.ChosenAddons[i].AddonID == a.AddonID {
			s.ChosenAddons[i] = a
			s.recompute()
			return
		}
	}
	s.ChosenAddons = append(s.ChosenAddons, a)
	s.recompute()
}

func (s *Selection) Remove(addonID string) {
	kept := s.ChosenAddons[:0]
	for _, a := range s.ChosenAddons {
		if a.AddonID != addonID {
			kept = append(kept, a)
		}
	}
	s.ChosenAddons = kept
	s.recompute()
}

func (s *Selection) Expired(now time.Time, maxAge time.Duration) bool {
	return now.Sub(s.Timestamp) > maxAge
}

func (s *Selection) recompute() {
	total := decimal.Zero
	for _, a := range s.ChosenAddons {
		total = total.Add(a.Price)
	}
	s.total = total
}

type selectionJSON struct {
	ID           string          `json:"id"`
	ProductID    string          `json:"productId"`
	VariantID    string          `json:"variantId,omitempty"`
	ChosenAddons []ChosenAddon   `json:"chosenAddons"`
	TotalPrice   decimal.Decimal `json:"totalPrice"`
	Timestamp    time.Time       `json:"timestamp"`
}

func (s *Selection) MarshalJSON() ([]byte, error) {
	addons := s.ChosenAddons
	if addons == nil {
		addons = []ChosenAddon{}
	}
	return json.Marshal(selectionJSON{
		ID:           s.ID,
		ProductID:    s.ProductID,
		VariantID:    s.VariantID,
		ChosenAddons: addons,
		TotalPrice:   s.total,
		Timestamp:    s.Timestamp,
	})
}

// UnmarshalJSON ignores the stored totalPrice and recomputes it
func (s *Selection) UnmarshalJSON(data []byte) error {
	var raw selectionJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = Selection{
		ID:           raw.ID,
		ProductID:    raw.ProductID,
		VariantID:    raw.VariantID,
		ChosenAddons: raw.ChosenAddons,
		Timestamp:    raw.Timestamp,
	}
	s.recompute()
	return nil
}

// SelectionStore holds one shopper session's selections, keyed by product
type SelectionStore interface {
	// Record overwrites the selection for productID and returns it with a fresh ID
	Record(ctx context.Context, productID, variantID string, addons []ChosenAddon) (*Selection, error)
	Get(ctx context.Context, productID string) (*Selection, error)
	All(ctx context.Context) ([]*Selection, error)
	Delete(ctx context.Context, productID string) error
	PurgeExpired(ctx context.Context, maxAge time.Duration) (int, error)
}
