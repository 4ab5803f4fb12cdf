package storefront

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

type AdjustAction string

const (
	ActionNone   AdjustAction = "none"
	ActionAdd    AdjustAction = "add"
	ActionUpdate AdjustAction = "update"
	ActionRemove AdjustAction = "remove"
)

// AdjustResult describes the cart write an adjuster made
type AdjustResult struct {
	Action   AdjustAction
	Quantity int64
	LineKey  string
}

// Mutated reports whether the cart was written
func (r AdjustResult) Mutated() bool {
	return r.Action != ActionNone
}

// PriceAdjuster applies the add-on total to a cart
type PriceAdjuster interface {
	Adjust(ctx context.Context, cart *Cart, needed decimal.Decimal) (AdjustResult, error)
}

// SurrogateAdjuster carries the total as the quantity of the surrogate line. It is
// the fallback for platforms without per-line price overrides.
type SurrogateAdjuster struct {
	api       CartAPI
	surrogate Surrogate
}

func NewSurrogateAdjuster(api CartAPI, surrogate Surrogate) *SurrogateAdjuster {
	return &SurrogateAdjuster{api: api, surrogate: surrogate}
}

// Adjust sets the surrogate quantity to needed / unit price. A zero total removes a
// stale surrogate line; extra surrogate lines are zeroed.
func (a *SurrogateAdjuster) Adjust(ctx context.Context, cart *Cart, needed decimal.Decimal) (AdjustResult, error) {
	want := a.surrogate.QuantityFor(needed)

	var existing []CartLine
	for _, line := range cart.Lines {
		if a.surrogate.Is(line) {
			existing = append(existing, line)
		}
	}

	result := AdjustResult{Action: ActionNone, Quantity: want}
	for _, dup := range tail(existing) {
		if err := a.api.UpdateQuantity(ctx, dup.Key, 0); err != nil {
			return result, fmt.Errorf("failed to remove duplicate surrogate line: %w", err)
		}
		result.Action = ActionRemove
	}

	switch {
	case len(existing) == 0 && want == 0:
		return result, nil
	case len(existing) == 0:
		if a.surrogate.VariantID == "" {
			return result, fmt.Errorf("surrogate variant is not configured")
		}
		if err := a.api.AddLine(ctx, a.surrogate.VariantID, want, nil); err != nil {
			return result, fmt.Errorf("failed to add surrogate line: %w", err)
		}
		result.Action = ActionAdd
		return result, nil
	}

	line := existing[0]
	result.LineKey = line.Key
	if line.Quantity == want {
		return result, nil
	}
	if err := a.api.UpdateQuantity(ctx, line.Key, want); err != nil {
		return result, fmt.Errorf("failed to update surrogate line: %w", err)
	}
	if want == 0 {
		result.Action = ActionRemove
	} else {
		result.Action = ActionUpdate
	}
	return result, nil
}

func tail(lines []CartLine) []CartLine {
	if len(lines) < 2 {
		return nil
	}
	return lines[1:]
}
