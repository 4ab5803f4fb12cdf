package storefront

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DefaultRecentWindow is how long a processed marker suppresses another sync
const DefaultRecentWindow = 5 * time.Second

type State string

const (
	StateIdle        State = "idle"
	StateHiding      State = "hiding"
	StateCheckRecent State = "check_recent"
	StateSyncing     State = "syncing"
	StateDone        State = "done"
)

// Outcome is what one reconciliation run did
type Outcome struct {
	Path        []State
	Hidden      int
	FromCache   bool
	Matched     int
	NeededTotal decimal.Decimal
	Adjustment  AdjustResult
	Annotations Annotations
}

// State is the last state the run reached
func (o *Outcome) State() State {
	return o.Path[len(o.Path)-1]
}

func (o *Outcome) enter(s State) {
	o.Path = append(o.Path, s)
}

type ReconcilerConfig struct {
	Selections   SelectionStore
	Cart         CartAPI
	Adjuster     PriceAdjuster // defaults to a SurrogateAdjuster over Cart
	Markers      MarkerStore
	View         CartView
	Surrogate    Surrogate
	RecentWindow time.Duration
	Logger       *zap.Logger
}

// Reconciler keeps the cart's add-on adjustment equal to the matched selection totals
type Reconciler struct {
	selections SelectionStore
	cart       CartAPI
	adjuster   PriceAdjuster
	markers    MarkerStore
	view       CartView
	surrogate  Surrogate
	window     time.Duration
	now        func() time.Time
	logger     *zap.Logger
}

func NewReconciler(cfg ReconcilerConfig) *Reconciler {
	r := &Reconciler{
		selections: cfg.Selections,
		cart:       cfg.Cart,
		adjuster:   cfg.Adjuster,
		markers:    cfg.Markers,
		view:       cfg.View,
		surrogate:  cfg.Surrogate,
		window:     cfg.RecentWindow,
		now:        time.Now,
		logger:     cfg.Logger,
	}
	if r.adjuster == nil {
		r.adjuster = NewSurrogateAdjuster(cfg.Cart, cfg.Surrogate)
	}
	if r.markers == nil {
		r.markers = NewMemoryMarkerStore()
	}
	if r.window <= 0 {
		r.window = DefaultRecentWindow
	}
	if r.logger == nil {
		r.logger = zap.NewNop()
	}
	return r
}

// Run performs one pass. Any cart read or write failure aborts the pass without
// writing the marker; the caller logs it and the next pass starts over.
func (r *Reconciler) Run(ctx context.Context) (*Outcome, error) {
	out := &Outcome{Path: []State{StateIdle}, NeededTotal: decimal.Zero}

	out.enter(StateHiding)
	if r.view != nil {
		for _, line := range r.view.Lines() {
			if r.surrogate.Is(line) {
				r.view.Hide(line.Key)
				out.Hidden++
			}
		}
	}

	out.enter(StateCheckRecent)
	marker, err := r.markers.Load(ctx)
	if err != nil {
		r.logger.Warn("Failed to load processed marker", zap.Error(err))
	}
	if marker != nil && r.now().Sub(marker.At) < r.window {
		out.FromCache = true
		out.Annotations = marker.Annotations
		r.show(out.Annotations)
		out.enter(StateDone)
		return out, nil
	}

	out.enter(StateSyncing)
	cart, err := r.cart.GetCart(ctx)
	if err != nil {
		return out, fmt.Errorf("failed to fetch cart: %w", err)
	}
	selections, err := r.selections.All(ctx)
	if err != nil {
		return out, fmt.Errorf("failed to load selections: %w", err)
	}

	matches, needed := r.match(cart, selections)
	out.Matched = len(matches)
	out.NeededTotal = needed

	adj, err := r.adjuster.Adjust(ctx, cart, needed)
	out.Adjustment = adj
	if err != nil {
		return out, err
	}

	if needed.IsZero() {
		if adj.Mutated() {
			r.saveMarker(ctx, Annotations{Currency: cart.Currency})
		}
		out.enter(StateDone)
		return out, nil
	}

	out.Annotations = annotate(cart, matches, r.surrogate, needed)
	r.saveMarker(ctx, out.Annotations)
	r.show(out.Annotations)
	out.enter(StateDone)

	r.logger.Debug("Cart reconciled",
		zap.String("needed_total", needed.StringFixed(2)),
		zap.String("action", string(adj.Action)),
		zap.Int64("quantity", adj.Quantity),
		zap.Int("matched", out.Matched),
	)
	return out, nil
}

// match pairs cart lines with selections. Each selection counts once and surrogate
// lines are skipped. Exact matches are assigned across the whole cart before any
// line is matched by text.
func (r *Reconciler) match(cart *Cart, selections []*Selection) ([]lineMatch, decimal.Decimal) {
	remaining := append([]*Selection(nil), selections...)
	found := make([]*lineMatch, len(cart.Lines))

	for i, line := range cart.Lines {
		if r.surrogate.Is(line) || len(remaining) == 0 {
			continue
		}
		if sel, method := findExactMatch(line, remaining); sel != nil {
			found[i] = &lineMatch{line: line, selection: sel, method: method}
			remaining = without(remaining, sel)
		}
	}

	for i, line := range cart.Lines {
		if found[i] != nil || r.surrogate.Is(line) || len(remaining) == 0 {
			continue
		}
		sel, err := fuzzyMatch(line, remaining)
		if errors.Is(err, ErrMatchAmbiguous) {
			r.logger.Debug("Ambiguous add-on match ignored", zap.String("line_key", line.Key))
			continue
		}
		if sel == nil {
			continue
		}
		found[i] = &lineMatch{line: line, selection: sel, method: MatchFuzzy}
		remaining = without(remaining, sel)
	}

	var matches []lineMatch
	needed := decimal.Zero
	for _, m := range found {
		if m == nil {
			continue
		}
		matches = append(matches, *m)
		needed = needed.Add(m.selection.Total())
	}
	return matches, needed
}

func (r *Reconciler) saveMarker(ctx context.Context, a Annotations) {
	if err := r.markers.Save(ctx, &Marker{At: r.now(), Annotations: a}); err != nil {
		r.logger.Warn("Failed to save processed marker", zap.Error(err))
	}
}

func (r *Reconciler) show(a Annotations) {
	if r.view != nil && !a.IsEmpty() {
		r.view.Annotate(a)
	}
}

func without(selections []*Selection, drop *Selection) []*Selection {
	out := make([]*Selection, 0, len(selections))
	for _, s := range selections {
		if s != drop {
			out = append(out, s)
		}
	}
	return out
}
