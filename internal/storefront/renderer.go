package storefront

import (
	"context"
	"html/template"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Zeenoside1/shopify-product-addons-app/internal/domain"
)

var controlsTemplate = template.Must(template.New("addons").Parse(`<div class="product-addons" data-product-id="{{.ProductID}}">
{{- range .Controls}}
{{- if .Dropdown}}
  <label class="product-addon product-addon--dropdown">{{.Name}}
    <select name="addon[{{.ID}}]" data-base-price="{{.Price}}">
      <option value="">None</option>
      {{- range .Options}}
      <option value="{{.Value}}" data-price="{{.Price}}"{{if .Selected}} selected{{end}}>{{.Label}} ({{.PriceLabel}})</option>
      {{- end}}
    </select>
  </label>
{{- else}}
  <label class="product-addon product-addon--checkbox">
    <input type="checkbox" name="addon[{{.ID}}]" value="on" data-price="{{.Price}}"{{if .Checked}} checked{{end}}{{if .Locked}} disabled{{end}}>
    {{.Name}} ({{.PriceLabel}})
  </label>
{{- end}}
{{- end}}
  <p class="product-addons__price" data-base-price="{{.BasePrice}}">{{.DisplayPrice}}</p>
</div>
`))

// ProductPage is the add-on state of one product page view
type ProductPage struct {
	Shop      string
	ProductID string
	VariantID string
	BasePrice decimal.Decimal
	Addons    []domain.AddonDefinition
	Selection *Selection
}

// ControlState maps add-on ID to the control value: "on" for a ticked checkbox, the
// option value for a dropdown
type ControlState map[string]string

// Renderer draws add-on controls and records what the shopper picks
type Renderer struct {
	catalog   Catalog
	store     SelectionStore
	scheduler *Scheduler
	logger    *zap.Logger
}

// NewRenderer wires the renderer. scheduler may be nil on hosts without cart pages.
func NewRenderer(catalog Catalog, store SelectionStore, scheduler *Scheduler, logger *zap.Logger) *Renderer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Renderer{
		catalog:   catalog,
		store:     store,
		scheduler: scheduler,
		logger:    logger,
	}
}

// OnPageLoad classifies the page and schedules a reconciliation on cart and checkout pages
func (r *Renderer) OnPageLoad(sig PageSignals) PageKind {
	kind := DetectPage(sig)
	if (kind == PageCart || kind == PageCheckout) && r.scheduler != nil {
		r.scheduler.Schedule()
	}
	return kind
}

// LoadProduct fetches the product's add-ons and any selection already recorded for it
func (r *Renderer) LoadProduct(ctx context.Context, shop, productID, variantID string, basePrice decimal.Decimal) (*ProductPage, error) {
	addons, err := r.catalog.List(ctx, shop, productID)
	if err != nil {
		return nil, err
	}
	page := &ProductPage{
		Shop:      shop,
		ProductID: productID,
		VariantID: variantID,
		BasePrice: basePrice,
		Addons:    addons,
	}
	if sel, err := r.store.Get(ctx, productID); err == nil {
		page.Selection = sel
	}
	return page, nil
}

// OnChange records the controls' state as the product's selection and returns the
// price to display
func (r *Renderer) OnChange(ctx context.Context, page *ProductPage, state ControlState) (*Selection, decimal.Decimal, error) {
	chosen := ChosenFromState(page.Addons, state)
	sel, err := r.store.Record(ctx, page.ProductID, page.VariantID, chosen)
	if err != nil {
		return nil, page.BasePrice, err
	}
	page.Selection = sel
	return sel, page.BasePrice.Add(sel.Total()), nil
}

// ChosenFromState prices each selected add-on. Required checkboxes are always chosen;
// dropdown values matching no option are ignored.
func ChosenFromState(addons []domain.AddonDefinition, state ControlState) []ChosenAddon {
	chosen := make([]ChosenAddon, 0, len(addons))
	for i := range addons {
		a := &addons[i]
		if !a.Active {
			continue
		}
		raw := strings.TrimSpace(state[a.ID.String()])

		switch a.Kind {
		case domain.AddonKindCheckbox:
			if !a.Required && raw == "" {
				continue
			}
			price, _, _ := a.PriceFor("")
			chosen = append(chosen, ChosenAddon{AddonID: a.ID.String(), Name: a.Name, Price: price})
		case domain.AddonKindDropdown:
			if raw == "" {
				continue
			}
			price, label, ok := a.PriceFor(raw)
			if !ok {
				continue
			}
			chosen = append(chosen, ChosenAddon{
				AddonID:     a.ID.String(),
				Name:        a.Name,
				Value:       label,
				OptionValue: raw,
				Price:       price,
			})
		}
	}
	return chosen
}

type controlView struct {
	ID         string
	Name       string
	Dropdown   bool
	Price      string
	PriceLabel string
	Checked    bool
	Locked     bool
	Options    []optionView
}

type optionView struct {
	Label      string
	Value      string
	Price      string
	PriceLabel string
	Selected   bool
}

type pageView struct {
	ProductID    string
	BasePrice    string
	DisplayPrice string
	Controls     []controlView
}

// Render writes the add-on controls for page as HTML
func (r *Renderer) Render(w io.Writer, page *ProductPage) error {
	picked := make(map[string]ChosenAddon)
	total := decimal.Zero
	if page.Selection != nil {
		for _, c := range page.Selection.ChosenAddons {
			picked[c.AddonID] = c
		}
		total = page.Selection.Total()
	}

	view := pageView{
		ProductID:    page.ProductID,
		BasePrice:    page.BasePrice.StringFixed(2),
		DisplayPrice: page.BasePrice.Add(total).StringFixed(2),
	}
	for i := range page.Addons {
		a := &page.Addons[i]
		if !a.Active {
			continue
		}
		id := a.ID.String()
		c := controlView{
			ID:         id,
			Name:       a.Name,
			Dropdown:   a.Kind == domain.AddonKindDropdown,
			Price:      a.BasePrice.StringFixed(2),
			PriceLabel: FormatDelta(a.BasePrice),
		}
		chosen, isPicked := picked[id]
		if c.Dropdown {
			for _, opt := range a.Options {
				price := a.BasePrice.Add(opt.Price)
				c.Options = append(c.Options, optionView{
					Label:      opt.Label,
					Value:      opt.Value,
					Price:      price.StringFixed(2),
					PriceLabel: FormatDelta(price),
					Selected:   isPicked && chosen.OptionValue == opt.Value,
				})
			}
		} else {
			c.Checked = a.Required || isPicked
			c.Locked = a.Required
		}
		view.Controls = append(view.Controls, c)
	}
	return controlsTemplate.Execute(w, view)
}

// LineItemProperties are posted with add-to-cart so the cart line carries its selection
func LineItemProperties(sel *Selection) map[string]string {
	if sel == nil || len(sel.ChosenAddons) == 0 {
		return nil
	}
	parts := make([]string, 0, len(sel.ChosenAddons))
	for _, a := range sel.ChosenAddons {
		label := a.Name
		if a.Value != "" {
			label += ": " + a.Value
		}
		parts = append(parts, label+" ("+FormatDelta(a.Price)+")")
	}
	return map[string]string{
		PropertySelectionID: sel.ID,
		PropertyAddons:      strings.Join(parts, ", "),
	}
}

// FormatDelta renders a price change as "+5.00"
func FormatDelta(d decimal.Decimal) string {
	if d.IsNegative() {
		return d.StringFixed(2)
	}
	return "+" + d.StringFixed(2)
}
