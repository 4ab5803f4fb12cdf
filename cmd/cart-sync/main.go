package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Zeenoside1/shopify-product-addons-app/internal/config"
	"github.com/Zeenoside1/shopify-product-addons-app/internal/logging"
	"github.com/Zeenoside1/shopify-product-addons-app/internal/storefront"
)

const usage = `Usage:
  go run ./cmd/cart-sync select --session S --app-url URL --shop SHOP --product P [--variant V] [--base 20.00] [--choose addonID=value ...] [--html]
  go run ./cmd/cart-sync sync   --session S --store URL --cart-cookie TOKEN
`

// choices collects repeated --choose addonID=value flags. A checkbox only needs addonID.
type choices storefront.ControlState

func (c choices) String() string { return fmt.Sprint(map[string]string(c)) }

func (c choices) Set(v string) error {
	id, value, _ := strings.Cut(v, "=")
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("empty addon ID in %q", v)
	}
	if value == "" {
		value = "on"
	}
	c[id] = value
	return nil
}

func main() {
	if len(os.Args) < 2 {
		fmt.Print(usage)
		os.Exit(1)
	}

	_ = godotenv.Load(".env")
	_ = godotenv.Load("../.env")

	cfg, err := config.LoadUnchecked()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	rdb, err := config.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	defer rdb.Close()

	switch os.Args[1] {
	case "select":
		err = runSelect(ctx, cfg, rdb, logger, os.Args[2:])
	case "sync":
		err = runSync(ctx, cfg, rdb, logger, os.Args[2:])
	default:
		fmt.Print(usage)
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runSelect(ctx context.Context, cfg *config.Config, rdb *redis.Client, logger *zap.Logger, args []string) error {
	fs := flag.NewFlagSet("select", flag.ExitOnError)
	session := fs.String("session", "", "Shopper session ID (selections are kept per session)")
	appURL := fs.String("app-url", os.Getenv("APP_URL"), "Base URL of the add-ons server")
	shop := fs.String("shop", "", "Shop domain (e.g. demo.myshopify.com)")
	product := fs.String("product", "", "Product ID")
	variant := fs.String("variant", "", "Variant ID")
	base := fs.String("base", "0", "Product base price")
	html := fs.Bool("html", false, "Print the rendered add-on controls")
	chosen := choices{}
	fs.Var(chosen, "choose", "addonID[=value], repeatable")
	_ = fs.Parse(args)

	if *session == "" || *appURL == "" || *shop == "" || *product == "" {
		return fmt.Errorf("--session, --app-url, --shop and --product are required")
	}
	basePrice, err := decimal.NewFromString(*base)
	if err != nil {
		return fmt.Errorf("invalid --base %q: %w", *base, err)
	}

	store := storefront.NewRedisStore(rdb, *session, cfg.Storefront.SelectionTTL, logger)
	renderer := storefront.NewRenderer(storefront.NewCatalogClient(*appURL), store, nil, logger)

	page, err := renderer.LoadProduct(ctx, *shop, *product, *variant, basePrice)
	if err != nil {
		return err
	}
	if len(page.Addons) == 0 {
		fmt.Println("No add-ons configured for this product.")
		return nil
	}

	sel, price, err := renderer.OnChange(ctx, page, storefront.ControlState(chosen))
	if err != nil {
		return err
	}

	fmt.Printf("Selection %s for product %s\n", sel.ID, sel.ProductID)
	for _, a := range sel.ChosenAddons {
		fmt.Printf("  %-30s %s\n", a.Name, storefront.FormatDelta(a.Price))
	}
	fmt.Printf("Add-ons total: %s\n", sel.Total().StringFixed(2))
	fmt.Printf("Display price: %s\n", price.StringFixed(2))
	if props := storefront.LineItemProperties(sel); props != nil {
		fmt.Println("Line item properties:")
		for k, v := range props {
			fmt.Printf("  %s = %s\n", k, v)
		}
	}
	if *html {
		fmt.Println()
		return renderer.Render(os.Stdout, page)
	}
	return nil
}

func runSync(ctx context.Context, cfg *config.Config, rdb *redis.Client, logger *zap.Logger, args []string) error {
	fs := flag.NewFlagSet("sync", flag.ExitOnError)
	session := fs.String("session", "", "Shopper session ID the selections were recorded under")
	store := fs.String("store", "", "Storefront URL (e.g. demo.myshopify.com)")
	cartCookie := fs.String("cart-cookie", "", "Value of the shopper's cart cookie")
	addVariant := fs.String("add", "", "Variant ID to add to the cart before reconciling")
	addQty := fs.Int64("quantity", 1, "Quantity for --add")
	_ = fs.Parse(args)

	if *session == "" || *store == "" || *cartCookie == "" {
		return fmt.Errorf("--session, --store and --cart-cookie are required")
	}

	surrogate := storefront.SurrogateFromConfig(cfg.Storefront)
	if surrogate.VariantID == "" {
		logger.Warn("SURROGATE_VARIANT_ID is not set; the surrogate line cannot be added")
	}

	cartAPI := storefront.NewHTTPCartAPI(*store, *cartCookie, logger)
	current, err := cartAPI.GetCart(ctx)
	if err != nil {
		return fmt.Errorf("failed to read cart: %w", err)
	}

	view := &consoleView{lines: current.Lines}
	reconciler := storefront.NewReconciler(storefront.ReconcilerConfig{
		Selections: storefront.NewRedisStore(rdb, *session, cfg.Storefront.SelectionTTL, logger),
		Cart:       cartAPI,
		Markers:    storefront.NewRedisMarkerStore(rdb, *session, time.Minute),
		View:       view,
		Surrogate:  surrogate,
		Logger:     logger,
	})

	var outcome *storefront.Outcome
	scheduler := storefront.NewScheduler(func(ctx context.Context) error {
		o, err := reconciler.Run(ctx)
		outcome = o
		return err
	}, time.Second, 0, logger)

	if *addVariant != "" {
		watched := storefront.NewScheduledCartAPI(cartAPI, scheduler)
		if err := watched.AddLine(ctx, *addVariant, *addQty, nil); err != nil {
			return fmt.Errorf("failed to add variant %s: %w", *addVariant, err)
		}
		// run the pass the write armed now instead of after the delay
		scheduler.Cancel()
	}

	if err := scheduler.Trigger(ctx); err != nil {
		return err
	}

	fmt.Printf("Path: %v\n", outcome.Path)
	if outcome.FromCache {
		fmt.Println("Reconciled less than 5s ago; showed cached prices")
		return nil
	}
	fmt.Printf("Matched lines: %d\n", outcome.Matched)
	fmt.Printf("Add-ons total: %s\n", outcome.NeededTotal.StringFixed(2))
	fmt.Printf("Surrogate: %s (quantity %d)\n", outcome.Adjustment.Action, outcome.Adjustment.Quantity)
	return nil
}

// consoleView prints what a storefront script would do to the rendered cart
type consoleView struct {
	lines []storefront.CartLine
}

func (v *consoleView) Lines() []storefront.CartLine { return v.lines }

func (v *consoleView) Hide(lineKey string) {
	fmt.Printf("hide line %s\n", lineKey)
}

func (v *consoleView) Annotate(a storefront.Annotations) {
	for _, l := range a.Lines {
		fmt.Printf("line %s: unit %s, total %s (%s)\n",
			l.LineKey, l.UnitPrice.StringFixed(2), l.LineTotal.StringFixed(2), storefront.FormatDelta(l.Delta))
	}
	fmt.Printf("grand total: %s %s\n", a.GrandTotal.StringFixed(2), a.Currency)
}
