package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/Zeenoside1/shopify-product-addons-app/internal/config"
	"github.com/Zeenoside1/shopify-product-addons-app/internal/repository/postgres"
	"github.com/Zeenoside1/shopify-product-addons-app/internal/service"
)

func main() {
	shopFlag := flag.String("shop", "", "Shop domain (e.g. demo.myshopify.com)")
	productFlag := flag.String("product", "", "Product ID or handle")
	flag.Parse()

	if *shopFlag == "" || *productFlag == "" {
		fmt.Println("Usage: go run cmd/list-addons/main.go --shop demo.myshopify.com --product 123456789")
		os.Exit(1)
	}

	// Load configuration
	cfg, err := config.LoadUnchecked()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	// Connect to database
	db, err := postgres.NewConnection(cfg.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	repos := postgres.NewRepositories(db, logger)
	addons, err := service.NewAddonService(repos, nil, logger).List(context.Background(), *shopFlag, *productFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to list add-ons: %v\n", err)
		os.Exit(1)
	}

	if len(addons) == 0 {
		fmt.Println("No active add-ons.")
		return
	}

	fmt.Printf("%-36s  %-9s  %-8s  %-8s  %s\n", "ID", "TYPE", "PRICE", "REQUIRED", "NAME")
	fmt.Println(strings.Repeat("-", 90))
	for _, a := range addons {
		fmt.Printf("%-36s  %-9s  %8s  %-8t  %s\n", a.ID, a.Kind, a.BasePrice.StringFixed(2), a.Required, a.Name)
		for _, opt := range a.Options {
			fmt.Printf("%48s- %s (%s) +%s\n", "", opt.Label, opt.Value, opt.Price.StringFixed(2))
		}
	}
	fmt.Printf("\nTotal: %d add-on(s)\n", len(addons))
}
