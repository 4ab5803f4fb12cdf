package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/Zeenoside1/shopify-product-addons-app/internal/config"
	"github.com/Zeenoside1/shopify-product-addons-app/internal/repository/postgres"
	"github.com/Zeenoside1/shopify-product-addons-app/internal/security"
	"github.com/Zeenoside1/shopify-product-addons-app/internal/service"
	"github.com/Zeenoside1/shopify-product-addons-app/internal/shopify"
)

type productList struct {
	Products []struct {
		ID     int64  `json:"id"`
		Title  string `json:"title"`
		Handle string `json:"handle"`
		Status string `json:"status"`
	} `json:"products"`
}

func main() {
	shopFlag := flag.String("shop", "", "Installed shop domain")
	limitFlag := flag.Int("limit", 50, "Products to fetch (max 250)")
	flag.Parse()

	if *shopFlag == "" {
		fmt.Println("Usage: go run cmd/list-products/main.go --shop demo.myshopify.com [--limit 50]")
		os.Exit(1)
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	cipher, err := security.NewTokenCipher(cfg.Security.TokenEncKeyB64)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid token encryption key: %v\n", err)
		os.Exit(1)
	}

	db, err := postgres.NewConnection(cfg.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	repos := postgres.NewRepositories(db, logger)
	svc := service.NewShopifyService(cfg.Shopify, repos, shopify.NewClientFactory(cfg.Shopify, logger), shopify.NewOAuth(cfg.Shopify), cipher, logger)

	fmt.Println("🔍 Fetching products from Shopify...")
	raw, err := svc.ListProducts(context.Background(), *shopFlag, *limitFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to list products: %v\n", err)
		os.Exit(1)
	}

	var list productList
	if err := json.Unmarshal(raw, &list); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to decode products: %v\n", err)
		os.Exit(1)
	}

	for _, p := range list.Products {
		fmt.Printf("%-15d  %-10s  %-30s  %s\n", p.ID, p.Status, p.Handle, p.Title)
	}
	fmt.Printf("\n✅ %d product(s). Use the numeric ID (or the handle) as productId when creating add-ons.\n", len(list.Products))
}
