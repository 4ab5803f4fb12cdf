package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/Zeenoside1/shopify-product-addons-app/internal/config"
	"github.com/Zeenoside1/shopify-product-addons-app/internal/repository"
	"github.com/Zeenoside1/shopify-product-addons-app/internal/repository/redisstore"
	"github.com/Zeenoside1/shopify-product-addons-app/internal/security"
	"github.com/Zeenoside1/shopify-product-addons-app/internal/service"
	"github.com/Zeenoside1/shopify-product-addons-app/internal/shopify"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: go run cmd/install-url/main.go <shop-domain>")
		fmt.Println("Example: go run cmd/install-url/main.go demo.myshopify.com")
		fmt.Println("\nPrints the authorize URL with a fresh state. Open it in a browser while the")
		fmt.Println("server is running so /auth/callback can complete the install.")
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	cipher, err := security.NewTokenCipher(cfg.Security.TokenEncKeyB64)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid token encryption key: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	rdb, err := config.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	defer rdb.Close()

	// The state only needs Redis; shops are written by the server's callback
	repos := &repository.Repositories{OAuthState: redisstore.NewOAuthStateStore(rdb)}
	svc := service.NewShopifyService(cfg.Shopify, repos, shopify.NewClientFactory(cfg.Shopify, logger), shopify.NewOAuth(cfg.Shopify), cipher, logger)

	authURL, err := svc.BeginInstall(ctx, os.Args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start install: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Visit this URL in your browser (valid for 10 minutes):\n")
	fmt.Printf("%s\n", authURL)
}
