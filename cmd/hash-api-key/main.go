package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/Zeenoside1/shopify-product-addons-app/internal/api/middleware"
)

func main() {
	apiKeyFlag := flag.String("api-key", "", "Operator API key (save it; it cannot be retrieved from the hash)")
	flag.Parse()

	apiKey := *apiKeyFlag
	if apiKey == "" && flag.NArg() >= 1 {
		apiKey = flag.Arg(0)
	}
	// Trim so the stored hash matches what the server receives (AdminAuth trims the Bearer token)
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		fmt.Println("Usage: go run cmd/hash-api-key/main.go --api-key \"your-operator-key\"")
		os.Exit(1)
	}

	hash, err := middleware.HashAPIKey(apiKey)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to hash API key: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Add this to your .env file:\n")
	fmt.Printf("ADMIN_API_KEY_HASH=%s\n", hash)
}
