package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"

	"github.com/Zeenoside1/shopify-product-addons-app/internal/config"
	"github.com/Zeenoside1/shopify-product-addons-app/internal/repository/postgres"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: go run cmd/migrate/main.go <up|down|version|force N>")
		os.Exit(1)
	}

	// Only database settings are needed here
	cfg, err := config.LoadUnchecked()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	m, err := postgres.NewMigrator(cfg.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	defer m.Close()

	switch os.Args[1] {
	case "up":
		err = m.Up()
	case "down":
		err = m.Steps(-1)
	case "force":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "force needs a version")
			os.Exit(1)
		}
		v, convErr := strconv.Atoi(os.Args[2])
		if convErr != nil {
			fmt.Fprintf(os.Stderr, "invalid version %q\n", os.Args[2])
			os.Exit(1)
		}
		err = m.Force(v)
	case "version":
		version, dirty, vErr := m.Version()
		if errors.Is(vErr, migrate.ErrNilVersion) {
			fmt.Println("No migrations applied")
			return
		}
		if vErr != nil {
			fmt.Fprintf(os.Stderr, "Failed to read version: %v\n", vErr)
			os.Exit(1)
		}
		fmt.Printf("Version %d (dirty=%t)\n", version, dirty)
		return
	default:
		fmt.Fprintf(os.Stderr, "Unknown command %q\n", os.Args[1])
		os.Exit(1)
	}

	if errors.Is(err, migrate.ErrNoChange) {
		fmt.Println("No change")
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Migration failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Migration completed successfully!")
}
