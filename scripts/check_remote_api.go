//go:build ignore

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"beauty-kart/internal/gateway"

	"github.com/rs/zerolog"
)

// Usage: go run scripts/check_remote_api.go <base-url> <product-id>
func main() {
	if len(os.Args) != 3 {
		fmt.Fprintln(os.Stderr, "usage: check_remote_api <base-url> <product-id>")
		os.Exit(2)
	}

	client, err := gateway.NewClient(gateway.Config{
		BaseURL: os.Args[1],
		Timeout: 5 * time.Second,
	}, zerolog.New(os.Stderr).Level(zerolog.DebugLevel))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	product, err := client.GetProduct(ctx, os.Args[2])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Product lookup failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Remote API reachable: %s costs %s (stock %d)\n", product.Name, product.Price, product.Stock)
}
