//go:build ignore

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"beauty-kart/internal/session"

	"github.com/redis/go-redis/v9"
)

// Usage: go run scripts/check_session_store.go [addr]
func main() {
	addr := "localhost:6379"
	if len(os.Args) > 1 {
		addr = os.Args[1]
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()

	store := session.NewRedisStore(client, time.Minute)
	if err := store.Ping(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Unable to reach redis at %s: %v\n", addr, err)
		os.Exit(1)
	}

	scoped := session.Scoped(store, "healthcheck")
	if err := scoped.Set(ctx, "probe", []byte("ok")); err != nil {
		fmt.Fprintf(os.Stderr, "Write failed: %v\n", err)
		os.Exit(1)
	}
	value, err := scoped.Get(ctx, "probe")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Read failed: %v\n", err)
		os.Exit(1)
	}
	if err := scoped.Delete(ctx, "probe"); err != nil {
		fmt.Fprintf(os.Stderr, "Delete failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Session store at %s is usable (read back %q)\n", addr, value)
}
