// ============================================================================
// cmd/subscriber/main.go - Example Launch Subscriber (Consumer)
// ============================================================================
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/PandoraOSgit/pandora-market-feed/internal/cache"
	"github.com/PandoraOSgit/pandora-market-feed/internal/config"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	cfg := config.Load()

	rcache, err := cache.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		log.Fatal(err)
	}
	defer rcache.Close()

	log.Println("👂 Starting launch subscriber...")

	// Tail the launch firehose
	launches, err := rcache.SubscribeLaunches(ctx)
	if err != nil {
		log.Fatal(err)
	}

	go func() {
		for launch := range launches {
			log.Printf("📨 Received: %s | %s (%s) | %.2f SOL",
				launch.Mint, launch.Name, launch.Symbol, launch.LiquiditySol)
		}
	}()

	log.Println("✅ Subscriber running. Press Ctrl+C to stop.")

	<-sigChan
	log.Println("🛑 Shutting down subscriber...")
}
