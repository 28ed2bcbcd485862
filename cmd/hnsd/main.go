package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/handshake-labs/hnsd/internal/cache"
	"github.com/handshake-labs/hnsd/internal/common/log"
	"github.com/handshake-labs/hnsd/internal/config"
	"github.com/handshake-labs/hnsd/internal/dnssec"
	"github.com/handshake-labs/hnsd/internal/resource"
	"github.com/handshake-labs/hnsd/internal/server"
)

const (
	// Version information
	version = "0.1.0-dev"
	appName = "hnsd"

	defaultShutdownTimeout = 10 * time.Second
)

func main() {
	// Load configuration from environment
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	// Configure global logging
	err = log.Configure(cfg.Env, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Logging configuration error: %v\n", err)
		os.Exit(1)
	}

	log.Info(map[string]any{
		"version":    version,
		"env":        cfg.Env,
		"log_level":  cfg.LogLevel,
		"port":       cfg.Port,
		"cache_size": cfg.CacheSize,
	}, "Starting hnsd root server")

	srv, err := buildServer(cfg)
	if err != nil {
		log.Fatal(map[string]any{"error": err}, "Failed to build server")
	}

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		log.Info(map[string]any{"signal": sig.String()}, "Shutdown signal received")
		cancel()
	}()

	if err := run(ctx, srv); err != nil {
		log.Fatal(map[string]any{"error": err}, "Server failed")
	}

	log.Info(nil, "hnsd stopped gracefully")
}

// buildServer constructs all components and wires them together.
func buildServer(cfg *config.AppConfig) (*server.Server, error) {
	logger := log.GetLogger()

	keyring, err := dnssec.New(dnssec.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to generate zone keys: %w", err)
	}
	log.Info(nil, "Root zone signing keys generated")

	var resCache server.Cache
	if cfg.DisableCache {
		log.Info(map[string]any{"disabled": true}, "Resource caching disabled")
	} else {
		cacheSize := cfg.CacheSize
		if cacheSize > uint(^uint(0)>>1) {
			return nil, fmt.Errorf("cache size too large: %d", cacheSize)
		}
		resCache, err = cache.New(int(cacheSize))
		if err != nil {
			return nil, fmt.Errorf("failed to create resource cache: %w", err)
		}
		log.Info(map[string]any{
			"type": "LRU",
			"size": cfg.CacheSize,
		}, "Resource cache configured")
	}

	var rootAddr net.IP
	if cfg.RootAddr != "" {
		rootAddr = net.ParseIP(cfg.RootAddr)
	}

	return server.New(server.Options{
		Addr:     fmt.Sprintf(":%d", cfg.Port),
		Lookup:   &nullLookup{},
		Cache:    resCache,
		Signer:   keyring,
		RootAddr: rootAddr,
		Logger:   logger,
	})
}

// run starts the server and blocks until the context is cancelled.
func run(ctx context.Context, srv *server.Server) error {
	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("failed to start DNS server: %w", err)
	}

	<-ctx.Done()

	log.Info(nil, "Shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
	defer cancel()

	if err := srv.Stop(shutdownCtx); err != nil {
		log.Warn(map[string]any{"error": err}, "Error during server shutdown")
		return fmt.Errorf("shutdown failed: %w", err)
	}

	log.Info(nil, "Graceful shutdown completed")
	return nil
}

// nullLookup answers every name as nonexistent. It stands in until a
// chain client supplies real resources.
//
// TODO: replace with the SPV chain client once its wire protocol lands.
type nullLookup struct{}

func (n *nullLookup) Resource(ctx context.Context, name string) (*resource.Resource, error) {
	return nil, nil
}
