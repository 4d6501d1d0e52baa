package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/movement-pass/passctl/internal/apiclient"
	"github.com/movement-pass/passctl/internal/config"
	"github.com/movement-pass/passctl/internal/observability"
	"github.com/movement-pass/passctl/internal/session"
)

// sessionTTL bounds how long the redis backend keeps an unused token. The
// token itself expires sooner through its own exp claim.
const sessionTTL = 7 * 24 * time.Hour

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	store, closeStore, err := newTokenStore(cfg)
	if err != nil {
		logger.Fatal("failed to init session store", zap.Error(err))
	}
	defer closeStore()

	cache := session.NewCache(store, logger)
	client := apiclient.New(cfg.Client, cache, logger)

	root := newRootCommand(cfg, logger, client)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newTokenStore(cfg *config.Config) (session.TokenStore, func(), error) {
	switch cfg.Session.Backend {
	case "redis":
		store := session.NewRedisStore(cfg.Redis, sessionTTL)
		return store, func() { _ = store.Close() }, nil
	case "file", "":
		return session.NewFileStore(cfg.Session.TokenFile), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown session backend %q", cfg.Session.Backend)
	}
}
