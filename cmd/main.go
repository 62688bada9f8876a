// Command financial-tools serves the portfolio modeling calculator: a
// multi-tab allocation session (portfolios → wallets → assets) with derived
// target values, auto-sync modes, validation notifications and WAL-backed
// persistence, exposed over an HTTP API.
//
// Usage:
//
//	financial-tools -config config.yaml
//	financial-tools -setup   (interactive configuration wizard)
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/b3ncr0w/financial-tools/config"
	"github.com/b3ncr0w/financial-tools/internal/domain"
	"github.com/b3ncr0w/financial-tools/internal/services/modeler"
	"github.com/b3ncr0w/financial-tools/internal/services/validator"
	"github.com/b3ncr0w/financial-tools/internal/setup"
	"github.com/b3ncr0w/financial-tools/internal/storage/sessions"
	"github.com/b3ncr0w/financial-tools/internal/web"
)

func main() {
	cfg, err := config.Get()
	if err != nil {
		log.Fatal(err)
	}

	if cfg.Setup {
		if err := setup.RunTUI(); err != nil {
			log.Fatal(err)
		}
		return
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	var store modeler.Store
	walStore, err := sessions.NewWALStore(cfg.StateDir)
	if err != nil {
		// non-fatal: the session degrades to in-memory only
		logger.Warn("session store unavailable, running in memory", zap.Error(err))
	} else {
		store = walStore
		defer walStore.Close()
	}

	session := loadOrSeed(walStore, cfg, logger)

	notifier := validator.NewNotifier()
	svc := modeler.New(session, store, notifier, cfg.Messages, cfg.Labels, logger)
	server := web.NewServer(cfg.Listen, svc, notifier, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if len(cfg.TLS.Domains) > 0 {
			return server.StartWithAutoTLS(ctx, cfg.TLS.Domains, cfg.TLS.CacheDir)
		}
		return server.Start(ctx)
	})

	logger.Info("portfolio modeling service started", zap.String("listen", cfg.Listen))

	if err := g.Wait(); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}

func loadOrSeed(store *sessions.WALStore, cfg *config.Config, logger *zap.Logger) *domain.Session {
	if store == nil {
		return domain.NewSession(cfg.Defaults)
	}

	session, err := store.Load()
	switch {
	case err == nil:
		logger.Info("restored persisted session", zap.Int("tabs", len(session.Tabs)))
		return session
	case errors.Is(err, sessions.ErrNoSession):
		logger.Info("no persisted session, seeding from defaults")
	default:
		logger.Warn("persisted session unreadable, seeding from defaults", zap.Error(err))
	}
	return domain.NewSession(cfg.Defaults)
}
