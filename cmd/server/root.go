package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/DoyleJ11/tierlist-backend/internal/archive"
	"github.com/DoyleJ11/tierlist-backend/internal/catalog"
	"github.com/DoyleJ11/tierlist-backend/internal/config"
	"github.com/DoyleJ11/tierlist-backend/internal/httpapi"
	"github.com/DoyleJ11/tierlist-backend/internal/logging"
	"github.com/DoyleJ11/tierlist-backend/internal/session"
)

type archiveStore interface {
	session.Archiver
	httpapi.History
	Close() error
}

func newRootCmd() *cobra.Command {
	var (
		addr     string
		file     string
		category string
		origins  []string
	)

	cmd := &cobra.Command{
		Use:           "tierlist",
		Short:         "Run a real-time tier-list voting session",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				cfg.Addr = addr
			}
			if cmd.Flags().Changed("catalog") {
				cfg.CatalogFile = file
			}
			if cmd.Flags().Changed("category") {
				cfg.Category = category
			}
			return run(cmd.Context(), cfg, origins)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().StringVar(&file, "catalog", "", "YAML or TOML catalog file")
	cmd.Flags().StringVar(&category, "category", "fruits", "built-in catalog category")
	cmd.Flags().StringSliceVar(&origins, "origin", nil, "allowed websocket origin patterns")
	return cmd
}

func run(parent context.Context, cfg config.Config, origins []string) error {
	log, err := logging.New(cfg.LogLevel, cfg.Dev)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	cat, err := catalog.Resolve(cfg.Category, cfg.CatalogFile)
	if err != nil {
		return err
	}

	store, err := openArchive(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer store.Close()

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	s, err := session.New(ctx, session.Config{
		Items:        cat.Items,
		RoundUnits:   cfg.RoundSeconds,
		TickInterval: cfg.TickInterval,
		Archiver:     store,
		Logger:       log.Named("session"),
	})
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}

	srv := &http.Server{
		Addr: cfg.Addr,
		Handler: httpapi.SetupRoutes(httpapi.Deps{
			Session:        s,
			History:        store,
			OriginPatterns: origins,
			Logger:         log.Named("http"),
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening",
			zap.String("addr", cfg.Addr),
			zap.String("catalog", cat.Name),
			zap.Int("items", len(cat.Items)),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		select {
		case s.Inbox() <- session.Shutdown{}:
		case <-s.Done():
		}
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func openArchive(dsn string) (archiveStore, error) {
	if dsn == "" {
		return archive.NewMemory(), nil
	}
	return archive.Open(dsn)
}
