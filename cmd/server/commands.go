package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/yatube/yatube/internal/cache"
	"github.com/yatube/yatube/internal/config"
	"github.com/yatube/yatube/internal/server"
	"github.com/yatube/yatube/internal/service"
)

// setup loads the configuration and builds the logger every command uses.
func setup(cctx *cli.Context) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(cctx.String("env-file"))
	if err != nil {
		return nil, nil, err
	}

	level, err := cfg.SlogLevel()
	if err != nil {
		return nil, nil, err
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return cfg, logger, nil
}

func serve(cctx *cli.Context) error {
	cfg, logger, err := setup(cctx)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if !cfg.GitHubEnabled() {
		logger.Info("GitHub sign-in disabled: YATUBE_GITHUB_CLIENT_ID or YATUBE_GITHUB_CLIENT_SECRET not set")
	}

	srv, err := server.New(cctx.Context, cfg, logger)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	// Start blocks until SIGINT or SIGTERM.
	return srv.Start()
}

func migrate(cctx *cli.Context) error {
	cfg, logger, err := setup(cctx)
	if err != nil {
		return err
	}

	// Opening the database applies the schema.
	db, err := server.OpenDB(cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	logger.Info("database schema is up to date", slog.String("database", cfg.DBPath))
	return nil
}

func createGroup(cctx *cli.Context) error {
	cfg, logger, err := setup(cctx)
	if err != nil {
		return err
	}

	db, err := server.OpenDB(cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	group, err := service.NewGroupService(db, logger).Create(cctx.Context, service.GroupInput{
		Title:       cctx.String("title"),
		Slug:        cctx.String("slug"),
		Description: cctx.String("description"),
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(cctx.App.Writer, "created group %q at /group/%s/\n", group.Title, group.Slug)
	return nil
}

// clearCache empties the shared snapshot store. The in-process store lives
// inside the serving process, so there is nothing to clear from here.
func clearCache(cctx *cli.Context) error {
	cfg, logger, err := setup(cctx)
	if err != nil {
		return err
	}

	if cfg.CacheBackend != "redis" {
		logger.Warn("the memory cache expires on its own; restart the server to drop it now",
			slog.String("backend", cfg.CacheBackend),
			slog.Duration("ttl", cfg.IndexCacheTTL),
		)
		return nil
	}

	store, closeStore, err := server.NewCacheStore(cctx.Context, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	return cache.NewGate(store, cfg.IndexCacheTTL, logger).Clear(cctx.Context)
}
