package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/dmitrijs2005/totpkeeper/internal/buildinfo"
	"github.com/dmitrijs2005/totpkeeper/internal/cli"
	"github.com/dmitrijs2005/totpkeeper/internal/common"
	"github.com/dmitrijs2005/totpkeeper/internal/config"
	"github.com/dmitrijs2005/totpkeeper/internal/encryption"
	"github.com/dmitrijs2005/totpkeeper/internal/entries"
	"github.com/dmitrijs2005/totpkeeper/internal/filex"
	"github.com/dmitrijs2005/totpkeeper/internal/keeper"
	"github.com/dmitrijs2005/totpkeeper/internal/logging"
	"github.com/dmitrijs2005/totpkeeper/internal/settings"

	_ "github.com/joho/godotenv/autoload"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.LoadConfig()
	logger := logging.NewTextLogger(os.Stderr, cfg.LogLevel).With("app", common.AppName)

	ensureDir := filex.EnsureDir
	if !filepath.IsAbs(cfg.DataDir) {
		ensureDir = filex.EnsureSubdDir
	}
	if _, err := ensureDir(cfg.DataDir); err != nil {
		log.Fatalf("%v", err)
	}

	st, err := settings.Open(ctx, cfg.SettingsBackend, cfg.SettingsFile)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer st.Close()

	enc := encryption.NewManager(st,
		encryption.WithIterations(cfg.KDFIterations),
		encryption.WithLogger(logger.With("component", "encryption")),
	)
	k := keeper.New(enc, entries.NewStore(cfg.StoreFile),
		keeper.WithLogger(logger.With("component", "keeper")),
	)

	app := cli.NewApp(k, cfg, logger.With("component", "cli"))
	if err := app.Run(ctx); err != nil {
		logger.Error(ctx, "exiting", "error", err)
		stop()
		os.Exit(1)
	}
}
