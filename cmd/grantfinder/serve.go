package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/marv-media/grant-finder/internal/api"
	"github.com/marv-media/grant-finder/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	Run: func(cmd *cobra.Command, _ []string) {
		runServe(cmd)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", ":8080", "listen address")
}

func runServe(cmd *cobra.Command) {
	logger := newLogger()
	defer logger.Sync()

	company, err := loadCompany()
	if err != nil {
		logger.Fatal("loading company profile", zap.Error(err))
	}
	registry, err := loadRegistry()
	if err != nil {
		logger.Fatal("loading source registry", zap.Error(err))
	}
	catalog, err := loadCatalog()
	if err != nil {
		logger.Fatal("loading certification catalog", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := store.Connect(ctx)
	if err != nil {
		logger.Fatal("connecting to database", zap.Error(err))
	}
	defer pool.Close()

	if err := store.ApplyMigrations(ctx, pool, logger); err != nil {
		logger.Fatal("applying migrations", zap.Error(err))
	}

	server := api.NewServer(pool, company, registry, catalog, logger)

	addr, _ := cmd.Flags().GetString("addr")
	if err := server.Start(ctx, addr); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
