package main

import (
	"context"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/marv-media/grant-finder/internal/ingest"
	"github.com/marv-media/grant-finder/internal/store"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Fetch grants from every enabled source",
	Long: `Scan runs every enabled source from the registry, normalizes the
results, and saves them to the database. Without a database (or with
--dry-run) the grants are collected in memory and summarized only.`,
	Run: func(cmd *cobra.Command, _ []string) {
		runScan(cmd)
	},
}

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().Bool("dry-run", false, "scan without writing to the database")
	scanCmd.Flags().Duration("timeout", 30*time.Minute, "overall scan deadline")
}

func runScan(cmd *cobra.Command) {
	logger := newLogger()
	defer logger.Sync()

	registry, err := loadRegistry()
	if err != nil {
		logger.Fatal("loading source registry", zap.Error(err))
	}

	sources, err := ingest.BuildSources(registry, logger)
	if err != nil {
		logger.Fatal("building sources", zap.Error(err))
	}
	if len(sources) == 0 {
		logger.Fatal("no sources enabled, check the registry")
	}

	timeout, _ := cmd.Flags().GetDuration("timeout")
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	dryRun, _ := cmd.Flags().GetBool("dry-run")

	var sink ingest.GrantSink
	var st *store.Store
	memory := &ingest.MemorySink{}

	if dryRun || viper.GetString("database-url") == "" {
		if !dryRun {
			logger.Warn("DATABASE_URL is not set, scanning in memory only")
		}
		sink = memory
	} else {
		pool, err := store.Connect(ctx)
		if err != nil {
			logger.Fatal("connecting to database", zap.Error(err))
		}
		defer pool.Close()

		if err := store.ApplyMigrations(ctx, pool, logger); err != nil {
			logger.Fatal("applying migrations", zap.Error(err))
		}
		st = store.NewStore(pool)
		sink = st
	}

	scanner := ingest.NewScanner(sources, sink, logger)
	stats, err := scanner.Scan(ctx)
	if err != nil {
		logger.Fatal("scan failed", zap.Error(err))
	}

	if st != nil {
		if err := st.SaveScanRun(ctx, stats); err != nil {
			logger.Warn("recording scan run", zap.Error(err))
		}
	}

	printScanStats(stats, len(memory.Grants))
}

func printScanStats(stats ingest.ScanStats, inMemory int) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Run", "Sources", "Found", "Saved", "Duplicates", "Errors", "Duration"})
	t.AppendRow(table.Row{
		stats.RunID,
		stats.Sources,
		stats.Found,
		stats.Saved,
		stats.Duplicates,
		stats.Errors,
		stats.Duration.Round(time.Second).String(),
	})
	t.Render()

	if inMemory > 0 {
		os.Stdout.WriteString("\nDry run: grants were not written to the database.\n")
	}
}
