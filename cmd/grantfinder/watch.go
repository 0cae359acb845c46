package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/marv-media/grant-finder/internal/ingest"
	"github.com/marv-media/grant-finder/internal/match"
	"github.com/marv-media/grant-finder/internal/schedule"
	"github.com/marv-media/grant-finder/internal/store"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run the daily scan and deadline check on a schedule",
	Long: `Watch stays in the foreground and runs two daily jobs: a full
source scan and a deadline check over eligible grants. With --once both
jobs run immediately and the command exits.`,
	Run: func(cmd *cobra.Command, _ []string) {
		runWatch(cmd)
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().String("scan-at", "06:00", "wall-clock time for the daily scan")
	watchCmd.Flags().String("alerts-at", "08:00", "wall-clock time for the daily deadline check")
	watchCmd.Flags().Bool("once", false, "run both jobs immediately and exit")
}

func runWatch(cmd *cobra.Command) {
	logger := newLogger()
	defer logger.Sync()

	if viper.GetString("database-url") == "" {
		logger.Fatal("watch needs a database, set DATABASE_URL")
	}

	company, err := loadCompany()
	if err != nil {
		logger.Fatal("loading company profile", zap.Error(err))
	}
	catalog, err := loadCatalog()
	if err != nil {
		logger.Fatal("loading certification catalog", zap.Error(err))
	}
	registry, err := loadRegistry()
	if err != nil {
		logger.Fatal("loading source registry", zap.Error(err))
	}
	sources, err := ingest.BuildSources(registry, logger)
	if err != nil {
		logger.Fatal("building sources", zap.Error(err))
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
	st := store.NewStore(pool)

	scanJob := func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, 30*time.Minute)
		defer cancel()

		stats, err := ingest.NewScanner(sources, st, logger).Scan(ctx)
		if err != nil {
			return err
		}
		if err := st.SaveScanRun(ctx, stats); err != nil {
			logger.Warn("recording scan run", zap.Error(err))
		}
		return nil
	}

	alertsJob := func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, time.Minute)
		defer cancel()

		grants, err := st.ListGrants(ctx, store.ListParams{Limit: 1000})
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		matcher := match.New(company.Eligibility(now),
			match.WithHardCertifications(catalog.HardRequirements()))
		eligible := matcher.FilterEligible(grants, match.DefaultMinScore)

		alerts := schedule.NewDeadlineNotifier(nil).CheckDeadlines(eligible, now)
		if len(alerts) > 0 {
			fmt.Println(schedule.FormatAlerts(alerts))
		}
		logger.Info("deadline check complete", zap.Int("alerts", len(alerts)))
		return nil
	}

	scheduler := schedule.NewScheduler(logger)

	scanAt, _ := cmd.Flags().GetString("scan-at")
	if err := scheduler.Daily("scan", scanAt, scanJob); err != nil {
		logger.Fatal("scheduling scan", zap.Error(err))
	}
	alertsAt, _ := cmd.Flags().GetString("alerts-at")
	if err := scheduler.Daily("deadline-check", alertsAt, alertsJob); err != nil {
		logger.Fatal("scheduling deadline check", zap.Error(err))
	}

	if once, _ := cmd.Flags().GetBool("once"); once {
		scheduler.RunOnce(ctx)
		return
	}

	if err := scheduler.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal("scheduler stopped", zap.Error(err))
	}
}
