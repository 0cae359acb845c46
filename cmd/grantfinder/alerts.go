package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/marv-media/grant-finder/internal/match"
	"github.com/marv-media/grant-finder/internal/schedule"
	"github.com/marv-media/grant-finder/internal/store"
)

var alertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "Show deadline alerts for eligible grants",
	Run: func(cmd *cobra.Command, _ []string) {
		runAlerts(cmd)
	},
}

func init() {
	rootCmd.AddCommand(alertsCmd)

	alertsCmd.Flags().IntSlice("remind-days", schedule.DefaultReminderDays, "days-before-deadline thresholds that trigger a reminder")
}

func runAlerts(cmd *cobra.Command) {
	logger := newLogger()
	defer logger.Sync()

	if viper.GetString("database-url") == "" {
		logger.Fatal("alerts need a database, set DATABASE_URL")
	}

	company, err := loadCompany()
	if err != nil {
		logger.Fatal("loading company profile", zap.Error(err))
	}
	catalog, err := loadCatalog()
	if err != nil {
		logger.Fatal("loading certification catalog", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	pool, err := store.Connect(ctx)
	if err != nil {
		logger.Fatal("connecting to database", zap.Error(err))
	}
	defer pool.Close()

	grants, err := store.NewStore(pool).ListGrants(ctx, store.ListParams{Limit: 1000})
	if err != nil {
		logger.Fatal("listing grants", zap.Error(err))
	}

	now := time.Now().UTC()
	matcher := match.New(company.Eligibility(now),
		match.WithHardCertifications(catalog.HardRequirements()))
	eligible := matcher.FilterEligible(grants, match.DefaultMinScore)

	remindDays, _ := cmd.Flags().GetIntSlice("remind-days")
	notifier := schedule.NewDeadlineNotifier(remindDays)
	alerts := notifier.CheckDeadlines(eligible, now)

	fmt.Println(schedule.FormatAlerts(alerts))
}
