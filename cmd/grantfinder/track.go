package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/marv-media/grant-finder/internal/certs"
	"github.com/marv-media/grant-finder/internal/match"
	"github.com/marv-media/grant-finder/internal/models"
	"github.com/marv-media/grant-finder/internal/profile"
	"github.com/marv-media/grant-finder/internal/sheets"
	"github.com/marv-media/grant-finder/internal/store"
)

var trackCmd = &cobra.Command{
	Use:   "track",
	Short: "Push ranked matches into the Google Sheets pipeline",
	Long: `Track scores every stored grant and appends the matches above the
score threshold to the "Grant Pipeline" tab of the configured
spreadsheet. Grants already present in the pipeline are skipped.`,
	Run: func(cmd *cobra.Command, _ []string) {
		runTrack(cmd)
	},
}

func init() {
	rootCmd.AddCommand(trackCmd)

	trackCmd.Flags().Float64("min-score", match.DefaultMinScore, "minimum score to track a grant")
	trackCmd.Flags().Int("limit", 10, "maximum grants to add in one run")
	trackCmd.Flags().Bool("setup", false, "create missing tabs and headers before tracking")
}

func runTrack(cmd *cobra.Command) {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := sheetsConfig()
	if err != nil {
		logger.Fatal("sheets configuration", zap.Error(err))
	}
	if viper.GetString("database-url") == "" {
		logger.Fatal("track needs a database, set DATABASE_URL")
	}

	company, err := loadCompany()
	if err != nil {
		logger.Fatal("loading company profile", zap.Error(err))
	}
	catalog, err := loadCatalog()
	if err != nil {
		logger.Fatal("loading certification catalog", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	tracker, err := sheets.NewTracker(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("connecting to Google Sheets", zap.Error(err))
	}

	if setup, _ := cmd.Flags().GetBool("setup"); setup {
		if err := tracker.Setup(ctx); err != nil {
			logger.Fatal("setting up spreadsheet tabs", zap.Error(err))
		}
	}

	pool, err := store.Connect(ctx)
	if err != nil {
		logger.Fatal("connecting to database", zap.Error(err))
	}
	defer pool.Close()

	grants, err := store.NewStore(pool).ListGrants(ctx, store.ListParams{ActiveOnly: true, Limit: 1000})
	if err != nil {
		logger.Fatal("listing grants", zap.Error(err))
	}

	results := rankForTracking(company, catalog, grants, cmd)

	limit, _ := cmd.Flags().GetInt("limit")
	added := 0
	for _, r := range results {
		if limit > 0 && added >= limit {
			break
		}
		exists, err := tracker.GrantExists(ctx, r.Grant.ID)
		if err != nil {
			logger.Fatal("checking pipeline", zap.Error(err))
		}
		if exists {
			continue
		}
		if err := tracker.AddToPipeline(ctx, r, "New", ""); err != nil {
			logger.Fatal("adding to pipeline", zap.String("grant_id", r.Grant.ID), zap.Error(err))
		}
		added++
	}

	logger.Info("pipeline updated", zap.Int("added", added), zap.Int("matched", len(results)))
}

func rankForTracking(company *profile.Company, catalog *certs.Catalog, grants []models.Grant, cmd *cobra.Command) []match.Result {
	now := time.Now().UTC()
	matcher := match.New(company.Eligibility(now),
		match.WithHardCertifications(catalog.HardRequirements()))

	minScore, _ := cmd.Flags().GetFloat64("min-score")
	return matcher.Rank(grants, minScore)
}
