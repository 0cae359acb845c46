package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/marv-media/grant-finder/internal/ingest"
	"github.com/marv-media/grant-finder/internal/match"
	"github.com/marv-media/grant-finder/internal/models"
	"github.com/marv-media/grant-finder/internal/store"
)

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Score stored grants against the company profile",
	Long: `Match scores every known grant against the company profile and
prints the ranked shortlist. Grants come from the database when
DATABASE_URL is set; with --fresh the enabled sources are scanned
first and the results matched in memory.`,
	Run: func(cmd *cobra.Command, _ []string) {
		runMatch(cmd)
	},
}

func init() {
	rootCmd.AddCommand(matchCmd)

	matchCmd.Flags().Float64("min-score", match.DefaultMinScore, "minimum score to include a grant")
	matchCmd.Flags().Int("limit", 20, "maximum matches to print")
	matchCmd.Flags().Bool("fresh", false, "scan sources instead of reading the database")
	matchCmd.Flags().Bool("save", false, "record the ranked results in the database")
	matchCmd.Flags().Bool("output-json", false, "print matches as JSON instead of a table")
}

func runMatch(cmd *cobra.Command) {
	logger := newLogger()
	defer logger.Sync()

	company, err := loadCompany()
	if err != nil {
		logger.Fatal("loading company profile", zap.Error(err))
	}
	catalog, err := loadCatalog()
	if err != nil {
		logger.Fatal("loading certification catalog", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	fresh, _ := cmd.Flags().GetBool("fresh")

	var grants []models.Grant
	var st *store.Store

	if !fresh && viper.GetString("database-url") != "" {
		pool, err := store.Connect(ctx)
		if err != nil {
			logger.Fatal("connecting to database", zap.Error(err))
		}
		defer pool.Close()

		st = store.NewStore(pool)
		grants, err = st.ListGrants(ctx, store.ListParams{ActiveOnly: true, Limit: 1000})
		if err != nil {
			logger.Fatal("listing grants", zap.Error(err))
		}
	} else {
		registry, err := loadRegistry()
		if err != nil {
			logger.Fatal("loading source registry", zap.Error(err))
		}
		sources, err := ingest.BuildSources(registry, logger)
		if err != nil {
			logger.Fatal("building sources", zap.Error(err))
		}

		sink := &ingest.MemorySink{}
		if _, err := ingest.NewScanner(sources, sink, logger).Scan(ctx); err != nil {
			logger.Fatal("scanning sources", zap.Error(err))
		}
		grants = sink.Grants
	}

	if len(grants) == 0 {
		logger.Warn("no grants to match, run a scan first")
		return
	}

	now := time.Now().UTC()
	matcher := match.New(company.Eligibility(now),
		match.WithHardCertifications(catalog.HardRequirements()))

	minScore, _ := cmd.Flags().GetFloat64("min-score")
	results := matcher.Rank(grants, minScore)

	if save, _ := cmd.Flags().GetBool("save"); save && st != nil {
		runID := uuid.NewString()
		for _, r := range results {
			if err := st.SaveMatch(ctx, runID, r); err != nil {
				logger.Warn("saving match", zap.String("grant_id", r.Grant.ID), zap.Error(err))
			}
		}
		logger.Info("matches recorded", zap.String("run_id", runID), zap.Int("count", len(results)))
	}

	limit, _ := cmd.Flags().GetInt("limit")
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}

	if asJSON, _ := cmd.Flags().GetBool("output-json"); asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(results); err != nil {
			logger.Fatal("encoding matches", zap.Error(err))
		}
		return
	}

	printMatches(results, now)
}

func printMatches(results []match.Result, now time.Time) {
	if len(results) == 0 {
		fmt.Println("No grants matched. Try lowering --min-score.")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"#", "Grant", "Score", "Amount", "Deadline", "Reasons"})

	for i, r := range results {
		deadline := "rolling"
		if days, ok := r.Grant.DaysUntilDeadline(now); ok {
			deadline = fmt.Sprintf("%s (%dd)", r.Grant.Deadline.Format("2006-01-02"), days)
		}
		t.AppendRow(table.Row{
			i + 1,
			truncate(r.Grant.Title, 48),
			fmt.Sprintf("%.0f%%", r.Score*100),
			r.Grant.AmountDisplay(),
			deadline,
			truncate(strings.Join(r.Reasons, "; "), 60),
		})
	}
	t.Render()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
