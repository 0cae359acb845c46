package main

import (
	"context"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/marv-media/grant-finder/internal/sheets"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the application pipeline from the tracking spreadsheet",
	Run: func(_ *cobra.Command, _ []string) {
		runStatus()
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := sheetsConfig()
	if err != nil {
		logger.Fatal("sheets configuration", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	tracker, err := sheets.NewTracker(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("connecting to Google Sheets", zap.Error(err))
	}

	pipeline, err := tracker.GetPipeline(ctx)
	if err != nil {
		logger.Fatal("reading pipeline", zap.Error(err))
	}
	if len(pipeline) == 0 {
		os.Stdout.WriteString("The pipeline is empty. Run track first.\n")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Grant", "Amount", "Deadline", "Days", "Score", "Status"})

	for _, row := range pipeline {
		t.AppendRow(table.Row{
			truncate(row["Grant Name"], 48),
			row["Amount"],
			row["Deadline"],
			row["Days Left"],
			row["Eligibility Score"],
			row["Status"],
		})
	}
	t.Render()
}
