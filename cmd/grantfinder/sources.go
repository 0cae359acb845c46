package main

import (
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List registered grant sources",
	Run: func(_ *cobra.Command, _ []string) {
		runSources()
	},
}

func init() {
	rootCmd.AddCommand(sourcesCmd)
}

func runSources() {
	logger := newLogger()
	defer logger.Sync()

	registry, err := loadRegistry()
	if err != nil {
		logger.Fatal("loading source registry", zap.Error(err))
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"ID", "Name", "Strategy", "Region", "Enabled"})

	for _, sc := range registry.Sources {
		enabled := ""
		if sc.Enabled {
			enabled = "yes"
		}
		t.AppendRow(table.Row{sc.ID, sc.Name, sc.Strategy, sc.Region, enabled})
	}
	t.Render()
}
