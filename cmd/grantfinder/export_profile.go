package main

import (
	"encoding/json"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var exportProfileCmd = &cobra.Command{
	Use:   "export-profile",
	Short: "Dump the company profile and eligibility snapshot as JSON",
	Long: `Export-profile writes the full company profile plus the derived
eligibility attributes as JSON, for filling out application forms and
feeding other tools.`,
	Run: func(cmd *cobra.Command, _ []string) {
		runExportProfile(cmd)
	},
}

func init() {
	rootCmd.AddCommand(exportProfileCmd)

	exportProfileCmd.Flags().StringP("out", "o", "", "write to a file instead of stdout")
}

func runExportProfile(cmd *cobra.Command) {
	logger := newLogger()
	defer logger.Sync()

	company, err := loadCompany()
	if err != nil {
		logger.Fatal("loading company profile", zap.Error(err))
	}

	payload := map[string]any{
		"company":     company,
		"eligibility": company.Eligibility(time.Now().UTC()),
		"exported_at": time.Now().UTC().Format(time.RFC3339),
	}

	out := os.Stdout
	if path, _ := cmd.Flags().GetString("out"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			logger.Fatal("creating output file", zap.Error(err))
		}
		defer f.Close()
		out = f
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(payload); err != nil {
		logger.Fatal("encoding profile", zap.Error(err))
	}
}
