package main

import (
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var certsCmd = &cobra.Command{
	Use:   "certifications",
	Short: "List certification programs and recommendations",
	Run: func(cmd *cobra.Command, _ []string) {
		runCertifications(cmd)
	},
}

func init() {
	rootCmd.AddCommand(certsCmd)

	certsCmd.Flags().Bool("recommended", false, "only show programs recommended for the company")
}

func runCertifications(cmd *cobra.Command) {
	logger := newLogger()
	defer logger.Sync()

	catalog, err := loadCatalog()
	if err != nil {
		logger.Fatal("loading certification catalog", zap.Error(err))
	}
	company, err := loadCompany()
	if err != nil {
		logger.Fatal("loading company profile", zap.Error(err))
	}

	e := company.Eligibility(time.Now().UTC())

	certifications := catalog.Certifications
	if only, _ := cmd.Flags().GetBool("recommended"); only {
		certifications = catalog.Recommended(e)
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Name", "Type", "Status", "Held", "Hard", "Est. Time", "Cost"})

	for _, cert := range certifications {
		held := ""
		if e.HasCertification(cert.Name) {
			held = "yes"
		}
		hard := ""
		if cert.HardRequirement {
			hard = "yes"
		}
		t.AppendRow(table.Row{cert.Name, cert.Type, cert.Status, held, hard, cert.EstimatedTime, cert.Cost})
	}
	t.Render()
}
