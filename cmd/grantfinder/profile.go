package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show the company profile and derived eligibility attributes",
	Run: func(_ *cobra.Command, _ []string) {
		runProfile()
	},
}

func init() {
	rootCmd.AddCommand(profileCmd)
}

func runProfile() {
	logger := newLogger()
	defer logger.Sync()

	company, err := loadCompany()
	if err != nil {
		logger.Fatal("loading company profile", zap.Error(err))
	}

	e := company.Eligibility(time.Now().UTC())

	ownership := []string{}
	if e.WomanOwned {
		ownership = append(ownership, fmt.Sprintf("woman-owned (%.0f%%)", e.WomanOwnedPercentage))
	}
	if e.MinorityOwned {
		ownership = append(ownership, fmt.Sprintf("minority-owned (%.0f%%)", e.MinorityOwnedPercentage))
	}
	if e.VeteranOwned {
		ownership = append(ownership, "veteran-owned")
	}
	if e.DisabledVeteranOwned {
		ownership = append(ownership, "disabled-veteran-owned")
	}
	if len(ownership) == 0 {
		ownership = append(ownership, "none")
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendRows([]table.Row{
		{"Legal name", company.LegalName},
		{"Entity type", e.EntityType},
		{"Location", fmt.Sprintf("%s, %s, %s", e.City, e.State, e.Country)},
		{"Years in business", e.YearsInBusiness},
		{"Employees", e.EmployeeCount},
		{"Annual revenue", fmt.Sprintf("$%.0f", e.AnnualRevenue)},
		{"Ownership", strings.Join(ownership, ", ")},
		{"NAICS codes", strings.Join(e.NAICSCodes, ", ")},
		{"Certifications", strings.Join(e.Certifications, ", ")},
	})
	t.Render()
}
