package main

import (
	"log"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/marv-media/grant-finder/internal/certs"
	"github.com/marv-media/grant-finder/internal/ingest"
	"github.com/marv-media/grant-finder/internal/logger"
	"github.com/marv-media/grant-finder/internal/profile"
	"github.com/marv-media/grant-finder/internal/sheets"
)

const app = "grantfinder"

var (
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "grantfinder discovers and scores small business grants for MARV Media",
	}
)

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	if err := viper.BindEnv("database-url", "DATABASE_URL"); err != nil {
		log.Fatalf("binding DATABASE_URL environment variable: %v", err)
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is grantfinder.yaml in current directory)")
	rootCmd.PersistentFlags().String("profile", "", "company profile YAML (default is the embedded profile)")
	rootCmd.PersistentFlags().String("catalog", "", "certification catalog YAML (default is the embedded catalog)")
	rootCmd.PersistentFlags().String("sources", "", "source registry YAML (default is the embedded registry)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("profile", rootCmd.PersistentFlags().Lookup("profile"))
	viper.BindPFlag("catalog", rootCmd.PersistentFlags().Lookup("catalog"))
	viper.BindPFlag("sources", rootCmd.PersistentFlags().Lookup("sources"))
	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app + ".yaml")
	}

	// The config file is optional; every command works from flags,
	// environment, and embedded defaults.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && cfgFile != "" {
			log.Fatal(err)
		}
	}
}

func newLogger() *zap.Logger {
	l, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %v", err)
	}
	return l
}

func loadCompany() (*profile.Company, error) {
	return profile.Load(viper.GetString("profile"))
}

func loadCatalog() (*certs.Catalog, error) {
	return certs.Load(viper.GetString("catalog"))
}

func loadRegistry() (*ingest.Registry, error) {
	return ingest.LoadRegistry(viper.GetString("sources"))
}

func sheetsConfig() (sheets.Config, error) {
	var cfg sheets.Config
	if err := viper.UnmarshalKey("sheets", &cfg); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}
