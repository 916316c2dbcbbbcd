// Package cmd wires the pipeline's cobra command tree. Grounded on the
// teacher's cmd/cmd/root.go: a persistent --config flag, cobra.OnInitialize
// loading .env via godotenv then binding viper.AutomaticEnv, and package-level
// *cobra.Command vars registered onto rootCmd from per-command init()s.
package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "ai-news-pipeline",
	Short: "Ingests, filters, and synthesizes AI/tech news into a daily digest or deep-dive column.",
	Long: `ai-news-pipeline fetches AI/tech news from RSS feeds, HTML sources, and a
shared upstream archive, normalizes and scores it for editorial relevance,
deduplicates overlapping coverage, and drives two downstream generators:
a categorized daily digest and a long-form deep-column on a trending topic
cluster.`,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. Called once by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.ai-news-pipeline.yaml)")
}

// initConfig loads an optional .env file for local development and binds
// environment variables via viper; internal/config.Load does the actual
// struct population each command reads from.
func initConfig() {
	envFile := ".env"
	if _, err := os.Stat(envFile); err == nil {
		if err := godotenv.Load(envFile); err != nil {
			fmt.Fprintf(os.Stderr, "warning: error loading .env file: %v\n", err)
		}
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)
		viper.AddConfigPath(".")
		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".ai-news-pipeline")
	}

	viper.AutomaticEnv()
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "using config file:", viper.ConfigFileUsed())
	}
}
