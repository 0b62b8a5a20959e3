// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the equation-scribe CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the equation-scribe CLI.
var rootCmd = &cobra.Command{
	Use:   "equation-scribe",
	Short: "Data pipeline for training equation detectors on scientific papers",
	Long: `equation-scribe builds equation-detection training data from scientific
papers: fetching PDFs, rasterizing pages, detecting equation regions, generating
synthetic pages, and packaging everything into COCO / Ultralytics datasets.

Each pipeline stage is a subcommand. A typical run chains fetch, ingest,
autodetect (or synth), coco, split, tile, dataset export, and train; pairs and
validate prepare the recognition side, and catalog indexes every profile for
search.`,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./equation-scribe.yaml or ~/.config/equation-scribe/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("equation-scribe")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "equation-scribe"))
		}
	}

	viper.SetEnvPrefix("EQUATION_SCRIBE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
