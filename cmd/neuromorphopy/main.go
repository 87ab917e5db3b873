// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the neuromorphopy CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kpeez/neuromorphopy/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

const defaultUserAgent = "neuromorphopy/0.1"

// rootCmd is the base command for the neuromorphopy CLI.
var rootCmd = &cobra.Command{
	Use:   "neuromorphopy",
	Short: "Search and download neuron morphologies from NeuroMorpho.org",
	Long: `neuromorphopy queries the NeuroMorpho.org catalog for neuron
reconstructions and downloads their standardized SWC morphology files.

Searches are described by a YAML or JSON query file mapping catalog fields
to accepted values; the explore subcommand lists the live vocabulary. The
download subcommand runs the whole pipeline: validate, search, export
metadata, and fetch morphology files concurrently. Re-running over the same
output directory skips files that already exist.`,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./neuromorphopy.yaml or ~/.config/neuromorphopy/config.yaml)")
	rootCmd.PersistentFlags().Duration("timeout", 60*time.Second, "HTTP request timeout")
	rootCmd.PersistentFlags().Bool("legacy-ciphers", false, "accept legacy TLS cipher suites from the catalog host")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("neuromorphopy")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "neuromorphopy"))
		}
	}

	viper.SetEnvPrefix("NEUROMORPHOPY")
	viper.AutomaticEnv()

	viper.SetDefault("search.page_size", 100)
	viper.SetDefault("search.max_concurrency", 20)
	viper.SetDefault("download.max_concurrency", 20)

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// httpConfig assembles the shared HTTP settings from flags and config.
func httpConfig(cmd *cobra.Command) types.HTTPConfig {
	timeout, _ := cmd.Flags().GetDuration("timeout")
	legacy, _ := cmd.Flags().GetBool("legacy-ciphers")
	if !legacy {
		legacy = viper.GetBool("legacy_ciphers")
	}
	return types.HTTPConfig{
		Timeout:       timeout,
		UserAgent:     defaultUserAgent,
		LegacyCiphers: legacy,
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
