package main

import (
	"fmt"
	"os"

	"github.com/aretw0/tendril/internal/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "tendril",
	Short: "Tendril runs event-driven node graphs",
	Long: `Tendril loads node graphs from YAML, JSON or HCL files and evaluates them
per event, from a console, an HTTP API, MQTT or MCP.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Config file (default tendril.yaml when present)")
	rootCmd.PersistentFlags().String("dir", "", "Directory containing graph files (overrides config)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().Bool("loam", false, "Read graphs from a Loam repository with hot reload")
}

// loadConfig reads the config file and applies the persistent flags on top.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}
	if dir, _ := cmd.Flags().GetString("dir"); dir != "" {
		cfg.Graphs = dir
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.LogLevel = level
	}
	if cmd.Flags().Changed("loam") {
		cfg.Loam, _ = cmd.Flags().GetBool("loam")
	}
	return cfg, cfg.Validate()
}
