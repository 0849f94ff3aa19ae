package main

import (
	"fmt"
	"path/filepath"

	"github.com/davidhaslett/arcsum/pkg/arcsum/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `Manage arcsum configuration settings.

Configuration is loaded from:
  1. $XDG_CONFIG_HOME/arcsum/config.yaml (if set)
  2. ~/.config/arcsum/config.yaml

Environment variables can override config file settings using the ARCSUM_ prefix:
  ARCSUM_WORKERS=8
  ARCSUM_BUFFER_SIZE=4M`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the current configuration settings from all sources.`,
	RunE:  runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create default configuration file",
	Long:  `Create a default configuration file if one doesn't exist.`,
	RunE:  runConfigInit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show configuration file path",
	Long:  `Display the path to the configuration file.`,
	RunE:  runConfigPath,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}

// runConfigShow displays the current configuration.
func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if used := viper.ConfigFileUsed(); used != "" {
		fmt.Printf("# config file: %s\n", used)
	} else {
		fmt.Println("# no config file found, showing defaults")
	}

	fmt.Printf("manifest_name: %s\n", cfg.ManifestName)
	fmt.Printf("buffer_size: %s\n", cfg.BufferSize)
	fmt.Printf("workers: %d\n", cfg.Workers)
	fmt.Printf("output_format: %s\n", cfg.OutputFormat)
	fmt.Println("logging:")
	fmt.Printf("  level: %s\n", cfg.Logging.Level)
	fmt.Printf("  path: %q\n", cfg.Logging.Path)

	return nil
}

// runConfigInit creates a default configuration file.
func runConfigInit(cmd *cobra.Command, args []string) error {
	if err := config.WriteDefault(); err != nil {
		return fmt.Errorf("failed to write default config: %w", err)
	}

	dir, err := config.ConfigDir()
	if err != nil {
		return err
	}
	fmt.Printf("config file: %s\n", filepath.Join(dir, "config.yaml"))

	return nil
}

// runConfigPath prints the configuration file path.
func runConfigPath(cmd *cobra.Command, args []string) error {
	dir, err := config.ConfigDir()
	if err != nil {
		return err
	}
	fmt.Println(filepath.Join(dir, "config.yaml"))

	return nil
}
