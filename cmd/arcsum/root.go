package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/davidhaslett/arcsum/pkg/arcsum/config"
	"github.com/davidhaslett/arcsum/pkg/arcsum/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "arcsum",
		Short: "Compute and verify archive checksum manifests",
		Long: `Arcsum maintains a checksum manifest for a directory tree: a text file
mapping each archived file to the SHA-256 digest of its contents. Use it
to detect silent corruption and to confirm an archive hasn't drifted
from a recorded baseline.

Examples:
  arcsum generate /mnt/archive                 # Write manifest.txt
  arcsum generate -m photos.sum ~/photos       # Custom manifest path
  arcsum verify /mnt/archive                   # Check against manifest.txt
  arcsum update /mnt/archive                   # Fold changes into the manifest
  arcsum verify -p --workers 8 /mnt/archive    # Progress bar, 8 hash workers`,
		SilenceUsage:      true,
		PersistentPreRunE: setupLogging,
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.config/arcsum/config.yaml)")
	rootCmd.PersistentFlags().StringP("manifest", "m", "", "manifest file path (default: manifest.txt)")
	rootCmd.PersistentFlags().String("archive-name", "", "archive label used in manifest paths (default: archive directory name)")
	rootCmd.PersistentFlags().StringP("buffer-size", "b", "", "read buffer size for hashing (e.g. 256K, 1MiB)")
	rootCmd.PersistentFlags().IntP("workers", "w", 0, "hashing worker count (0=one per CPU core)")
	rootCmd.PersistentFlags().BoolP("progress", "p", false, "show a progress bar")
	rootCmd.PersistentFlags().StringP("output-format", "o", "", "report format: pretty, plain, json")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "suppress the report on success")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "debug logging to stderr")

	_ = viper.BindPFlag("manifest_name", rootCmd.PersistentFlags().Lookup("manifest"))
	_ = viper.BindPFlag("archive_name", rootCmd.PersistentFlags().Lookup("archive-name"))
	_ = viper.BindPFlag("buffer_size", rootCmd.PersistentFlags().Lookup("buffer-size"))
	_ = viper.BindPFlag("workers", rootCmd.PersistentFlags().Lookup("workers"))
	_ = viper.BindPFlag("progress", rootCmd.PersistentFlags().Lookup("progress"))
	_ = viper.BindPFlag("output_format", rootCmd.PersistentFlags().Lookup("output-format"))
	_ = viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

// initConfig reads in config file and environment variables.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")

		if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
			viper.AddConfigPath(filepath.Join(xdgConfigHome, "arcsum"))
		}

		homeDir, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(homeDir, ".config", "arcsum"))
		}
	}

	viper.SetEnvPrefix("ARCSUM")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("manifest_name", config.DefaultManifestName)
	viper.SetDefault("buffer_size", config.DefaultBufferSize)
	viper.SetDefault("workers", config.DefaultWorkers)
	viper.SetDefault("output_format", config.DefaultOutputFormat)
	viper.SetDefault("logging.level", config.DefaultLogLevel)

	// Config file not found is fine; defaults apply.
	_ = viper.ReadInConfig()
}

// setupLogging initializes the logging system before any command runs.
func setupLogging(_ *cobra.Command, _ []string) error {
	level := viper.GetString("logging.level")
	if getVerbose() {
		level = "debug"
	}

	cfg := logging.Config{
		Level:   level,
		Path:    viper.GetString("logging.path"),
		Console: true,
	}
	if getVerbose() {
		cfg.ConsoleLevel = "debug"
	}

	if err := logging.Init(cfg); err != nil {
		return fmt.Errorf("initializing logging: %w", err)
	}
	return nil
}

// Execute runs the root command.
func Execute() error {
	defer func() { _ = logging.Close() }()
	return rootCmd.Execute()
}

// getVerbose returns true if verbose mode is enabled.
func getVerbose() bool {
	return viper.GetBool("verbose")
}

// getQuiet returns true if quiet mode is enabled.
func getQuiet() bool {
	return viper.GetBool("quiet")
}
