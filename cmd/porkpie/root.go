package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/porkpie"
)

var (
	verbose    bool
	configPath string
	// cfg is loaded before every command; it is empty when no file exists.
	cfg = &porkpie.Config{}
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "porkpie",
	Short: "Compose PCDM collections, objects and files in an LDP repository",
	Long: `Porkpie builds Portland Common Data Model resources on a transactional
Linked Data Platform repository. Every composition runs in a transaction, so a
failure leaves nothing behind.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := loadConfig()
		if err != nil {
			return err
		}
		cfg = loaded

		level, _ := cfg.Level()
		if verbose {
			level = slog.LevelDebug
		}

		opts := &slog.HandlerOptions{
			Level: level,
		}
		logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), opts))
		slog.SetDefault(logger)
		return nil
	},
}

// loadConfig reads --config, or the nearest porkpie.yaml when the flag is
// not set. A missing implicit file is not an error.
func loadConfig() (*porkpie.Config, error) {
	if configPath != "" {
		return porkpie.LoadConfig(configPath)
	}
	wd, err := os.Getwd()
	if err != nil {
		return &porkpie.Config{}, nil
	}
	path, err := porkpie.FindConfig(wd)
	if err != nil {
		return &porkpie.Config{}, nil
	}
	return porkpie.LoadConfig(path)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to porkpie.yaml (default: nearest one upwards)")
}
