package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"clip-curator/infrastructure/config"
	"clip-curator/infrastructure/logging"
)

var (
	cfgFile string
	verbose bool
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "clip-curator",
	Short: "Curate a deduplicated dataset of short video clips",
	Long: `clip-curator builds a quality-gated, deduplicated library of short video
clips from multiple sources:

  - Filter out videos that are too short or carry watermarks
  - Cut fixed-length clips at randomized offsets (stream copy, no re-encode)
  - Deduplicate by perceptual content fingerprint
  - Checkpoint progress after every candidate, so interrupted runs resume
    without reprocessing verified material

Example:
  clip-curator collect --config config/config.yaml`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

func initConfig() {
	logging.Init(verbose)

	if cfgFile == "" {
		cfgFile = "config/config.yaml"
	}

	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		// Config file is optional for some commands (like help and setup)
		// Commands that need config will check and error appropriately
		cfg = nil
	}
}

// GetConfig returns the loaded configuration
func GetConfig() *config.Config {
	return cfg
}
