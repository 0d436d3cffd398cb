package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"clip-curator/domain/curation"
	"clip-curator/infrastructure/filesystem"
	"clip-curator/infrastructure/progress"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show collection progress",
	Long: `Print the persisted progress state: clip and video counters, the number
of recorded fingerprints, and how the counts compare to the configured
target.`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	if cfg == nil {
		return fmt.Errorf("configuration not loaded; ensure config/config.yaml exists or run 'clip-curator setup'")
	}

	store, err := progress.NewStore(cfg.Paths.ProgressDir)
	if err != nil {
		return err
	}

	state, hashes, err := store.Load()
	if err != nil {
		return err
	}

	onDisk, err := filesystem.NewChecker().CountClips(cfg.Paths.DatasetDir)
	if err != nil {
		return err
	}

	return printStatus(os.Stdout, state, len(hashes), onDisk, cfg.Processing.TargetClipCount)
}

func printStatus(output io.Writer, state *curation.State, fingerprints, onDisk, target int) error {
	fmt.Fprintf(output, "Clips committed:    %d / %d\n", state.ClipCounter, target)
	fmt.Fprintf(output, "Clips on disk:      %d\n", onDisk)
	fmt.Fprintf(output, "Videos downloaded:  %d\n", state.VideoCounter)
	fmt.Fprintf(output, "Fingerprints known: %d\n", fingerprints)

	if state.ClipCounter >= target {
		fmt.Fprintln(output, "Target met. Nothing left to collect.")
	} else {
		fmt.Fprintf(output, "Remaining:          %d clips\n", target-state.ClipCounter)
	}
	return nil
}
