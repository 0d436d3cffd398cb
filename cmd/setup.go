package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"clip-curator/infrastructure/config"
)

// Prompter interface for interactive prompts (allows mocking in tests)
type Prompter interface {
	Input(message string, defaultValue string) (string, error)
	Confirm(message string, defaultValue bool) (bool, error)
}

// SurveyPrompter implements Prompter using the survey library
type SurveyPrompter struct{}

func (p *SurveyPrompter) Input(message string, defaultValue string) (string, error) {
	result := ""
	prompt := &survey.Input{
		Message: message,
		Default: defaultValue,
	}
	if err := survey.AskOne(prompt, &result); err != nil {
		return "", err
	}
	return result, nil
}

func (p *SurveyPrompter) Confirm(message string, defaultValue bool) (bool, error) {
	result := defaultValue
	prompt := &survey.Confirm{
		Message: message,
		Default: defaultValue,
	}
	if err := survey.AskOne(prompt, &result); err != nil {
		return false, err
	}
	return result, nil
}

// DefaultPrompter is the prompter used in production
var DefaultPrompter Prompter = &SurveyPrompter{}

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Create configuration file interactively",
	Long: `Prompts for configuration values and creates config.yaml.

This command guides you through the pipeline paths, clip gates, collection
targets, and search keywords.`,
	RunE: runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(cmd *cobra.Command, args []string) error {
	return RunSetupWithPrompter(DefaultPrompter, "config/config.yaml")
}

// RunSetupWithPrompter runs the setup with a given prompter (for testing)
func RunSetupWithPrompter(prompter Prompter, configPath string) error {
	if _, err := os.Stat(configPath); err == nil {
		overwrite, err := prompter.Confirm("config.yaml already exists. Overwrite?", false)
		if err != nil {
			return fmt.Errorf("prompt cancelled")
		}
		if !overwrite {
			fmt.Println("Setup cancelled.")
			return nil
		}
	}

	fmt.Println("Welcome to clip-curator setup!")
	fmt.Println()

	cfg := &config.Config{}

	if err := promptPaths(prompter, cfg); err != nil {
		return err
	}
	if err := promptProcessing(prompter, cfg); err != nil {
		return err
	}
	if err := promptScraper(prompter, cfg); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := config.Save(cfg, configPath); err != nil {
		return err
	}

	fmt.Println()
	fmt.Printf("Configuration written to %s\n", configPath)
	return nil
}

func promptPaths(prompter Prompter, cfg *config.Config) error {
	var err error
	if cfg.Paths.DownloadsDir, err = prompter.Input("Raw downloads directory:", "raw_videos"); err != nil {
		return err
	}
	if cfg.Paths.DatasetDir, err = prompter.Input("Dataset output directory:", "dataset"); err != nil {
		return err
	}
	if cfg.Paths.ProgressDir, err = prompter.Input("Progress state directory:", "progress"); err != nil {
		return err
	}
	if cfg.Paths.ArchiveName, err = prompter.Input("Archive name (empty to skip archiving):", "cinematic_dataset"); err != nil {
		return err
	}
	return nil
}

func promptProcessing(prompter Prompter, cfg *config.Config) error {
	clipDuration, err := promptFloat(prompter, "Clip duration (seconds):", "5")
	if err != nil {
		return err
	}
	cfg.Processing.ClipDuration = clipDuration

	minDuration, err := promptFloat(prompter, "Minimum clip duration (seconds):", "2")
	if err != nil {
		return err
	}
	cfg.Processing.MinClipDuration = minDuration

	target, err := promptInt(prompter, "Target clip count:", "100")
	if err != nil {
		return err
	}
	cfg.Processing.TargetClipCount = target

	cfg.Processing.DetectWatermarks, err = prompter.Confirm("Enable watermark detection?", true)
	if err != nil {
		return err
	}

	if cfg.Processing.DetectWatermarks {
		threshold, err := promptFloat(prompter, "Watermark static-area threshold (percent):", "5")
		if err != nil {
			return err
		}
		cfg.Processing.WatermarkThreshold = threshold
	}

	cfg.Processing.VideoMarginFactor = 1.5
	return nil
}

func promptScraper(prompter Prompter, cfg *config.Config) error {
	keywords, err := prompter.Input("Search keywords (comma separated):", "cinematic drone footage, city timelapse")
	if err != nil {
		return err
	}
	for _, k := range strings.Split(keywords, ",") {
		if k = strings.TrimSpace(k); k != "" {
			cfg.Scraper.Keywords = append(cfg.Scraper.Keywords, k)
		}
	}

	limit, err := promptInt(prompter, "Downloads per keyword:", "5")
	if err != nil {
		return err
	}
	cfg.Scraper.DownloadLimitPerKeyword = limit

	maxDuration, err := promptInt(prompter, "Maximum source video duration (seconds):", "600")
	if err != nil {
		return err
	}
	cfg.Scraper.MaxVideoDuration = maxDuration

	cfg.Scraper.ActiveScrapers = []string{"youtube"}
	cfg.Scraper.SearchPrefix = "ytsearch10"
	return nil
}

func promptFloat(prompter Prompter, message, defaultValue string) (float64, error) {
	raw, err := prompter.Input(message, defaultValue)
	if err != nil {
		return 0, err
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q: %w", raw, err)
	}
	return value, nil
}

func promptInt(prompter Prompter, message, defaultValue string) (int, error) {
	raw, err := prompter.Input(message, defaultValue)
	if err != nil {
		return 0, err
	}
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid number %q: %w", raw, err)
	}
	return value, nil
}
