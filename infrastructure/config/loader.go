package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the complete application configuration
type Config struct {
	Paths      PathsConfig      `yaml:"paths"`
	Processing ProcessingConfig `yaml:"processing"`
	Scraper    ScraperConfig    `yaml:"scraper"`
}

// PathsConfig contains directory and file locations for the pipeline
type PathsConfig struct {
	DownloadsDir string `yaml:"downloads_dir"`
	DatasetDir   string `yaml:"dataset_dir"`
	ProgressDir  string `yaml:"progress_dir"`
	IndexFile    string `yaml:"index_file"`
	ReportFile   string `yaml:"report_file"`
	ArchiveName  string `yaml:"archive_name"`
}

// ProcessingConfig contains the curation gates and targets
type ProcessingConfig struct {
	ClipDuration       float64 `yaml:"clip_duration"`
	MinClipDuration    float64 `yaml:"min_clip_duration"`
	TargetClipCount    int     `yaml:"target_clip_count"`
	VideoMarginFactor  float64 `yaml:"video_margin_factor"`
	DetectWatermarks   bool    `yaml:"detect_watermarks"`
	WatermarkThreshold float64 `yaml:"watermark_threshold"`
	KeepRawDownloads   bool    `yaml:"keep_raw_downloads"`
}

// ScraperConfig contains acquisition settings shared by all scrapers
type ScraperConfig struct {
	ActiveScrapers          []string `yaml:"active_scrapers"`
	Keywords                []string `yaml:"keywords"`
	SearchPrefix            string   `yaml:"search_prefix"`
	DownloadLimitPerKeyword int      `yaml:"download_limit_per_keyword"`
	MaxVideoDuration        int      `yaml:"max_video_duration"`
}

// Load reads and parses the configuration from the specified YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// Save writes the configuration to the specified YAML file
func Save(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func (c *Config) applyDefaults() {
	if c.Paths.DownloadsDir == "" {
		c.Paths.DownloadsDir = "raw_videos"
	}
	if c.Paths.DatasetDir == "" {
		c.Paths.DatasetDir = "dataset"
	}
	if c.Paths.ProgressDir == "" {
		c.Paths.ProgressDir = "progress"
	}
	if c.Paths.IndexFile == "" {
		c.Paths.IndexFile = "dataset_index.csv"
	}
	if c.Paths.ReportFile == "" {
		c.Paths.ReportFile = "collection_report.md"
	}
	if c.Processing.ClipDuration == 0 {
		c.Processing.ClipDuration = 5
	}
	if c.Processing.MinClipDuration == 0 {
		c.Processing.MinClipDuration = 2
	}
	if c.Processing.TargetClipCount == 0 {
		c.Processing.TargetClipCount = 100
	}
	if c.Processing.VideoMarginFactor == 0 {
		c.Processing.VideoMarginFactor = 1.5
	}
	if c.Processing.WatermarkThreshold == 0 {
		c.Processing.WatermarkThreshold = 5 // percent
	}
	if c.Scraper.SearchPrefix == "" {
		c.Scraper.SearchPrefix = "ytsearch10"
	}
	if c.Scraper.DownloadLimitPerKeyword == 0 {
		c.Scraper.DownloadLimitPerKeyword = 5
	}
	if c.Scraper.MaxVideoDuration == 0 {
		c.Scraper.MaxVideoDuration = 600
	}
	if len(c.Scraper.ActiveScrapers) == 0 {
		c.Scraper.ActiveScrapers = []string{"youtube"}
	}
}
