package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port     string         `mapstructure:"port" yaml:"port"`
	Download DownloadConfig `mapstructure:"download" yaml:"download"`
	YTDLP    YTDLPConfig    `mapstructure:"ytdlp" yaml:"ytdlp"`
	Store    StoreConfig    `mapstructure:"store" yaml:"store"`
	Log      LogConfig      `mapstructure:"log" yaml:"log"`
}

type DownloadConfig struct {
	Dir               string        `mapstructure:"dir" yaml:"dir"`
	MaxConcurrentJobs int           `mapstructure:"max_concurrent_jobs" yaml:"max_concurrent_jobs"`
	SlotWait          time.Duration `mapstructure:"slot_wait" yaml:"slot_wait"`
	Retention         time.Duration `mapstructure:"retention" yaml:"retention"`
	CleanupInterval   time.Duration `mapstructure:"cleanup_interval" yaml:"cleanup_interval"`
}

type YTDLPConfig struct {
	Binary       string        `mapstructure:"binary" yaml:"binary"`
	ProbeTimeout time.Duration `mapstructure:"probe_timeout" yaml:"probe_timeout"`
}

type StoreConfig struct {
	SQLitePath string `mapstructure:"sqlite_path" yaml:"sqlite_path"`
}

type LogConfig struct {
	Path          string `mapstructure:"path" yaml:"path"`
	Level         string `mapstructure:"level" yaml:"level"`
	IncludeStdout bool   `mapstructure:"include_stdout" yaml:"include_stdout"`
}

// Load reads the optional YAML config file and environment overrides.
// Unlike most of the app's collaborators, a missing file is not an error:
// the defaults describe a working single-node setup.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Set Defaults
	v.SetDefault("port", ":5000")
	v.SetDefault("download.dir", "downloads")
	v.SetDefault("download.max_concurrent_jobs", 3)
	v.SetDefault("download.slot_wait", 10*time.Second)
	v.SetDefault("download.retention", time.Hour)
	v.SetDefault("download.cleanup_interval", 5*time.Minute)
	v.SetDefault("ytdlp.binary", "yt-dlp")
	v.SetDefault("ytdlp.probe_timeout", 30*time.Second)
	v.SetDefault("store.sqlite_path", "data/tubefetch.db")
	v.SetDefault("log.path", "tubefetch.log")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.include_stdout", true)

	if path == "" {
		path = "config.yaml"
	}

	// Read config file if present
	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", path, err)
		}
	}

	// Support Environment Variables
	v.SetEnvPrefix("TUBEFETCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if !strings.HasPrefix(c.Port, ":") {
		c.Port = ":" + c.Port
	}

	if c.Download.MaxConcurrentJobs < 1 {
		fmt.Println("Warning: download.max_concurrent_jobs must be at least 1, resetting to 3")
		c.Download.MaxConcurrentJobs = 3
	}

	if c.Download.Retention <= 0 {
		c.Download.Retention = time.Hour
	}

	if c.Download.CleanupInterval <= 0 {
		c.Download.CleanupInterval = 5 * time.Minute
	}

	if c.YTDLP.Binary == "" {
		return fmt.Errorf("ytdlp.binary must not be empty")
	}

	if c.YTDLP.ProbeTimeout <= 0 {
		c.YTDLP.ProbeTimeout = 30 * time.Second
	}

	if c.Download.Dir == "" {
		c.Download.Dir = "downloads"
	}

	return nil
}
