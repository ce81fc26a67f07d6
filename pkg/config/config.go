package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/marek-kar/genckl/pkg/inlinecmd"
	"github.com/marek-kar/genckl/pkg/model"
)

// AssetConfig holds the asset fields an operator usually sets once per site.
// Empty fields keep the checklist defaults.
type AssetConfig struct {
	Role          string `yaml:"role"`
	AssetType     string `yaml:"asset_type"`
	TargetComment string `yaml:"target_comment"`
	TechArea      string `yaml:"tech_area"`
	WebOrDatabase string `yaml:"web_or_database"`
	WebDBSite     string `yaml:"web_db_site"`
	WebDBInstance string `yaml:"web_db_instance"`
}

type CommandsConfig struct {
	Tag     string `yaml:"tag"`
	Timeout string `yaml:"timeout"`
}

type Config struct {
	LogLevel  string         `yaml:"log_level"`
	LogFormat string         `yaml:"log_format"`
	Asset     AssetConfig    `yaml:"asset"`
	Commands  CommandsConfig `yaml:"commands"`
}

func Default() *Config {
	return &Config{
		LogLevel:  "info",
		LogFormat: "auto",
		Commands: CommandsConfig{
			Tag:     inlinecmd.DefaultTag,
			Timeout: inlinecmd.DefaultTimeout.String(),
		},
	}
}

func GetConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".genckl", "config.yaml"), nil
}

// LoadConfig reads the config at path, or at GetConfigPath when path is
// empty. A missing file yields the defaults.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		p, err := GetConfigPath()
		if err != nil {
			return Default(), nil
		}
		path = p
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if _, err := cfg.CommandTimeout(); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) CommandTimeout() (time.Duration, error) {
	if c.Commands.Timeout == "" {
		return inlinecmd.DefaultTimeout, nil
	}
	d, err := time.ParseDuration(c.Commands.Timeout)
	if err != nil {
		return 0, fmt.Errorf("commands.timeout: %w", err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("commands.timeout must be positive, got %s", d)
	}
	return d, nil
}

// Runner builds the inline command runner described by the config.
func (c *Config) Runner() *inlinecmd.Runner {
	r := inlinecmd.NewRunner()
	if c.Commands.Tag != "" {
		r.Tag = c.Commands.Tag
	}
	if d, err := c.CommandTimeout(); err == nil {
		r.Timeout = d
	}
	return r
}

// ChecklistAsset returns the default checklist asset with the configured
// fields applied.
func (c *Config) ChecklistAsset() model.Asset {
	a := model.DefaultAsset()
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&a.Role, c.Asset.Role)
	set(&a.AssetType, c.Asset.AssetType)
	set(&a.TargetComment, c.Asset.TargetComment)
	set(&a.TechArea, c.Asset.TechArea)
	set(&a.WebOrDatabase, c.Asset.WebOrDatabase)
	set(&a.WebDBSite, c.Asset.WebDBSite)
	set(&a.WebDBInstance, c.Asset.WebDBInstance)
	return a
}
