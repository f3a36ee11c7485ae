// Package config handles explorer configuration from a YAML file with
// environment-variable overrides for deployment-sensitive values.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level explorer configuration.
type Config struct {
	Listen   string       `yaml:"listen"`
	LogLevel string       `yaml:"log_level"`
	DataDir  string       `yaml:"data_dir"`
	Source   string       `yaml:"source"` // awx | db | demo
	AWX      AWXConfig    `yaml:"awx"`
	Cache    CacheConfig  `yaml:"cache"`
	LLM      LLMConfig    `yaml:"llm"`
	Export   ExportConfig `yaml:"export"`
}

// AWXConfig points the live loader at an AWX/Tower API.
type AWXConfig struct {
	URL      string        `yaml:"url"`
	Token    string        `yaml:"token"`
	PageSize int           `yaml:"page_size"`
	Timeout  time.Duration `yaml:"timeout"`
}

// CacheConfig selects the relational fact cache.
type CacheConfig struct {
	Driver string `yaml:"driver"` // postgres | sqlite
	DSN    string `yaml:"dsn"`
	Table  string `yaml:"table"`
}

// LLMConfig points the NL-filter translator at an OpenAI-compatible
// chat-completions endpoint (typically a local model server).
type LLMConfig struct {
	URL     string        `yaml:"url"`
	Model   string        `yaml:"model"`
	Timeout time.Duration `yaml:"timeout"`
}

// ExportConfig names the datasets written by the export serializer.
type ExportConfig struct {
	ListName  string `yaml:"list_name"`
	PivotName string `yaml:"pivot_name"`
}

// Load reads the YAML file at path (when non-empty), applies env overrides,
// then defaults. A missing path yields a pure env+defaults configuration.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	setIfPresent := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setIfPresent(&c.Listen, "LISTEN_ADDR")
	setIfPresent(&c.LogLevel, "LOG_LEVEL")
	setIfPresent(&c.DataDir, "DATA_DIR")
	setIfPresent(&c.Source, "FACT_SOURCE")
	setIfPresent(&c.AWX.URL, "AWX_URL")
	setIfPresent(&c.AWX.Token, "AWX_TOKEN")
	setIfPresent(&c.Cache.Driver, "CACHE_DRIVER")
	setIfPresent(&c.Cache.DSN, "CACHE_DSN")
	setIfPresent(&c.LLM.URL, "LLM_URL")
	setIfPresent(&c.LLM.Model, "LLM_MODEL")
}

func (c *Config) applyDefaults() {
	if c.Listen == "" {
		c.Listen = ":8080"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.DataDir == "" {
		c.DataDir = "data"
	}
	if c.Source == "" {
		c.Source = "demo"
	}
	if c.AWX.PageSize <= 0 {
		c.AWX.PageSize = 200
	}
	if c.AWX.Timeout <= 0 {
		c.AWX.Timeout = 30 * time.Second
	}
	if c.Cache.Driver == "" {
		c.Cache.Driver = "sqlite"
	}
	if c.Cache.Table == "" {
		c.Cache.Table = "host_facts"
	}
	if c.LLM.Model == "" {
		c.LLM.Model = "llama3"
	}
	if c.LLM.Timeout <= 0 {
		c.LLM.Timeout = 60 * time.Second
	}
	if c.Export.ListName == "" {
		c.Export.ListName = "facts"
	}
	if c.Export.PivotName == "" {
		c.Export.PivotName = "facts_by_host"
	}
}
