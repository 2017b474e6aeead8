package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/TimofiiShkabrov/AirCapital/internal/entity"
)

type Config struct {
	DataDir          string
	HistoryDir       string
	HTTPTimeout      time.Duration
	TransientRetries int
	ZeroTolerance    time.Duration
	CoalesceWindow   time.Duration
	BaseURLs         map[entity.Exchange]string
}

type configTmp struct {
	DataDir             string            `yaml:"data_dir,omitempty"`
	HistoryDir          string            `yaml:"history_dir,omitempty"`
	HTTPTimeout         time.Duration     `yaml:"http_timeout,omitempty"`
	TransientRetriesStr string            `yaml:"transient_retries,omitempty"`
	ZeroTolerance       time.Duration     `yaml:"zero_tolerance,omitempty"`
	CoalesceWindow      time.Duration     `yaml:"coalesce_window,omitempty"`
	BaseURLs            map[string]string `yaml:"base_urls,omitempty"`
}

// Default returns the configuration used when no yaml file is given.
func Default() Config {
	return Config{
		DataDir:          "./data",
		HistoryDir:       "./data/history",
		HTTPTimeout:      15 * time.Second,
		TransientRetries: 1,
		ZeroTolerance:    10 * time.Minute,
		CoalesceWindow:   30 * time.Minute,
	}
}

// Get loads the configuration from a yaml file, falling back to the
// defaults for every omitted field. An empty path returns the defaults.
func Get(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	f, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	var tmp configTmp
	if err := yaml.Unmarshal(f, &tmp); err != nil {
		return Config{}, err
	}

	if tmp.DataDir != "" {
		cfg.DataDir = tmp.DataDir
	}
	if tmp.HistoryDir != "" {
		cfg.HistoryDir = tmp.HistoryDir
	}
	if tmp.HTTPTimeout != 0 {
		cfg.HTTPTimeout = tmp.HTTPTimeout
	}
	if tmp.ZeroTolerance != 0 {
		cfg.ZeroTolerance = tmp.ZeroTolerance
	}
	if tmp.CoalesceWindow != 0 {
		cfg.CoalesceWindow = tmp.CoalesceWindow
	}

	if tmp.TransientRetriesStr != "" {
		retries, err := strconv.Atoi(tmp.TransientRetriesStr)
		if err != nil {
			return Config{}, fmt.Errorf("incorrect 'transient_retries' param in yaml config (must be an integer), error: %w", err)
		}
		if retries < 0 {
			return Config{}, fmt.Errorf("incorrect 'transient_retries' param in yaml config: %d", retries)
		}
		cfg.TransientRetries = retries
	}

	if len(tmp.BaseURLs) > 0 {
		cfg.BaseURLs = make(map[entity.Exchange]string, len(tmp.BaseURLs))
		for name, base := range tmp.BaseURLs {
			exchange, err := entity.ParseExchange(name)
			if err != nil {
				return Config{}, fmt.Errorf("incorrect 'base_urls' param in yaml config: %w", err)
			}
			cfg.BaseURLs[exchange] = base
		}
	}

	return cfg, nil
}
