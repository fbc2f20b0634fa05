// Package config loads the configuration shared by every command.
package config

import (
	"errors"
	"fmt"
	"os"
	"weibo-analysis/internal/analyzer"
	"weibo-analysis/internal/collector"
	"weibo-analysis/internal/components/failure"
	"weibo-analysis/internal/components/telemetry"
	"weibo-analysis/pkg/configutil"
)

const (
	DefaultPath = "config.json5"

	EnvPostID = "WEIBO_POST_ID"
	EnvCookie = "WEIBO_COOKIE"
)

type Config struct {
	Collector collector.Config `json:"collector"`
	Analyzer  analyzer.Config  `json:"analyzer"`
	Telemetry telemetry.Config `json:"telemetry"`
}

// Load reads `path` and its local override. Neither file existing is not
// an error, every value then takes its default.
func Load(path string) (Config, error) {
	cfg, err := configutil.ReadConfig[Config](path)
	if errors.Is(err, os.ErrNotExist) {
		return Config{}, nil
	}
	if err != nil {
		return Config{}, failure.Config("config", fmt.Errorf("read %s: %w", path, err))
	}
	return cfg, nil
}

// ApplyEnv overrides the post id and the cookie with the environment
// variables of the same name when they are set.
func (c *Config) ApplyEnv(lookup func(key string) (string, bool)) {
	if v, ok := lookup(EnvPostID); ok && v != "" {
		c.Collector.PostID = v
	}
	if v, ok := lookup(EnvCookie); ok && v != "" {
		c.Collector.Cookie = v
	}
}

// LoadWithEnv is Load followed by ApplyEnv with the process environment.
func LoadWithEnv(path string) (Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return cfg, err
	}
	cfg.ApplyEnv(os.LookupEnv)
	return cfg, nil
}
