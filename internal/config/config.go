// Package config loads mimicgate's runtime configuration from environment
// variables only: this is a single-process learning proxy, not a
// multi-service platform, so there is no YAML file to scan and no CLI
// flag surface — just the five documented env vars.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/mimicgate/mimicgate/internal/domain"
)

// Config is the fully resolved runtime configuration.
type Config struct {
	TargetURL  string
	DBPath     string
	ListenAddr string
	Mode       domain.Mode
	Failover   bool
}

// Load reads configuration from the environment, applying the documented
// defaults for every variable except TARGET_URL, which is required when
// Mode is proxy.
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("listen_addr", ":8000")
	v.SetDefault("mode", "proxy")
	v.SetDefault("failover", "on")

	cfg := &Config{
		TargetURL:  v.GetString("target_url"),
		DBPath:     v.GetString("db_path"),
		ListenAddr: v.GetString("listen_addr"),
		Mode:       domain.Mode(v.GetString("mode")),
		Failover:   strings.EqualFold(v.GetString("failover"), "on"),
	}

	if cfg.Mode != domain.ModeProxy && cfg.Mode != domain.ModeMock {
		return nil, fmt.Errorf("config: MODE must be %q or %q, got %q", domain.ModeProxy, domain.ModeMock, cfg.Mode)
	}
	if cfg.Mode == domain.ModeProxy && cfg.TargetURL == "" {
		return nil, fmt.Errorf("config: TARGET_URL is required when MODE=%s", domain.ModeProxy)
	}

	return cfg, nil
}
