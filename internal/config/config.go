// Copyright (c) 2024-2026 Voxlink AI
// Author: Voxlink Engineering <engineering@voxlink.ai>
//
// Licensed under GPL-2.0 with Voxlink Additional Terms.
// See LICENSE.md or contact sales@voxlink.ai for commercial usage.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config carries everything the agent needs to reach the speech backend.
// Timeout values live here by contract: the session core defines the
// negotiation steps, the caller owns the absolute timeout policy.
type Config struct {
	// SignalingURL is the remote endpoint the raw SDP offer is POSTed to.
	SignalingURL string `mapstructure:"signaling_url"`
	// Model is appended to the signaling URL as a query parameter.
	Model string `mapstructure:"model"`

	// TokenURL issues the ephemeral bearer credential used for one
	// negotiation. APIKey authenticates against the token service itself.
	TokenURL string `mapstructure:"token_url"`
	APIKey   string `mapstructure:"api_key"`

	// STUN servers used when no TURN infrastructure is configured.
	ICEServers []string `mapstructure:"ice_servers"`

	// HTTPTimeout bounds each individual signaling/token HTTP call.
	HTTPTimeout time.Duration `mapstructure:"http_timeout"`
	// ConnectTimeout bounds the whole connect sequence, token fetch through
	// ICE connected.
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`

	LogLevel string `mapstructure:"log_level"`
	LogPath  string `mapstructure:"log_path"`

	// ActuatorURL points at an optional motion actuator service. Empty means
	// the capability is absent and a no-op actuator is used.
	ActuatorURL string `mapstructure:"actuator_url"`

	// LeadDBPath is the sqlite file for captured leads.
	LeadDBPath string `mapstructure:"lead_db_path"`
}

// Load reads configuration from an optional YAML file plus VOXLINK_* env
// overrides, falling back to defaults suitable for local development.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	v.SetEnvPrefix("voxlink")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("signaling_url", "https://api.openai.com/v1/realtime")
	v.SetDefault("model", "gpt-4o-realtime-preview")
	v.SetDefault("token_url", "https://api.openai.com/v1/realtime/sessions")
	v.SetDefault("ice_servers", []string{"stun:stun.l.google.com:19302"})
	v.SetDefault("http_timeout", "10s")
	v.SetDefault("connect_timeout", "30s")
	v.SetDefault("log_level", "info")
	v.SetDefault("lead_db_path", "voxlink-leads.db")
	// Keys with no meaningful default still need registering, otherwise
	// Unmarshal cannot see their env overrides.
	v.SetDefault("api_key", "")
	v.SetDefault("log_path", "")
	v.SetDefault("actuator_url", "")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.SignalingURL == "" {
		return nil, fmt.Errorf("signaling_url must not be empty")
	}
	return &cfg, nil
}
