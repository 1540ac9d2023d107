package config

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load reads the YAML configuration file at path and returns a validated
// [Config]. An empty path returns the defaults with env overrides applied.
func Load(path string) (*Config, error) {
	if path == "" {
		cfg := Default()
		applyEnv(cfg)
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		return cfg, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r, layers env overrides on top,
// and validates the result. Useful in tests where configs are constructed
// from string literals. Fields absent from the YAML keep their defaults.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && err != io.EOF {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	applyEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overlays environment variables onto cfg. Env values win over the
// file so deployments can point a packaged config at a different hub.
func applyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv("SERVER_URL")); v != "" {
		cfg.Transport.ServerURL = v
	}
	if v := strings.TrimSpace(os.Getenv("EXCHANGE_TIMEOUT_S")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Transport.TimeoutSeconds = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("METRICS_ADDR")); v != "" {
		cfg.Transport.MetricsAddr = v
	}
	if v := strings.TrimSpace(os.Getenv("HUB_LISTEN_ADDR")); v != "" {
		cfg.Hub.ListenAddr = v
	}
	if v := strings.TrimSpace(os.Getenv("STT_URL")); v != "" {
		cfg.Hub.STTURL = v
	}
}
