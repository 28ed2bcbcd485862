// Package config loads daemon settings from the environment.
package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// AppConfig holds configuration values parsed from environment
// variables with the HNS_ prefix.
type AppConfig struct {
	// CacheSize bounds the decoded-resource LRU cache.
	CacheSize uint `koanf:"cache_size" validate:"required,gte=1"`

	// DisableCache bypasses resource caching entirely. Useful for
	// testing scenarios.
	DisableCache bool `koanf:"disable_cache"`

	// Env is the runtime environment, either "dev" or "prod".
	Env string `koanf:"env" validate:"required,oneof=dev prod"`

	// LogLevel controls log verbosity: "debug", "info", "warn", or "error".
	LogLevel string `koanf:"log_level" validate:"required,oneof=debug info warn error"`

	// Port is the network port the DNS server will bind to.
	Port int `koanf:"port" validate:"required,gte=1,lt=65535"`

	// RootAddr is the public address advertised in the root zone's
	// additional section. Empty means no address record is synthesized.
	RootAddr string `koanf:"root_addr" validate:"omitempty,ip"`
}

// DEFAULT_APP_CONFIG defines the default settings for the daemon.
var DEFAULT_APP_CONFIG = AppConfig{
	CacheSize:    1000,
	DisableCache: false,
	Env:          "prod",
	LogLevel:     "info",
	Port:         53,
	RootAddr:     "",
}

// envLoader loads environment variables with the prefix "HNS_",
// lowercasing keys and stripping the prefix. It is a variable so tests
// can substitute their own loader.
var envLoader = func(k *koanf.Koanf) error {
	return k.Load(env.Provider(".", env.Opt{
		Prefix: "HNS_",
		TransformFunc: func(key, value string) (string, any) {
			key = strings.ToLower(strings.TrimPrefix(key, "HNS_"))
			return key, strings.TrimSpace(value)
		},
	}), nil)
}

// defaultLoader loads the default configuration using the structs
// provider.
var defaultLoader = func(k *koanf.Koanf) error {
	return k.Load(structs.Provider(DEFAULT_APP_CONFIG, "koanf"), nil)
}

// Load parses environment variables and returns an AppConfig instance.
// It applies default values and runs validation automatically.
func Load() (*AppConfig, error) {
	k := koanf.New(".")

	if err := defaultLoader(k); err != nil {
		return nil, fmt.Errorf("error loading default config: %w", err)
	}

	if err := envLoader(k); err != nil {
		return nil, fmt.Errorf("error loading env: %w", err)
	}

	var cfg AppConfig

	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	return &cfg, nil
}
