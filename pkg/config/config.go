/*
Copyright 2026 The Symmetrix Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package config

import (
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/symmetrix-compute/sheaf-placement-engine/pkg/field"
)

// Default configuration values.
const (
	DefaultMaxUnits                = 64
	DefaultDiagnosticPeriodSeconds = 30
	DefaultCRTResidueCount         = 4
	DefaultPowerCacheSize          = 1024
	DefaultListenAddr              = ":8443"
	DefaultLogLevel                = "info"

	// envPrefix namespaces environment variable overrides, e.g.
	// SHEAF_MAX_UNITS=128.
	envPrefix = "SHEAF"

	// probablyPrimeRounds is the number of Miller-Rabin rounds used to
	// check the configured field prime. 20 rounds puts the error
	// probability below 2^-40 for adversarial inputs; for inputs below
	// 2^64 the check is fully deterministic regardless.
	probablyPrimeRounds = 20
)

// EngineConfig holds the complete runtime configuration for the placement
// engine daemon.
type EngineConfig struct {
	// MaxUnits bounds how many resource units the registry will accept.
	MaxUnits int `yaml:"maxUnits" mapstructure:"max_units"`

	// FieldPrime is the modulus used by the shared arithmetic engine.
	// It must be prime; inversion relies on it.
	FieldPrime uint64 `yaml:"fieldPrime" mapstructure:"field_prime"`

	// EnableScoring selects the obstruction-scored placement strategy.
	// When false the engine falls back to passthrough selection.
	EnableScoring bool `yaml:"enableScoring" mapstructure:"enable_scoring"`

	// DiagnosticPeriodSeconds is the wake interval of the background
	// consistency check.
	DiagnosticPeriodSeconds int `yaml:"diagnosticPeriodSeconds" mapstructure:"diagnostic_period_seconds"`

	// CRTResidueCount is how many primes from the fixed residue bank
	// the codec uses, between 1 and field.BankSize.
	CRTResidueCount int `yaml:"crtResidueCount" mapstructure:"crt_residue_count"`

	// PowerCacheSize bounds the exponentiation memo in the arithmetic
	// engine. Zero disables caching.
	PowerCacheSize int `yaml:"powerCacheSize" mapstructure:"power_cache_size"`

	// ListenAddr is the bind address for the status and metrics HTTP
	// endpoint.
	ListenAddr string `yaml:"listenAddr" mapstructure:"listen_addr"`

	// LogLevel is a zap level string: debug, info, warn, error.
	LogLevel string `yaml:"logLevel" mapstructure:"log_level"`

	// Development switches the logger to human-readable console output.
	Development bool `yaml:"development" mapstructure:"development"`
}

// Default returns a configuration populated with the built-in defaults.
func Default() *EngineConfig {
	return &EngineConfig{
		MaxUnits:                DefaultMaxUnits,
		FieldPrime:              field.Mersenne61,
		EnableScoring:           true,
		DiagnosticPeriodSeconds: DefaultDiagnosticPeriodSeconds,
		CRTResidueCount:         DefaultCRTResidueCount,
		PowerCacheSize:          DefaultPowerCacheSize,
		ListenAddr:              DefaultListenAddr,
		LogLevel:                DefaultLogLevel,
	}
}

// YAML renders the configuration as a YAML document, suitable for
// echoing the effective configuration back to the operator.
func (c *EngineConfig) YAML() (string, error) {
	out, err := yaml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("marshaling config: %w", err)
	}
	return string(out), nil
}

// DiagnosticPeriod returns the diagnostic wake interval as a duration.
func (c *EngineConfig) DiagnosticPeriod() time.Duration {
	return time.Duration(c.DiagnosticPeriodSeconds) * time.Second
}

// Validate checks for invalid configuration values.
func (c *EngineConfig) Validate() error {
	if c.MaxUnits <= 0 {
		return fmt.Errorf("maxUnits must be positive, got %d", c.MaxUnits)
	}
	if c.FieldPrime < 2 {
		return fmt.Errorf("fieldPrime must be at least 2, got %d", c.FieldPrime)
	}
	if !new(big.Int).SetUint64(c.FieldPrime).ProbablyPrime(probablyPrimeRounds) {
		return fmt.Errorf("fieldPrime %d is not prime", c.FieldPrime)
	}
	if c.DiagnosticPeriodSeconds <= 0 {
		return fmt.Errorf("diagnosticPeriodSeconds must be positive, got %d", c.DiagnosticPeriodSeconds)
	}
	if c.CRTResidueCount < 1 || c.CRTResidueCount > field.BankSize {
		return fmt.Errorf("crtResidueCount must be between 1 and %d, got %d", field.BankSize, c.CRTResidueCount)
	}
	if c.PowerCacheSize < 0 {
		return fmt.Errorf("powerCacheSize must not be negative, got %d", c.PowerCacheSize)
	}
	if c.ListenAddr == "" {
		return fmt.Errorf("listenAddr must not be empty")
	}
	return nil
}

// Load reads configuration from the given YAML file, applies environment
// variable overrides, and validates the result. An empty path loads
// defaults plus environment overrides only.
func Load(path string) (*EngineConfig, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	defaults := Default()
	v.SetDefault("max_units", defaults.MaxUnits)
	v.SetDefault("field_prime", defaults.FieldPrime)
	v.SetDefault("enable_scoring", defaults.EnableScoring)
	v.SetDefault("diagnostic_period_seconds", defaults.DiagnosticPeriodSeconds)
	v.SetDefault("crt_residue_count", defaults.CRTResidueCount)
	v.SetDefault("power_cache_size", defaults.PowerCacheSize)
	v.SetDefault("listen_addr", defaults.ListenAddr)
	v.SetDefault("log_level", defaults.LogLevel)
	v.SetDefault("development", defaults.Development)

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
	}

	cfg := &EngineConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
