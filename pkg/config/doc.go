// Package config provides configuration management for the placement engine.
//
// This package handles loading, validation, and access to engine configuration
// from YAML files, environment variables, and command-line flags.
//
// Configuration Sources:
//
//  1. Command-line flags (highest priority)
//  2. Environment variables (SHEAF_ prefix)
//  3. YAML configuration file
//  4. Default values (lowest priority)
//
// Example usage:
//
//	// Load configuration from a file plus environment overrides
//	cfg, err := config.Load("/etc/sheafd/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Access configuration values
//	logger.Info("engine configuration",
//	    zap.Int("maxUnits", cfg.MaxUnits),
//	    zap.Uint64("fieldPrime", cfg.FieldPrime),
//	    zap.Bool("scoring", cfg.EnableScoring))
//
// All values are validated at load time: the field prime must actually be
// prime, the residue track count must fit the fixed prime bank, and the
// diagnostic period must be positive.
package config
