// Package config handles loading and validating the ADR controller configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with environment variables
//   - Validation of required fields
//   - Default value handling, including per-unit parameter and calibration defaults
//   - Re-reading unit configuration on demand (see Source)
//
// Security Considerations:
//   - Sensitive values (passwords, tokens) should be set via environment variables
//   - The config file should have restricted permissions (0600)
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, unit := range cfg.Units {
//	    fmt.Println(unit.Name)
//	}
package config
