// Package config provides configuration management for basicrules.
//
// Configuration is read from a YAML file, completed with defaults, overridden
// from the environment and validated.
//
//	cfg, err := config.LoadConfigWithEnvOverrides("basicrules.yaml")
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention BASICRULES_SECTION_FIELD:
//
//   - BASICRULES_RULES_PATH overrides rules.path
//   - BASICRULES_RULES_WATCH overrides rules.watch
//   - BASICRULES_TELEMETRY_LOGGING_LEVEL overrides telemetry.logging.level
//   - BASICRULES_TELEMETRY_METRICS_ENABLED overrides telemetry.metrics.enabled
//
// # Configuration Precedence
//
//  1. Default values (defined in defaults.go)
//  2. Values from the YAML file
//  3. Environment variable overrides
//  4. Validation (fails fast if invalid)
//
// Validation errors carry the dotted field path:
//
//	configuration validation failed with 2 errors:
//	  - rules.extensions[0]: extension "yaml" must start with '.'
//	  - telemetry.logging.level: invalid logging level "loud": must be 'debug', 'info', 'warn', or 'error'
//
// # Example Configuration
//
//	rules:
//	  path: "./rules"
//	  watch: true
//	  debounce_interval: 250ms
//
//	telemetry:
//	  logging:
//	    level: "debug"
//	    format: "json"
//	  metrics:
//	    enabled: true
//	    address: "127.0.0.1:9090"
package config
