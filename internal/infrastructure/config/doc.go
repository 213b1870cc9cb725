// Package config handles loading and validating config store service configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Populating the environment from an optional .env file
//   - Overriding with environment variables (CONFIGSTORE_* plus DATABASE_URL/PORT)
//   - Validation of required fields and pool bounds
//   - Default value handling
//
// Security Considerations:
//   - Sensitive values (database credentials) should be set via environment variables
//   - The config file should have restricted permissions (0600)
//   - Connection strings in YAML files must never be committed with real credentials
//
// Performance Characteristics:
//   - Configuration is loaded once at startup
//   - No runtime overhead after initial load
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Database.MaxConnections)
package config
