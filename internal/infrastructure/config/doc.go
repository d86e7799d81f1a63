// Package config loads and validates SenseWear Core configuration.
//
// Configuration is layered: hardcoded defaults, then a YAML file, then
// SENSEWEAR_* environment variable overrides. Validation runs after all
// layers are applied so a missing JWT secret or malformed port is caught
// at startup rather than at first use.
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    return err
//	}
//	db, err := database.Open(ctx, database.Config{Path: cfg.Database.Path})
package config
