// Package config provides centralized configuration management for the
// factlake pipeline. It handles loading configuration from multiple sources,
// validation, and a type-safe API for accessing configuration values.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//	1. Environment variables (highest priority)
//	2. config.yaml (overridable via FACTLAKE_CONFIG_FILE)
//	3. Default values (lowest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern FACTLAKE_* for namespacing:
//
//	FACTLAKE_SERVER_PORT=8080
//	FACTLAKE_DATASET_DIR=/srv/financial-dataset
//	FACTLAKE_DATASET_ENGINE_VERSION=1.2.0
//	FACTLAKE_LOGGING_LEVEL=info
//
// # Path Management
//
// The Paths type is the single source of truth for filesystem locations,
// keyed off the dataset root:
//
//	paths, _ := config.NewPaths(cfg.Dataset.Dir)
//	artifact := paths.ArtifactPath("annual", "2025FY", "4827")
package config
