// Package config provides centralized configuration management for the
// PLR processing pipeline. It handles loading configuration from
// multiple sources, validation, and mapping onto the analysis engine's
// own configuration type.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of
// precedence:
//
//	1. Environment variables (highest priority)
//	2. YAML configuration file (plr.yaml or configs/plr.yaml)
//	3. Default values (lowest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern PLR_* for namespacing:
//
//	PLR_ANALYSIS_NOMINAL_IRIS_SIZE_MM=11.7
//	PLR_BLINK_SG_WINDOW=11
//	PLR_DATALOSS_ERROR=0.25
//	PLR_PATHS_DATA_DIR=/srv/recordings
//	PLR_LOGGING_LEVEL=debug
//
// # Validation
//
// All configuration is validated at load time: struct tags cover range
// and enum checks, and Validate adds the filter-window rules the tags
// cannot express (odd window, window large enough for the polynomial
// order).
//
// # Usage
//
// Load configuration at application startup:
//
//	cfg, err := config.Load("")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	engine := plr.NewCalculator(cfg.ToEngine(), logger)
package config
