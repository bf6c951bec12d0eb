// Package config loads the service configuration.
//
// Values are layered, later layers winning:
//
//  1. Default()
//  2. a YAML file (ACAI_CONFIG_FILE, ./config.yaml or ./configs/config.yaml)
//  3. ACAI_* environment variables
//
// Environment variables follow the struct layout, for example:
//
//	ACAI_SERVER_PORT=8080
//	ACAI_DATASET_PATH=/srv/acai/vendas.csv
//	ACAI_DATASET_DELIMITER=;
//	ACAI_LOCALE_DECIMAL_SEPARATOR=,
//	ACAI_SECURITY_RATE_LIMIT_RPS=50
//
// Relative paths are resolved by Config.GetPaths against a base directory.
package config
