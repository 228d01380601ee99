// Package config loads InventoryPro configuration.
//
// Values are resolved in three layers, each overriding the previous one:
//
//  1. Default() values
//  2. an optional YAML file (INVENTORY_CONFIG_FILE, or config.yaml / configs/config.yaml)
//  3. environment variables with the INVENTORY_ prefix
//
// Nested sections map to underscore-joined names:
//
//	INVENTORY_SERVER_PORT=8080
//	INVENTORY_EXPORT_LINE_TERMINATOR=crlf
//	INVENTORY_EXPORT_QUOTE_ALL=true
//	INVENTORY_LOGGING_LEVEL=debug
//	INVENTORY_SECURITY_ALLOWED_ORIGINS=http://localhost:8080,http://127.0.0.1:8080
package config
