// Package config loads and validates monitor configuration from YAML.
//
// Config files may reference environment variables with ${VAR} syntax;
// they are expanded before parsing.
package config
