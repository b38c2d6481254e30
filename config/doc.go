// Package config handles loading and parsing of configuration from a .env file,
// YAML files and environment variables. It defines the application configuration
// structure including the listen address, the database connection string and
// pool limits, the optional metrics listener and the log level.
package config
