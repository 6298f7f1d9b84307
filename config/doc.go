// Package config provides configuration loading and validation for the
// resegmentation binaries.
//
// It uses Viper to load configuration from files and environment
// variables, supporting YAML config files, .env files via godotenv, and
// environment-specific overrides. Service config structs embed
// ServiceConfig and add their own sections.
package config
