// Package config loads application settings from defaults, an optional
// config file and GROUPWORK_-prefixed environment variables, then validates
// them before any component is constructed.
package config
