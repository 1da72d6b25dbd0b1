// Package config defines the application configuration model and loads it
// from HCL files. Every field has a working default; a config file only
// needs to state what it overrides.
package config
