// Package config loads, normalizes, and validates Curator's TOML
// configuration. Defaults come from Default; Load layers a config file on
// top, expands paths, and applies environment fallbacks for secrets.
package config
