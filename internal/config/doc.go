// Package config loads, normalizes, and validates dips launcher settings.
//
// Settings come from built-in defaults, an optional TOML file and a handful
// of DIPS_* environment overrides, in that order. Paths are expanded
// (including ~) before the config is handed out.
package config
