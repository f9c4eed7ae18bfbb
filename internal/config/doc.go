// Package config loads, normalizes, and validates Claimguard configuration.
//
// Configuration lives in a single TOML file. Load applies repository defaults
// first, then overlays the file when present, expands all path fields, and
// validates the result so downstream packages never re-check basics like
// positive intervals or known database drivers.
package config
