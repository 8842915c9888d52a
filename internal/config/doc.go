// Package config loads, normalizes, and validates trackplan configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and canonicalizes language codes and format
// names so the planner receives ready-to-use values. Tool paths may also be
// supplied through TRACKPLAN_FFPROBE, TRACKPLAN_MKVMERGE and
// TRACKPLAN_MEDIAINFO.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
