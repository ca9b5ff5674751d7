// SPDX-License-Identifier: MPL-2.0

// Package config loads and persists installer configuration. Settings come
// from defaults, an optional config.toml in the platform configuration
// directory (or the working directory), and OMORITR_* environment
// variables, in increasing order of precedence.
package config
