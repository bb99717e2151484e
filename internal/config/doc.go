// SPDX-License-Identifier: MPL-2.0

// Package config handles loader configuration using Viper with CUE as the file format.
//
// Configuration is loaded from ~/.config/modhost/config.cue (or the XDG
// equivalent on Linux, ~/Library/Application Support/modhost/config.cue on
// macOS, %APPDATA%\modhost\config.cue on Windows), validated against the
// embedded config_schema.cue, and overlaid with MODHOST_* environment
// variables. Path values may reference environment variables ($HOME,
// ${MODHOST_ROOT:-/opt/game}); Resolve expands them and anchors relative
// directories at the root load path.
package config
