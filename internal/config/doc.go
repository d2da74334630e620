// Package config loads and validates the repress TOML configuration. Loading
// follows a decode → normalize → validate sequence: defaults are applied
// first, the file (when present) overrides them, paths are expanded, and the
// result is range-checked before any processing starts.
package config
