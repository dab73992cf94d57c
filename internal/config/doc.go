// Package config loads the client configuration.
//
// Values are layered in order: built-in defaults, a TOML or YAML file,
// TICKTERM_* environment variables, then command-line flags applied by the
// caller. Validate must be called once all layers are applied.
//
// A Watcher reloads the file when it changes so settings that do not need a
// reconnect, such as the log level and damage patterns, can be applied live.
package config
