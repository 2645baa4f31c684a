// Package config loads roster's settings file.
//
// # Configuration Discovery
//
// The Load function follows this resolution order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/roster/config.toml (default)
//  3. If the file doesn't exist, fall back to defaults
//  4. If the file exists but fields are missing or empty, use defaults
//
// Paths ending in .yaml or .yml are parsed as YAML; anything else as TOML.
// Environment references such as ${ROSTER_API} are expanded in the file
// contents before parsing.
//
// # Default Values
//
//   - Config file: ~/.config/roster/config.toml
//   - API base: https://jsonplaceholder.typicode.com
//   - Log level: info
//   - Log file: ~/.local/state/roster/roster.log (TUI only; the headless CLI
//     logs to stderr unless log_file is set)
//   - Request timeout: none
//   - Ops listener: disabled
//   - Scheduled reload: disabled
//
// # TOML Format
//
//	api_base = "https://jsonplaceholder.typicode.com"
//	log_file = "~/.local/state/roster/roster.log"
//	log_level = "debug"
//	request_timeout = "10s"
//	metrics_addr = "127.0.0.1:9464"
//	reload_schedule = "@every 5m"
package config
