// Package config loads wakubase's application configuration.
//
// # Resolution Order
//
//  1. Built-in defaults
//  2. The TOML file given with --config, or ~/.config/wakubase/config.toml
//  3. A .env file in the working directory (exported into the environment)
//  4. WAKUBASE_* environment variables, with dots replaced by underscores
//     (WAKUBASE_STORAGE_BACKEND, WAKUBASE_POLL_HEALTH_INTERVAL, ...)
//
// A missing config file is not an error. A file that exists but does not
// parse is.
//
// # Example
//
//	[storage]
//	backend = "sqlite"            # file | sqlite | memory
//	path = "~/.local/share/wakubase/wakubase.db"
//
//	[log]
//	level = "info"
//	file = "~/.local/state/wakubase/wakubase.log"
//	max_size_mb = 10
//	max_backups = 3
//	max_age_days = 28
//
//	[poll]
//	messages_interval = "2s"
//	health_interval = "5s"
//	request_timeout = "5s"
//
//	[metrics]
//	addr = "127.0.0.1:9464"       # empty disables /metrics
//
// Paths accept a leading ~. The node URL, node type and theme are not
// configured here; they are user settings kept by the settings store and
// edited from the TUI or `wakubase settings set`.
package config
