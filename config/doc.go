// Package config loads process-level settings for the quarry binary.
//
// Settings come from an optional TOML file and are then overridden by
// QUARRY_* environment variables. Every setting has a default, so an empty
// file or no file at all yields a working configuration.
//
// # Example
//
//	# quarry.toml
//	[storage]
//	engine = "sqlite"
//	path = "/var/lib/quarry"
//
//	[cache]
//	size = 4096
//	ttl = "1h"
//
//	[budgets]
//	urgent = "500ms"
//
// Any setting can be overridden from the environment, for example
// QUARRY_CACHE_TTL=5m or QUARRY_AI_ENABLED=true.
package config
