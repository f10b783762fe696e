// Package config provides configuration loading for forage-ports.
//
// # Sources
//
// Settings are resolved in order, later sources winning:
//
//   - Built-in defaults (Default)
//   - An optional TOML file, $FORAGE_PORTS_CONFIG or
//     <user config dir>/forage-ports/config.toml
//   - Environment variables (FORAGE_PORTS_*)
//   - Command-line flags, applied by the caller
//
// # File Format
//
//	dir           = "/var/cache/forage-ports"
//	low           = 10000
//	high          = 32000
//	lease         = "2h"
//	probe_timeout = "1s"
//	probe_host    = "127.0.0.1"
//
// # Window
//
// Low and High bound the allocatable window [Low, High). A range
// [base, base+size) is valid when base >= Low and base+size <= High.
//
// # State Directory
//
// Dir holds state.json and its sibling state.lock. It defaults to a
// per-user cache location so independent users never share state by
// accident. StatePath and LockPath join inside Dir with
// filepath-securejoin.
package config
