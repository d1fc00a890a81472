// Package confloader loads syncx configuration.
//
// It layers koanf sources in this order, later ones winning:
//
//  1. Defaults registered with WithDefaults
//  2. A YAML configuration file
//  3. Environment variables prefixed with SYNCX_
//  4. Values set from command-line flags via LoadMap
//
// Environment keys nest on a double underscore, so SYNCX_BENCH__WORKERS
// maps to bench.workers and SYNCX_METRICS__LISTEN_ADDR to
// metrics.listen_addr.
//
// A Watcher reports edits to the configuration file through fsnotify so
// long-running commands can reload without a restart.
package confloader
