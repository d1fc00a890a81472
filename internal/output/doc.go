// Package output renders syncx-bench results.
//
//   - formatter.go: Formatter interface and factory
//   - table.go: Table rendering with wide mode support
//   - json.go: JSON output formatting
//   - yaml.go: YAML output formatting
//   - progress.go: Live operation counter for long runs
//
// Struct fields control table rendering with a `table` tag: "-" hides a
// field and "wide" shows it only in wide mode.
package output
