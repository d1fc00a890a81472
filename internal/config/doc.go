// Package config defines the syncx-bench configuration structure.
//
//   - spec.go: Config struct definition
//   - default.go: Default configuration values
//   - verify.go: Validation of ranges and addresses
//   - sanitize.go: Masking of secrets before logging
//   - load.go: Loading through internal/infra/confloader
//
// Configuration can come from a YAML file, SYNCX_ environment variables
// and command-line flags.
package config
