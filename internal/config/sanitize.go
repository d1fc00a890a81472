package config

import "strings"

// Sanitize returns a copy of the config with sensitive fields masked.
func Sanitize(cfg *Config) *Config {
	sanitized := *cfg
	if sanitized.Metrics.AuthToken != "" {
		sanitized.Metrics.AuthToken = maskSecret(sanitized.Metrics.AuthToken)
	}
	if sanitized.Storage.Passphrase != "" {
		sanitized.Storage.Passphrase = maskSecret(sanitized.Storage.Passphrase)
	}
	return &sanitized
}

// maskSecret masks a secret value for safe logging.
func maskSecret(s string) string {
	if len(s) <= 4 {
		return "****"
	}
	return s[:2] + strings.Repeat("*", len(s)-4) + s[len(s)-2:]
}
