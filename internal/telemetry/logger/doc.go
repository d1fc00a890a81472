// Package logger provides structured logging for syncx tools.
//
// Two backends share one Logger interface:
//
//   - logger.go: log/slog handlers (default)
//   - zap.go: go.uber.org/zap, selected with Backend "zap"
//   - context.go: context-carried loggers enriched with run/worker ids
//   - redact.go: masking of credential-like fields
//
// Both backends follow the same dynamic level set with SetLevel, so a config
// reload can turn on debug output without rebuilding loggers.
package logger
