/*
Package log provides structured logging for the LatticeFlow engine using zerolog.

The log package wraps zerolog to provide JSON-structured logging with
component-specific child loggers, configurable log levels, and helper
functions for common logging patterns. All logs include timestamps and
support filtering by severity level for production debugging.

# Core Components

Global Logger:
  - Package-level zerolog.Logger instance
  - Initialized once via log.Init()
  - Accessible from all engine packages
  - Thread-safe concurrent writes

Log Levels:
  - Debug: per-row/per-chunk detail, development only
  - Info: milestone messages (blob downloaded, table loaded, job finished)
  - Warn: recoverable anomalies (retryable HTTP error, dropped column)
  - Error: operation failures that need investigation
  - Fatal: unrecoverable startup errors only

Context Loggers:
  - WithComponent: tag logs with a subsystem name ("config", "bulkload", ...)
  - WithTenant: tag logs with a tenant slug
  - WithTable: tag logs with a table name
  - WithJob: tag logs with a job/run name

# Usage

	log.Init(log.Config{Level: log.InfoLevel, JSONOutput: true, Output: os.Stdout})
	log.Info("engine starting")

	tableLog := log.WithTenant("acme").With().Str("table", "orders").Logger()
	tableLog.Info().Int("rows", 40213).Msg("table loaded")

	log.Logger.Error().Err(err).Str("tenant", "acme").Msg("stream load failed")

# Conventions

Milestones only: loaders and transformers log row/chunk counts, never
per-row values. Never log tenant secrets (DB passwords, connection
strings, storage keys) — pkg/config rejects them from YAML entirely, and
pkg/security encrypts the ones that must live in the tenant env cache.
*/
package log
