/*
Package log provides structured logging for Breeze using zerolog.

The log package wraps the zerolog library to provide JSON-structured logging
with component-specific loggers, configurable log levels, and helper functions
for common logging patterns. All logs include timestamps and support filtering
by severity level for production debugging.

# Architecture

Breeze's logging system provides structured JSON logging with minimal overhead:

	┌──────────────────── LOGGING SYSTEM ──────────────────────┐
	│                                                           │
	│  ┌────────────────────────────────────────────┐          │
	│  │            Global Logger                    │          │
	│  │  - Zerolog instance                         │          │
	│  │  - Initialized via log.Init()               │          │
	│  │  - Thread-safe for concurrent use           │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                     │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │           Configuration                     │          │
	│  │  - Level: debug/info/warn/error             │          │
	│  │  - Format: JSON or console (human)          │          │
	│  │  - Output: stdout, file, or custom writer   │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                     │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │         Context Loggers                     │          │
	│  │  - WithComponent("discovery")               │          │
	│  │  - WithService("user_service")              │          │
	│  │  - WithInstance("user_service/i1")          │          │
	│  │  - WithRequestID("7c9a3f21b4d800a1")        │          │
	│  └────────────────────────────────────────────┘          │
	└───────────────────────────────────────────────────────────┘

# Severity Levels

Debug:
  - Rejected user input (format errors, sensitive text); high volume.

Info:
  - Service registration, discovery events, login/logout; default level.

Warn:
  - Missed keepalives, slow downstream calls.

Error:
  - Downstream dependency failures, single-store write failures.

Critical:
  - Partial multi-store writes whose compensation ALSO failed. Logged at
    fatal severity but the process keeps running; operators must reconcile
    the stores by hand. Emitted via log.Critical / log.Criticalf.

Fatal:
  - Startup declaration failures (exchange, queue, search index) and
    unknown enum values. Logs and exits the process.

# Usage

Initializing the Logger:

	import "github.com/breezechat/breeze/pkg/log"

	// JSON output (production)
	log.Init(log.Config{
		Level:      log.InfoLevel,
		JSONOutput: true,
		Output:     os.Stdout,
	})

	// Custom output (file)
	file, _ := os.OpenFile("/var/log/breeze/user.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	log.Init(log.Config{
		Level:      log.InfoLevel,
		JSONOutput: true,
		Output:     file,
	})

Simple Logging:

	log.Info("user service started")
	log.Error("failed to reach broker")
	log.Critical("index restore failed after relational rollback")
	log.Fatal("exchange declare failed") // Exits process

Structured Logging:

	log.Logger.Info().
		Str("request_id", reqID).
		Str("user_id", uid).
		Msg("user registered")

Component Loggers:

	disLog := log.WithComponent("discovery")
	disLog.Info().Str("key", "user_service/i1").Msg("instance online")

# Integration Points

This package integrates with:

  - pkg/coord: registration and watch lifecycle events
  - pkg/balancer: channel add/remove decisions
  - pkg/mq: publish/consume failures and redeliveries
  - pkg/user, pkg/transmit, pkg/msgstore, pkg/file, pkg/speech: request logs
  - cmd/breeze: process start/stop banners

# Design Patterns

Global Logger Pattern:
  - Single package-level Logger instance, initialized once in cmd/breeze.
  - No business contract depends on the logger being configured; every
    helper works with the zero value.

Error Logging Pattern:
  - Always use .Err(err) for error objects so aggregation tools can group
    failures by cause.

# Best Practices

Do:
  - Use Info level in production
  - Echo request_id on every cross-service log line
  - Create component-specific loggers

Don't:
  - Log passwords, verification codes, or session ids
  - Log rejected-input details above Debug
*/
package log
