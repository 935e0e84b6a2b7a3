/*
Package log provides structured logging for Cadence using zerolog.

A single package-level zerolog.Logger is configured once by Init and shared
by every component. Components derive child loggers carrying a fixed field
so that output from the three realtime channels and the session controller
can be told apart:

	┌──────────────────── LOGGING ─────────────────────────────┐
	│                                                            │
	│  log.Init(Config{Level, JSONOutput, Output})              │
	│        │                                                   │
	│        ▼                                                   │
	│  Logger (global)                                           │
	│        ├── WithComponent("session")                        │
	│        ├── WithSessionID("8f2c...")                        │
	│        └── WithChannel("playlist")                         │
	│                                                            │
	│  Console: 10:30AM INF reconnecting channel=playlist        │
	│  JSON:    {"level":"info","channel":"playlist",...}        │
	└────────────────────────────────────────────────────────┘

Until Init is called the global Logger is the zero zerolog.Logger, which
discards everything. Tests rely on this.

# Levels

  - debug: every inbound frame
  - info: connects, reconnect scheduling, lifecycle transitions
  - warn: unknown or malformed messages, refetch failures
  - error: reconnect attempts exhausted, failed lifecycle requests

# Usage

	log.Init(log.Config{Level: log.InfoLevel})
	logger := log.WithChannel("playlist")
	logger.Info().Int("attempt", 3).Dur("delay", 8*time.Second).Msg("Scheduling reconnect")
*/
package log
