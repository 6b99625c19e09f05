package ai

import "sync/atomic"

// debugLoggingEnabled gates per-NPC debug logs. A tick can touch every NPC,
// so the check must stay cheaper than building slog attributes.
var debugLoggingEnabled atomic.Bool

// EnableDebugLogging switches per-NPC debug logs on or off. main sets it
// from the configured log level.
func EnableDebugLogging(enabled bool) {
	debugLoggingEnabled.Store(enabled)
}

// IsDebugEnabled reports whether per-NPC debug logs are on:
//
//	if ai.IsDebugEnabled() {
//	    slog.Debug("npc moved", "npc", n.Name(), "pos", n.Position())
//	}
func IsDebugEnabled() bool {
	return debugLoggingEnabled.Load()
}
