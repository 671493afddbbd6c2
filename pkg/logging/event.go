package logging

import (
	"encoding/json"
	"time"
)

// Event is one structured record in the supervisor's session log.
// Required fields: Timestamp, PID, EventType, Summary.
type Event struct {
	Timestamp time.Time       `json:"ts"`
	PID       int             `json:"pid"`
	Exe       string          `json:"exe,omitempty"`
	EventType string          `json:"event_type"`
	Summary   string          `json:"summary"`
	User      string          `json:"user,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// Event type constants.
const (
	EventLockAcquired     = "lock_acquired"
	EventLockReleased     = "lock_released"
	EventUserSwitched     = "user_switched"
	EventSessionStart     = "session_start"
	EventSessionExit      = "session_exit"
	EventCookieStored     = "cookie_stored"
	EventCookieRemoved    = "cookie_removed"
	EventUserRemoved      = "user_removed"
	EventCommandReceived  = "command_received"
	EventCommandForwarded = "command_forwarded"
)

// SessionExitData is the data payload for session_exit events.
type SessionExitData struct {
	ExitCode   int   `json:"exit_code"`
	DurationMS int64 `json:"duration_ms"`
}

// CommandData is the data payload for command_received and command_forwarded
// events.
type CommandData struct {
	Args []string `json:"args"`
}

// SwitchData is the data payload for user_switched events.
type SwitchData struct {
	CookieRestored bool `json:"cookie_restored"`
}
