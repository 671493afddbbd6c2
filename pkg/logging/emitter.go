// Package logging records the supervisor's session history as structured
// events: lock transitions, user switches, Client sessions, cookie captures.
package logging

import (
	"encoding/json"
	"os"
	"time"

	"acolyte.sh/internal/errx"
)

// EmitterConfig holds the static metadata configured at startup.
// All fields are stamped onto every event automatically.
type EmitterConfig struct {
	Exe string // launcher command the supervisor runs
}

// Emitter provides convenience methods for emitting typed events.
// It holds static metadata and dispatches to one or more sinks.
//
// A nil *Emitter is safe to hold and discards everything, so callers emit
// unconditionally:
//
//	_ = emitter.Emit(...)
type Emitter struct {
	config EmitterConfig
	sinks  []Sink
}

// NewEmitter creates an emitter with the given configuration and sinks.
func NewEmitter(cfg EmitterConfig, sinks ...Sink) *Emitter {
	return &Emitter{
		config: cfg,
		sinks:  sinks,
	}
}

// Emit constructs an event with the emitter's static metadata and writes it
// to all registered sinks.
//
// Parameters:
//   - eventType: one of the Event* constants (e.g., EventSessionStart)
//   - summary: human-readable one-line summary
//   - user: the account involved (empty when not account-specific)
//   - data: the typed data struct (e.g., *SessionExitData); nil for no payload
//
// Returns the first error encountered. Callers should discard errors with
// _ = (best-effort semantics).
func (e *Emitter) Emit(eventType, summary, user string, data interface{}) error {
	if e == nil {
		return nil
	}
	var rawData json.RawMessage
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			return errx.Wrap(ErrMarshalData, err)
		}
		rawData = b
	}

	event := &Event{
		Timestamp: time.Now().UTC(),
		PID:       os.Getpid(),
		Exe:       e.config.Exe,
		EventType: eventType,
		Summary:   summary,
		User:      user,
		Data:      rawData,
	}

	for _, sink := range e.sinks {
		if err := sink.Write(event); err != nil {
			return err
		}
	}
	return nil
}

// Close closes all sinks. Returns the first error encountered.
func (e *Emitter) Close() error {
	if e == nil {
		return nil
	}
	var firstErr error
	for _, sink := range e.sinks {
		if err := sink.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
