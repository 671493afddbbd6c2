package logging

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureSink records events in memory for test assertions.
type captureSink struct {
	mu     sync.Mutex
	events []*Event
}

func (s *captureSink) Write(event *Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *event
	s.events = append(s.events, &cp)
	return nil
}

func (s *captureSink) Close() error { return nil }

func TestEmitStampsMetadata(t *testing.T) {
	sink := &captureSink{}
	e := NewEmitter(EmitterConfig{Exe: "steam"}, sink)

	require.NoError(t, e.Emit(EventUserSwitched, "switched to alice", "alice", &SwitchData{CookieRestored: true}))

	require.Len(t, sink.events, 1)
	ev := sink.events[0]
	assert.Equal(t, "steam", ev.Exe)
	assert.Equal(t, os.Getpid(), ev.PID)
	assert.Equal(t, EventUserSwitched, ev.EventType)
	assert.Equal(t, "alice", ev.User)
	assert.False(t, ev.Timestamp.IsZero())

	var data SwitchData
	require.NoError(t, json.Unmarshal(ev.Data, &data))
	assert.True(t, data.CookieRestored)
}

func TestEmitNilData(t *testing.T) {
	sink := &captureSink{}
	e := NewEmitter(EmitterConfig{}, sink)
	require.NoError(t, e.Emit(EventLockAcquired, "client lock acquired", "", nil))
	require.Len(t, sink.events, 1)
	assert.Nil(t, sink.events[0].Data)
}

func TestNilEmitterDiscards(t *testing.T) {
	var e *Emitter
	assert.NoError(t, e.Emit(EventSessionStart, "client started", "alice", nil))
	assert.NoError(t, e.Close())
}

func TestJSONLWriterRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "acolyte.log")
	w, err := NewJSONLWriter(path)
	require.NoError(t, err)

	e := NewEmitter(EmitterConfig{Exe: "steam"}, w)
	require.NoError(t, e.Emit(EventSessionStart, "client started", "alice", nil))
	require.NoError(t, e.Emit(EventSessionExit, "client exited", "alice",
		&SessionExitData{ExitCode: 0, DurationMS: 1234}))
	require.NoError(t, e.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var events []Event
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var ev Event
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &ev))
		events = append(events, ev)
	}
	require.Len(t, events, 2)
	assert.Equal(t, EventSessionStart, events[0].EventType)
	assert.Equal(t, EventSessionExit, events[1].EventType)

	var data SessionExitData
	require.NoError(t, json.Unmarshal(events[1].Data, &data))
	assert.Equal(t, int64(1234), data.DurationMS)
}

func TestJSONLWriterAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "acolyte.log")

	w1, err := NewJSONLWriter(path)
	require.NoError(t, err)
	require.NoError(t, NewEmitter(EmitterConfig{}, w1).Emit(EventLockAcquired, "a", "", nil))
	require.NoError(t, w1.Close())

	w2, err := NewJSONLWriter(path)
	require.NoError(t, err)
	require.NoError(t, NewEmitter(EmitterConfig{}, w2).Emit(EventLockReleased, "b", "", nil))
	require.NoError(t, w2.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, len(splitLines(data)))
}

func splitLines(data []byte) [][]byte {
	var lines [][]byte
	start := 0
	for i, b := range data {
		if b == '\n' {
			lines = append(lines, data[start:i])
			start = i + 1
		}
	}
	return lines
}
