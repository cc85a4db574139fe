package logger

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"
)

const (
	defaultBufferSize = 1000

	// MessageLogEntry is the hub message type of a streamed log entry.
	MessageLogEntry = "logs:entry"
)

// Broadcaster is the interface for broadcasting messages.
type Broadcaster interface {
	Broadcast(msgType string, payload any)
}

// LogEntry represents a parsed log entry for streaming.
type LogEntry struct {
	Timestamp string         `json:"timestamp"`
	Level     string         `json:"level"`
	Component string         `json:"component,omitempty"`
	Message   string         `json:"message"`
	Fields    map[string]any `json:"fields,omitempty"`
}

// LogBroadcaster is a zerolog sink that keeps recent entries and streams
// them to the hub. Entries below minLevel are buffered but not streamed.
type LogBroadcaster struct {
	hub      Broadcaster
	buffer   *RingBuffer[LogEntry]
	minLevel zerolog.Level
	mu       sync.RWMutex
}

// NewLogBroadcaster creates a new log broadcaster.
// Hub can be nil initially and set later with SetHub.
func NewLogBroadcaster(hub Broadcaster, bufferSize int) *LogBroadcaster {
	if bufferSize <= 0 {
		bufferSize = defaultBufferSize
	}
	return &LogBroadcaster{
		hub:      hub,
		buffer:   NewRingBuffer[LogEntry](bufferSize),
		minLevel: zerolog.InfoLevel,
	}
}

// SetStreamLevel sets the lowest level broadcast to the hub.
func (b *LogBroadcaster) SetStreamLevel(level zerolog.Level) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.minLevel = level
}

// SetHub sets the broadcaster hub for sending messages.
func (b *LogBroadcaster) SetHub(hub Broadcaster) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.hub = hub
}

// Write implements io.Writer. It receives JSON log entries from zerolog.
func (b *LogBroadcaster) Write(p []byte) (n int, err error) {
	n = len(p)

	entry, parseErr := b.parseLogEntry(p)
	if parseErr != nil {
		return n, nil //nolint:nilerr // Silently ignore malformed log entries
	}

	b.buffer.Push(entry)

	b.mu.RLock()
	hub := b.hub
	minLevel := b.minLevel
	b.mu.RUnlock()

	level, _ := zerolog.ParseLevel(entry.Level)
	if hub != nil && level >= minLevel {
		hub.Broadcast(MessageLogEntry, entry)
	}

	return n, nil
}

// GetRecentLogs returns up to limit buffered entries, newest last.
// A limit of zero or less returns everything.
func (b *LogBroadcaster) GetRecentLogs(limit int) []LogEntry {
	return b.buffer.Last(limit)
}

// parseLogEntry parses a zerolog JSON entry into a LogEntry.
func (b *LogBroadcaster) parseLogEntry(data []byte) (LogEntry, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return LogEntry{}, err
	}

	entry := LogEntry{}

	if ts, ok := raw["time"].(string); ok {
		entry.Timestamp = ts
		delete(raw, "time")
	}

	if level, ok := raw["level"].(string); ok {
		entry.Level = level
		delete(raw, "level")
	}

	if component, ok := raw["component"].(string); ok {
		entry.Component = component
		delete(raw, "component")
	}

	if msg, ok := raw["message"].(string); ok {
		entry.Message = msg
		delete(raw, "message")
	}

	if len(raw) > 0 {
		entry.Fields = raw
	}

	return entry, nil
}
