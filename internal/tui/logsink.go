package tui

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/rs/zerolog"
)

// LogEntry represents a log message in the UI.
type LogEntry struct {
	Message string
	Level   zerolog.Level
}

// logSink turns zerolog events into LogEntry values. Entries are dropped
// when the UI falls behind.
type logSink struct {
	entries chan LogEntry
}

var _ zerolog.LevelWriter = (*logSink)(nil)

func newLogSink(buf int) *logSink {
	return &logSink{entries: make(chan LogEntry, buf)}
}

func (s *logSink) Write(p []byte) (int, error) {
	return s.WriteLevel(zerolog.NoLevel, p)
}

func (s *logSink) WriteLevel(level zerolog.Level, p []byte) (int, error) {
	select {
	case s.entries <- LogEntry{Message: formatEvent(p), Level: level}:
	default:
	}
	return len(p), nil
}

// formatEvent renders a JSON event as its message followed by its fields
// in key order.
func formatEvent(p []byte) string {
	var fields map[string]any
	if err := json.Unmarshal(p, &fields); err != nil {
		return strings.TrimSpace(string(p))
	}

	var b strings.Builder
	if msg, ok := fields[zerolog.MessageFieldName]; ok {
		fmt.Fprint(&b, msg)
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		switch k {
		case zerolog.MessageFieldName, zerolog.LevelFieldName, zerolog.TimestampFieldName:
			continue
		}
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, fields[k])
	}
	return strings.TrimSpace(b.String())
}
