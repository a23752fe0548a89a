package logging

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Logger is the failure-reporting sink handed to engine components.
// context names the component or operation ("pagination.fetch"), data carries
// structured fields. Implementations must not block for long.
type Logger interface {
	Debug(message, context string, data map[string]any)
	Warn(message, context string, data map[string]any)
	Error(message, context string, data map[string]any)
}

// Default returns a Logger that writes through the package-level leveled
// functions.
func Default() Logger {
	return stdLogger{}
}

type stdLogger struct{}

func (stdLogger) Debug(message, context string, data map[string]any) {
	Debug("%s: %s%s", context, message, formatData(data))
}

func (stdLogger) Warn(message, context string, data map[string]any) {
	Warn("%s: %s%s", context, message, formatData(data))
}

func (stdLogger) Error(message, context string, data map[string]any) {
	Error("%s: %s%s", context, message, formatData(data))
}

// Discard returns a Logger that drops everything.
func Discard() Logger {
	return discardLogger{}
}

type discardLogger struct{}

func (discardLogger) Debug(string, string, map[string]any) {}
func (discardLogger) Warn(string, string, map[string]any)  {}
func (discardLogger) Error(string, string, map[string]any) {}

// formatData renders fields in key order so log lines are stable.
func formatData(data map[string]any) string {
	if len(data) == 0 {
		return ""
	}
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, data[k])
	}
	return b.String()
}

// Entry is a single record captured by a Recorder.
type Entry struct {
	Level   LogLevel
	Message string
	Context string
	Data    map[string]any
}

// Recorder is a Logger that keeps every entry in memory. It is safe for
// concurrent use and intended for tests.
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Debug(message, context string, data map[string]any) {
	r.record(LevelDebug, message, context, data)
}

func (r *Recorder) Warn(message, context string, data map[string]any) {
	r.record(LevelWarn, message, context, data)
}

func (r *Recorder) Error(message, context string, data map[string]any) {
	r.record(LevelError, message, context, data)
}

func (r *Recorder) record(level LogLevel, message, context string, data map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, Entry{Level: level, Message: message, Context: context, Data: data})
}

// Entries returns a copy of everything recorded so far.
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Count returns the number of entries recorded for context.
func (r *Recorder) Count(context string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.entries {
		if e.Context == context {
			n++
		}
	}
	return n
}
