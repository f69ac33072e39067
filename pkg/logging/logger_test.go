package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

func decodeEntries(t *testing.T, buf *bytes.Buffer) []LogEntry {
	t.Helper()
	var entries []LogEntry
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry LogEntry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("Failed to unmarshal log entry %q: %v", line, err)
		}
		entries = append(entries, entry)
	}
	return entries
}

func TestLogLevelString(t *testing.T) {
	tests := []struct {
		level    Level
		expected string
	}{
		{DebugLevel, "DEBUG"},
		{InfoLevel, "INFO"},
		{WarnLevel, "WARN"},
		{ErrorLevel, "ERROR"},
		{Level(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.level.String(); got != tt.expected {
				t.Errorf("Level.String() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected Level
		wantErr  bool
	}{
		{"DEBUG", DebugLevel, false},
		{"debug", DebugLevel, false},
		{" info ", InfoLevel, false},
		{"WARNING", WarnLevel, false},
		{"warn", WarnLevel, false},
		{"error", ErrorLevel, false},
		{"", InfoLevel, true},
		{"invalid", InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseLevel(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.expected {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestLevelOrDefault(t *testing.T) {
	if got := LevelOrDefault("debug", ErrorLevel); got != DebugLevel {
		t.Errorf("LevelOrDefault(debug) = %v, want DEBUG", got)
	}
	if got := LevelOrDefault("", ErrorLevel); got != ErrorLevel {
		t.Errorf("LevelOrDefault(empty) = %v, want ERROR", got)
	}
	if got := LevelOrDefault("loud", WarnLevel); got != WarnLevel {
		t.Errorf("LevelOrDefault(loud) = %v, want WARN", got)
	}
}

func TestFieldConstructors(t *testing.T) {
	tests := []struct {
		name  string
		field Field
		key   string
		value any
	}{
		{"Int64", Int64("id", 1234567890), "id", int64(1234567890)},
		{"Float64", Float64("ratio", 0.85), "ratio", 0.85},
		{"Duration", Duration("timeout", 5*time.Second), "timeout", "5s"},
		{"Error", Error(errors.New("test error")), "error", "test error"},
		{"Error_nil", Error(nil), "error", nil},
		{"Algorithm", Algorithm("pagerank"), "algorithm", "pagerank"},
		{"RunID", RunID("abc"), "run_id", "abc"},
		{"NodeCount", NodeCount(7), "node_count", 7},
		{"Partitions", Partitions(4), "partitions", 4},
		{"Iteration", Iteration(3), "iteration", 3},
		{"Phase", Phase("synchronize"), "phase", "synchronize"},
		{"Wave", Wave(2), "wave", 2},
		{"Depth", Depth(5), "depth", 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.field.Key != tt.key || tt.field.Value != tt.value {
				t.Errorf("%s() = %+v, want {Key:%s Value:%v}", tt.name, tt.field, tt.key, tt.value)
			}
		})
	}
}

func TestJSONLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, WarnLevel)

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message")

	entries := decodeEntries(t, &buf)
	if len(entries) != 2 {
		t.Fatalf("Expected 2 log entries, got %d", len(entries))
	}
	if entries[0].Level != "WARN" || entries[1].Level != "ERROR" {
		t.Errorf("Levels = %s,%s, want WARN,ERROR", entries[0].Level, entries[1].Level)
	}
}

func TestJSONLogger_With(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, InfoLevel)

	child := logger.With(Algorithm("msbfs"), RunID("run-1"))
	child.Info("wave finished", Wave(3))

	entries := decodeEntries(t, &buf)
	if len(entries) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(entries))
	}
	fields := entries[0].Fields
	if fields["algorithm"] != "msbfs" || fields["run_id"] != "run-1" {
		t.Errorf("Preset fields missing: %v", fields)
	}
	if fields["wave"] != float64(3) { // JSON unmarshals numbers as float64
		t.Errorf("wave field = %v, want 3", fields["wave"])
	}
}

func TestJSONLogger_SetLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, InfoLevel)

	logger.SetLevel(ErrorLevel)
	if logger.GetLevel() != ErrorLevel {
		t.Errorf("After SetLevel, level = %v, want ErrorLevel", logger.GetLevel())
	}

	logger.Info("info")
	if buf.Len() != 0 {
		t.Error("Expected no output for Info at ErrorLevel")
	}
}

func TestJSONLogger_NoFieldsOmitted(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, InfoLevel)

	logger.Info("message without fields")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Failed to unmarshal: %v", err)
	}
	if _, exists := entry["fields"]; exists {
		t.Error("Expected fields key to be omitted when empty")
	}
}

func TestJSONLogger_ChildSharesLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, InfoLevel)
	child := logger.With(Component("child"))

	logger.SetLevel(ErrorLevel)
	if child.GetLevel() != ErrorLevel {
		t.Errorf("child level = %v, want ErrorLevel", child.GetLevel())
	}
	child.Warn("suppressed")
	if buf.Len() != 0 {
		t.Errorf("Expected no output, got %q", buf.String())
	}
}

func TestJSONLogger_CallFieldsOverridePreset(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, InfoLevel).With(Phase("setup"))

	logger.Info("phase changed", Phase("iterate"))

	entries := decodeEntries(t, &buf)
	if len(entries) != 1 || entries[0].Fields["phase"] != "iterate" {
		t.Errorf("Unexpected entries: %+v", entries)
	}
}

func TestJSONLogger_ChildrenDoNotAliasFields(t *testing.T) {
	var buf bytes.Buffer
	parent := NewJSONLogger(&buf, InfoLevel).With(Algorithm("msbfs"))

	a := parent.With(Wave(1))
	b := parent.With(Wave(2))
	a.Info("a")
	b.Info("b")

	entries := decodeEntries(t, &buf)
	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(entries))
	}
	if entries[0].Fields["wave"] != float64(1) || entries[1].Fields["wave"] != float64(2) {
		t.Errorf("Wave fields = %v,%v, want 1,2", entries[0].Fields["wave"], entries[1].Fields["wave"])
	}
}

func TestJSONLogger_ConcurrentChildrenWriteWholeLines(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, InfoLevel)

	const writers, perWriter = 8, 50
	var wg sync.WaitGroup
	for w := range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			child := logger.With(Wave(w))
			for i := range perWriter {
				child.Info("level expanded", Depth(i))
			}
		}()
	}
	wg.Wait()

	// decodeEntries fails the test on any torn line
	if entries := decodeEntries(t, &buf); len(entries) != writers*perWriter {
		t.Errorf("Expected %d entries, got %d", writers*perWriter, len(entries))
	}
}

func TestGlobalHelperFunctions(t *testing.T) {
	var buf bytes.Buffer
	SetDefaultLogger(NewJSONLogger(&buf, DebugLevel))
	t.Cleanup(func() { SetDefaultLogger(nil) })

	Debug("debug msg")
	Info("info msg")
	Warn("warn msg")
	ErrorLog("error msg")
	With(Component("test")).Info("child msg")

	entries := decodeEntries(t, &buf)
	if len(entries) != 5 {
		t.Fatalf("Expected 5 log entries, got %d", len(entries))
	}
	for i, expected := range []string{"DEBUG", "INFO", "WARN", "ERROR", "INFO"} {
		if entries[i].Level != expected {
			t.Errorf("Entry %d level = %v, want %v", i, entries[i].Level, expected)
		}
	}
	if entries[4].Fields["component"] != "test" {
		t.Errorf("component field = %v, want test", entries[4].Fields["component"])
	}
}

func TestDefaultLogger_ReadsLevelFromEnvironment(t *testing.T) {
	tests := []struct {
		env      string
		expected Level
	}{
		{"debug", DebugLevel},
		{"ERROR", ErrorLevel},
		{"", InfoLevel},
		{"chatty", InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			t.Setenv(LevelEnvVar, tt.env)
			SetDefaultLogger(nil)
			t.Cleanup(func() { SetDefaultLogger(nil) })

			if got := DefaultLogger().GetLevel(); got != tt.expected {
				t.Errorf("DefaultLogger level with %s=%q = %v, want %v", LevelEnvVar, tt.env, got, tt.expected)
			}
		})
	}
}

func TestTimedOperation(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, DebugLevel)

	StartTimer(logger, "iteration finished", Iteration(1)).End()
	StartTimer(logger, "iteration failed").EndError(errors.New("step failed"))
	StartTimer(logger, "ignored").EndWithLevel(WarnLevel, "slow phase")

	entries := decodeEntries(t, &buf)
	if len(entries) != 3 {
		t.Fatalf("Expected 3 entries, got %d", len(entries))
	}
	if _, ok := entries[0].Fields["latency"]; !ok {
		t.Error("Expected latency field on timed operation")
	}
	if entries[1].Level != "ERROR" || entries[1].Fields["error"] != "step failed" {
		t.Errorf("Unexpected error entry: %+v", entries[1])
	}
	if entries[2].Level != "WARN" || entries[2].Message != "slow phase" {
		t.Errorf("Unexpected warn entry: %+v", entries[2])
	}
}

func TestNopLogger(t *testing.T) {
	logger := NewNopLogger()
	logger.Info("discarded")
	if logger.With(Component("x")) == nil {
		t.Error("NopLogger.With returned nil")
	}
	if logger.GetLevel() != InfoLevel {
		t.Errorf("NopLogger level = %v, want InfoLevel", logger.GetLevel())
	}
}

func BenchmarkJSONLogger_Info(b *testing.B) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, InfoLevel)

	i := 0
	for b.Loop() {
		logger.Info("benchmark message",
			Iteration(i),
			Phase("iterate"),
		)
		i++
	}
}
