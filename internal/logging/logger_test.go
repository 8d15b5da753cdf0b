package logging

import (
	"bytes"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestDefaultLogger_LevelFiltering(t *testing.T) {
	tests := []struct {
		level     Level
		wantError bool
		wantWarn  bool
		wantInfo  bool
		wantDebug bool
	}{
		{LevelError, true, false, false, false},
		{LevelWarn, true, true, false, false},
		{LevelInfo, true, true, true, false},
		{LevelDebug, true, true, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.level.String(), func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewLogger(&buf, tt.level)

			logger.Error("error message")
			logger.Warn("warn message")
			logger.Info("info message")
			logger.Debug("debug message")

			output := buf.String()

			if got := strings.Contains(output, "ERROR "); got != tt.wantError {
				t.Errorf("Error logged: got %v, want %v", got, tt.wantError)
			}
			if got := strings.Contains(output, "WARN "); got != tt.wantWarn {
				t.Errorf("Warn logged: got %v, want %v", got, tt.wantWarn)
			}
			if got := strings.Contains(output, "INFO "); got != tt.wantInfo {
				t.Errorf("Info logged: got %v, want %v", got, tt.wantInfo)
			}
			if got := strings.Contains(output, "DEBUG "); got != tt.wantDebug {
				t.Errorf("Debug logged: got %v, want %v", got, tt.wantDebug)
			}
		})
	}
}

func TestDefaultLogger_Formatted(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, LevelDebug)

	logger.Errorf("error %d", 1)
	logger.Warnf("warn %d", 2)
	logger.Infof("info %d", 3)
	logger.Debugf("debug %d", 4)

	output := buf.String()
	for _, want := range []string{"error 1", "warn 2", "info 3", "debug 4"} {
		if !strings.Contains(output, want) {
			t.Errorf("formatted message %q not found", want)
		}
	}
}

func TestDefaultLogger_SetLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, LevelError)

	logger.Info("should not appear")
	if strings.Contains(buf.String(), "should not appear") {
		t.Error("info logged at error level")
	}

	logger.SetLevel(LevelInfo)
	if logger.Level() != LevelInfo {
		t.Errorf("Level() = %v, want %v", logger.Level(), LevelInfo)
	}

	logger.Info("should appear")
	if !strings.Contains(buf.String(), "should appear") {
		t.Error("info not logged at info level")
	}
}

func TestDiscardLogger(t *testing.T) {
	// Just verify it doesn't panic
	Discard.Errorf("error %d", 1)
	Discard.Warnf("warn %d", 1)
	Discard.Infof("info %d", 1)
	Discard.Debugf("debug %d", 1)
}

func TestLevelString(t *testing.T) {
	tests := []struct {
		level Level
		want  string
	}{
		{LevelError, "ERROR"},
		{LevelWarn, "WARN"},
		{LevelInfo, "INFO"},
		{LevelDebug, "DEBUG"},
		{Level(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		if got := tt.level.String(); got != tt.want {
			t.Errorf("Level(%d).String() = %q, want %q", tt.level, got, tt.want)
		}
	}
}

func TestNamespaceConstants(t *testing.T) {
	namespaces := []string{NSLoader, NSDB, NSIter, NSBatch, NSCmp}
	for _, ns := range namespaces {
		if !strings.HasPrefix(ns, "[") || !strings.Contains(ns, "] ") {
			t.Errorf("namespace %q should be in [name] format", ns)
		}
	}
}

func TestLogFormat_Standard(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, LevelInfo)

	logger.Infof("%sstaged %s", NSLoader, "libleveldb.so")

	output := buf.String()
	if !strings.Contains(output, "INFO [loader] staged libleveldb.so") {
		t.Errorf("unexpected log line: %q", output)
	}
}

func TestIsNil(t *testing.T) {
	var typedNil *DefaultLogger

	if !IsNil(nil) {
		t.Error("IsNil(nil) = false")
	}
	if !IsNil(typedNil) {
		t.Error("IsNil(typed nil) = false")
	}
	if IsNil(Discard) {
		t.Error("IsNil(Discard) = true")
	}
	if OrDefault(typedNil) == nil {
		t.Error("OrDefault(typed nil) returned nil")
	}
}

func TestZapLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := NewZapLogger(zap.New(core))

	logger.Errorf("%sopen failed: %s", NSDB, "lock held")
	logger.Warnf("warn %d", 2)
	logger.Infof("info %d", 3)
	logger.Debugf("debug %d", 4)

	entries := logs.All()
	if len(entries) != 4 {
		t.Fatalf("got %d entries, want 4", len(entries))
	}
	if entries[0].Level != zapcore.ErrorLevel || entries[0].Message != "[db] open failed: lock held" {
		t.Errorf("first entry = %v %q", entries[0].Level, entries[0].Message)
	}
	if entries[3].Level != zapcore.DebugLevel {
		t.Errorf("last entry level = %v, want debug", entries[3].Level)
	}
}

func TestZapLogger_Nil(t *testing.T) {
	NewZapLogger(nil).Infof("dropped")
}
