package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestNew_DefaultsToInfoLevel(t *testing.T) {
	log := New()

	if log.GetLevel() != slog.LevelInfo {
		t.Errorf("expected info level, got %v", log.GetLevel())
	}
	if log.IsHTTPLoggingEnabled() {
		t.Error("expected HTTP logging to be disabled by default")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"WARNING", slog.LevelWarn},
		{"error", slog.LevelError},
		{"unknown", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseLevel(tt.input); got != tt.expected {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestParseFormat(t *testing.T) {
	if ParseFormat("JSON") != FormatJSON {
		t.Error("expected JSON format")
	}
	if ParseFormat("text") != FormatText || ParseFormat("bogus") != FormatText {
		t.Error("expected text format fallback")
	}
}

func TestNewWithOptions_TextOutput(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithOptions(Options{Level: slog.LevelDebug, Output: &buf})

	log.Info("Group pushed", "group_number", 3)

	out := buf.String()
	if !strings.Contains(out, "Group pushed") || !strings.Contains(out, "group_number=3") {
		t.Errorf("unexpected text output: %s", out)
	}
}

func TestNewWithOptions_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithOptions(Options{Level: slog.LevelInfo, Format: FormatJSON, Output: &buf})

	log.Warn("Submission rejected", "judge_id", "j1")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("expected JSON output, got %q: %v", buf.String(), err)
	}
	if record["msg"] != "Submission rejected" || record["judge_id"] != "j1" {
		t.Errorf("unexpected record: %v", record)
	}
}

func TestSetLevel_FiltersLowerLevels(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithOptions(Options{Level: slog.LevelInfo, Output: &buf})

	log.SetLevel(slog.LevelError)
	log.Info("hidden")
	log.Error("visible")

	if strings.Contains(buf.String(), "hidden") {
		t.Error("info message should be filtered at error level")
	}
	if !strings.Contains(buf.String(), "visible") {
		t.Error("error message should be logged")
	}
	if log.GetLevel() != slog.LevelError {
		t.Errorf("expected error level, got %v", log.GetLevel())
	}
}

func TestHTTPLoggingToggle(t *testing.T) {
	log := NewWithOptions(Options{HTTPLogging: true, Output: &bytes.Buffer{}})
	if !log.IsHTTPLoggingEnabled() {
		t.Fatal("expected HTTP logging enabled from options")
	}

	log.DisableHTTPLogging()
	if log.IsHTTPLoggingEnabled() {
		t.Error("expected HTTP logging disabled")
	}

	log.EnableHTTPLogging()
	if !log.IsHTTPLoggingEnabled() {
		t.Error("expected HTTP logging enabled")
	}
}

func TestDiscard_ImplementsLogger(t *testing.T) {
	var _ Logger = Discard()
	Discard().Error("dropped")
}
