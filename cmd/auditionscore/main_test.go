package main

import (
	"bytes"
	"flag"
	"log/slog"
	"strings"
	"testing"

	"github.com/joshuadwray/audition-scoring/internal/config"
	"github.com/joshuadwray/audition-scoring/internal/logger"
)

func TestNextLogLevel(t *testing.T) {
	tests := []struct {
		current string
		want    string
	}{
		{"DEBUG", "info"},
		{"INFO", "warn"},
		{"WARN", "error"},
		{"ERROR", "debug"},
		{"DEBUG+2", "info"},
	}
	for _, tt := range tests {
		if got := nextLogLevel(tt.current); got != tt.want {
			t.Errorf("nextLogLevel(%s) = %s, want %s", tt.current, got, tt.want)
		}
	}
}

func TestKeyHandler(t *testing.T) {
	var out bytes.Buffer
	log := logger.Discard()
	log.SetLevel(slog.LevelInfo)
	quit := 0
	k := &keyHandler{out: &out, log: log, quit: func() { quit++ }}

	if k.handle('h') || !log.IsHTTPLoggingEnabled() {
		t.Error("h should enable HTTP logging")
	}
	if k.handle('H') || log.IsHTTPLoggingEnabled() {
		t.Error("H should toggle HTTP logging back off")
	}

	k.handle('l')
	if log.GetLevel() != slog.LevelWarn {
		t.Errorf("level = %v, want WARN", log.GetLevel())
	}

	k.handle('?')
	if !strings.Contains(out.String(), "Keyboard Shortcuts") {
		t.Error("? should print help")
	}

	if k.handle('x') {
		t.Error("unbound keys should not quit")
	}
	if !k.handle('q') || quit != 1 {
		t.Errorf("q should quit once, quit=%d", quit)
	}
}

func TestReadKeys(t *testing.T) {
	keys := readKeys(strings.NewReader("hq"))

	var got []byte
	for k := range keys {
		got = append(got, k)
	}
	if string(got) != "hq" {
		t.Errorf("keys = %q", got)
	}
}

func TestApplyFlags(t *testing.T) {
	cfg, err := config.LoadFrom(map[string]string{"DB_PATH": "env.db", "LOG_LEVEL": "warn"})
	if err != nil {
		t.Fatal(err)
	}

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	port := fs.Int("port", 8081, "")
	db := fs.String("db", "auditions.db", "")
	level := fs.String("loglevel", "info", "")
	format := fs.String("logformat", "text", "")
	if err := fs.Parse([]string{"-port", "9090", "-logformat", "json"}); err != nil {
		t.Fatal(err)
	}

	applyFlags(cfg, fs, *port, *db, *level, *format)

	if cfg.HTTPAddr != ":9090" || cfg.LogFormat != "json" {
		t.Errorf("flags not applied: %+v", cfg)
	}
	// Unset flags leave environment values alone
	if cfg.DBPath != "env.db" || cfg.LogLevel != "warn" {
		t.Errorf("environment overridden: %+v", cfg)
	}
}
