package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"debug":   zerolog.DebugLevel,
		"WARN":    zerolog.WarnLevel,
		"warning": zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"off":     zerolog.Disabled,
		"":        zerolog.InfoLevel,
		"bogus":   zerolog.InfoLevel,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestSetupJSON(t *testing.T) {
	var buf bytes.Buffer
	SetupWriter(&buf, "info", "json")

	Component("store").Info().Str("ticker", "AAPL").Msg("hello")
	Component("store").Debug().Msg("filtered")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1: %q", len(lines), buf.String())
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("not JSON: %v", err)
	}
	if entry["component"] != "store" || entry["ticker"] != "AAPL" || entry["message"] != "hello" {
		t.Errorf("entry = %v", entry)
	}
}

func TestSetupConsole(t *testing.T) {
	var buf bytes.Buffer
	SetupWriter(&buf, "debug", "console")
	Component("cli").Debug().Msg("visible")
	if !strings.Contains(buf.String(), "visible") {
		t.Errorf("console output = %q", buf.String())
	}
	if strings.HasPrefix(strings.TrimSpace(buf.String()), "{") {
		t.Error("console format wrote JSON")
	}
}
