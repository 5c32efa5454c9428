package obs

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestNew_UnknownLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := New("not-a-level", &buf)
	if logger.GetLevel() != zerolog.InfoLevel {
		t.Fatalf("expected info level fallback, got %v", logger.GetLevel())
	}
}

func TestNew_RespectsConfiguredLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New("warn", &buf)
	logger.Info().Msg("should be filtered")
	logger.Warn().Msg("should appear")

	out := buf.String()
	if strings.Contains(out, "should be filtered") {
		t.Fatalf("info message should have been filtered at warn level: %q", out)
	}
	if !strings.Contains(out, "should appear") {
		t.Fatalf("expected warn message in output: %q", out)
	}
}
