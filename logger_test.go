package onbeat

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestLoggerDefaultsToDiscard(t *testing.T) {
	if Logger().Enabled(context.Background(), slog.LevelError) {
		t.Fatalf("default logger should discard")
	}
}

func TestSetLogger(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	defer SetLogger(nil)

	g, _ := newTestGame(t)
	if err := g.LoadSeries(testSeries(t)); err != nil {
		t.Fatalf("load: %v", err)
	}
	if !strings.Contains(buf.String(), "series loaded") {
		t.Fatalf("log output = %q, want a series loaded record", buf.String())
	}

	SetLogger(nil)
	if Logger() == nil || Logger().Enabled(context.Background(), slog.LevelError) {
		t.Fatalf("nil should restore the discarding logger")
	}
}
