package mandel

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
)

func TestLoggerSilentByDefault(t *testing.T) {
	if Logger() == nil {
		t.Fatal("Logger() = nil, want nop logger")
	}
	if Logger().Enabled(context.Background(), slog.LevelError) {
		t.Error("default logger is enabled, want silent")
	}
}

func TestSetLogger(t *testing.T) {
	defer SetLogger(nil)

	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, nil)))
	Logger().Info("hello")
	if buf.Len() == 0 {
		t.Error("no output after SetLogger")
	}

	// nil restores the silent default.
	SetLogger(nil)
	buf.Reset()
	Logger().Info("quiet")
	if buf.Len() != 0 {
		t.Errorf("output after SetLogger(nil): %q", buf.String())
	}
}
