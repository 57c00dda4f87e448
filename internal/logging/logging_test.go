package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New("warn", &buf)
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	logger.Info("hidden")
	logger.WithField("rows", 2).Warn("shown")
	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("expected info to be filtered: %q", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "rows=2") {
		t.Fatalf("expected warn entry with fields: %q", out)
	}
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	if _, err := New("chatty", &bytes.Buffer{}); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}

func TestNewFileAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "studyboard.log")
	logger, closer, err := NewFile("info", path)
	if err != nil {
		t.Fatalf("new file logger: %v", err)
	}
	logger.Info("study log loaded")
	if err := closer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "study log loaded") {
		t.Fatalf("expected entry in log file, got %q", data)
	}
}

func TestNewFileWithoutPathDiscards(t *testing.T) {
	logger, closer, err := NewFile("debug", "")
	if err != nil {
		t.Fatalf("new file logger: %v", err)
	}
	logger.Debug("nowhere")
	if err := closer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}
