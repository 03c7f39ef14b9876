package logger

import (
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
)

func TestNew_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kasa.log")

	log, err := New(Options{Mode: "production", Level: "info", Filename: path})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer zap.ReplaceGlobals(zap.NewNop())

	log.Info("store hydrated", zap.Int("records", 3))
	_ = log.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if len(data) == 0 {
		t.Error("expected log file to contain the entry")
	}
	if zap.L() != log {
		t.Error("logger should be installed as global")
	}
}

func TestNew_InvalidLevel(t *testing.T) {
	if _, err := New(Options{Level: "loud"}); err == nil {
		t.Error("expected error for unknown level")
	}
}
