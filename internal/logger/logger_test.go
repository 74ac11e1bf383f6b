package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
)

// TestSetup_JSONOutput はログがJSON形式で出力されることを検証する。
func TestSetup_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := Setup(&buf, "info")

	logger.Info("test message", slog.String("key", "value"))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log output should be valid JSON: %v", err)
	}
	if entry["msg"] != "test message" {
		t.Errorf("msg = %v, want test message", entry["msg"])
	}
	if entry["key"] != "value" {
		t.Errorf("key = %v, want value", entry["key"])
	}
}

// TestSetup_LevelFiltering は指定レベル未満のログが出力されないことを検証する。
func TestSetup_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := Setup(&buf, "warn")

	logger.Info("should be dropped")
	if buf.Len() != 0 {
		t.Errorf("info log should be filtered at warn level: %s", buf.String())
	}

	logger.Warn("should appear")
	if buf.Len() == 0 {
		t.Error("warn log should be emitted at warn level")
	}
}

// TestSetup_UnknownLevelDefaultsToInfo は未知のレベル指定がinfoとして扱われることを検証する。
func TestSetup_UnknownLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := Setup(&buf, "verbose")

	logger.Debug("should be dropped")
	if buf.Len() != 0 {
		t.Error("debug log should be filtered at default info level")
	}

	logger.Info("should appear")
	if buf.Len() == 0 {
		t.Error("info log should be emitted at default info level")
	}
}

// TestSetupDefault_SetsGlobalLogger はグローバルロガーが差し替わることを検証する。
func TestSetupDefault_SetsGlobalLogger(t *testing.T) {
	var buf bytes.Buffer
	original := slog.Default()
	defer slog.SetDefault(original)

	SetupDefault(&buf)
	slog.Info("global log")

	if buf.Len() == 0 {
		t.Error("global logger should write to the provided writer")
	}
}
