package app

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
	"time"
)

// setTestEnv はテスト用に必須環境変数を設定する。
func setTestEnv(t *testing.T) {
	t.Helper()
	t.Setenv("S3_ACCESS_KEY", "test-access-key")
	t.Setenv("S3_SECRET_KEY", "test-secret-key")
	t.Setenv("S3_BUCKET", "test-bucket")
	t.Setenv("S3_PUBLIC_BASE_URL", "https://test-bucket.s3.us-east-1.amazonaws.com")
	t.Setenv("CREST_BASE_URL", "https://cdn.example/img/crests")
	t.Setenv("MATCH_API_BASE_URL", "https://api.example")
	t.Setenv("FIREBASE_API_KEY", "test-api-key")
}

func TestInit_WithValidConfig_Succeeds(t *testing.T) {
	setTestEnv(t)

	var buf bytes.Buffer
	cfg, err := Init(&buf)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg == nil {
		t.Fatal("expected non-nil config")
	}

	if cfg.S3Bucket != "test-bucket" {
		t.Errorf("S3Bucket = %q, want %q", cfg.S3Bucket, "test-bucket")
	}

	// グローバルロガーがJSON出力に設定されていることを確認する
	slog.Default().Info("init test")
	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected JSON log output, got error: %v\nraw: %s", err, buf.String())
	}
	if entry["msg"] != "init test" {
		t.Errorf("msg = %q, want %q", entry["msg"], "init test")
	}
}

// TestWriteTimeoutFor は書き込みタイムアウトがキャプチャ上限より長いことを検証する。
// 同値だとキャプチャ上限近くまでかかったプレビュー生成のレスポンスが書き込めない。
func TestWriteTimeoutFor(t *testing.T) {
	tests := []struct {
		captureTimeout time.Duration
		want           time.Duration
	}{
		{15 * time.Second, 30 * time.Second},
		{60 * time.Second, 75 * time.Second},
	}

	for _, tt := range tests {
		got := writeTimeoutFor(tt.captureTimeout)
		if got != tt.want {
			t.Errorf("writeTimeoutFor(%s) = %s, want %s", tt.captureTimeout, got, tt.want)
		}
		if got <= tt.captureTimeout {
			t.Errorf("writeTimeoutFor(%s) = %s, must exceed the capture timeout", tt.captureTimeout, got)
		}
	}
}

func TestInit_WithMissingConfig_ReturnsError(t *testing.T) {
	t.Setenv("S3_ACCESS_KEY", "")
	t.Setenv("S3_SECRET_KEY", "")
	t.Setenv("S3_BUCKET", "")
	t.Setenv("S3_PUBLIC_BASE_URL", "")
	t.Setenv("CREST_BASE_URL", "")
	t.Setenv("MATCH_API_BASE_URL", "")
	t.Setenv("FIREBASE_API_KEY", "")

	var buf bytes.Buffer
	cfg, err := Init(&buf)
	if err == nil {
		t.Fatal("expected error for missing required env vars, got nil")
	}
	if cfg != nil {
		t.Error("expected nil config on error")
	}
}
