package config

import (
	"strings"
	"testing"
	"time"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("S3_ACCESS_KEY", "test-access-key")
	t.Setenv("S3_SECRET_KEY", "test-secret-key")
	t.Setenv("S3_BUCKET", "yeon")
	t.Setenv("S3_PUBLIC_BASE_URL", "https://yeon.s3.us-east-1.amazonaws.com")
	t.Setenv("CREST_BASE_URL", "https://sportboxd.com/crests")
	t.Setenv("MATCH_API_BASE_URL", "https://api.sportboxd.com")
	t.Setenv("FIREBASE_API_KEY", "test-firebase-key")
}

// TestLoad_AllRequired は必須環境変数が揃っている場合に読み込みが成功することを検証する。
func TestLoad_AllRequired(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.S3Bucket != "yeon" {
		t.Errorf("S3Bucket = %s, want yeon", cfg.S3Bucket)
	}
	if cfg.MatchAPIBaseURL != "https://api.sportboxd.com" {
		t.Errorf("MatchAPIBaseURL = %s", cfg.MatchAPIBaseURL)
	}
}

// TestLoad_MissingRequired は必須環境変数が欠けている場合にエラーとなり、
// 欠けている変数名がすべて列挙されることを検証する。
func TestLoad_MissingRequired(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("S3_BUCKET", "")
	t.Setenv("FIREBASE_API_KEY", "")

	_, err := Load()
	if err == nil {
		t.Fatal("Load() should fail when required vars are missing")
	}
	if !strings.Contains(err.Error(), "S3_BUCKET") {
		t.Errorf("error should mention S3_BUCKET: %v", err)
	}
	if !strings.Contains(err.Error(), "FIREBASE_API_KEY") {
		t.Errorf("error should mention FIREBASE_API_KEY: %v", err)
	}
}

// TestLoad_Defaults は任意項目にデフォルト値が適用されることを検証する。
func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ServerPort != "8080" {
		t.Errorf("ServerPort = %s, want 8080", cfg.ServerPort)
	}
	if cfg.ViewportWidth != 1024 || cfg.ViewportHeight != 1024 {
		t.Errorf("viewport = %dx%d, want 1024x1024", cfg.ViewportWidth, cfg.ViewportHeight)
	}
	if cfg.CaptureTimeout != 15*time.Second {
		t.Errorf("CaptureTimeout = %s, want 15s", cfg.CaptureTimeout)
	}
	if cfg.CrestFallbackURL != "https://sportboxd.com/crests/crest_fallback.png" {
		t.Errorf("CrestFallbackURL = %s", cfg.CrestFallbackURL)
	}
}

// TestLoad_Overrides は環境変数によるデフォルト上書きを検証する。
func TestLoad_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("CAPTURE_TIMEOUT", "30s")
	t.Setenv("VIEWPORT_WIDTH", "768")
	t.Setenv("VIEWPORT_HEIGHT", "768")
	t.Setenv("S3_USE_SSL", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.CaptureTimeout != 30*time.Second {
		t.Errorf("CaptureTimeout = %s, want 30s", cfg.CaptureTimeout)
	}
	if cfg.ViewportWidth != 768 {
		t.Errorf("ViewportWidth = %d, want 768", cfg.ViewportWidth)
	}
	if cfg.S3UseSSL {
		t.Error("S3UseSSL should be false")
	}
}

// TestLoad_InvalidOptionalValue は不正な任意項目値がデフォルトにフォールバックすることを検証する。
func TestLoad_InvalidOptionalValue(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("CAPTURE_TIMEOUT", "not-a-duration")
	t.Setenv("VIEWPORT_WIDTH", "wide")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.CaptureTimeout != 15*time.Second {
		t.Errorf("CaptureTimeout = %s, want default 15s", cfg.CaptureTimeout)
	}
	if cfg.ViewportWidth != 1024 {
		t.Errorf("ViewportWidth = %d, want default 1024", cfg.ViewportWidth)
	}
}
