package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Server
	ServerPort string
	BaseURL    string

	// CORS
	CORSAllowedOrigin string

	// Object storage (S3互換)
	S3Endpoint      string
	S3AccessKey     string
	S3SecretKey     string
	S3Bucket        string
	S3Region        string
	S3UseSSL        bool
	S3PublicBaseURL string

	// Preview rendering
	CrestBaseURL     string
	CrestFallbackURL string
	PreviewBgURL     string
	DefaultOGImage   string
	ViewportWidth    int
	ViewportHeight   int
	CaptureTimeout   time.Duration

	// Browser
	BrowserExecPath string
	BrowserWSURL    string

	// Upstream collaborators
	MatchAPIBaseURL string
	FirebaseAPIKey  string

	// Rate Limit（req/min単位）
	RateLimitGeneral int
	RateLimitPreview int

	// Timeouts
	UpstreamTimeout time.Duration
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.S3AccessKey = os.Getenv("S3_ACCESS_KEY")
	if cfg.S3AccessKey == "" {
		missing = append(missing, "S3_ACCESS_KEY")
	}

	cfg.S3SecretKey = os.Getenv("S3_SECRET_KEY")
	if cfg.S3SecretKey == "" {
		missing = append(missing, "S3_SECRET_KEY")
	}

	cfg.S3Bucket = os.Getenv("S3_BUCKET")
	if cfg.S3Bucket == "" {
		missing = append(missing, "S3_BUCKET")
	}

	cfg.S3PublicBaseURL = os.Getenv("S3_PUBLIC_BASE_URL")
	if cfg.S3PublicBaseURL == "" {
		missing = append(missing, "S3_PUBLIC_BASE_URL")
	}

	cfg.CrestBaseURL = os.Getenv("CREST_BASE_URL")
	if cfg.CrestBaseURL == "" {
		missing = append(missing, "CREST_BASE_URL")
	}

	cfg.MatchAPIBaseURL = os.Getenv("MATCH_API_BASE_URL")
	if cfg.MatchAPIBaseURL == "" {
		missing = append(missing, "MATCH_API_BASE_URL")
	}

	cfg.FirebaseAPIKey = os.Getenv("FIREBASE_API_KEY")
	if cfg.FirebaseAPIKey == "" {
		missing = append(missing, "FIREBASE_API_KEY")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.BaseURL = getEnvString("BASE_URL", "http://localhost:8080")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")
	cfg.S3Endpoint = getEnvString("S3_ENDPOINT", "s3.us-east-1.amazonaws.com")
	cfg.S3Region = getEnvString("S3_REGION", "us-east-1")
	cfg.S3UseSSL = getEnvBool("S3_USE_SSL", true)
	cfg.CrestFallbackURL = getEnvString("CREST_FALLBACK_URL", cfg.CrestBaseURL+"/crest_fallback.png")
	cfg.PreviewBgURL = getEnvString("PREVIEW_BG_URL", "")
	cfg.DefaultOGImage = getEnvString("DEFAULT_OG_IMAGE_URL", "/img/webpreview.png")
	cfg.ViewportWidth = getEnvInt("VIEWPORT_WIDTH", 1024)
	cfg.ViewportHeight = getEnvInt("VIEWPORT_HEIGHT", 1024)
	cfg.CaptureTimeout = getEnvDuration("CAPTURE_TIMEOUT", 15*time.Second)
	cfg.BrowserExecPath = getEnvString("BROWSER_EXEC_PATH", "")
	cfg.BrowserWSURL = getEnvString("BROWSER_WS_URL", "")
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitPreview = getEnvInt("RATE_LIMIT_PREVIEW", 10)
	cfg.UpstreamTimeout = getEnvDuration("UPSTREAM_TIMEOUT", 10*time.Second)

	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
