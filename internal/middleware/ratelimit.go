package middleware

import (
	"encoding/json"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiterConfig はレート制限の設定を保持する。
type RateLimiterConfig struct {
	GeneralRate     rate.Limit    // API全般のレート（req/sec）。120/60 = 2 req/sec
	GeneralBurst    int           // API全般のバーストサイズ
	PreviewRate     rate.Limit    // プレビュー生成のレート（req/sec）。10/60
	PreviewBurst    int           // プレビュー生成のバーストサイズ
	CleanupInterval time.Duration // 期限切れエントリのクリーンアップ間隔
}

// DefaultRateLimiterConfig はデフォルトのレート制限設定を返す。
// API全般 120 req/min/IP、プレビュー生成 10 req/min/IP。
// プレビュー生成はヘッドレスブラウザを起動するため厳しめに制限する。
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		GeneralRate:     rate.Limit(120.0 / 60.0), // 2 req/sec
		GeneralBurst:    120,
		PreviewRate:     rate.Limit(10.0 / 60.0), // ~0.167 req/sec
		PreviewBurst:    10,
		CleanupInterval: 5 * time.Minute,
	}
}

// clientLimiter はクライアントごとのレートリミッターとアクセス時刻を保持する。
type clientLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// RateLimiter はクライアントIPごとのレート制限を管理する。
// API全般のレート制限とプレビュー生成のレート制限の2種類を提供する。
type RateLimiter struct {
	config RateLimiterConfig

	generalMu       sync.RWMutex
	generalLimiters map[string]*clientLimiter

	previewMu       sync.RWMutex
	previewLimiters map[string]*clientLimiter

	stopCh chan struct{}
}

// NewRateLimiter は新しいRateLimiterを生成する。
// バックグラウンドで期限切れエントリのクリーンアップを開始する。
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	rl := &RateLimiter{
		config:          config,
		generalLimiters: make(map[string]*clientLimiter),
		previewLimiters: make(map[string]*clientLimiter),
		stopCh:          make(chan struct{}),
	}

	go rl.cleanupLoop()

	return rl
}

// Stop はクリーンアップのバックグラウンドゴルーチンを停止する。
func (rl *RateLimiter) Stop() {
	close(rl.stopCh)
}

// ClientIP はレート制限のキーとなるクライアントIPを取得する。
// リバースプロキシ背後での運用を想定し、X-Forwarded-Forの先頭エントリを優先する。
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// GeneralMiddleware はAPI全般のレート制限ミドルウェアを返す。
func (rl *RateLimiter) GeneralMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := ClientIP(r)
			limiter := rl.getOrCreateGeneralLimiter(ip)

			if !limiter.Allow() {
				writeRateLimitResponse(w, rl.config.GeneralRate)
				slog.Warn("rate limit exceeded",
					slog.String("client_ip", ip),
					slog.String("limit_type", "general"),
				)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// PreviewMiddleware はプレビュー生成専用のレート制限ミドルウェアを返す。
// API全般のレート制限とは独立に動作する。
func (rl *RateLimiter) PreviewMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := ClientIP(r)
			limiter := rl.getOrCreatePreviewLimiter(ip)

			if !limiter.Allow() {
				writeRateLimitResponse(w, rl.config.PreviewRate)
				slog.Warn("rate limit exceeded",
					slog.String("client_ip", ip),
					slog.String("limit_type", "preview"),
				)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// GeneralLimiterCount は現在管理されているAPI全般リミッターのエントリ数を返す。
// テストおよびメトリクス用。
func (rl *RateLimiter) GeneralLimiterCount() int {
	rl.generalMu.RLock()
	defer rl.generalMu.RUnlock()
	return len(rl.generalLimiters)
}

// PreviewLimiterCount は現在管理されているプレビュー生成リミッターのエントリ数を返す。
// テストおよびメトリクス用。
func (rl *RateLimiter) PreviewLimiterCount() int {
	rl.previewMu.RLock()
	defer rl.previewMu.RUnlock()
	return len(rl.previewLimiters)
}

// getOrCreateGeneralLimiter はクライアントのAPI全般リミッターを取得または作成する。
func (rl *RateLimiter) getOrCreateGeneralLimiter(ip string) *rate.Limiter {
	rl.generalMu.RLock()
	cl, exists := rl.generalLimiters[ip]
	rl.generalMu.RUnlock()

	if exists {
		rl.generalMu.Lock()
		cl.lastAccess = time.Now()
		rl.generalMu.Unlock()
		return cl.limiter
	}

	rl.generalMu.Lock()
	defer rl.generalMu.Unlock()

	// ダブルチェック
	if cl, exists := rl.generalLimiters[ip]; exists {
		cl.lastAccess = time.Now()
		return cl.limiter
	}

	limiter := rate.NewLimiter(rl.config.GeneralRate, rl.config.GeneralBurst)
	rl.generalLimiters[ip] = &clientLimiter{
		limiter:    limiter,
		lastAccess: time.Now(),
	}

	return limiter
}

// getOrCreatePreviewLimiter はクライアントのプレビュー生成リミッターを取得または作成する。
func (rl *RateLimiter) getOrCreatePreviewLimiter(ip string) *rate.Limiter {
	rl.previewMu.RLock()
	cl, exists := rl.previewLimiters[ip]
	rl.previewMu.RUnlock()

	if exists {
		rl.previewMu.Lock()
		cl.lastAccess = time.Now()
		rl.previewMu.Unlock()
		return cl.limiter
	}

	rl.previewMu.Lock()
	defer rl.previewMu.Unlock()

	// ダブルチェック
	if cl, exists := rl.previewLimiters[ip]; exists {
		cl.lastAccess = time.Now()
		return cl.limiter
	}

	limiter := rate.NewLimiter(rl.config.PreviewRate, rl.config.PreviewBurst)
	rl.previewLimiters[ip] = &clientLimiter{
		limiter:    limiter,
		lastAccess: time.Now(),
	}

	return limiter
}

// cleanupLoop はバックグラウンドで期限切れエントリを定期的にクリーンアップする。
func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.stopCh:
			return
		}
	}
}

// cleanup は最終アクセス時刻がCleanupIntervalの2倍を超えたエントリを削除する。
func (rl *RateLimiter) cleanup() {
	ttl := rl.config.CleanupInterval * 2

	now := time.Now()

	rl.generalMu.Lock()
	for ip, cl := range rl.generalLimiters {
		if now.Sub(cl.lastAccess) > ttl {
			delete(rl.generalLimiters, ip)
		}
	}
	rl.generalMu.Unlock()

	rl.previewMu.Lock()
	for ip, cl := range rl.previewLimiters {
		if now.Sub(cl.lastAccess) > ttl {
			delete(rl.previewLimiters, ip)
		}
	}
	rl.previewMu.Unlock()
}

// writeRateLimitResponse は429 Too Many Requestsレスポンスを書き込む。
// Retry-Afterヘッダーにはトークンが補充されるまでの推定秒数を設定する。
func writeRateLimitResponse(w http.ResponseWriter, r rate.Limit) {
	// Retry-Afterの算出: 1トークンが補充されるまでの秒数
	retryAfterSec := int(math.Ceil(1.0 / float64(r)))
	if retryAfterSec < 1 {
		retryAfterSec = 1
	}

	w.Header().Set("Retry-After", strconv.Itoa(retryAfterSec))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)

	json.NewEncoder(w).Encode(map[string]string{
		"code":     "rate_limit_exceeded",
		"message":  "Muitas requisições. Tente novamente em instantes.",
		"category": "system",
		"action":   "Aguarde o tempo indicado antes de tentar novamente.",
	})
}
