package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/hitoshi/sportboxd/internal/metrics"
	"github.com/hitoshi/sportboxd/internal/middleware"
	"github.com/hitoshi/sportboxd/internal/model"
)

// newTestRouter は全依存をフェイクで埋めたルーターを構成する。
func newTestRouter(t *testing.T) (http.Handler, *prometheus.Registry) {
	t.Helper()

	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(reg)

	rl := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		GeneralRate:     rate.Limit(100),
		GeneralBurst:    100,
		PreviewRate:     rate.Limit(1.0 / 60.0),
		PreviewBurst:    1,
		CleanupInterval: time.Hour,
	})
	t.Cleanup(rl.Stop)

	deps := &RouterDeps{
		Logger:            slog.New(slog.NewJSONHandler(io.Discard, nil)),
		CORSAllowedOrigin: "https://sportboxd.example",
		RateLimiter:       rl,
		Collector:         collector,
		Gatherer:          reg,
		PreviewService:    &fakePreviewService{url: "https://cdn.example/preview_123.png"},
		Matches:           &fakeMatchGetter{match: &model.Match{ID: "123", HomeTeam: "Flamengo", AwayTeam: "Palmeiras"}},
		ArtifactURLs:      fakeURLBuilder{},
		DefaultOGImage:    "/img/webpreview.png",
		MatchService:      &fakeMatchService{page: &model.MatchPage{TotalCount: 1, Matches: []model.Match{{ID: "123"}}}},
		Sanitizer:         passthroughSanitizer{},
		AuthService:       newSessionFake(),
	}

	return NewRouter(deps), reg
}

// TestRouter_Health は/healthが200を返すことをテストする。
func TestRouter_Health(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status field = %q, want ok", body["status"])
	}
}

// TestRouter_Metrics は/metricsがPrometheus形式を返すことをテストする。
func TestRouter_Metrics(t *testing.T) {
	router, _ := newTestRouter(t)

	// ステータスカウンタを1件発生させる
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	router.ServeHTTP(httptest.NewRecorder(), req)

	req = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), "sportboxd_http_status_total") {
		t.Error("metrics output should contain sportboxd_http_status_total")
	}
}

// TestRouter_PreviewRateLimit はプレビュー専用のレート制限が効くことをテストする。
func TestRouter_PreviewRateLimit(t *testing.T) {
	router, _ := newTestRouter(t)

	url := "/api/preview?match_id=123&home_team=Flamengo&away_team=Palmeiras"

	req := httptest.NewRequest(http.MethodGet, url, nil)
	req.RemoteAddr = "203.0.113.9:1000"
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("first request status = %d, want 200", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, url, nil)
	req.RemoteAddr = "203.0.113.9:1000"
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("second request status = %d, want 429", w.Code)
	}
}

// TestRouter_SecurityHeaders は全ルートにセキュリティヘッダーが付与されることをテストする。
func TestRouter_SecurityHeaders(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if got := w.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q, want nosniff", got)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://sportboxd.example" {
		t.Errorf("Allow-Origin = %q", got)
	}
}

// TestRouter_ShareRoute は共有メタページのルーティングをテストする。
func TestRouter_ShareRoute(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/share/matches/123", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), "og:image") {
		t.Error("share page should contain OG meta tags")
	}
}

// TestRouter_MatchesRoute は試合一覧のルーティングをテストする。
func TestRouter_MatchesRoute(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/matches", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var body struct {
		Items      []matchResponse `json:"items"`
		TotalCount int             `json:"total_count"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body.TotalCount != 1 || len(body.Items) != 1 {
		t.Errorf("body = %+v", body)
	}
}
