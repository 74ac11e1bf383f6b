package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/sportboxd/internal/metrics"
	"github.com/hitoshi/sportboxd/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	Logger            *slog.Logger
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter

	// メトリクス（nil許容。未設定時は/metricsルートを公開しない）
	Collector *metrics.Collector
	Gatherer  prometheus.Gatherer

	// プレビュー生成
	PreviewService PreviewServiceInterface

	// 共有メタページ
	Matches        MatchGetter
	ArtifactURLs   PublicURLBuilder
	DefaultOGImage string

	// 試合・レビュープロキシ
	MatchService MatchServiceInterface
	Sanitizer    ReviewTextSanitizer

	// 認証
	AuthService AuthServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → Logging → Metrics → SecurityHeaders → CORS
//
// レート制限はルートグループごとに適用する。プレビュー生成はヘッドレスブラウザを
// 起動するため、API全般とは別の厳しい制限を持つ。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	if deps.Collector != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.Collector))
	}
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	var launchRecorder LaunchFailureRecorder
	if deps.Collector != nil {
		launchRecorder = deps.Collector
	}

	previewHandler := NewPreviewHandler(deps.PreviewService, launchRecorder, deps.Logger)
	shareHandler := NewShareHandler(deps.Matches, deps.ArtifactURLs, deps.DefaultOGImage, deps.Logger)
	matchHandler := NewMatchHandler(deps.MatchService, deps.Sanitizer)
	authHandler := NewAuthHandler(deps.AuthService)

	// --- 運用ルート（レート制限の対象外） ---

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.Gatherer))
	}

	// --- プレビュー生成（専用レート制限） ---

	r.With(deps.RateLimiter.PreviewMiddleware()).Get("/api/preview", previewHandler.GetPreview)

	// --- API全般（共通レート制限） ---

	r.Group(func(r chi.Router) {
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// 共有メタページ
		r.Get("/share/matches/{id}", shareHandler.ShareMatch)

		// 試合・レビュー
		r.Route("/api/matches", func(r chi.Router) {
			r.Get("/", matchHandler.ListMatches)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", matchHandler.GetMatch)
				r.Get("/ratings", matchHandler.ListRatings)
			})
		})

		r.Route("/api/ratings", func(r chi.Router) {
			r.Post("/", matchHandler.CreateRating)
			r.Put("/{id}/vote", matchHandler.SetRatingVote)
			r.Post("/{id}/replies", matchHandler.CreateReply)
		})

		// 認証
		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", authHandler.SignUp)
			r.Post("/login", authHandler.Login)
			r.Post("/oauth", authHandler.OAuth)
			r.Get("/me", authHandler.Me)
			r.Post("/verify-email", authHandler.VerifyEmail)
			r.Post("/refresh", authHandler.Refresh)
			r.Post("/logout", authHandler.Logout)
		})
	})

	return r
}
