package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/hitoshi/sportboxd/internal/auth"
	"github.com/hitoshi/sportboxd/internal/browser"
	"github.com/hitoshi/sportboxd/internal/config"
	"github.com/hitoshi/sportboxd/internal/handler"
	"github.com/hitoshi/sportboxd/internal/logger"
	"github.com/hitoshi/sportboxd/internal/matchapi"
	"github.com/hitoshi/sportboxd/internal/metrics"
	"github.com/hitoshi/sportboxd/internal/middleware"
	"github.com/hitoshi/sportboxd/internal/preview"
	"github.com/hitoshi/sportboxd/internal/security"
	"github.com/hitoshi/sportboxd/internal/storage"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("base_url", cfg.BaseURL),
	)

	return runServe(cfg)
}

// runServe はAPIサーバーモードで起動する。
// 全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. オブジェクトストレージ接続
	store, err := storage.NewS3Store(storage.S3Config{
		Endpoint:      cfg.S3Endpoint,
		AccessKey:     cfg.S3AccessKey,
		SecretKey:     cfg.S3SecretKey,
		Bucket:        cfg.S3Bucket,
		Region:        cfg.S3Region,
		UseSSL:        cfg.S3UseSSL,
		PublicBaseURL: cfg.S3PublicBaseURL,
	})
	if err != nil {
		return fmt.Errorf("failed to create artifact store: %w", err)
	}

	slog.Info("artifact store initialized",
		slog.String("endpoint", cfg.S3Endpoint),
		slog.String("bucket", cfg.S3Bucket),
	)

	// 2. セキュリティサービスの初期化
	ssrfGuard := security.NewSSRFGuard()
	sanitizer := security.NewTextSanitizer()

	// 3. メトリクスの初期化
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 4. プレビューパイプラインの初期化
	renderer := preview.NewRenderer(preview.RendererConfig{
		CrestBaseURL: cfg.CrestBaseURL,
		BgURL:        cfg.PreviewBgURL,
		Width:        cfg.ViewportWidth,
		Height:       cfg.ViewportHeight,
	})
	provider := browser.NewProviderFromConfig(cfg.BrowserExecPath, cfg.BrowserWSURL)
	engine := browser.NewEngine(provider, browser.EngineConfig{
		Width:   cfg.ViewportWidth,
		Height:  cfg.ViewportHeight,
		Timeout: cfg.CaptureTimeout,
	}, slog.Default())
	crests := preview.NewCrestProber(ssrfGuard, cfg.CrestFallbackURL, slog.Default())
	previewService := preview.NewService(
		renderer, engine, store, crests, sanitizer, collector, slog.Default(),
	)

	// 5. 外部APIクライアントの初期化
	matchClient := matchapi.NewClient(matchapi.Config{
		BaseURL: cfg.MatchAPIBaseURL,
		Timeout: cfg.UpstreamTimeout,
	})

	firebaseProvider := auth.NewFirebaseProvider(auth.FirebaseConfig{
		APIKey: cfg.FirebaseAPIKey,
	})
	authService := auth.NewService(firebaseProvider, slog.Default())

	// 6. レート制限の初期化
	rateLimiterCfg := middleware.DefaultRateLimiterConfig()
	// configのRateLimit値はreq/min単位なのでreq/secに変換する
	rateLimiterCfg.GeneralRate = rate.Limit(float64(cfg.RateLimitGeneral) / 60.0)
	rateLimiterCfg.GeneralBurst = cfg.RateLimitGeneral
	rateLimiterCfg.PreviewRate = rate.Limit(float64(cfg.RateLimitPreview) / 60.0)
	rateLimiterCfg.PreviewBurst = cfg.RateLimitPreview
	rateLimiter := middleware.NewRateLimiter(rateLimiterCfg)
	defer rateLimiter.Stop()

	// 7. ルーターの構築
	deps := &handler.RouterDeps{
		Logger:            slog.Default(),
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rateLimiter,

		Collector: collector,
		Gatherer:  registry,

		PreviewService: previewService,

		Matches:        matchClient,
		ArtifactURLs:   store,
		DefaultOGImage: cfg.DefaultOGImage,

		MatchService: matchClient,
		Sanitizer:    sanitizer,

		AuthService: authService,
	}

	router := handler.NewRouter(deps)

	// 8. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: writeTimeoutFor(cfg.CaptureTimeout),
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// writeTimeoutFor はHTTPレスポンス書き込みのタイムアウトを返す。
// キャッシュミス時のプレビュー生成はキャプチャ上限いっぱいまでかかることがあるため、
// キャプチャ上限にアップロードとレスポンス書き込み分の余裕を足す。
func writeTimeoutFor(captureTimeout time.Duration) time.Duration {
	return captureTimeout + 15*time.Second
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}
