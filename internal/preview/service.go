package preview

import (
	"context"
	"log/slog"
	"time"

	"github.com/hitoshi/sportboxd/internal/model"
)

// Snapshotter はマークアップ文書をラスタ画像にキャプチャするインターフェース。
type Snapshotter interface {
	// Capture は文書をヘッドレスブラウザで描画しPNGバッファを返す。
	// コンテンツが制限時間内にレディにならない場合はRenderTimeoutErrorを、
	// ブラウザが起動できない場合はBrowserLaunchErrorを返す。
	Capture(ctx context.Context, doc string) ([]byte, error)
}

// ArtifactStore はアーティファクトのキー単位の冪等な保存先インターフェース。
type ArtifactStore interface {
	// Exists はキーの存在をメタデータ参照で確認する（本体はダウンロードしない）。
	Exists(ctx context.Context, key string) (bool, error)
	// Upload はPNGバッファをキーの下に保存する。同一キーへの上書きは冪等。
	Upload(ctx context.Context, key string, data []byte) error
	// PublicURL はキーに対する公開URLを予測構築する。アップロードの往復を要しない。
	PublicURL(key string) string
}

// CrestResolver はエンブレムURLを描画に使用すべきURLへ解決するインターフェース。
type CrestResolver interface {
	Resolve(ctx context.Context, crestURL string) string
}

// TextSanitizer はレビュー本文からマークアップを除去するインターフェース。
type TextSanitizer interface {
	SanitizeText(raw string) string
}

// MetricsRecorder はパイプラインのメトリクス記録インターフェース。
type MetricsRecorder interface {
	RecordCacheHit()
	RecordCacheMiss()
	RecordCaptureLatency(d time.Duration)
	RecordUploadFailure()
}

// noopMetrics はメトリクス未設定時のダミー実装。
type noopMetrics struct{}

func (noopMetrics) RecordCacheHit()                    {}
func (noopMetrics) RecordCacheMiss()                   {}
func (noopMetrics) RecordCaptureLatency(time.Duration) {}
func (noopMetrics) RecordUploadFailure()               {}

// Service はプレビュー生成パイプラインを調停する。
// 1リクエスト1ユニットのステートレスな処理で、リクエスト間で共有する
// 可変状態を持たない。
type Service struct {
	renderer  *Renderer
	snap      Snapshotter
	store     ArtifactStore
	crests    CrestResolver
	sanitizer TextSanitizer
	metrics   MetricsRecorder
	logger    *slog.Logger
}

// NewService はServiceを生成する。crestsとmetricsはnil許容。
func NewService(renderer *Renderer, snap Snapshotter, store ArtifactStore, crests CrestResolver, sanitizer TextSanitizer, metrics MetricsRecorder, logger *slog.Logger) *Service {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		renderer:  renderer,
		snap:      snap,
		store:     store,
		crests:    crests,
		sanitizer: sanitizer,
		metrics:   metrics,
		logger:    logger,
	}
}

// CreatePreview はgetOrCreateアルゴリズムを実行し、アーティファクトの公開URLを返す。
//
//  1. キーの存在確認（キャッシュヒットなら即座にURLを返す）
//  2. ミス時のみ 描画 → キャプチャ → アップロード
//  3. ヒット・ミスいずれでも予測公開URLを返す
//
// 存在確認→生成は ストアに対してアトミックではないため、未知のキーへの
// 同時リクエストは両方ミスして両方アップロードしうる。レンダラーが決定的で
// ストアの上書きが冪等であるため、この競合は無害として受容する（分散ロックは
// 導入しない）。
func (s *Service) CreatePreview(ctx context.Context, req *model.PreviewRequest) (string, error) {
	key := req.ArtifactKey()

	exists, err := s.store.Exists(ctx, key)
	if err != nil {
		return "", err
	}

	if exists {
		s.metrics.RecordCacheHit()
		s.logger.Info("preview cache hit", "key", key)
		return s.store.PublicURL(key), nil
	}
	s.metrics.RecordCacheMiss()

	doc := s.render(ctx, req)

	start := time.Now()
	img, err := s.snap.Capture(ctx, doc)
	s.metrics.RecordCaptureLatency(time.Since(start))
	if err != nil {
		return "", err
	}

	// アップロード失敗は握りつぶさず伝播する。成功URLの裏でアーティファクトが
	// 欠落していたら、共有先には永遠に壊れた画像が表示される。
	if err := s.store.Upload(ctx, key, img); err != nil {
		s.metrics.RecordUploadFailure()
		return "", err
	}

	s.logger.Info("preview created",
		"key", key,
		"bytes", len(img),
		"capture_ms", time.Since(start).Milliseconds(),
	)
	return s.store.PublicURL(key), nil
}

// render はレビュー本文のサニタイズとエンブレムURL解決を行い文書を生成する。
func (s *Service) render(ctx context.Context, req *model.PreviewRequest) string {
	clean := *req
	if s.sanitizer != nil {
		clean.RatingTitle = s.sanitizer.SanitizeText(req.RatingTitle)
		clean.RatingAuthor = s.sanitizer.SanitizeText(req.RatingAuthor)
		clean.RatingComment = s.sanitizer.SanitizeText(req.RatingComment)
	}

	homeCrest := s.renderer.CrestURL(req.League, req.HomeTeam)
	awayCrest := s.renderer.CrestURL(req.League, req.AwayTeam)
	if s.crests != nil {
		homeCrest = s.crests.Resolve(ctx, homeCrest)
		awayCrest = s.crests.Resolve(ctx, awayCrest)
	}

	return s.renderer.Render(&clean, homeCrest, awayCrest)
}
