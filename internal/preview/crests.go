package preview

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// crestProbeTimeout はエンブレム存在確認1回あたりのタイムアウト。
const crestProbeTimeout = 3 * time.Second

// SafeClientProvider はSSRF防止機能付きHTTPクライアントの供給インターフェース。
// エンブレムURLのパスセグメントはユーザー制御のクエリパラメータに由来するため、
// 検証済みクライアント経由でのみ到達確認を行う。
type SafeClientProvider interface {
	// NewSafeClient はSSRF防止機能付きのHTTPクライアントを生成する。
	NewSafeClient(timeout time.Duration, maxResponseSize int64) *http.Client
	// ValidateURL はURLの安全性を事前に検証する。
	ValidateURL(rawURL string) error
}

// CrestProber はエンブレム画像の到達確認を行い、未配備のエンブレムを
// フォールバック画像に差し替える。元UIのonErrorフォールバックに相当する
// 処理をキャプチャ前のサーバー側で行うことで、壊れた画像アイコンが
// アーティファクトに焼き込まれることを防ぐ。
//
// 確認の失敗はパイプラインの失敗にはしない。確認できなければ規約URLを
// そのまま使う（最悪でも元実装と同じ結果になる）。
type CrestProber struct {
	guard       SafeClientProvider
	fallbackURL string
	logger      *slog.Logger
}

// NewCrestProber はCrestProberを生成する。
func NewCrestProber(guard SafeClientProvider, fallbackURL string, logger *slog.Logger) *CrestProber {
	if logger == nil {
		logger = slog.Default()
	}
	return &CrestProber{
		guard:       guard,
		fallbackURL: fallbackURL,
		logger:      logger,
	}
}

// Resolve はエンブレムURLの存在を確認し、描画に使用すべきURLを返す。
// 404等でエンブレムが存在しない場合はフォールバックURLを返す。
// ネットワークエラーや検証不能の場合は規約URLをそのまま返す。
func (p *CrestProber) Resolve(ctx context.Context, crestURL string) string {
	if p.guard == nil {
		return crestURL
	}

	if err := p.guard.ValidateURL(crestURL); err != nil {
		p.logger.Warn("crest probe: URL blocked", "url", crestURL, "error", err)
		return p.fallbackURL
	}

	client := p.guard.NewSafeClient(crestProbeTimeout, 0)

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, crestURL, nil)
	if err != nil {
		return crestURL
	}

	resp, err := client.Do(req)
	if err != nil {
		p.logger.Warn("crest probe: request failed", "url", crestURL, "error", err)
		return crestURL
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		p.logger.Info("crest probe: missing crest, using fallback",
			"url", crestURL, "status", resp.StatusCode)
		return p.fallbackURL
	}

	return crestURL
}
