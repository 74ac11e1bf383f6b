package browser

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"github.com/hitoshi/sportboxd/internal/model"
)

// readyExpr はキャプチャ可能と判断する条件式。
// DOMのパース完了に加えて、すべての<img>要素がload/errorを発火し終えるまで待つ。
// DOM-readyだけではエンブレム画像の描画前にキャプチャしてしまう。
const readyExpr = `document.readyState === "complete" && Array.from(document.images).every((img) => img.complete)`

// EngineConfig はスナップショットエンジンの設定。
type EngineConfig struct {
	Width   int           // 固定ビューポート幅
	Height  int           // 固定ビューポート高さ
	Timeout time.Duration // キャプチャ全体の上限時間
}

// Engine はマークアップ文書をヘッドレスブラウザで描画しPNGをキャプチャする。
// ブラウザプロセスは呼び出しごとに取得・破棄され、例外経路を含む
// すべての終了経路で確実に終了される。
type Engine struct {
	provider Provider
	cfg      EngineConfig
	logger   *slog.Logger
}

// NewEngine はEngineを生成する。
func NewEngine(provider Provider, cfg EngineConfig, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		provider: provider,
		cfg:      cfg,
		logger:   logger,
	}
}

// Capture は文書を固定ビューポートで描画し、ビューポート全体のPNGを返す。
// ブラウザが起動できない場合はBrowserLaunchError、制限時間内にコンテンツが
// レディにならない場合はRenderTimeoutErrorを返す。タイムアウト時も
// ブラウザプロセスは必ず破棄される。
func (e *Engine) Capture(ctx context.Context, doc string) ([]byte, error) {
	browserCtx, cancel := e.provider.Allocate(ctx)
	defer cancel()

	// ブラウザの起動自体もタイムアウトの対象に含める
	runCtx, cancelTimeout := context.WithTimeout(browserCtx, e.cfg.Timeout)
	defer cancelTimeout()

	// 空のRunでブラウザプロセスを起動し、起動失敗をレディ待ちと区別する
	if err := chromedp.Run(runCtx); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, &model.RenderTimeoutError{Timeout: e.cfg.Timeout}
		}
		return nil, &model.BrowserLaunchError{Err: err}
	}

	var buf []byte
	err := chromedp.Run(runCtx,
		emulation.SetDeviceMetricsOverride(int64(e.cfg.Width), int64(e.cfg.Height), 1, false),
		chromedp.Navigate("about:blank"),
		setDocumentContent(doc),
		chromedp.Poll(readyExpr, nil, chromedp.WithPollingInterval(100*time.Millisecond)),
		chromedp.CaptureScreenshot(&buf),
	)
	if err != nil {
		return nil, e.classify(err)
	}

	e.logger.Debug("screenshot captured",
		"bytes", len(buf),
		"viewport_w", e.cfg.Width,
		"viewport_h", e.cfg.Height,
	)
	return buf, nil
}

// classify はchromedp.Runのエラーを型付きエラーに分類する。
func (e *Engine) classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, chromedp.ErrPollingTimeout) {
		return &model.RenderTimeoutError{Timeout: e.cfg.Timeout}
	}
	return err
}

// setDocumentContent はページ本文をRenderedDocumentで置き換えるアクションを返す。
// HTTPサーバーを経由せず、文書文字列を直接メインフレームに流し込む。
func setDocumentContent(doc string) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		frameTree, err := page.GetFrameTree().Do(ctx)
		if err != nil {
			return err
		}
		return page.SetDocumentContent(frameTree.Frame.ID, doc).Do(ctx)
	})
}
