// Package browser はヘッドレスブラウザによるスクリーンショット取得を提供する。
package browser

import (
	"context"

	"github.com/chromedp/chromedp"
)

// Provider はブラウザプロセスの取得戦略を抽象化する。
// 返されるコンテキストは1リクエストが専有し、リクエスト間で再利用してはならない。
// CancelFuncはすべての終了経路で必ず呼び出し、プロセスをリークさせないこと。
type Provider interface {
	// Allocate は新しいブラウザコンテキストと解放関数を返す。
	Allocate(ctx context.Context) (context.Context, context.CancelFunc)
}

// ExecProvider はローカルのChrome/Chromium実行ファイルを起動するProvider。
// 開発環境および自前でブラウザを同梱するコンテナ環境向け。
type ExecProvider struct {
	execPath string
}

// NewExecProvider はExecProviderを生成する。
// execPathが空の場合はchromedpの既定の探索順でブラウザを見つける。
func NewExecProvider(execPath string) *ExecProvider {
	return &ExecProvider{execPath: execPath}
}

// Allocate はexecアロケータでブラウザコンテキストを生成する。
func (p *ExecProvider) Allocate(ctx context.Context) (context.Context, context.CancelFunc) {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts,
		chromedp.Headless,
		chromedp.DisableGPU,
		// サーバーレス/コンテナ環境ではsandbox用の権限がないことが多い
		chromedp.NoSandbox,
	)
	if p.execPath != "" {
		opts = append(opts, chromedp.ExecPath(p.execPath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	cancel := func() {
		browserCancel()
		allocCancel()
	}
	return browserCtx, cancel
}

// RemoteProvider は既存のDevTools WebSocketエンドポイントに接続するProvider。
// ブラウザを別プロセス/別コンテナとして運用するデプロイ向け。
type RemoteProvider struct {
	wsURL string
}

// NewRemoteProvider はRemoteProviderを生成する。
func NewRemoteProvider(wsURL string) *RemoteProvider {
	return &RemoteProvider{wsURL: wsURL}
}

// Allocate はリモートアロケータでブラウザコンテキストを生成する。
func (p *RemoteProvider) Allocate(ctx context.Context) (context.Context, context.CancelFunc) {
	allocCtx, allocCancel := chromedp.NewRemoteAllocator(ctx, p.wsURL)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	cancel := func() {
		browserCancel()
		allocCancel()
	}
	return browserCtx, cancel
}

// NewProviderFromConfig は設定に応じたProviderを返す。
// WebSocket URLが指定されていればリモート接続、そうでなければローカル起動。
func NewProviderFromConfig(execPath, wsURL string) Provider {
	if wsURL != "" {
		return NewRemoteProvider(wsURL)
	}
	return NewExecProvider(execPath)
}
