// Package security はアプリケーションのセキュリティ機能を提供する。
//
// TextSanitizerService はユーザーが投稿したレビュー文（タイトル・コメント・表示名）を
// サニタイズし、プレビュー画像テンプレートやAPI応答に安全に埋め込めるプレーンテキストへ
// 変換する。bluemondayライブラリの全タグ除去ポリシーを使用する。
package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// TextSanitizerService はレビュー文のサニタイズ機能のインターフェースを定義する。
// プレビュー画像のレンダリング前およびレビュー投稿の受付時に使用される。
type TextSanitizerService interface {
	// SanitizeText は入力からすべてのHTMLタグを除去し、プレーンテキストを返す。
	// script, img, a等のタグはタグごと除去され、テキストノードのみが残る。
	// HTMLエンティティはデコードされる（後段のhtml/templateが再エスケープするため）。
	// 空文字列の入力には空文字列を返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	SanitizeText(raw string) string
}

// textSanitizer はTextSanitizerServiceの実装。
// bluemondayのStrictPolicyを保持し、スレッドセーフにサニタイズ処理を行う。
type textSanitizer struct {
	policy *bluemonday.Policy
}

// NewTextSanitizer はTextSanitizerServiceの新しいインスタンスを生成する。
// StrictPolicyはいかなるタグも属性も許可しない。
func NewTextSanitizer() *textSanitizer {
	return &textSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// SanitizeText は入力からすべてのHTMLタグを除去し、プレーンテキストを返す。
func (s *textSanitizer) SanitizeText(raw string) string {
	stripped := s.policy.Sanitize(raw)
	// StrictPolicyは残ったテキストをエンティティとしてエスケープする。
	// 埋め込み先のhtml/templateが再度エスケープするため、ここでは生のテキストに戻す。
	return strings.TrimSpace(html.UnescapeString(stripped))
}
