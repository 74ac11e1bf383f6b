package preview

import (
	"html/template"
	"net/url"
	"strings"

	"github.com/hitoshi/sportboxd/internal/model"
)

// maxCommentRunes はカード内に表示するコメントの最大文字数。
// 超過分は切り詰めて省略記号を付ける。
const maxCommentRunes = 140

// versusTemplate は評価なしの「対戦」レイアウト。
// 2つのエンブレムをセパレータ"X"で挟む。外部CSSには依存しない。
const versusTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<style>
html, body { margin: 0; padding: 0; }
body {
  width: {{.Width}}px; height: {{.Height}}px;
  display: flex; align-items: center; justify-content: center;
  background-color: #0a0a0a;
  {{if .BgURL}}background-image: url({{.BgURL}}); background-size: cover;{{end}}
  font-family: Helvetica, Arial, sans-serif;
}
.versus { display: flex; align-items: center; justify-content: center; gap: 68px; }
.versus img { width: 182px; height: 182px; object-fit: contain; }
.versus p { color: #e5e5e5; font-size: 84px; margin: 0; }
</style>
</head>
<body>
<div class="versus">
  <img src="{{.HomeCrest}}" alt="{{.HomeTeam}}">
  <p>X</p>
  <img src="{{.AwayCrest}}" alt="{{.AwayTeam}}">
</div>
</body>
</html>
`

// ratingTemplate は評価カードレイアウト。
// 著者・タイトル・スコア行・切り詰め済みコメントを表示する。
const ratingTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<style>
html, body { margin: 0; padding: 0; }
body {
  width: {{.Width}}px; height: {{.Height}}px;
  display: flex; align-items: center; justify-content: center;
  background-color: #0a0a0a;
  {{if .BgURL}}background-image: url({{.BgURL}}); background-size: cover;{{end}}
  font-family: Helvetica, Arial, sans-serif;
}
.card {
  width: 720px; border: 1px solid #404040; border-radius: 12px;
  background-color: #0f0f0f; padding: 48px;
  display: flex; flex-direction: column; gap: 32px;
}
.card .head { display: flex; align-items: flex-start; justify-content: space-between; }
.card .author { color: #e5e5e5; font-size: 24px; margin: 0 0 8px 0; }
.card .title { color: #e5e5e5; font-size: 40px; font-weight: 600; margin: 0; }
.card .score { display: flex; align-items: center; gap: 12px; }
.card .score img { width: 64px; height: 64px; object-fit: contain; }
.card .score p { color: #e5e5e5; font-size: 28px; margin: 0; }
.card .comment { color: #a3a3a3; font-size: 28px; line-height: 1.4; margin: 0; }
</style>
</head>
<body>
<div class="card">
  <div class="head">
    <div>
      <p class="author">{{.RatingAuthor}}</p>
      <p class="title">{{.RatingTitle}}</p>
    </div>
    <div class="score">
      <img src="{{.HomeCrest}}" alt="{{.HomeTeam}}">
      <p>{{.HomeScore}} - {{.AwayScore}}</p>
      <img src="{{.AwayCrest}}" alt="{{.AwayTeam}}">
    </div>
  </div>
  <p class="comment">{{.RatingComment}}</p>
</div>
</body>
</html>
`

// RendererConfig はテンプレートレンダラーの設定。
type RendererConfig struct {
	CrestBaseURL string // エンブレム画像のベースURL（末尾スラッシュなし）
	BgURL        string // 背景画像URL。空の場合は単色背景
	Width        int    // ビューポート幅（px）
	Height       int    // ビューポート高さ（px）
}

// Renderer はPreviewRequestから決定的にマークアップを生成する。
// ネットワークアクセスや副作用は一切持たず、同一入力には常にバイト単位で
// 同一の出力を返す。キャッシュ上書き競合が無害であることはこの性質に依存する。
type Renderer struct {
	cfg        RendererConfig
	tmplVersus *template.Template
	tmplRating *template.Template
}

// NewRenderer はRendererを生成する。テンプレートは構築時に1回だけパースする。
func NewRenderer(cfg RendererConfig) *Renderer {
	return &Renderer{
		cfg:        cfg,
		tmplVersus: template.Must(template.New("versus").Parse(versusTemplate)),
		tmplRating: template.Must(template.New("rating").Parse(ratingTemplate)),
	}
}

// CrestURL はエンブレム画像の規約パスを構築する。
//
//	{base}/{league}/{team}.png
//	{base}/{team}.png  （リーグ未指定時のフォールバック）
//
// このパス規約は共有済みアーティファクトに焼き込まれているため変更してはならない。
func (r *Renderer) CrestURL(league, team string) string {
	if league == "" {
		return r.cfg.CrestBaseURL + "/" + url.PathEscape(team) + ".png"
	}
	return r.cfg.CrestBaseURL + "/" + url.PathEscape(league) + "/" + url.PathEscape(team) + ".png"
}

// templateData はテンプレートに渡す描画パラメータ。
type templateData struct {
	Width, Height int
	BgURL         template.URL
	HomeTeam      string
	AwayTeam      string
	HomeCrest     template.URL
	AwayCrest     template.URL
	HomeScore     string
	AwayScore     string
	RatingAuthor  string
	RatingTitle   string
	RatingComment string
}

// Render はリクエストとエンブレムURLからマークアップ文書を生成する純粋関数。
// rating_title・rating_author・rating_commentがすべて非空のときは評価カード
// レイアウトを、そうでなければ対戦レイアウトを選択する。
func (r *Renderer) Render(req *model.PreviewRequest, homeCrest, awayCrest string) string {
	data := templateData{
		Width:         r.cfg.Width,
		Height:        r.cfg.Height,
		BgURL:         template.URL(r.cfg.BgURL),
		HomeTeam:      req.HomeTeam,
		AwayTeam:      req.AwayTeam,
		HomeCrest:     template.URL(homeCrest),
		AwayCrest:     template.URL(awayCrest),
		HomeScore:     req.HomeScore,
		AwayScore:     req.AwayScore,
		RatingAuthor:  req.RatingAuthor,
		RatingTitle:   req.RatingTitle,
		RatingComment: clampComment(req.RatingComment),
	}

	tmpl := r.tmplVersus
	if req.HasRating() {
		tmpl = r.tmplRating
	}

	var b strings.Builder
	// テンプレートは構築時にパース済みで、dataは値型のみを含むため失敗しない
	if err := tmpl.Execute(&b, data); err != nil {
		panic(err)
	}
	return b.String()
}

// clampComment はコメントをmaxCommentRunes文字に切り詰める。
// 切り詰めが発生した場合は省略記号を付加する。
func clampComment(comment string) string {
	runes := []rune(comment)
	if len(runes) <= maxCommentRunes {
		return comment
	}
	return string(runes[:maxCommentRunes]) + "…"
}
