package handler

import (
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/sportboxd/internal/model"
)

// shareTemplate は共有リンク用のOGメタタグ付きHTMLページ。
// クローラー向けのメタ情報が本体で、bodyは最小限に留める。
const shareTemplate = `<!DOCTYPE html>
<html lang="pt-BR">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<meta property="og:title" content="{{.OGTitle}}">
<meta property="og:description" content="{{.OGDescription}}">
<meta property="og:image" content="{{.OGImage}}">
<meta property="og:type" content="website">
<meta name="twitter:card" content="summary_large_image">
</head>
<body>
<p>{{.OGDescription}}</p>
</body>
</html>
`

// sharePageData はshareTemplateに渡すデータ。
type sharePageData struct {
	Title         string
	OGTitle       string
	OGDescription string
	OGImage       string
}

// MatchGetter は共有ページが必要とする試合取得インターフェース。
type MatchGetter interface {
	GetMatch(ctx context.Context, matchID string) (*model.Match, error)
}

// PublicURLBuilder はアーティファクトキーから公開URLを組み立てるインターフェース。
type PublicURLBuilder interface {
	PublicURL(key string) string
}

// ShareHandler は共有リンク用メタページのHTTPハンドラー。
// 試合情報の取得に失敗してもページ自体は返し、画像はデフォルトにフォールバックする。
type ShareHandler struct {
	matches        MatchGetter
	urls           PublicURLBuilder
	defaultOGImage string
	logger         *slog.Logger
	tmpl           *template.Template
}

// NewShareHandler はShareHandlerを生成する。
func NewShareHandler(matches MatchGetter, urls PublicURLBuilder, defaultOGImage string, logger *slog.Logger) *ShareHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ShareHandler{
		matches:        matches,
		urls:           urls,
		defaultOGImage: defaultOGImage,
		logger:         logger,
		tmpl:           template.Must(template.New("share").Parse(shareTemplate)),
	}
}

// ShareMatch は試合共有ページを処理する。
// GET /share/matches/{id} （rating_idクエリで特定レビューの共有に切り替わる）
func (h *ShareHandler) ShareMatch(w http.ResponseWriter, r *http.Request) {
	matchID := chi.URLParam(r, "id")
	ratingID := r.URL.Query().Get("rating_id")

	data := sharePageData{
		Title:         "Sportboxd",
		OGTitle:       "Sportboxd: Avalie e Descubra os Melhores Jogos de Futebol",
		OGDescription: "Explore, avalie e compartilhe sua opinião sobre as partidas. É rápido, fácil e grátis.",
		OGImage:       h.defaultOGImage,
	}

	match, err := h.matches.GetMatch(r.Context(), matchID)
	if err != nil {
		// メタページは共有先での表示が目的のため、失敗時もデフォルトの内容で応答する
		h.logger.Warn("share page match lookup failed",
			slog.String("match_id", matchID),
			slog.String("error", err.Error()),
		)
	} else {
		req := &model.PreviewRequest{MatchID: matchID, RatingID: ratingID}
		data.OGImage = h.urls.PublicURL(req.ArtifactKey())

		if ratingID != "" {
			data.Title = fmt.Sprintf("Avaliação de %s e %s | Sportboxd", match.HomeTeam, match.AwayTeam)
			data.OGTitle = fmt.Sprintf("Veja esta resenha sobre %s e %s no Sportboxd", match.HomeTeam, match.AwayTeam)
			data.OGDescription = fmt.Sprintf(
				"Explore, avalie e compartilhe sua opinião sobre %s e %s. Veja as resenhas da galera e acompanhe estatísticas da partida! É rápido, fácil e grátis.",
				match.HomeTeam, match.AwayTeam,
			)
		} else {
			data.Title = fmt.Sprintf("%s e %s | Sportboxd", match.HomeTeam, match.AwayTeam)
			data.OGTitle = fmt.Sprintf(
				"Explore, avalie e compartilhe sua opinião sobre a partida entre %s e %s.",
				match.HomeTeam, match.AwayTeam,
			)
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.tmpl.Execute(w, data); err != nil {
		h.logger.Error("share page render failed", slog.String("error", err.Error()))
	}
}
