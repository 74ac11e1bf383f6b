package preview

import (
	"strings"
	"testing"

	"golang.org/x/net/html"

	"github.com/hitoshi/sportboxd/internal/model"
)

func newTestRenderer() *Renderer {
	return NewRenderer(RendererConfig{
		CrestBaseURL: "https://crests.example",
		Width:        1024,
		Height:       1024,
	})
}

func versusRequest() *model.PreviewRequest {
	return &model.PreviewRequest{
		MatchID:  "123",
		HomeTeam: "Flamengo",
		AwayTeam: "Palmeiras",
		League:   "BSA",
	}
}

// TestRender_Deterministic は同一入力に対してバイト単位で同一の出力を返すことをテストする。
func TestRender_Deterministic(t *testing.T) {
	r := newTestRenderer()
	req := versusRequest()
	home := r.CrestURL(req.League, req.HomeTeam)
	away := r.CrestURL(req.League, req.AwayTeam)

	first := r.Render(req, home, away)
	for i := 0; i < 5; i++ {
		if got := r.Render(req, home, away); got != first {
			t.Fatalf("render %d differs from first render", i+2)
		}
	}
}

// TestRender_LayoutSelection は評価3フィールドの全組み合わせでのレイアウト選択をテストする。
// 3フィールドすべて非空のときだけ評価カードレイアウトになる。
func TestRender_LayoutSelection(t *testing.T) {
	r := newTestRenderer()

	for mask := 0; mask < 8; mask++ {
		req := versusRequest()
		if mask&1 != 0 {
			req.RatingTitle = "Ótimo jogo"
		}
		if mask&2 != 0 {
			req.RatingAuthor = "ana"
		}
		if mask&4 != 0 {
			req.RatingComment = "Gol incrível no fim"
		}

		wantRating := mask == 7
		doc := r.Render(req, "h.png", "a.png")
		gotRating := strings.Contains(doc, `class="card"`)

		if gotRating != wantRating {
			t.Errorf("mask %03b: rating layout = %v, want %v", mask, gotRating, wantRating)
		}
		if !wantRating && !strings.Contains(doc, `class="versus"`) {
			t.Errorf("mask %03b: versus layout missing", mask)
		}
	}
}

// TestCrestURL は規約パスの構築をテストする。
func TestCrestURL(t *testing.T) {
	r := newTestRenderer()

	if got := r.CrestURL("BSA", "Flamengo"); got != "https://crests.example/BSA/Flamengo.png" {
		t.Errorf("crest URL = %q", got)
	}
	if got := r.CrestURL("", "Flamengo"); got != "https://crests.example/Flamengo.png" {
		t.Errorf("league-less crest URL = %q", got)
	}
	// パスセグメントはエスケープされる
	if got := r.CrestURL("BSA", "São Paulo"); got != "https://crests.example/BSA/S%C3%A3o%20Paulo.png" {
		t.Errorf("escaped crest URL = %q", got)
	}
}

// TestRender_VersusContent は対戦レイアウトの内容をテストする。
func TestRender_VersusContent(t *testing.T) {
	r := newTestRenderer()
	req := versusRequest()
	doc := r.Render(req, r.CrestURL("BSA", "Flamengo"), r.CrestURL("BSA", "Palmeiras"))

	if !strings.Contains(doc, "/BSA/Flamengo.png") || !strings.Contains(doc, "/BSA/Palmeiras.png") {
		t.Error("versus layout should reference both crest URLs")
	}
	if !strings.Contains(doc, "<p>X</p>") {
		t.Error("versus layout should contain the separator glyph")
	}

	// 生成物はパース可能なHTMLであること
	if _, err := html.Parse(strings.NewReader(doc)); err != nil {
		t.Errorf("rendered document is not parseable HTML: %v", err)
	}
}

// TestRender_RatingContent は評価カードレイアウトの内容をテストする。
func TestRender_RatingContent(t *testing.T) {
	r := newTestRenderer()
	req := versusRequest()
	req.HomeScore = "2"
	req.AwayScore = "1"
	req.RatingID = "r1"
	req.RatingTitle = "Ótimo jogo"
	req.RatingAuthor = "ana"
	req.RatingComment = "Gol incrível no fim"

	doc := r.Render(req, "h.png", "a.png")

	if !strings.Contains(doc, "Ótimo jogo") || !strings.Contains(doc, "ana") {
		t.Error("rating card should contain title and author")
	}
	if !strings.Contains(doc, "2 - 1") {
		t.Error("rating card should contain the score line")
	}
	if _, err := html.Parse(strings.NewReader(doc)); err != nil {
		t.Errorf("rendered document is not parseable HTML: %v", err)
	}
}

// TestRender_EscapesUserText はユーザー入力がHTMLエスケープされることをテストする。
func TestRender_EscapesUserText(t *testing.T) {
	r := newTestRenderer()
	req := versusRequest()
	req.RatingTitle = `<script>alert("x")</script>`
	req.RatingAuthor = "ana"
	req.RatingComment = "comentário"

	doc := r.Render(req, "h.png", "a.png")

	if strings.Contains(doc, "<script>alert") {
		t.Error("user text must not reach the document unescaped")
	}
}

// TestClampComment はコメントの切り詰めをテストする。
func TestClampComment(t *testing.T) {
	short := strings.Repeat("a", maxCommentRunes)
	if got := clampComment(short); got != short {
		t.Errorf("comment at the limit should not be clamped")
	}

	long := strings.Repeat("á", maxCommentRunes+10)
	got := clampComment(long)
	if runes := []rune(got); len(runes) != maxCommentRunes+1 {
		t.Errorf("clamped length = %d runes, want %d", len(runes), maxCommentRunes+1)
	}
	if !strings.HasSuffix(got, "…") {
		t.Error("clamped comment should end with an ellipsis")
	}
}
