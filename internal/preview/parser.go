// Package preview はプレビュー画像生成パイプラインを提供する。
//
// パイプラインは リクエスト解析 → テンプレート描画 → ヘッドレスブラウザでの
// スクリーンショット → オブジェクトストアへの保存 の直線的なフローで構成され、
// 同一のArtifactKeyに対してアーティファクトを高々1回しか生成しない（冪等性）。
package preview

import (
	"net/url"
	"strings"

	"github.com/hitoshi/sportboxd/internal/model"
)

// ParseRequest はHTTPクエリパラメータを検証しPreviewRequestを構築する。
// home_teamとaway_teamの非空が唯一のハード前提条件で、欠落時はValidationErrorを返す。
// match_idはキャッシュキーの構成要素のため同様に必須。その他はすべて任意。
// 副作用はない。
func ParseRequest(q url.Values) (*model.PreviewRequest, error) {
	homeTeam := strings.TrimSpace(q.Get("home_team"))
	awayTeam := strings.TrimSpace(q.Get("away_team"))

	if homeTeam == "" || awayTeam == "" {
		return nil, model.NewValidationError("Please provide two teams to create the match preview")
	}

	matchID := strings.TrimSpace(q.Get("match_id"))
	if matchID == "" {
		return nil, model.NewValidationError("Please provide a match_id to create the match preview")
	}

	return &model.PreviewRequest{
		MatchID:       matchID,
		HomeTeam:      homeTeam,
		AwayTeam:      awayTeam,
		League:        strings.TrimSpace(q.Get("league")),
		HomeScore:     strings.TrimSpace(q.Get("home_score")),
		AwayScore:     strings.TrimSpace(q.Get("away_score")),
		RatingID:      strings.TrimSpace(q.Get("rating_id")),
		RatingTitle:   strings.TrimSpace(q.Get("rating_title")),
		RatingAuthor:  strings.TrimSpace(q.Get("rating_author")),
		RatingComment: strings.TrimSpace(q.Get("rating_comment")),
	}, nil
}
