// Package model はドメインモデルを定義する。
package model

// PreviewRequest はプレビュー画像生成リクエストの値オブジェクト。
// HTTPクエリパラメータから構築され、リクエストの寿命を超えて保持されない。
type PreviewRequest struct {
	MatchID   string
	HomeTeam  string
	AwayTeam  string
	League    string
	HomeScore string
	AwayScore string

	// 評価カードレイアウト用のフィールド。
	// Title/Author/Commentがすべて非空の場合のみ「評価あり」として扱う。
	RatingID      string
	RatingTitle   string
	RatingAuthor  string
	RatingComment string
}

// HasRating は評価カードレイアウトを選択すべきかを判定する。
// タイトル・著者・コメントの3つがすべて非空のときのみtrueを返す（all-or-nothing）。
// RatingIDの有無はレイアウト選択に影響しない。
func (r *PreviewRequest) HasRating() bool {
	return r.RatingTitle != "" && r.RatingAuthor != "" && r.RatingComment != ""
}

// ArtifactKey はオブジェクトストア上のキーを決定的に導出する。
// 同一のmatch/rating組に対しては常に同一のキーを返し、冪等性トークンとして機能する。
//
//	preview_{matchId}.png
//	preview_{matchId}_rating_{ratingId}.png
func (r *PreviewRequest) ArtifactKey() string {
	if r.RatingID != "" {
		return "preview_" + r.MatchID + "_rating_" + r.RatingID + ".png"
	}
	return "preview_" + r.MatchID + ".png"
}
