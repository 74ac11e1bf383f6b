package model

import "time"

// MatchStatus は試合の進行状態を表す。
type MatchStatus string

const (
	// MatchStatusPreGame は試合開始前を示す。
	MatchStatusPreGame MatchStatus = "PRE_GAME"
	// MatchStatusInPlay は試合進行中を示す。
	MatchStatusInPlay MatchStatus = "IN_PLAY"
	// MatchStatusFinished は試合終了を示す。
	MatchStatusFinished MatchStatus = "FINISHED"
)

// RatingProportion は星1〜5それぞれの評価が占める割合を表す。
// 評価が1件もない場合はすべて0。
type RatingProportion struct {
	One   float64 `json:"1"`
	Two   float64 `json:"2"`
	Three float64 `json:"3"`
	Four  float64 `json:"4"`
	Five  float64 `json:"5"`
}

// Match は外部APIから取得した試合情報の正規化済み表現。
type Match struct {
	ID               string           `json:"match_id"`
	League           string           `json:"league"`
	Status           MatchStatus      `json:"status"`
	Date             time.Time        `json:"date"`
	HomeTeam         string           `json:"home_team"`
	HomeScore        int              `json:"home_score"`
	AwayTeam         string           `json:"away_team"`
	AwayScore        int              `json:"away_score"`
	RatingsNum       int              `json:"ratings_num"`
	AvgRating        string           `json:"avg_rating"`
	RatingProportion RatingProportion `json:"rating_proportion"`
	Ratings          []Rating         `json:"ratings,omitempty"`
}

// MatchPage は試合一覧の1ページ分と総件数を表す。
type MatchPage struct {
	Matches    []Match `json:"matches"`
	TotalCount int     `json:"total_count"`
}

// MatchFilter は試合一覧取得の絞り込み条件。
type MatchFilter struct {
	Since   *time.Time
	Until   *time.Time
	League  string
	Page    int
	Limit   int
	OrderBy string
}
