package model

import "time"

// VoteOption は評価への投票種別を表す。
type VoteOption string

const (
	// VoteLike はいいね投票を示す。
	VoteLike VoteOption = "like"
	// VoteDislike はよくないね投票を示す。
	VoteDislike VoteOption = "dislike"
)

// Rating は試合への星評価とレビュー本文の正規化済み表現。
type Rating struct {
	ID        string    `json:"rating_id"`
	MatchID   string    `json:"match_id"`
	Author    string    `json:"author"`
	Title     string    `json:"title"`
	Comment   string    `json:"comment"`
	Rating    int       `json:"rating"`
	Likes     int       `json:"likes"`
	Dislikes  int       `json:"dislikes"`
	CreatedAt time.Time `json:"created_at"`
	Replies   []Reply   `json:"replies,omitempty"`
}

// NewRating は評価投稿のペイロード。
type NewRating struct {
	MatchID string `json:"match_id"`
	Title   string `json:"title"`
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// Reply は評価への返信。
type Reply struct {
	ID        string    `json:"reply_id"`
	RatingID  string    `json:"rating_id"`
	Author    string    `json:"author"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}
