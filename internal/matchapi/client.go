// Package matchapi は外部の試合・評価APIへのクライアントを提供する。
//
// 元実装のクライアントはフェッチ失敗時に空リストへフォールバックしていたが、
// 「本当に空」と「取得失敗」を呼び出し側が区別できないため、本実装では
// すべてのエラーを明示的に返す。
package matchapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/hitoshi/sportboxd/internal/model"
)

// Config はクライアントの設定。
type Config struct {
	BaseURL string        // 外部APIのベースURL
	Timeout time.Duration // 1リクエストあたりのタイムアウト
}

// Client は試合・評価APIのHTTPクライアント。
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient はClientを生成する。
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// remoteMatch は外部APIの試合レスポンス。
type remoteMatch struct {
	ID            string         `json:"_id"`
	League        string         `json:"league"`
	Status        string         `json:"status"`
	Date          string         `json:"date"`
	HomeTeam      string         `json:"home_team"`
	HomeScore     int            `json:"home_score"`
	AwayTeam      string         `json:"away_team"`
	AwayScore     int            `json:"away_score"`
	RatingsNum    int            `json:"ratings_num"`
	AvgRating     float64        `json:"avg_rating"`
	CountByRating map[string]int `json:"count_by_rating"`
	Ratings       []remoteRating `json:"ratings"`
}

// remoteRating は外部APIの評価レスポンス。
type remoteRating struct {
	ID        string        `json:"_id"`
	MatchID   string        `json:"match_id"`
	Author    string        `json:"author"`
	Title     string        `json:"title"`
	Comment   string        `json:"comment"`
	Rating    int           `json:"rating"`
	Likes     int           `json:"likes"`
	Dislikes  int           `json:"dislikes"`
	CreatedAt string        `json:"created_at"`
	Replies   []remoteReply `json:"replies"`
}

// remoteReply は外部APIの評価への返信レスポンス。本文はcommentフィールドで届く。
type remoteReply struct {
	ID        string `json:"_id"`
	RatingID  string `json:"rating_id"`
	Author    string `json:"author"`
	Comment   string `json:"comment"`
	CreatedAt string `json:"created_at"`
}

// listMatchesResponse は試合一覧エンドポイントのレスポンス。
type listMatchesResponse struct {
	Matches    []remoteMatch `json:"matches"`
	TotalCount int           `json:"total_count"`
}

// ListMatches は絞り込み条件に一致する試合の1ページ分を取得する。
func (c *Client) ListMatches(ctx context.Context, filter model.MatchFilter) (*model.MatchPage, error) {
	params := url.Values{}
	if filter.Since != nil {
		params.Set("since", filter.Since.UTC().Format(time.RFC3339))
	}
	if filter.Until != nil {
		// untilは「その日まで」を意味するため、翌日0時を排他的上限として渡す
		next := filter.Until.AddDate(0, 0, 1)
		params.Set("until", next.UTC().Format(time.RFC3339))
	}
	if filter.League != "" {
		params.Set("league", filter.League)
	}
	params.Set("skip", strconv.Itoa(filter.Limit*filter.Page))
	params.Set("limit", strconv.Itoa(filter.Limit))
	if filter.OrderBy != "" {
		params.Set("order_by", filter.OrderBy)
	}

	var resp listMatchesResponse
	if err := c.get(ctx, "/matches/?"+params.Encode(), "", &resp, nil); err != nil {
		return nil, err
	}

	page := &model.MatchPage{
		Matches:    make([]model.Match, len(resp.Matches)),
		TotalCount: resp.TotalCount,
	}
	for i, rm := range resp.Matches {
		page.Matches[i] = normalizeMatch(rm)
	}
	return page, nil
}

// GetMatch は試合詳細を取得する。評価一覧が含まれる場合は正規化して返す。
func (c *Client) GetMatch(ctx context.Context, matchID string) (*model.Match, error) {
	var rm remoteMatch
	if err := c.get(ctx, "/matches/"+url.PathEscape(matchID), "", &rm, model.NewMatchNotFoundError(matchID)); err != nil {
		return nil, err
	}
	match := normalizeMatch(rm)
	return &match, nil
}

// ListRatings は試合の評価一覧を取得する。
// firstRatingIDを指定すると該当評価が先頭に来るよう外部APIへ依頼する。
func (c *Client) ListRatings(ctx context.Context, matchID, firstRatingID string) ([]model.Rating, error) {
	path := "/ratings/" + url.PathEscape(matchID)
	if firstRatingID != "" {
		path += "?first_rating_id=" + url.QueryEscape(firstRatingID)
	}

	var remote []remoteRating
	if err := c.get(ctx, path, "", &remote, model.NewMatchNotFoundError(matchID)); err != nil {
		return nil, err
	}

	ratings := make([]model.Rating, len(remote))
	for i, rr := range remote {
		ratings[i] = normalizeRating(rr)
	}
	return ratings, nil
}

// CreateRating は評価を投稿する。tokenはBearer認証に使用される。
func (c *Client) CreateRating(ctx context.Context, token string, rating model.NewRating) error {
	return c.send(ctx, http.MethodPost, "/ratings/", token, rating, model.NewMatchNotFoundError(rating.MatchID))
}

// SetRatingVote は評価へのいいね/よくないね投票を登録する。
func (c *Client) SetRatingVote(ctx context.Context, token, ratingID string, option model.VoteOption) error {
	body := map[string]any{
		"is_reply": false,
		"option":   string(option),
	}
	return c.send(ctx, http.MethodPut, "/ratings/interaction/"+url.PathEscape(ratingID), token, body, model.NewRatingNotFoundError(ratingID))
}

// CreateReply は評価への返信を投稿する。
func (c *Client) CreateReply(ctx context.Context, token, matchID, ratingID, text string) error {
	body := map[string]any{
		"is_reply": true,
		"match_id": matchID,
		"text":     text,
	}
	return c.send(ctx, http.MethodPut, "/ratings/interaction/"+url.PathEscape(ratingID), token, body, model.NewRatingNotFoundError(ratingID))
}

// get はGETリクエストを送信しJSONレスポンスをoutへデコードする。
// notFoundには対象エンティティに応じた404エラーを渡す。nilの場合、404は
// 上流契約違反としてUpstreamFailureで報告される。
func (c *Client) get(ctx context.Context, path, token string, out any, notFound error) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound && notFound != nil {
		return notFound
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return model.NewUpstreamFailureError(fmt.Sprintf("status %d: %s", resp.StatusCode, string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// send はJSONボディ付きの書き込み系リクエストを送信する。
// notFoundの扱いはgetと同じ。
func (c *Client) send(ctx context.Context, method, path, token string, body any, notFound error) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode == http.StatusNotFound && notFound != nil {
		return notFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return model.NewUpstreamFailureError(fmt.Sprintf("status %d", resp.StatusCode))
	}
	return nil
}

// normalizeMatch は外部APIの試合レスポンスをドメインモデルに正規化する。
func normalizeMatch(rm remoteMatch) model.Match {
	match := model.Match{
		ID:               rm.ID,
		League:           rm.League,
		Status:           model.MatchStatus(rm.Status),
		HomeTeam:         rm.HomeTeam,
		HomeScore:        rm.HomeScore,
		AwayTeam:         rm.AwayTeam,
		AwayScore:        rm.AwayScore,
		RatingsNum:       rm.RatingsNum,
		AvgRating:        formatAvgRating(rm.AvgRating),
		RatingProportion: proportionFromCounts(rm.CountByRating, rm.RatingsNum),
	}

	if t, err := time.Parse(time.RFC3339, rm.Date); err == nil {
		match.Date = t
	}

	if len(rm.Ratings) > 0 {
		match.Ratings = make([]model.Rating, len(rm.Ratings))
		for i, rr := range rm.Ratings {
			match.Ratings[i] = normalizeRating(rr)
		}
	}
	return match
}

// normalizeRating は外部APIの評価レスポンスをドメインモデルに正規化する。
func normalizeRating(rr remoteRating) model.Rating {
	rating := model.Rating{
		ID:       rr.ID,
		MatchID:  rr.MatchID,
		Author:   rr.Author,
		Title:    rr.Title,
		Comment:  rr.Comment,
		Rating:   rr.Rating,
		Likes:    rr.Likes,
		Dislikes: rr.Dislikes,
	}
	if t, err := time.Parse(time.RFC3339, rr.CreatedAt); err == nil {
		rating.CreatedAt = t
	}
	if len(rr.Replies) > 0 {
		rating.Replies = make([]model.Reply, len(rr.Replies))
		for i, rp := range rr.Replies {
			rating.Replies[i] = normalizeReply(rp)
		}
	}
	return rating
}

// normalizeReply は外部APIの返信レスポンスをドメインモデルに正規化する。
func normalizeReply(rp remoteReply) model.Reply {
	reply := model.Reply{
		ID:       rp.ID,
		RatingID: rp.RatingID,
		Author:   rp.Author,
		Text:     rp.Comment,
	}
	if t, err := time.Parse(time.RFC3339, rp.CreatedAt); err == nil {
		reply.CreatedAt = t
	}
	return reply
}

// formatAvgRating は平均評価を小数1桁の文字列に整形する。未評価は"0"。
func formatAvgRating(avg float64) string {
	if avg == 0 {
		return "0"
	}
	return strconv.FormatFloat(avg, 'f', 1, 64)
}

// proportionFromCounts は星ごとの件数から割合を計算する。
// count_by_ratingが無い、または母数が0の場合はすべて0。
func proportionFromCounts(counts map[string]int, total int) model.RatingProportion {
	if counts == nil || total == 0 {
		return model.RatingProportion{}
	}
	n := float64(total)
	return model.RatingProportion{
		One:   float64(counts["1"]) / n,
		Two:   float64(counts["2"]) / n,
		Three: float64(counts["3"]) / n,
		Four:  float64(counts["4"]) / n,
		Five:  float64(counts["5"]) / n,
	}
}
