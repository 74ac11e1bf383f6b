package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/sportboxd/internal/model"
)

// defaultPageLimit はlimit未指定時の1ページあたりの件数。
const defaultPageLimit = 10

// MatchServiceInterface は試合・レビューハンドラーが必要とするクライアントインターフェース。
type MatchServiceInterface interface {
	// ListMatches は絞り込み条件に一致する試合の一覧を取得する。
	ListMatches(ctx context.Context, filter model.MatchFilter) (*model.MatchPage, error)
	// GetMatch は試合の詳細を取得する。
	GetMatch(ctx context.Context, matchID string) (*model.Match, error)
	// ListRatings は試合のレビュー一覧を取得する。
	ListRatings(ctx context.Context, matchID, firstRatingID string) ([]model.Rating, error)
	// CreateRating はレビューを投稿する。
	CreateRating(ctx context.Context, token string, rating model.NewRating) error
	// SetRatingVote はレビューへのlike/dislikeを記録する。
	SetRatingVote(ctx context.Context, token, ratingID string, option model.VoteOption) error
	// CreateReply はレビューへの返信を投稿する。
	CreateReply(ctx context.Context, token, matchID, ratingID, text string) error
}

// ReviewTextSanitizer は投稿テキストのサニタイズインターフェース。
type ReviewTextSanitizer interface {
	SanitizeText(raw string) string
}

// MatchHandler は試合・レビューAPIのHTTPハンドラー。
// 上流の試合APIへの薄いプロキシとして動作し、書き込み系は認証トークンを要求する。
type MatchHandler struct {
	service   MatchServiceInterface
	sanitizer ReviewTextSanitizer
}

// NewMatchHandler はMatchHandlerを生成する。
func NewMatchHandler(service MatchServiceInterface, sanitizer ReviewTextSanitizer) *MatchHandler {
	return &MatchHandler{
		service:   service,
		sanitizer: sanitizer,
	}
}

// matchResponse は試合情報のAPIレスポンス。
type matchResponse struct {
	ID               string                 `json:"id"`
	League           string                 `json:"league"`
	Status           string                 `json:"status"`
	Date             time.Time              `json:"date"`
	HomeTeam         string                 `json:"home_team"`
	HomeScore        int                    `json:"home_score"`
	AwayTeam         string                 `json:"away_team"`
	AwayScore        int                    `json:"away_score"`
	RatingsNum       int                    `json:"ratings_num"`
	AvgRating        string                 `json:"avg_rating"`
	RatingProportion model.RatingProportion `json:"rating_proportion"`
	Ratings          []ratingResponse       `json:"ratings,omitempty"`
}

// ratingResponse はレビュー情報のAPIレスポンス。
type ratingResponse struct {
	ID       string          `json:"id"`
	MatchID  string          `json:"match_id"`
	Title    string          `json:"title"`
	Author   string          `json:"author"`
	Rating   int             `json:"rating"`
	Comment  string          `json:"comment"`
	Likes    int             `json:"likes"`
	Dislikes int             `json:"dislikes"`
	Date     time.Time       `json:"date"`
	Replies  []replyResponse `json:"replies,omitempty"`
}

// replyResponse はレビュー返信のAPIレスポンス。
type replyResponse struct {
	ID     string    `json:"id"`
	Author string    `json:"author"`
	Text   string    `json:"text"`
	Date   time.Time `json:"date"`
}

func toMatchResponse(m *model.Match) matchResponse {
	resp := matchResponse{
		ID:               m.ID,
		League:           m.League,
		Status:           string(m.Status),
		Date:             m.Date,
		HomeTeam:         m.HomeTeam,
		HomeScore:        m.HomeScore,
		AwayTeam:         m.AwayTeam,
		AwayScore:        m.AwayScore,
		RatingsNum:       m.RatingsNum,
		AvgRating:        m.AvgRating,
		RatingProportion: m.RatingProportion,
	}
	for _, r := range m.Ratings {
		resp.Ratings = append(resp.Ratings, toRatingResponse(r))
	}
	return resp
}

func toRatingResponse(r model.Rating) ratingResponse {
	resp := ratingResponse{
		ID:       r.ID,
		MatchID:  r.MatchID,
		Title:    r.Title,
		Author:   r.Author,
		Rating:   r.Rating,
		Comment:  r.Comment,
		Likes:    r.Likes,
		Dislikes: r.Dislikes,
		Date:     r.CreatedAt,
	}
	for _, rep := range r.Replies {
		resp.Replies = append(resp.Replies, replyResponse{
			ID:     rep.ID,
			Author: rep.Author,
			Text:   rep.Text,
			Date:   rep.CreatedAt,
		})
	}
	return resp
}

// parseMatchFilter はクエリパラメータから絞り込み条件を組み立てる。
// since/untilはRFC3339の日付または日時を受け付ける。
func parseMatchFilter(r *http.Request) (model.MatchFilter, error) {
	q := r.URL.Query()
	filter := model.MatchFilter{
		League:  q.Get("league"),
		OrderBy: q.Get("order_by"),
		Limit:   defaultPageLimit,
	}

	if v := q.Get("since"); v != "" {
		t, err := parseDateParam(v)
		if err != nil {
			return filter, err
		}
		filter.Since = &t
	}
	if v := q.Get("until"); v != "" {
		t, err := parseDateParam(v)
		if err != nil {
			return filter, err
		}
		filter.Until = &t
	}
	if v := q.Get("page"); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil || page < 0 {
			return filter, model.NewValidationError("invalid page parameter")
		}
		filter.Page = page
	}
	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 1 {
			return filter, model.NewValidationError("invalid limit parameter")
		}
		filter.Limit = limit
	}

	return filter, nil
}

// parseDateParam は日付（2006-01-02）または日時（RFC3339）をパースする。
func parseDateParam(v string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", v); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, model.NewValidationError("invalid date parameter: " + v)
	}
	return t, nil
}

// ListMatches は試合一覧の取得を処理する。
// GET /api/matches
func (h *MatchHandler) ListMatches(w http.ResponseWriter, r *http.Request) {
	filter, err := parseMatchFilter(r)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	page, err := h.service.ListMatches(r.Context(), filter)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	items := make([]matchResponse, 0, len(page.Matches))
	for i := range page.Matches {
		items = append(items, toMatchResponse(&page.Matches[i]))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"items":       items,
		"total_count": page.TotalCount,
	})
}

// GetMatch は試合詳細の取得を処理する。
// GET /api/matches/{id}
func (h *MatchHandler) GetMatch(w http.ResponseWriter, r *http.Request) {
	matchID := chi.URLParam(r, "id")

	match, err := h.service.GetMatch(r.Context(), matchID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toMatchResponse(match))
}

// ListRatings は試合のレビュー一覧の取得を処理する。
// GET /api/matches/{id}/ratings
func (h *MatchHandler) ListRatings(w http.ResponseWriter, r *http.Request) {
	matchID := chi.URLParam(r, "id")
	firstRatingID := r.URL.Query().Get("first_rating_id")

	ratings, err := h.service.ListRatings(r.Context(), matchID, firstRatingID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	items := make([]ratingResponse, 0, len(ratings))
	for _, rating := range ratings {
		items = append(items, toRatingResponse(rating))
	}

	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

// createRatingRequest はレビュー投稿リクエストのボディ。
type createRatingRequest struct {
	MatchID string `json:"match_id"`
	Title   string `json:"title"`
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// CreateRating はレビュー投稿を処理する。
// POST /api/ratings
func (h *MatchHandler) CreateRating(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		handleServiceError(w, model.NewUnauthorizedError())
		return
	}

	var req createRatingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handleServiceError(w, model.NewInvalidRequestError())
		return
	}
	if req.MatchID == "" || req.Rating < 1 || req.Rating > 5 {
		handleServiceError(w, model.NewInvalidRequestError())
		return
	}

	rating := model.NewRating{
		MatchID: req.MatchID,
		Title:   h.sanitizer.SanitizeText(req.Title),
		Rating:  req.Rating,
		Comment: h.sanitizer.SanitizeText(req.Comment),
	}

	if err := h.service.CreateRating(r.Context(), token, rating); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
}

// voteRequest はlike/dislikeリクエストのボディ。
type voteRequest struct {
	Option string `json:"option"`
}

// SetRatingVote はレビューへのlike/dislikeを処理する。
// PUT /api/ratings/{id}/vote
func (h *MatchHandler) SetRatingVote(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		handleServiceError(w, model.NewUnauthorizedError())
		return
	}

	ratingID := chi.URLParam(r, "id")

	var req voteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handleServiceError(w, model.NewInvalidRequestError())
		return
	}

	option := model.VoteOption(req.Option)
	if option != model.VoteLike && option != model.VoteDislike {
		handleServiceError(w, model.NewInvalidRequestError())
		return
	}

	if err := h.service.SetRatingVote(r.Context(), token, ratingID, option); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// replyRequest はレビュー返信リクエストのボディ。
type replyRequest struct {
	MatchID string `json:"match_id"`
	Text    string `json:"text"`
}

// CreateReply はレビューへの返信投稿を処理する。
// POST /api/ratings/{id}/replies
func (h *MatchHandler) CreateReply(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		handleServiceError(w, model.NewUnauthorizedError())
		return
	}

	ratingID := chi.URLParam(r, "id")

	var req replyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handleServiceError(w, model.NewInvalidRequestError())
		return
	}

	text := h.sanitizer.SanitizeText(req.Text)
	if req.MatchID == "" || text == "" {
		handleServiceError(w, model.NewInvalidRequestError())
		return
	}

	if err := h.service.CreateReply(r.Context(), token, req.MatchID, ratingID, text); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
}
