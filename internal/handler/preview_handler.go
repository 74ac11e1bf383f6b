package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/sportboxd/internal/model"
	"github.com/hitoshi/sportboxd/internal/preview"
)

// PreviewServiceInterface はプレビューハンドラーが必要とするサービスインターフェース。
type PreviewServiceInterface interface {
	// CreatePreview はプレビュー画像を生成または再利用し、公開URLを返す。
	CreatePreview(ctx context.Context, req *model.PreviewRequest) (string, error)
}

// LaunchFailureRecorder はブラウザ起動失敗のメトリクス記録インターフェース。
type LaunchFailureRecorder interface {
	RecordLaunchFailure()
}

// PreviewHandler はプレビュー画像生成のHTTPハンドラー。
type PreviewHandler struct {
	service PreviewServiceInterface
	metrics LaunchFailureRecorder
	logger  *slog.Logger
}

// NewPreviewHandler はPreviewHandlerを生成する。metricsはnil許容。
func NewPreviewHandler(service PreviewServiceInterface, metrics LaunchFailureRecorder, logger *slog.Logger) *PreviewHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PreviewHandler{
		service: service,
		metrics: metrics,
		logger:  logger,
	}
}

// GetPreview はプレビュー画像の生成要求を処理する。
// GET /api/preview
//
// レスポンス:
//   - 200 {"url": "..."} — 生成済みまたは新規生成されたアーティファクトの公開URL
//   - 400 {"name": "..."} — 必須パラメータの欠落
//   - 500 {"error": "...", "url": null} — 生成パイプラインの失敗
func (h *PreviewHandler) GetPreview(w http.ResponseWriter, r *http.Request) {
	req, err := preview.ParseRequest(r.URL.Query())
	if err != nil {
		var valErr *model.ValidationError
		if errors.As(err, &valErr) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"name": valErr.Msg})
			return
		}
		writeJSON(w, http.StatusBadRequest, map[string]string{"name": err.Error()})
		return
	}

	url, err := h.service.CreatePreview(r.Context(), req)
	if err != nil {
		var launchErr *model.BrowserLaunchError
		if errors.As(err, &launchErr) && h.metrics != nil {
			h.metrics.RecordLaunchFailure()
		}

		h.logger.Error("preview generation failed",
			slog.String("match_id", req.MatchID),
			slog.String("rating_id", req.RatingID),
			slog.String("error", err.Error()),
		)
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"error": err.Error(),
			"url":   nil,
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}
