// Package handler はHTTP APIのハンドラーとルーティングを提供する。
package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/hitoshi/sportboxd/internal/middleware"
	"github.com/hitoshi/sportboxd/internal/model"
)

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}

// bearerToken はAuthorizationヘッダーからBearerトークンを取り出す。
// ヘッダーが無い、または形式が不正な場合は空文字列を返す。
func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(auth) > len(prefix) && strings.EqualFold(auth[:len(prefix)], prefix) {
		return auth[len(prefix):]
	}
	return ""
}

// statusForAPIError はAPIErrorのコードをHTTPステータスコードに変換する。
func statusForAPIError(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeUnauthorized, model.ErrCodeInvalidLogin:
		return http.StatusUnauthorized
	case model.ErrCodeUserDisabled:
		return http.StatusForbidden
	case model.ErrCodeInvalidRequest, model.ErrCodeWeakPassword:
		return http.StatusBadRequest
	case model.ErrCodeEmailExists:
		return http.StatusConflict
	case model.ErrCodeMatchNotFound, model.ErrCodeRatingNotFound:
		return http.StatusNotFound
	case model.ErrCodeUpstreamFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPレスポンスに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		middleware.WriteErrorResponse(w, statusForAPIError(apiErr), apiErr)
		return
	}

	var valErr *model.ValidationError
	if errors.As(err, &valErr) {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     model.ErrCodeInvalidRequest,
			Message:  valErr.Msg,
			Category: "validation",
			Action:   "Verifique os campos informados e tente novamente.",
		})
		return
	}

	middleware.WriteInternalServerError(w)
}
