package model

import (
	"fmt"
	"time"
)

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ（ユーザー向け、ポルトガル語）
	Category string // カテゴリ: auth, validation, preview, upstream, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeUnauthorized    = "UNAUTHORIZED"
	ErrCodeInvalidRequest  = "INVALID_REQUEST"
	ErrCodeEmailExists     = "EMAIL_EXISTS"
	ErrCodeInvalidLogin    = "INVALID_LOGIN"
	ErrCodeUserDisabled    = "USER_DISABLED"
	ErrCodeWeakPassword    = "WEAK_PASSWORD"
	ErrCodeMatchNotFound   = "MATCH_NOT_FOUND"
	ErrCodeRatingNotFound  = "RATING_NOT_FOUND"
	ErrCodeUpstreamFailure = "UPSTREAM_FAILURE"
)

// ValidationError はプレビューリクエストの必須フィールド欠落を表す。
// HTTPレイヤーでは400として表面化し、リトライ対象外。
type ValidationError struct {
	Msg string
}

// Error はerrorインターフェースを実装する。
func (e *ValidationError) Error() string {
	return e.Msg
}

// NewValidationError はValidationErrorを生成する。
func NewValidationError(msg string) *ValidationError {
	return &ValidationError{Msg: msg}
}

// BrowserLaunchError はヘッドレスブラウザの起動失敗を表す。
// 一時的なリソース枯渇の可能性があるためリトライ安全。
type BrowserLaunchError struct {
	Err error
}

// Error はerrorインターフェースを実装する。
func (e *BrowserLaunchError) Error() string {
	return fmt.Sprintf("browser launch failed: %v", e.Err)
}

// Unwrap は原因エラーを返す。
func (e *BrowserLaunchError) Unwrap() error {
	return e.Err
}

// RenderTimeoutError はコンテンツが制限時間内にレディにならなかったことを表す。
// バックオフ付きリトライが安全。
type RenderTimeoutError struct {
	Timeout time.Duration
}

// Error はerrorインターフェースを実装する。
func (e *RenderTimeoutError) Error() string {
	return fmt.Sprintf("render did not become ready within %s", e.Timeout)
}

// StoreReadError はオブジェクトストアの存在確認（読み取り系）の失敗を表す。
type StoreReadError struct {
	Key string
	Err error
}

// Error はerrorインターフェースを実装する。
func (e *StoreReadError) Error() string {
	return fmt.Sprintf("store read failed for %s: %v", e.Key, e.Err)
}

// Unwrap は原因エラーを返す。
func (e *StoreReadError) Unwrap() error {
	return e.Err
}

// StoreWriteError はアーティファクトのアップロード失敗を表す。
// 成功URLの裏でアーティファクトが欠落する正しさのバグを防ぐため、
// 呼び出し側はこのエラーを握りつぶしてはならない。
type StoreWriteError struct {
	Key string
	Err error
}

// Error はerrorインターフェースを実装する。
func (e *StoreWriteError) Error() string {
	return fmt.Sprintf("store write failed for %s: %v", e.Key, e.Err)
}

// Unwrap は原因エラーを返す。
func (e *StoreWriteError) Unwrap() error {
	return e.Err
}

// NewUnauthorizedError は認証必須エラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "Autenticação necessária.",
		Category: "auth",
		Action:   "Faça login e tente novamente.",
	}
}

// NewInvalidRequestError はリクエストボディ解析失敗エラーを生成する。
func NewInvalidRequestError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  "Não foi possível interpretar a requisição.",
		Category: "validation",
		Action:   "Envie a requisição em formato JSON válido.",
	}
}

// NewMatchNotFoundError は試合未検出エラーを生成する。
func NewMatchNotFoundError(matchID string) *APIError {
	return &APIError{
		Code:     ErrCodeMatchNotFound,
		Message:  fmt.Sprintf("Partida não encontrada: %s", matchID),
		Category: "upstream",
		Action:   "Verifique o identificador da partida.",
	}
}

// NewRatingNotFoundError は評価未検出エラーを生成する。
func NewRatingNotFoundError(ratingID string) *APIError {
	return &APIError{
		Code:     ErrCodeRatingNotFound,
		Message:  fmt.Sprintf("Avaliação não encontrada: %s", ratingID),
		Category: "upstream",
		Action:   "Verifique o identificador da avaliação.",
	}
}

// NewUpstreamFailureError は外部APIの呼び出し失敗エラーを生成する。
func NewUpstreamFailureError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeUpstreamFailure,
		Message:  fmt.Sprintf("Falha ao comunicar com o serviço de partidas: %s", reason),
		Category: "upstream",
		Action:   "Aguarde alguns instantes e tente novamente.",
	}
}
