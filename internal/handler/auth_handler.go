package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/hitoshi/sportboxd/internal/model"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	// SignUp は新規ユーザーを登録し、確認メールを送信する。
	SignUp(ctx context.Context, email, password, displayName string) (*model.User, *model.AuthTokens, error)
	// SignIn はメールアドレスとパスワードでサインインする。
	SignIn(ctx context.Context, email, password string) (*model.User, *model.AuthTokens, error)
	// SignInWithOAuth はOAuthプロバイダーのIDトークンでサインインする。
	SignInWithOAuth(ctx context.Context, providerID, idToken, requestURI string) (*model.User, *model.AuthTokens, error)
	// CurrentUser はIDトークンからユーザー情報を取得する。
	CurrentUser(ctx context.Context, idToken string) (*model.User, error)
	// SendVerificationEmail は確認メールを再送する。
	SendVerificationEmail(ctx context.Context, idToken string) error
	// Refresh はリフレッシュトークンで新しいIDトークンを取得する。
	Refresh(ctx context.Context, refreshToken string) (*model.AuthTokens, error)
}

// AuthHandler は認証のHTTPハンドラー。
// 認証基盤への薄いプロキシとして動作し、セッション状態は保持しない。
type AuthHandler struct {
	service AuthServiceInterface
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface) *AuthHandler {
	return &AuthHandler{service: service}
}

// userResponse はユーザー情報のAPIレスポンス。
type userResponse struct {
	UID           string `json:"uid"`
	Email         string `json:"email"`
	DisplayName   string `json:"display_name"`
	EmailVerified bool   `json:"email_verified"`
}

// tokensResponse は認証トークンのAPIレスポンス。
type tokensResponse struct {
	IDToken      string `json:"id_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// sessionResponse はサインアップ・サインイン成功時のレスポンス。
type sessionResponse struct {
	User   userResponse   `json:"user"`
	Tokens tokensResponse `json:"tokens"`
}

func toSessionResponse(user *model.User, tokens *model.AuthTokens) sessionResponse {
	return sessionResponse{
		User: userResponse{
			UID:           user.UID,
			Email:         user.Email,
			DisplayName:   user.DisplayName,
			EmailVerified: user.EmailVerified,
		},
		Tokens: tokensResponse{
			IDToken:      tokens.IDToken,
			RefreshToken: tokens.RefreshToken,
			ExpiresIn:    tokens.ExpiresIn,
		},
	}
}

// signUpRequest はサインアップリクエストのボディ。
type signUpRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

// SignUp は新規登録を処理する。
// POST /auth/signup
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handleServiceError(w, model.NewInvalidRequestError())
		return
	}
	if req.Email == "" || req.Password == "" {
		handleServiceError(w, model.NewInvalidRequestError())
		return
	}

	user, tokens, err := h.service.SignUp(r.Context(), req.Email, req.Password, req.DisplayName)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toSessionResponse(user, tokens))
}

// loginRequest はサインインリクエストのボディ。
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login はサインインを処理する。
// POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handleServiceError(w, model.NewInvalidRequestError())
		return
	}
	if req.Email == "" || req.Password == "" {
		handleServiceError(w, model.NewInvalidRequestError())
		return
	}

	user, tokens, err := h.service.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toSessionResponse(user, tokens))
}

// oauthRequest はOAuthサインインリクエストのボディ。
type oauthRequest struct {
	ProviderID string `json:"provider_id"`
	IDToken    string `json:"id_token"`
	RequestURI string `json:"request_uri"`
}

// OAuth はOAuthプロバイダー経由のサインインを処理する。
// POST /auth/oauth
func (h *AuthHandler) OAuth(w http.ResponseWriter, r *http.Request) {
	var req oauthRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handleServiceError(w, model.NewInvalidRequestError())
		return
	}
	if req.ProviderID == "" || req.IDToken == "" {
		handleServiceError(w, model.NewInvalidRequestError())
		return
	}

	user, tokens, err := h.service.SignInWithOAuth(r.Context(), req.ProviderID, req.IDToken, req.RequestURI)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toSessionResponse(user, tokens))
}

// Me は現在のユーザー情報の取得を処理する。
// GET /auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.CurrentUser(r.Context(), bearerToken(r))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, userResponse{
		UID:           user.UID,
		Email:         user.Email,
		DisplayName:   user.DisplayName,
		EmailVerified: user.EmailVerified,
	})
}

// VerifyEmail は確認メールの再送を処理する。
// POST /auth/verify-email
func (h *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		handleServiceError(w, model.NewUnauthorizedError())
		return
	}

	if err := h.service.SendVerificationEmail(r.Context(), token); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// refreshRequest はトークン更新リクエストのボディ。
type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Refresh はIDトークンの更新を処理する。
// POST /auth/refresh
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handleServiceError(w, model.NewInvalidRequestError())
		return
	}
	if req.RefreshToken == "" {
		handleServiceError(w, model.NewInvalidRequestError())
		return
	}

	tokens, err := h.service.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, tokensResponse{
		IDToken:      tokens.IDToken,
		RefreshToken: tokens.RefreshToken,
		ExpiresIn:    tokens.ExpiresIn,
	})
}

// Logout はサインアウトを処理する。
// POST /auth/logout
//
// トークンはクライアント側で破棄されるため、サーバー側の状態変更はない。
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}
