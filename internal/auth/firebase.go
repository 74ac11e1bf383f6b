// Package auth はFirebase Identity Toolkitによる認証機能を提供する。
package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/hitoshi/sportboxd/internal/model"
)

const (
	defaultIdentityBaseURL = "https://identitytoolkit.googleapis.com/v1"
	defaultSecureTokenURL  = "https://securetoken.googleapis.com/v1/token"
)

// FirebaseConfig はFirebaseプロバイダーの設定。
type FirebaseConfig struct {
	APIKey string

	// テスト用にオーバーライド可能なURL
	IdentityBaseURL string
	SecureTokenURL  string
}

// FirebaseProvider はFirebase Identity Toolkit REST APIによる認証を提供する。
type FirebaseProvider struct {
	config FirebaseConfig
}

// NewFirebaseProvider はFirebaseProviderを生成する。
func NewFirebaseProvider(config FirebaseConfig) *FirebaseProvider {
	if config.IdentityBaseURL == "" {
		config.IdentityBaseURL = defaultIdentityBaseURL
	}
	if config.SecureTokenURL == "" {
		config.SecureTokenURL = defaultSecureTokenURL
	}
	return &FirebaseProvider{config: config}
}

// signInResponse はsignUp/signInWithPassword/signInWithIdpの共通レスポンス。
type signInResponse struct {
	LocalID      string `json:"localId"`
	Email        string `json:"email"`
	DisplayName  string `json:"displayName"`
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    string `json:"expiresIn"`
}

// lookupResponse はaccounts:lookupのレスポンス。
type lookupResponse struct {
	Users []struct {
		LocalID       string `json:"localId"`
		Email         string `json:"email"`
		DisplayName   string `json:"displayName"`
		EmailVerified bool   `json:"emailVerified"`
	} `json:"users"`
}

// firebaseErrorResponse はIdentity Toolkitのエラーレスポンス。
type firebaseErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// SignUp はメールアドレスとパスワードで新規アカウントを作成する。
func (p *FirebaseProvider) SignUp(ctx context.Context, email, password string) (*model.User, *model.AuthTokens, error) {
	var resp signInResponse
	err := p.post(ctx, "accounts:signUp", map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	}, &resp)
	if err != nil {
		return nil, nil, err
	}
	return userFromSignIn(resp), tokensFromSignIn(resp), nil
}

// SignIn はメールアドレスとパスワードでサインインする。
func (p *FirebaseProvider) SignIn(ctx context.Context, email, password string) (*model.User, *model.AuthTokens, error) {
	var resp signInResponse
	err := p.post(ctx, "accounts:signInWithPassword", map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	}, &resp)
	if err != nil {
		return nil, nil, err
	}
	return userFromSignIn(resp), tokensFromSignIn(resp), nil
}

// SignInWithIdP は外部IdP（Google等）のトークンでサインインする。
// providerIDは"google.com"のようなIdP識別子、idTokenはIdPが発行したトークン。
func (p *FirebaseProvider) SignInWithIdP(ctx context.Context, providerID, idToken, requestURI string) (*model.User, *model.AuthTokens, error) {
	postBody := url.Values{
		"id_token":   {idToken},
		"providerId": {providerID},
	}

	var resp signInResponse
	err := p.post(ctx, "accounts:signInWithIdp", map[string]any{
		"postBody":          postBody.Encode(),
		"requestUri":        requestURI,
		"returnSecureToken": true,
	}, &resp)
	if err != nil {
		return nil, nil, err
	}
	return userFromSignIn(resp), tokensFromSignIn(resp), nil
}

// UpdateProfile は表示名を設定する。
func (p *FirebaseProvider) UpdateProfile(ctx context.Context, idToken, displayName string) error {
	return p.post(ctx, "accounts:update", map[string]any{
		"idToken":           idToken,
		"displayName":       displayName,
		"returnSecureToken": false,
	}, &struct{}{})
}

// SendVerificationEmail は確認メールの送信を依頼する。
func (p *FirebaseProvider) SendVerificationEmail(ctx context.Context, idToken string) error {
	return p.post(ctx, "accounts:sendOobCode", map[string]any{
		"requestType": "VERIFY_EMAIL",
		"idToken":     idToken,
	}, &struct{}{})
}

// Lookup はIDトークンから現在のユーザー情報を取得する。
// トークンが無効な場合は認証エラーを返す。
func (p *FirebaseProvider) Lookup(ctx context.Context, idToken string) (*model.User, error) {
	var resp lookupResponse
	err := p.post(ctx, "accounts:lookup", map[string]any{
		"idToken": idToken,
	}, &resp)
	if err != nil {
		return nil, err
	}
	if len(resp.Users) == 0 {
		return nil, model.NewUnauthorizedError()
	}
	u := resp.Users[0]
	return &model.User{
		UID:           u.LocalID,
		Email:         u.Email,
		DisplayName:   u.DisplayName,
		EmailVerified: u.EmailVerified,
	}, nil
}

// RefreshToken はリフレッシュトークンで新しいIDトークンを払い出す。
func (p *FirebaseProvider) RefreshToken(ctx context.Context, refreshToken string) (*model.AuthTokens, error) {
	data := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.config.SecureTokenURL+"?key="+url.QueryEscape(p.config.APIKey),
		strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create refresh request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("refresh request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read refresh response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, mapFirebaseError(body)
	}

	var tokenResp struct {
		IDToken      string `json:"id_token"`
		RefreshToken string `json:"refresh_token"`
		ExpiresIn    string `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return nil, fmt.Errorf("failed to decode refresh response: %w", err)
	}

	expires, _ := strconv.ParseInt(tokenResp.ExpiresIn, 10, 64)
	return &model.AuthTokens{
		IDToken:      tokenResp.IDToken,
		RefreshToken: tokenResp.RefreshToken,
		ExpiresIn:    expires,
	}, nil
}

// post はIdentity Toolkitのエンドポイントを呼び出しレスポンスをoutへデコードする。
func (p *FirebaseProvider) post(ctx context.Context, endpoint string, payload map[string]any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	reqURL := p.config.IdentityBaseURL + "/" + endpoint + "?key=" + url.QueryEscape(p.config.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return mapFirebaseError(respBody)
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// mapFirebaseError はFirebaseのエラーコードをAPIErrorへ変換する。
func mapFirebaseError(body []byte) error {
	var fbErr firebaseErrorResponse
	if err := json.Unmarshal(body, &fbErr); err != nil {
		return fmt.Errorf("firebase request failed: %s", string(body))
	}

	// WEAK_PASSWORD等は "WEAK_PASSWORD : Password should be..." 形式で返る
	code, _, _ := strings.Cut(fbErr.Error.Message, " ")

	switch code {
	case "EMAIL_EXISTS":
		return &model.APIError{
			Code:     model.ErrCodeEmailExists,
			Message:  "Este e-mail já está cadastrado.",
			Category: "auth",
			Action:   "Faça login ou recupere sua senha.",
		}
	case "EMAIL_NOT_FOUND", "INVALID_PASSWORD", "INVALID_LOGIN_CREDENTIALS":
		return &model.APIError{
			Code:     model.ErrCodeInvalidLogin,
			Message:  "E-mail ou senha inválidos.",
			Category: "auth",
			Action:   "Verifique suas credenciais e tente novamente.",
		}
	case "USER_DISABLED":
		return &model.APIError{
			Code:     model.ErrCodeUserDisabled,
			Message:  "Esta conta foi desativada.",
			Category: "auth",
			Action:   "Entre em contato com o suporte.",
		}
	case "WEAK_PASSWORD":
		return &model.APIError{
			Code:     model.ErrCodeWeakPassword,
			Message:  "A senha deve ter pelo menos 6 caracteres.",
			Category: "validation",
			Action:   "Escolha uma senha mais forte.",
		}
	case "INVALID_ID_TOKEN", "TOKEN_EXPIRED":
		return model.NewUnauthorizedError()
	default:
		return fmt.Errorf("firebase error: %s", fbErr.Error.Message)
	}
}

// userFromSignIn はサインイン系レスポンスからUserを構築する。
func userFromSignIn(resp signInResponse) *model.User {
	return &model.User{
		UID:         resp.LocalID,
		Email:       resp.Email,
		DisplayName: resp.DisplayName,
	}
}

// tokensFromSignIn はサインイン系レスポンスからAuthTokensを構築する。
func tokensFromSignIn(resp signInResponse) *model.AuthTokens {
	expires, _ := strconv.ParseInt(resp.ExpiresIn, 10, 64)
	return &model.AuthTokens{
		IDToken:      resp.IDToken,
		RefreshToken: resp.RefreshToken,
		ExpiresIn:    expires,
	}
}
