package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/sportboxd/internal/model"
)

// newTestProvider はhttptestサーバーを指すFirebaseProviderを生成する。
func newTestProvider(t *testing.T, handler http.HandlerFunc) *FirebaseProvider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewFirebaseProvider(FirebaseConfig{
		APIKey:          "test-key",
		IdentityBaseURL: server.URL,
		SecureTokenURL:  server.URL + "/token",
	})
}

// TestSignIn_Success はサインイン成功時にユーザーとトークンが返ることを検証する。
func TestSignIn_Success(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/accounts:signInWithPassword" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.URL.Query().Get("key") != "test-key" {
			t.Errorf("key = %s, want test-key", r.URL.Query().Get("key"))
		}
		json.NewEncoder(w).Encode(map[string]any{
			"localId":      "uid-1",
			"email":        "ana@example.com",
			"displayName":  "ana",
			"idToken":      "id-token",
			"refreshToken": "refresh-token",
			"expiresIn":    "3600",
		})
	})

	user, tokens, err := p.SignIn(context.Background(), "ana@example.com", "secret")
	if err != nil {
		t.Fatalf("SignIn() error = %v", err)
	}
	if user.UID != "uid-1" || user.Email != "ana@example.com" {
		t.Errorf("user = %+v", user)
	}
	if tokens.IDToken != "id-token" || tokens.ExpiresIn != 3600 {
		t.Errorf("tokens = %+v", tokens)
	}
}

// TestSignIn_InvalidCredentials は認証失敗がINVALID_LOGINへ変換されることを検証する。
func TestSignIn_InvalidCredentials(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"code": 400, "message": "INVALID_LOGIN_CREDENTIALS"},
		})
	})

	_, _, err := p.SignIn(context.Background(), "ana@example.com", "wrong")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %T, want *model.APIError", err)
	}
	if apiErr.Code != model.ErrCodeInvalidLogin {
		t.Errorf("Code = %s, want %s", apiErr.Code, model.ErrCodeInvalidLogin)
	}
}

// TestSignUp_EmailExists は重複メールがEMAIL_EXISTSへ変換されることを検証する。
func TestSignUp_EmailExists(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"code": 400, "message": "EMAIL_EXISTS"},
		})
	})

	_, _, err := p.SignUp(context.Background(), "ana@example.com", "secret")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %T, want *model.APIError", err)
	}
	if apiErr.Code != model.ErrCodeEmailExists {
		t.Errorf("Code = %s, want %s", apiErr.Code, model.ErrCodeEmailExists)
	}
}

// TestMapFirebaseError_WeakPasswordWithSuffix は"WEAK_PASSWORD : ..."形式の
// メッセージからコードが抽出されることを検証する。
func TestMapFirebaseError_WeakPasswordWithSuffix(t *testing.T) {
	body := []byte(`{"error":{"code":400,"message":"WEAK_PASSWORD : Password should be at least 6 characters"}}`)

	err := mapFirebaseError(body)
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %T, want *model.APIError", err)
	}
	if apiErr.Code != model.ErrCodeWeakPassword {
		t.Errorf("Code = %s, want %s", apiErr.Code, model.ErrCodeWeakPassword)
	}
}

// TestLookup_Success はIDトークンからユーザー情報が取得できることを検証する。
func TestLookup_Success(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		json.NewDecoder(r.Body).Decode(&req)
		if req["idToken"] != "id-token" {
			t.Errorf("idToken = %v", req["idToken"])
		}
		json.NewEncoder(w).Encode(map[string]any{
			"users": []map[string]any{
				{"localId": "uid-1", "email": "ana@example.com", "displayName": "ana", "emailVerified": true},
			},
		})
	})

	user, err := p.Lookup(context.Background(), "id-token")
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if user.UID != "uid-1" || !user.EmailVerified {
		t.Errorf("user = %+v", user)
	}
}

// TestLookup_InvalidToken は無効トークンが認証エラーになることを検証する。
func TestLookup_InvalidToken(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"code": 400, "message": "INVALID_ID_TOKEN"},
		})
	})

	_, err := p.Lookup(context.Background(), "bad-token")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %T, want *model.APIError", err)
	}
	if apiErr.Code != model.ErrCodeUnauthorized {
		t.Errorf("Code = %s, want %s", apiErr.Code, model.ErrCodeUnauthorized)
	}
}

// TestRefreshToken_Success はリフレッシュでトークンが更新されることを検証する。
func TestRefreshToken_Success(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/token" {
			t.Errorf("path = %s, want /token", r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("ParseForm: %v", err)
		}
		if r.Form.Get("grant_type") != "refresh_token" {
			t.Errorf("grant_type = %s", r.Form.Get("grant_type"))
		}
		json.NewEncoder(w).Encode(map[string]any{
			"id_token":      "new-id-token",
			"refresh_token": "new-refresh-token",
			"expires_in":    "3600",
		})
	})

	tokens, err := p.RefreshToken(context.Background(), "refresh-token")
	if err != nil {
		t.Fatalf("RefreshToken() error = %v", err)
	}
	if tokens.IDToken != "new-id-token" || tokens.ExpiresIn != 3600 {
		t.Errorf("tokens = %+v", tokens)
	}
}
