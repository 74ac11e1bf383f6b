package auth

import (
	"context"
	"log/slog"

	"github.com/hitoshi/sportboxd/internal/model"
)

// Provider は認証プロバイダーのインターフェース。
// 実装はFirebaseProvider。テストではフェイクに差し替える。
type Provider interface {
	SignUp(ctx context.Context, email, password string) (*model.User, *model.AuthTokens, error)
	SignIn(ctx context.Context, email, password string) (*model.User, *model.AuthTokens, error)
	SignInWithIdP(ctx context.Context, providerID, idToken, requestURI string) (*model.User, *model.AuthTokens, error)
	UpdateProfile(ctx context.Context, idToken, displayName string) error
	SendVerificationEmail(ctx context.Context, idToken string) error
	Lookup(ctx context.Context, idToken string) (*model.User, error)
	RefreshToken(ctx context.Context, refreshToken string) (*model.AuthTokens, error)
}

// Service は認証フローのオーケストレーションを行う。
// セッション状態は一切持たない。クライアントはIDトークンを保持し、
// サインアウトはクライアント側でのトークン破棄で完結する。
type Service struct {
	provider Provider
	logger   *slog.Logger
}

// NewService はServiceを生成する。
func NewService(provider Provider, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		provider: provider,
		logger:   logger,
	}
}

// SignUp はアカウント作成フローを実行する。
// アカウント作成 → 表示名設定 → 確認メール送信 の順に行う。
// 表示名設定と確認メール送信の失敗はアカウント作成自体を失敗にはせず、
// 警告ログを残してユーザーとトークンを返す（作成済みアカウントは取り消せない）。
func (s *Service) SignUp(ctx context.Context, email, password, displayName string) (*model.User, *model.AuthTokens, error) {
	user, tokens, err := s.provider.SignUp(ctx, email, password)
	if err != nil {
		return nil, nil, err
	}

	if displayName != "" {
		if err := s.provider.UpdateProfile(ctx, tokens.IDToken, displayName); err != nil {
			s.logger.Warn("failed to set display name", "uid", user.UID, "error", err)
		} else {
			user.DisplayName = displayName
		}
	}

	if err := s.provider.SendVerificationEmail(ctx, tokens.IDToken); err != nil {
		s.logger.Warn("failed to send verification email", "uid", user.UID, "error", err)
	}

	s.logger.Info("user signed up", "uid", user.UID)
	return user, tokens, nil
}

// SignIn はメールアドレスとパスワードでサインインする。
func (s *Service) SignIn(ctx context.Context, email, password string) (*model.User, *model.AuthTokens, error) {
	return s.provider.SignIn(ctx, email, password)
}

// SignInWithOAuth は外部IdPトークンでサインインする。
func (s *Service) SignInWithOAuth(ctx context.Context, providerID, idToken, requestURI string) (*model.User, *model.AuthTokens, error) {
	return s.provider.SignInWithIdP(ctx, providerID, idToken, requestURI)
}

// CurrentUser はBearerトークンから現在のユーザーを返す。
// トークンが空または無効な場合は認証エラーを返す。
func (s *Service) CurrentUser(ctx context.Context, idToken string) (*model.User, error) {
	if idToken == "" {
		return nil, model.NewUnauthorizedError()
	}
	return s.provider.Lookup(ctx, idToken)
}

// SendVerificationEmail は確認メールを再送する。
func (s *Service) SendVerificationEmail(ctx context.Context, idToken string) error {
	if idToken == "" {
		return model.NewUnauthorizedError()
	}
	return s.provider.SendVerificationEmail(ctx, idToken)
}

// Refresh はリフレッシュトークンで新しいトークン一式を払い出す。
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*model.AuthTokens, error) {
	return s.provider.RefreshToken(ctx, refreshToken)
}
