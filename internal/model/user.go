package model

// User は認証プロバイダ上のユーザーを表す。
// 永続化はFirebase側にあり、このサービスはトークン経由で参照するのみ。
type User struct {
	UID           string `json:"uid"`
	Email         string `json:"email"`
	DisplayName   string `json:"display_name"`
	EmailVerified bool   `json:"email_verified"`
}

// AuthTokens はサインイン成功時に払い出されるトークン一式。
// IDTokenは外部APIへのBearer認証に使用される。
type AuthTokens struct {
	IDToken      string `json:"id_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}
