// Package model はドメインモデルを定義する。
package model

import "time"

// User はサービス利用ユーザーを表す。
// PasswordHashはbcryptハッシュであり、APIレスポンスには決して含めない。
type User struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Profile はユーザーの公開プロフィールを表す。
// IDはusers.idと同一（1:1対応）。ユーザー作成と同一トランザクションで作成される。
type Profile struct {
	ID          string
	DisplayName string
	AvatarURL   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Identity はトークン検証によって解決された認証主体を表す。
// 1リクエストの処理中だけ存在し、リクエストゲートが永続化することはない。
type Identity struct {
	ID    string
	Email string
}

// TokenPair はログイン・リフレッシュ時に発行されるトークンの組を表す。
// AccessTokenは署名付きの短命トークン、RefreshTokenはDBに保存される不透明トークン。
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// RefreshToken はリフレッシュトークンの保存レコードを表す。
type RefreshToken struct {
	Token     string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Avatar はアップロードされたアバター画像を表す。
// 画像バイト列とMIMEタイプをそのまま保持する。
type Avatar struct {
	ID        string
	UserID    string
	Data      []byte
	Mime      string
	CreatedAt time.Time
}
