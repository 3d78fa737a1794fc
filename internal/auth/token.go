package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// accessTokenClaims はアクセストークンに埋め込むクレームを表す。
// Subjectにはユーザーidを設定する。
type accessTokenClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// tokenIssuer はJWTアクセストークンの発行と検証を行う。
type tokenIssuer struct {
	signingKey []byte
	ttl        time.Duration
}

// newTokenIssuer はtokenIssuerを生成する。
func newTokenIssuer(signingKey string, ttl time.Duration) *tokenIssuer {
	return &tokenIssuer{
		signingKey: []byte(signingKey),
		ttl:        ttl,
	}
}

// issue は指定ユーザーのアクセストークンを発行する。
func (t *tokenIssuer) issue(userID, email string, now time.Time) (string, time.Time, error) {
	expiresAt := now.Add(t.ttl)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, accessTokenClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	})

	signed, err := token.SignedString(t.signingKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("アクセストークンの署名に失敗しました: %w", err)
	}

	return signed, expiresAt, nil
}

// parse はアクセストークンを検証し、クレームを返す。
// 署名方式の偽装・署名不一致・期限切れはすべてエラーとなる。
func (t *tokenIssuer) parse(tokenString string) (*accessTokenClaims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &accessTokenClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return t.signingKey, nil
	})
	if err != nil {
		return nil, fmt.Errorf("アクセストークンの検証に失敗しました: %w", err)
	}

	claims, ok := parsed.Claims.(*accessTokenClaims)
	if !ok || !parsed.Valid {
		return nil, fmt.Errorf("アクセストークンのクレームが不正です")
	}

	return claims, nil
}

// generateRefreshToken は暗号的に安全な不透明リフレッシュトークンを生成する。
func generateRefreshToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
