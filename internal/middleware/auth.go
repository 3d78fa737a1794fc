// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/mizuno/cardbox/internal/model"
)

// bearerPrefix は許容するAuthorizationヘッダーの接頭辞。
// 大文字小文字を区別し、スペースは1つのみ許容する。
const bearerPrefix = "Bearer "

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// identityContextKey はリクエストコンテキストに認証済みIdentityを格納するためのキー。
var identityContextKey = contextKey("identity")

// TokenVerifier はアクセストークンの検証に必要なインターフェース。
// auth.Serviceの部分集合として定義する。
type TokenVerifier interface {
	// VerifyToken はトークンを検証し、解決されたIdentityを返す。
	VerifyToken(ctx context.Context, token string) (*model.Identity, error)
}

// NewAuthMiddleware はAuthorizationヘッダーのBearerトークンを検証する
// リクエストゲートミドルウェアを返す。
//
// ヘッダーが "Bearer " で始まらない場合（ヘッダー不在・接頭辞不一致・
// トークン空文字列を含む）は「トークン未提示」として扱い、検証を呼び出さず
// 即座に401を返す。トークンが提示された場合は検証を同期的に呼び出し、
// 検証エラーとIdentity未解決はどちらも同一の401レスポンスとなる。
// 成功時は解決されたIdentityをリクエストコンテキストに注入する。
//
// ゲート自体はキャッシュ・レート制限・ロックアウトを一切行わない。
// 保護されたリクエストは毎回検証コストを支払う。
func NewAuthMiddleware(verifier TokenVerifier) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")

			token, ok := strings.CutPrefix(authHeader, bearerPrefix)
			if !ok || token == "" {
				slog.Debug("request without bearer token",
					slog.String("path", r.URL.Path),
				)
				writeUnauthenticated(w)
				return
			}

			identity, err := verifier.VerifyToken(r.Context(), token)
			if err != nil || identity == nil {
				// 検証エラーと「正常応答だがIdentityなし」をクライアントに区別させない
				if err != nil {
					slog.Debug("token verification failed",
						slog.String("path", r.URL.Path),
						slog.String("error", err.Error()),
					)
				}
				writeUnauthenticated(w)
				return
			}

			ctx := context.WithValue(r.Context(), identityContextKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IdentityFromContext はリクエストコンテキストから認証済みIdentityを取得する。
// 認証ミドルウェアを通過したリクエストでのみ有効。
func IdentityFromContext(ctx context.Context) (*model.Identity, error) {
	identity, ok := ctx.Value(identityContextKey).(*model.Identity)
	if !ok || identity == nil {
		return nil, fmt.Errorf("identity not found in context")
	}
	return identity, nil
}

// ContextWithIdentity はコンテキストにIdentityを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithIdentity(ctx context.Context, identity *model.Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, identity)
}

// writeUnauthenticated は統一された401レスポンスを書き込む。
// 未認証の全サブケースでバイト単位に同一のレスポンスを返す。
func writeUnauthenticated(w http.ResponseWriter) {
	WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError().Message)
}
