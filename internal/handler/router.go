package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mizuno/cardbox/internal/metrics"
	"github.com/mizuno/cardbox/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	TokenVerifier     middleware.TokenVerifier
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	Logger            *slog.Logger

	// メトリクス
	Metrics        *metrics.Collector
	MetricsHandler http.Handler

	// サービス
	AuthService AuthServiceInterface
	UserService UserServiceInterface
	DeckService DeckServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	CORS → SecurityHeaders → Logging → Recovery → Metrics
//
// 認証が必要なルートには追加で Auth(リクエストゲート) → RateLimit(General) が適用される。
// レート制限はゲートの後段に置く（ゲート自体はレート制限を行わない）。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	if deps.Logger != nil {
		r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	}
	r.Use(middleware.NewRecoveryMiddleware())
	if deps.Metrics != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.Metrics))
	}

	// nilの*metrics.Collectorを非nilインターフェースとして渡さない
	var authMetrics AuthMetricsRecorder
	var avatarMetrics AvatarMetricsRecorder
	if deps.Metrics != nil {
		authMetrics = deps.Metrics
		avatarMetrics = deps.Metrics
	}

	authHandler := NewAuthHandler(deps.AuthService, authMetrics)
	userHandler := NewUserHandler(deps.UserService, avatarMetrics)
	deckHandler := NewDeckHandler(deps.DeckService)

	// --- 認証不要のルート ---

	r.Get("/api/health", HealthCheck)

	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	r.Post("/api/signup", authHandler.Signup)
	r.Post("/api/login", authHandler.Login)
	r.Post("/api/refresh", authHandler.Refresh)

	// 公開カタログとアバター配信
	r.Get("/api/public-decks", deckHandler.SearchPublicDecks)
	r.Get("/api/avatars/{userID}", userHandler.GetAvatar)

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Auth → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewAuthMiddleware(deps.TokenVerifier))
		if deps.RateLimiter != nil {
			r.Use(deps.RateLimiter.GeneralMiddleware())
		}

		r.Get("/api/me", userHandler.Me)
		r.Post("/api/avatar-upload", userHandler.UploadAvatar)

		// デッキ管理
		r.Route("/api/decks", func(r chi.Router) {
			r.Get("/", deckHandler.ListDecks)
			r.Post("/", deckHandler.CreateDeck)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", deckHandler.GetDeck)
				r.Post("/cards", deckHandler.AddCard)
				r.Get("/stats", deckHandler.GetStats)
				r.Post("/ratings", deckHandler.RateDeck)
			})
		})
	})

	return r
}

// HealthCheck は死活監視用エンドポイント。DBへの接続確認は行わない。
// GET /api/health
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}
