package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/mizuno/cardbox/internal/model"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	// SignUp は新規ユーザーを登録する。
	SignUp(ctx context.Context, email, password, displayName string) (*model.User, error)
	// SignInWithPassword はメール・パスワードを検証しトークンペアを発行する。
	SignInWithPassword(ctx context.Context, email, password string) (*model.User, *model.TokenPair, error)
	// RefreshSession はリフレッシュトークンをローテーションし新しいペアを発行する。
	RefreshSession(ctx context.Context, refreshToken string) (*model.User, *model.TokenPair, error)
}

// AuthMetricsRecorder は認証イベントのメトリクス記録インターフェース。
type AuthMetricsRecorder interface {
	RecordSignup()
	RecordLogin()
}

// AuthHandler はサインアップ・ログイン・リフレッシュのHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
	metrics AuthMetricsRecorder
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, metrics AuthMetricsRecorder) *AuthHandler {
	return &AuthHandler{
		service: service,
		metrics: metrics,
	}
}

// signupRequest はサインアップリクエストのボディ。
type signupRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName"`
}

// loginRequest はログインリクエストのボディ。
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// refreshRequest はトークンリフレッシュリクエストのボディ。
type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// userResponse はユーザー情報のAPIレスポンス。パスワードハッシュは含めない。
type userResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// sessionResponse はトークンペアを伴うログイン・リフレッシュのレスポンス。
type sessionResponse struct {
	User         userResponse `json:"user"`
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
}

// Signup は新規ユーザー登録を処理する。
// POST /api/signup
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handleServiceError(w, model.NewValidationError("invalid request body"))
		return
	}

	user, err := h.service.SignUp(r.Context(), req.Email, req.Password, req.DisplayName)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordSignup()
	}

	writeJSONResponse(w, http.StatusOK, map[string]any{
		"user": toUserResponse(user),
	})
}

// Login はメール・パスワード認証を処理する。
// POST /api/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handleServiceError(w, model.NewValidationError("invalid request body"))
		return
	}

	user, pair, err := h.service.SignInWithPassword(r.Context(), req.Email, req.Password)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordLogin()
	}

	writeJSONResponse(w, http.StatusOK, toSessionResponse(user, pair))
}

// Refresh はリフレッシュトークンによるセッション更新を処理する。
// 使用されたリフレッシュトークンは無効になり、新しいペアが返る。
// POST /api/refresh
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handleServiceError(w, model.NewValidationError("invalid request body"))
		return
	}

	user, pair, err := h.service.RefreshSession(r.Context(), req.RefreshToken)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, toSessionResponse(user, pair))
}

// toUserResponse はmodel.UserからAPIレスポンスに変換する。
func toUserResponse(user *model.User) userResponse {
	return userResponse{
		ID:        user.ID,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
	}
}

// toSessionResponse はユーザーとトークンペアからレスポンスに変換する。
func toSessionResponse(user *model.User, pair *model.TokenPair) sessionResponse {
	return sessionResponse{
		User:         toUserResponse(user),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}
}
