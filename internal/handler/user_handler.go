package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mizuno/cardbox/internal/middleware"
	"github.com/mizuno/cardbox/internal/model"
)

// UserServiceInterface はユーザーハンドラーが必要とするサービスインターフェース。
type UserServiceInterface interface {
	// GetProfile はユーザーのプロフィールを取得する。
	GetProfile(ctx context.Context, userID string) (*model.Profile, error)
	// UploadAvatar は画像を保存し公開URLを返す。
	UploadAvatar(ctx context.Context, userID, imageBase64 string) (string, error)
	// GetAvatar はユーザーの最新アバター画像を取得する。
	GetAvatar(ctx context.Context, userID string) (*model.Avatar, error)
}

// AvatarMetricsRecorder はアバターアップロードのメトリクス記録インターフェース。
type AvatarMetricsRecorder interface {
	RecordAvatarUploadBytes(n int)
}

// UserHandler はプロフィールとアバターのHTTPハンドラー。
type UserHandler struct {
	service UserServiceInterface
	metrics AvatarMetricsRecorder
}

// NewUserHandler はUserHandlerを生成する。
func NewUserHandler(service UserServiceInterface, metrics AvatarMetricsRecorder) *UserHandler {
	return &UserHandler{
		service: service,
		metrics: metrics,
	}
}

// avatarUploadRequest はアバターアップロードリクエストのボディ。
type avatarUploadRequest struct {
	Base64 string `json:"base64"`
}

// profileResponse はプロフィール情報のAPIレスポンス。
type profileResponse struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"display_name"`
	AvatarURL   string    `json:"avatar_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Me は認証済みユーザー自身の情報とプロフィールを返す。
// GET /api/me
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		handleServiceError(w, model.NewUnauthenticatedError())
		return
	}

	profile, err := h.service.GetProfile(r.Context(), identity.ID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]any{
		"user": map[string]any{
			"id":    identity.ID,
			"email": identity.Email,
		},
		"profile": toProfileResponse(profile),
	})
}

// UploadAvatar はbase64エンコードされたアバター画像のアップロードを処理する。
// POST /api/avatar-upload
func (h *UserHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		handleServiceError(w, model.NewUnauthenticatedError())
		return
	}

	var req avatarUploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handleServiceError(w, model.NewValidationError("invalid request body"))
		return
	}

	url, err := h.service.UploadAvatar(r.Context(), identity.ID, req.Base64)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if h.metrics != nil {
		// base64の4/3オーバーヘッドを除いたデコード後サイズを記録する
		h.metrics.RecordAvatarUploadBytes(len(req.Base64) / 4 * 3)
	}

	writeJSONResponse(w, http.StatusOK, map[string]string{"url": url})
}

// GetAvatar はユーザーの最新アバター画像をバイナリで返す。
// GET /api/avatars/{userID}
func (h *UserHandler) GetAvatar(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	avatar, err := h.service.GetAvatar(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", avatar.Mime)
	w.Header().Set("Content-Length", strconv.Itoa(len(avatar.Data)))
	w.WriteHeader(http.StatusOK)
	w.Write(avatar.Data)
}

// toProfileResponse はmodel.ProfileからAPIレスポンスに変換する。
func toProfileResponse(profile *model.Profile) profileResponse {
	return profileResponse{
		ID:          profile.ID,
		DisplayName: profile.DisplayName,
		AvatarURL:   profile.AvatarURL,
		CreatedAt:   profile.CreatedAt,
		UpdatedAt:   profile.UpdatedAt,
	}
}
