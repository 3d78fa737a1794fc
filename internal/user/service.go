// Package user はプロフィール取得とアバターアップロードのビジネスロジックを提供する。
package user

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/mizuno/cardbox/internal/config"
	"github.com/mizuno/cardbox/internal/model"
	"github.com/mizuno/cardbox/internal/repository"
)

// avatarMime はアップロードされるアバターのMIMEタイプ。
// クライアントはPNGのbase64のみを送信する。
const avatarMime = "image/png"

// Service はユーザープロフィールとアバターに関するビジネスロジックを提供する。
type Service struct {
	profileRepo repository.ProfileRepository
	avatarRepo  repository.AvatarRepository
	config      *config.Config
}

// NewService はServiceを生成する。
func NewService(
	profileRepo repository.ProfileRepository,
	avatarRepo repository.AvatarRepository,
	cfg *config.Config,
) *Service {
	return &Service{
		profileRepo: profileRepo,
		avatarRepo:  avatarRepo,
		config:      cfg,
	}
}

// GetProfile はユーザーのプロフィールを取得する。
// プロフィールはユーザー作成と同一トランザクションで作られるため、
// 認証済みユーザーに対して不在はデータ不整合を意味する。
func (s *Service) GetProfile(ctx context.Context, userID string) (*model.Profile, error) {
	profile, err := s.profileRepo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find profile: %w", err)
	}
	if profile == nil {
		return nil, model.NewNotFoundError("Profile not found")
	}
	return profile, nil
}

// UploadAvatar はbase64エンコードされた画像を保存し、プロフィールの
// avatar_urlを更新して公開URLを返す。
//
// 画像の保存とプロフィール更新は独立した2ステップであり、アトミックではない。
// 1ステップ目の成功後に2ステップ目が失敗した場合、画像は保存済みのまま
// プロフィールは旧URLを指し続ける（補償処理は行わない）。
func (s *Service) UploadAvatar(ctx context.Context, userID, imageBase64 string) (string, error) {
	if imageBase64 == "" {
		return "", model.NewValidationError("Missing base64 image")
	}

	data, err := base64.StdEncoding.DecodeString(imageBase64)
	if err != nil {
		return "", model.NewValidationError("invalid base64 image")
	}
	if int64(len(data)) > s.config.AvatarMaxBytes {
		return "", model.NewValidationError(
			fmt.Sprintf("image exceeds maximum size of %d bytes", s.config.AvatarMaxBytes))
	}

	avatar := &model.Avatar{
		ID:        uuid.New().String(),
		UserID:    userID,
		Data:      data,
		Mime:      avatarMime,
		CreatedAt: time.Now(),
	}

	if err := s.avatarRepo.Create(ctx, avatar); err != nil {
		return "", fmt.Errorf("failed to store avatar: %w", err)
	}

	url := s.config.BaseURL + "/api/avatars/" + userID

	if err := s.profileRepo.UpdateAvatarURL(ctx, userID, url); err != nil {
		// 画像は保存済み。プロフィールだけが旧URLのまま残る。
		return "", fmt.Errorf("failed to update avatar url: %w", err)
	}

	slog.Info("avatar uploaded",
		slog.String("user_id", userID),
		slog.Int("size_bytes", len(data)),
	)

	return url, nil
}

// GetAvatar はユーザーの最新アバター画像を取得する。
func (s *Service) GetAvatar(ctx context.Context, userID string) (*model.Avatar, error) {
	avatar, err := s.avatarRepo.FindLatestByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find avatar: %w", err)
	}
	if avatar == nil {
		return nil, model.NewNotFoundError("Avatar not found")
	}
	return avatar, nil
}
