// Package auth は資格情報の発行と検証を提供する。
//
// メール・パスワードによるサインアップとログイン、アクセストークンと
// リフレッシュトークンの発行、リクエストごとのトークン検証を担当する。
// リクエストゲートをはじめ他のコンポーネントは本パッケージの実装型ではなく
// 小さなインターフェースにのみ依存するため、発行者は差し替え可能な協力者のままとなる。
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/mizuno/cardbox/internal/model"
	"github.com/mizuno/cardbox/internal/repository"
)

// パスワード検証失敗とユーザー不在で同一メッセージを返し、アカウントの存在を漏らさない。
const invalidCredentialsMessage = "Invalid login credentials"

const minPasswordLength = 6

// emailPattern はメールアドレスの形式検証に使用する。厳密なRFC準拠は狙わない。
var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// TextSanitizer はユーザー入力テキストの無害化インターフェース。
// security.Sanitizerの部分集合として定義する。
type TextSanitizer interface {
	Sanitize(raw string) string
}

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	SigningKey      string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

// Service は資格情報の発行・検証に関するビジネスロジックを提供する。
type Service struct {
	userRepo  repository.UserRepository
	tokenRepo repository.RefreshTokenRepository
	sanitizer TextSanitizer
	issuer    *tokenIssuer
	config    ServiceConfig
}

// NewService はServiceを生成する。
func NewService(
	userRepo repository.UserRepository,
	tokenRepo repository.RefreshTokenRepository,
	sanitizer TextSanitizer,
	config ServiceConfig,
) *Service {
	return &Service{
		userRepo:  userRepo,
		tokenRepo: tokenRepo,
		sanitizer: sanitizer,
		issuer:    newTokenIssuer(config.SigningKey, config.AccessTokenTTL),
		config:    config,
	}
}

// SignUp は新規ユーザーを登録する。
// displayNameは省略可能で、プロフィールの付随メタデータとして保存される。
// 検証エラーはValidation種別のAPIErrorとして返し、メッセージはそのまま
// クライアントへ透過される。
func (s *Service) SignUp(ctx context.Context, email, password, displayName string) (*model.User, error) {
	if !emailPattern.MatchString(email) {
		return nil, model.NewValidationError("Unable to validate email address: invalid format")
	}
	if len(password) < minPasswordLength {
		return nil, model.NewValidationError(fmt.Sprintf("Password should be at least %d characters", minPasswordLength))
	}

	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		return nil, model.NewValidationError("User already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	user := &model.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	profile := &model.Profile{
		ID:          user.ID,
		DisplayName: s.sanitizer.Sanitize(displayName),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.userRepo.CreateWithProfile(ctx, user, profile); err != nil {
		return nil, fmt.Errorf("failed to create user and profile: %w", err)
	}

	slog.Info("new user signed up",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
	)

	return user, nil
}

// SignInWithPassword はメール・パスワードを検証し、トークンペアを発行する。
// ユーザー不在とパスワード不一致は同一のValidationエラーとなる。
func (s *Service) SignInWithPassword(ctx context.Context, email, password string) (*model.User, *model.TokenPair, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, nil, model.NewValidationError(invalidCredentialsMessage)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, nil, model.NewValidationError(invalidCredentialsMessage)
	}

	pair, err := s.issueTokenPair(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	slog.Info("user logged in", slog.String("user_id", user.ID))

	return user, pair, nil
}

// RefreshSession はリフレッシュトークンを検証し、新しいトークンペアを発行する。
// 使用されたリフレッシュトークンは削除される（ローテーション）。
func (s *Service) RefreshSession(ctx context.Context, refreshToken string) (*model.User, *model.TokenPair, error) {
	if refreshToken == "" {
		return nil, nil, model.NewValidationError("refresh_token is required")
	}

	stored, err := s.tokenRepo.FindByToken(ctx, refreshToken)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to find refresh token: %w", err)
	}
	if stored == nil {
		return nil, nil, model.NewUnauthenticatedError()
	}

	user, err := s.userRepo.FindByID(ctx, stored.UserID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, nil, model.NewUnauthenticatedError()
	}

	if err := s.tokenRepo.DeleteByToken(ctx, refreshToken); err != nil {
		return nil, nil, fmt.Errorf("failed to rotate refresh token: %w", err)
	}

	pair, err := s.issueTokenPair(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	return user, pair, nil
}

// VerifyToken はアクセストークンを検証し、解決されたIdentityを返す。
// 署名検証後にユーザー行を照会するため、保護されたリクエストは毎回
// データベースへの往復を1回伴う。結果のキャッシュは行わない。
func (s *Service) VerifyToken(ctx context.Context, token string) (*model.Identity, error) {
	claims, err := s.issuer.parse(token)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByID(ctx, claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve token subject: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("token subject no longer exists")
	}

	return &model.Identity{ID: user.ID, Email: user.Email}, nil
}

// GetUser は指定IDのユーザーを取得する。見つからない場合はNotFoundエラーを返す。
func (s *Service) GetUser(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, model.NewNotFoundError("user not found")
	}
	return user, nil
}

// issueTokenPair はアクセストークンとリフレッシュトークンの組を発行する。
func (s *Service) issueTokenPair(ctx context.Context, user *model.User) (*model.TokenPair, error) {
	now := time.Now()

	accessToken, expiresAt, err := s.issuer.issue(user.ID, user.Email, now)
	if err != nil {
		return nil, err
	}

	refreshToken, err := generateRefreshToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	if err := s.tokenRepo.Create(ctx, &model.RefreshToken{
		Token:     refreshToken,
		UserID:    user.ID,
		ExpiresAt: now.Add(s.config.RefreshTokenTTL),
		CreatedAt: now,
	}); err != nil {
		return nil, fmt.Errorf("failed to save refresh token: %w", err)
	}

	return &model.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    expiresAt,
	}, nil
}
