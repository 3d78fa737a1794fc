package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mizuno/cardbox/internal/model"
)

// PostgresProfileRepo はPostgreSQLを使用したプロフィールリポジトリ。
type PostgresProfileRepo struct {
	db *sql.DB
}

// NewPostgresProfileRepo はPostgresProfileRepoを生成する。
func NewPostgresProfileRepo(db *sql.DB) *PostgresProfileRepo {
	return &PostgresProfileRepo{db: db}
}

// FindByUserID は指定ユーザーのプロフィールを取得する。見つからない場合はnilを返す。
func (r *PostgresProfileRepo) FindByUserID(ctx context.Context, userID string) (*model.Profile, error) {
	profile := &model.Profile{}
	var avatarURL sql.NullString

	err := r.db.QueryRowContext(ctx,
		`SELECT id, display_name, avatar_url, created_at, updated_at
		 FROM profiles WHERE id = $1`,
		userID,
	).Scan(&profile.ID, &profile.DisplayName, &avatarURL, &profile.CreatedAt, &profile.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("プロフィールの取得に失敗しました: %w", err)
	}

	profile.AvatarURL = nullStringValue(avatarURL)

	return profile, nil
}

// UpdateAvatarURL はプロフィールのavatar_urlを更新する。
func (r *PostgresProfileRepo) UpdateAvatarURL(ctx context.Context, userID, avatarURL string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE profiles SET avatar_url = $2, updated_at = now() WHERE id = $1`,
		userID, nullString(avatarURL),
	)
	if err != nil {
		return fmt.Errorf("アバターURLの更新に失敗しました: %w", err)
	}
	return nil
}

// compile-time interface check
var _ ProfileRepository = (*PostgresProfileRepo)(nil)
