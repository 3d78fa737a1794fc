package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mizuno/cardbox/internal/model"
)

// PostgresAvatarRepo はPostgreSQLを使用したアバター画像リポジトリ。
// 画像バイト列をbyteaカラムにそのまま保存する。
type PostgresAvatarRepo struct {
	db *sql.DB
}

// NewPostgresAvatarRepo はPostgresAvatarRepoを生成する。
func NewPostgresAvatarRepo(db *sql.DB) *PostgresAvatarRepo {
	return &PostgresAvatarRepo{db: db}
}

// Create はアバター画像を保存する。
// 過去のアバターは削除せず残す（プロフィールのavatar_urlが最新を指す）。
func (r *PostgresAvatarRepo) Create(ctx context.Context, avatar *model.Avatar) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO avatars (id, user_id, data, mime, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		avatar.ID, avatar.UserID, avatar.Data, avatar.Mime, avatar.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("アバターの保存に失敗しました: %w", err)
	}
	return nil
}

// FindLatestByUserID は指定ユーザーの最新アバターを取得する。
// 見つからない場合、またはIDがuuid形式でない場合はnilを返す。
func (r *PostgresAvatarRepo) FindLatestByUserID(ctx context.Context, userID string) (*model.Avatar, error) {
	avatar := &model.Avatar{}

	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, data, mime, created_at
		 FROM avatars
		 WHERE user_id = $1
		 ORDER BY created_at DESC
		 LIMIT 1`,
		userID,
	).Scan(&avatar.ID, &avatar.UserID, &avatar.Data, &avatar.Mime, &avatar.CreatedAt)

	if err == sql.ErrNoRows || isInvalidUUIDInput(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("アバターの取得に失敗しました: %w", err)
	}

	return avatar, nil
}

// compile-time interface check
var _ AvatarRepository = (*PostgresAvatarRepo)(nil)
