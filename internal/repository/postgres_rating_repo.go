package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mizuno/cardbox/internal/model"
)

// PostgresRatingRepo はPostgreSQLを使用したデッキ評価リポジトリ。
type PostgresRatingRepo struct {
	db *sql.DB
}

// NewPostgresRatingRepo はPostgresRatingRepoを生成する。
func NewPostgresRatingRepo(db *sql.DB) *PostgresRatingRepo {
	return &PostgresRatingRepo{db: db}
}

// Upsert は評価を冪等にUPSERTする。
// 同一ユーザー・同一デッキの既存評価はスコアのみ上書きし、IDは維持される。
func (r *PostgresRatingRepo) Upsert(ctx context.Context, rating *model.Rating) (*model.Rating, error) {
	saved := &model.Rating{}

	err := r.db.QueryRowContext(ctx,
		`INSERT INTO ratings (id, deck_id, user_id, score, created_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (deck_id, user_id)
		 DO UPDATE SET score = EXCLUDED.score
		 RETURNING id, deck_id, user_id, score, created_at`,
		rating.ID, rating.DeckID, rating.UserID, rating.Score, rating.CreatedAt,
	).Scan(&saved.ID, &saved.DeckID, &saved.UserID, &saved.Score, &saved.CreatedAt)

	if err != nil {
		return nil, fmt.Errorf("評価の保存に失敗しました: %w", err)
	}

	return saved, nil
}

// compile-time interface check
var _ RatingRepository = (*PostgresRatingRepo)(nil)
