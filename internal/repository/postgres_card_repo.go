package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mizuno/cardbox/internal/model"
)

// PostgresCardRepo はPostgreSQLを使用したカードリポジトリ。
type PostgresCardRepo struct {
	db *sql.DB
}

// NewPostgresCardRepo はPostgresCardRepoを生成する。
func NewPostgresCardRepo(db *sql.DB) *PostgresCardRepo {
	return &PostgresCardRepo{db: db}
}

// Create はカードを作成する。
func (r *PostgresCardRepo) Create(ctx context.Context, card *model.Card) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO cards (id, deck_id, front, back, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		card.ID, card.DeckID, card.Front, card.Back, card.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("カードの作成に失敗しました: %w", err)
	}
	return nil
}

// ListByDeckID は指定デッキのカード一覧をcreated_at昇順で返す。
func (r *PostgresCardRepo) ListByDeckID(ctx context.Context, deckID string) ([]*model.Card, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, deck_id, front, back, created_at
		 FROM cards
		 WHERE deck_id = $1
		 ORDER BY created_at ASC`,
		deckID,
	)
	if err != nil {
		return nil, fmt.Errorf("カード一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var cards []*model.Card
	for rows.Next() {
		card := &model.Card{}
		if err := rows.Scan(
			&card.ID, &card.DeckID, &card.Front, &card.Back, &card.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("カード一覧の読み取りに失敗しました: %w", err)
		}
		cards = append(cards, card)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("カード一覧の走査に失敗しました: %w", err)
	}

	return cards, nil
}

// compile-time interface check
var _ CardRepository = (*PostgresCardRepo)(nil)
