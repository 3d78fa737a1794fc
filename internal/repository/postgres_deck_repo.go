package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mizuno/cardbox/internal/model"
)

// PostgresDeckRepo はPostgreSQLを使用したデッキリポジトリ。
type PostgresDeckRepo struct {
	db *sql.DB
}

// NewPostgresDeckRepo はPostgresDeckRepoを生成する。
func NewPostgresDeckRepo(db *sql.DB) *PostgresDeckRepo {
	return &PostgresDeckRepo{db: db}
}

// Create はデッキを作成する。owner_idは呼び出し側で設定済みであること。
func (r *PostgresDeckRepo) Create(ctx context.Context, deck *model.Deck) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO decks (id, owner_id, title, description, is_public, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		deck.ID, deck.OwnerID, deck.Title, deck.Description, deck.IsPublic,
		deck.CreatedAt, deck.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("デッキの作成に失敗しました: %w", err)
	}
	return nil
}

// FindByID は指定IDのデッキを取得する。
// 見つからない場合、またはIDがuuid形式でない場合はnilを返す。
func (r *PostgresDeckRepo) FindByID(ctx context.Context, id string) (*model.Deck, error) {
	deck := &model.Deck{}

	err := r.db.QueryRowContext(ctx,
		`SELECT id, owner_id, title, description, is_public, created_at, updated_at
		 FROM decks WHERE id = $1`,
		id,
	).Scan(
		&deck.ID, &deck.OwnerID, &deck.Title, &deck.Description, &deck.IsPublic,
		&deck.CreatedAt, &deck.UpdatedAt,
	)

	if err == sql.ErrNoRows || isInvalidUUIDInput(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("デッキの取得に失敗しました: %w", err)
	}

	return deck, nil
}

// ListByOwnerID は指定ユーザーが所有するデッキをcreated_at降順で返す。
func (r *PostgresDeckRepo) ListByOwnerID(ctx context.Context, ownerID string) ([]*model.Deck, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, owner_id, title, description, is_public, created_at, updated_at
		 FROM decks
		 WHERE owner_id = $1
		 ORDER BY created_at DESC`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("デッキ一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var decks []*model.Deck
	for rows.Next() {
		deck := &model.Deck{}
		if err := rows.Scan(
			&deck.ID, &deck.OwnerID, &deck.Title, &deck.Description, &deck.IsPublic,
			&deck.CreatedAt, &deck.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("デッキ一覧の読み取りに失敗しました: %w", err)
		}
		decks = append(decks, deck)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("デッキ一覧の走査に失敗しました: %w", err)
	}

	return decks, nil
}

// SearchPublic は公開デッキを作成者ラベル付きでcreated_at降順で返す。
// qが空でない場合、タイトルのILIKE部分一致で絞り込む。
// is_public = trueの条件はqの有無に関わらず常に適用される。
func (r *PostgresDeckRepo) SearchPublic(ctx context.Context, q string) ([]*model.PublicDeck, error) {
	query := `SELECT d.id, d.owner_id, d.title, d.description, d.is_public,
	                 d.created_at, d.updated_at, p.id, p.display_name
	          FROM decks d
	          INNER JOIN profiles p ON d.owner_id = p.id
	          WHERE d.is_public = true`
	args := []any{}

	if q != "" {
		query += ` AND d.title ILIKE $1`
		args = append(args, "%"+q+"%")
	}
	query += ` ORDER BY d.created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("公開デッキの検索に失敗しました: %w", err)
	}
	defer rows.Close()

	var decks []*model.PublicDeck
	for rows.Next() {
		deck := &model.PublicDeck{}
		if err := rows.Scan(
			&deck.ID, &deck.OwnerID, &deck.Title, &deck.Description, &deck.IsPublic,
			&deck.CreatedAt, &deck.UpdatedAt, &deck.Owner.ID, &deck.Owner.DisplayName,
		); err != nil {
			return nil, fmt.Errorf("公開デッキの読み取りに失敗しました: %w", err)
		}
		decks = append(decks, deck)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("公開デッキの走査に失敗しました: %w", err)
	}

	return decks, nil
}

// StatsByDeckID はデッキの集計統計（カード数・評価数・平均評価）を返す。
// 評価が1件もない場合、avg_ratingは0となる。
func (r *PostgresDeckRepo) StatsByDeckID(ctx context.Context, deckID string) (*model.DeckStats, error) {
	stats := &model.DeckStats{}

	err := r.db.QueryRowContext(ctx,
		`SELECT
		    (SELECT count(*) FROM cards WHERE deck_id = $1),
		    (SELECT count(*) FROM ratings WHERE deck_id = $1),
		    (SELECT COALESCE(avg(score), 0) FROM ratings WHERE deck_id = $1)`,
		deckID,
	).Scan(&stats.CardCount, &stats.RatingCount, &stats.AvgRating)

	if err != nil {
		return nil, fmt.Errorf("デッキ統計の取得に失敗しました: %w", err)
	}

	return stats, nil
}

// compile-time interface check
var _ DeckRepository = (*PostgresDeckRepo)(nil)
