// Package deck はデッキ・カード・評価に関するビジネスロジックを提供する。
package deck

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/mizuno/cardbox/internal/model"
	"github.com/mizuno/cardbox/internal/repository"
)

// deckNotFoundMessage はデッキ不在と不可視の両方で同一のメッセージを返す。
// 非公開デッキの存在を所有者以外に漏らさない。
const deckNotFoundMessage = "Deck not found"

// TextSanitizer はユーザー入力テキストの無害化インターフェース。
// security.TextSanitizerServiceの部分集合として定義する。
type TextSanitizer interface {
	Sanitize(raw string) string
}

// Service はデッキに関するビジネスロジックを提供する。
type Service struct {
	deckRepo   repository.DeckRepository
	cardRepo   repository.CardRepository
	ratingRepo repository.RatingRepository
	sanitizer  TextSanitizer
}

// NewService はServiceを生成する。
func NewService(
	deckRepo repository.DeckRepository,
	cardRepo repository.CardRepository,
	ratingRepo repository.RatingRepository,
	sanitizer TextSanitizer,
) *Service {
	return &Service{
		deckRepo:   deckRepo,
		cardRepo:   cardRepo,
		ratingRepo: ratingRepo,
		sanitizer:  sanitizer,
	}
}

// CreateDeck は新しいデッキを作成する。
// owner_idはここでサーバー側の解決済みIdentityから設定される
// （クライアントが指定することはできない）。
func (s *Service) CreateDeck(ctx context.Context, ownerID, title, description string, isPublic bool) (*model.Deck, error) {
	title = s.sanitizer.Sanitize(title)
	description = s.sanitizer.Sanitize(description)

	if title == "" {
		return nil, model.NewValidationError("title is required")
	}

	now := time.Now()
	deck := &model.Deck{
		ID:          uuid.New().String(),
		OwnerID:     ownerID,
		Title:       title,
		Description: description,
		IsPublic:    isPublic,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.deckRepo.Create(ctx, deck); err != nil {
		return nil, fmt.Errorf("failed to create deck: %w", err)
	}

	slog.Info("deck created",
		slog.String("deck_id", deck.ID),
		slog.String("owner_id", ownerID),
	)

	return deck, nil
}

// ListDecks は指定ユーザーが所有するデッキ一覧をcreated_at降順で返す。
// 所有者スコープはSQL側で適用される。
func (s *Service) ListDecks(ctx context.Context, ownerID string) ([]*model.Deck, error) {
	decks, err := s.deckRepo.ListByOwnerID(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list decks: %w", err)
	}
	return decks, nil
}

// GetDeckWithCards はデッキとそのカード一覧を取得する。
// 閲覧者が所有者でなく、かつデッキが非公開の場合は不在として扱う。
func (s *Service) GetDeckWithCards(ctx context.Context, viewerID, deckID string) (*model.Deck, []*model.Card, error) {
	deck, err := s.visibleDeck(ctx, viewerID, deckID)
	if err != nil {
		return nil, nil, err
	}

	cards, err := s.cardRepo.ListByDeckID(ctx, deckID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list cards: %w", err)
	}

	return deck, cards, nil
}

// AddCard はデッキにカードを追加する。
// カードの追加はデッキ所有者のみ可能で、他人のデッキは公開されていても
// 不在として扱う。
func (s *Service) AddCard(ctx context.Context, ownerID, deckID, front, back string) (*model.Card, error) {
	front = s.sanitizer.Sanitize(front)
	back = s.sanitizer.Sanitize(back)

	if front == "" || back == "" {
		return nil, model.NewValidationError("front and back are required")
	}

	deck, err := s.deckRepo.FindByID(ctx, deckID)
	if err != nil {
		return nil, fmt.Errorf("failed to find deck: %w", err)
	}
	if deck == nil || deck.OwnerID != ownerID {
		return nil, model.NewNotFoundError(deckNotFoundMessage)
	}

	card := &model.Card{
		ID:        uuid.New().String(),
		DeckID:    deckID,
		Front:     front,
		Back:      back,
		CreatedAt: time.Now(),
	}

	if err := s.cardRepo.Create(ctx, card); err != nil {
		return nil, fmt.Errorf("failed to create card: %w", err)
	}

	return card, nil
}

// SearchPublic は公開デッキを検索する。
// qが空の場合は全公開デッキを返す。非公開デッキはタイトルが一致しても
// 決して含まれない。
func (s *Service) SearchPublic(ctx context.Context, q string) ([]*model.PublicDeck, error) {
	decks, err := s.deckRepo.SearchPublic(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to search public decks: %w", err)
	}
	return decks, nil
}

// GetStats はデッキの集計統計を返す。
// 閲覧者にデッキが見えない場合は不在として扱う。
func (s *Service) GetStats(ctx context.Context, viewerID, deckID string) (*model.DeckStats, error) {
	if _, err := s.visibleDeck(ctx, viewerID, deckID); err != nil {
		return nil, err
	}

	stats, err := s.deckRepo.StatsByDeckID(ctx, deckID)
	if err != nil {
		return nil, fmt.Errorf("failed to get deck stats: %w", err)
	}

	return stats, nil
}

// RateDeck はデッキを評価する。同一ユーザーによる再評価はスコアを上書きする。
func (s *Service) RateDeck(ctx context.Context, userID, deckID string, score int) (*model.Rating, error) {
	if score < 1 || score > 5 {
		return nil, model.NewValidationError("score must be between 1 and 5")
	}

	if _, err := s.visibleDeck(ctx, userID, deckID); err != nil {
		return nil, err
	}

	rating, err := s.ratingRepo.Upsert(ctx, &model.Rating{
		ID:        uuid.New().String(),
		DeckID:    deckID,
		UserID:    userID,
		Score:     score,
		CreatedAt: time.Now(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save rating: %w", err)
	}

	return rating, nil
}

// visibleDeck はデッキを取得し、閲覧者に対する可視性を判定する。
// 所有者または公開デッキのみ可視。不可視のデッキは不在と区別されない。
func (s *Service) visibleDeck(ctx context.Context, viewerID, deckID string) (*model.Deck, error) {
	deck, err := s.deckRepo.FindByID(ctx, deckID)
	if err != nil {
		return nil, fmt.Errorf("failed to find deck: %w", err)
	}
	if deck == nil || (deck.OwnerID != viewerID && !deck.IsPublic) {
		return nil, model.NewNotFoundError(deckNotFoundMessage)
	}
	return deck, nil
}
