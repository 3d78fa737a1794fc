package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mizuno/cardbox/internal/middleware"
	"github.com/mizuno/cardbox/internal/model"
)

// DeckServiceInterface はデッキハンドラーが必要とするサービスインターフェース。
type DeckServiceInterface interface {
	// CreateDeck は新しいデッキを作成する。所有者は認証済みIdentityから決まる。
	CreateDeck(ctx context.Context, ownerID, title, description string, isPublic bool) (*model.Deck, error)
	// ListDecks は所有デッキ一覧をcreated_at降順で返す。
	ListDecks(ctx context.Context, ownerID string) ([]*model.Deck, error)
	// GetDeckWithCards はデッキとカード一覧を返す。不可視のデッキは不在として扱う。
	GetDeckWithCards(ctx context.Context, viewerID, deckID string) (*model.Deck, []*model.Card, error)
	// AddCard はデッキにカードを追加する。所有デッキのみ可能。
	AddCard(ctx context.Context, ownerID, deckID, front, back string) (*model.Card, error)
	// GetStats はデッキの集計統計を返す。
	GetStats(ctx context.Context, viewerID, deckID string) (*model.DeckStats, error)
	// RateDeck はデッキを評価する。再評価はスコアを上書きする。
	RateDeck(ctx context.Context, userID, deckID string, score int) (*model.Rating, error)
	// SearchPublic は公開デッキをタイトルで検索する。
	SearchPublic(ctx context.Context, q string) ([]*model.PublicDeck, error)
}

// DeckHandler はデッキ・カード・評価のHTTPハンドラー。
type DeckHandler struct {
	service DeckServiceInterface
}

// NewDeckHandler はDeckHandlerを生成する。
func NewDeckHandler(service DeckServiceInterface) *DeckHandler {
	return &DeckHandler{service: service}
}

// createDeckRequest はデッキ作成リクエストのボディ。
type createDeckRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	IsPublic    bool   `json:"is_public"`
}

// addCardRequest はカード追加リクエストのボディ。
type addCardRequest struct {
	Front string `json:"front"`
	Back  string `json:"back"`
}

// rateDeckRequest はデッキ評価リクエストのボディ。
type rateDeckRequest struct {
	Score int `json:"score"`
}

// deckResponse はデッキ情報のAPIレスポンス。
type deckResponse struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	IsPublic    bool      `json:"is_public"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// cardResponse はカード情報のAPIレスポンス。
type cardResponse struct {
	ID        string    `json:"id"`
	DeckID    string    `json:"deck_id"`
	Front     string    `json:"front"`
	Back      string    `json:"back"`
	CreatedAt time.Time `json:"created_at"`
}

// publicDeckResponse は公開カタログの1エントリのAPIレスポンス。
type publicDeckResponse struct {
	deckResponse
	Owner deckOwnerResponse `json:"owner"`
}

// deckOwnerResponse は公開カタログで表示する作成者ラベル。
type deckOwnerResponse struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// ratingResponse は評価のAPIレスポンス。
type ratingResponse struct {
	ID        string    `json:"id"`
	DeckID    string    `json:"deck_id"`
	UserID    string    `json:"user_id"`
	Score     int       `json:"score"`
	CreatedAt time.Time `json:"created_at"`
}

// statsResponse はデッキ統計のAPIレスポンス。
type statsResponse struct {
	CardCount   int     `json:"card_count"`
	RatingCount int     `json:"rating_count"`
	AvgRating   float64 `json:"avg_rating"`
}

// ListDecks は認証済みユーザーの所有デッキ一覧を返す。
// GET /api/decks
func (h *DeckHandler) ListDecks(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		handleServiceError(w, model.NewUnauthenticatedError())
		return
	}

	decks, err := h.service.ListDecks(r.Context(), identity.ID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	res := make([]deckResponse, 0, len(decks))
	for _, d := range decks {
		res = append(res, toDeckResponse(d))
	}
	writeJSONResponse(w, http.StatusOK, res)
}

// CreateDeck はデッキ作成を処理する。
// POST /api/decks
func (h *DeckHandler) CreateDeck(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		handleServiceError(w, model.NewUnauthenticatedError())
		return
	}

	var req createDeckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handleServiceError(w, model.NewValidationError("invalid request body"))
		return
	}

	deck, err := h.service.CreateDeck(r.Context(), identity.ID, req.Title, req.Description, req.IsPublic)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusCreated, toDeckResponse(deck))
}

// GetDeck はデッキ詳細とカード一覧を返す。
// GET /api/decks/{id}
func (h *DeckHandler) GetDeck(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		handleServiceError(w, model.NewUnauthenticatedError())
		return
	}

	deckID := chi.URLParam(r, "id")

	deck, cards, err := h.service.GetDeckWithCards(r.Context(), identity.ID, deckID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	cardRes := make([]cardResponse, 0, len(cards))
	for _, c := range cards {
		cardRes = append(cardRes, toCardResponse(c))
	}

	writeJSONResponse(w, http.StatusOK, map[string]any{
		"deck":  toDeckResponse(deck),
		"cards": cardRes,
	})
}

// AddCard はデッキへのカード追加を処理する。
// POST /api/decks/{id}/cards
func (h *DeckHandler) AddCard(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		handleServiceError(w, model.NewUnauthenticatedError())
		return
	}

	deckID := chi.URLParam(r, "id")

	var req addCardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handleServiceError(w, model.NewValidationError("invalid request body"))
		return
	}

	card, err := h.service.AddCard(r.Context(), identity.ID, deckID, req.Front, req.Back)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusCreated, toCardResponse(card))
}

// GetStats はデッキの集計統計を返す。
// GET /api/decks/{id}/stats
func (h *DeckHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		handleServiceError(w, model.NewUnauthenticatedError())
		return
	}

	deckID := chi.URLParam(r, "id")

	stats, err := h.service.GetStats(r.Context(), identity.ID, deckID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, statsResponse{
		CardCount:   stats.CardCount,
		RatingCount: stats.RatingCount,
		AvgRating:   stats.AvgRating,
	})
}

// RateDeck はデッキ評価を処理する。
// POST /api/decks/{id}/ratings
func (h *DeckHandler) RateDeck(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		handleServiceError(w, model.NewUnauthenticatedError())
		return
	}

	deckID := chi.URLParam(r, "id")

	var req rateDeckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handleServiceError(w, model.NewValidationError("invalid request body"))
		return
	}

	rating, err := h.service.RateDeck(r.Context(), identity.ID, deckID, req.Score)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusCreated, map[string]any{
		"rating": toRatingResponse(rating),
	})
}

// SearchPublicDecks は公開デッキの検索を処理する。認証不要。
// GET /api/public-decks?q=
func (h *DeckHandler) SearchPublicDecks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")

	decks, err := h.service.SearchPublic(r.Context(), q)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	res := make([]publicDeckResponse, 0, len(decks))
	for _, d := range decks {
		res = append(res, publicDeckResponse{
			deckResponse: toDeckResponse(&d.Deck),
			Owner: deckOwnerResponse{
				ID:          d.Owner.ID,
				DisplayName: d.Owner.DisplayName,
			},
		})
	}
	writeJSONResponse(w, http.StatusOK, res)
}

// --- ヘルパー関数 ---

func toDeckResponse(deck *model.Deck) deckResponse {
	return deckResponse{
		ID:          deck.ID,
		OwnerID:     deck.OwnerID,
		Title:       deck.Title,
		Description: deck.Description,
		IsPublic:    deck.IsPublic,
		CreatedAt:   deck.CreatedAt,
		UpdatedAt:   deck.UpdatedAt,
	}
}

func toCardResponse(card *model.Card) cardResponse {
	return cardResponse{
		ID:        card.ID,
		DeckID:    card.DeckID,
		Front:     card.Front,
		Back:      card.Back,
		CreatedAt: card.CreatedAt,
	}
}

func toRatingResponse(rating *model.Rating) ratingResponse {
	return ratingResponse{
		ID:        rating.ID,
		DeckID:    rating.DeckID,
		UserID:    rating.UserID,
		Score:     rating.Score,
		CreatedAt: rating.CreatedAt,
	}
}
