package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/mizuno/cardbox/internal/middleware"
	"github.com/mizuno/cardbox/internal/model"
)

// --- モック定義 ---

type mockDeckService struct {
	createDeckFn       func(ctx context.Context, ownerID, title, description string, isPublic bool) (*model.Deck, error)
	listDecksFn        func(ctx context.Context, ownerID string) ([]*model.Deck, error)
	getDeckWithCardsFn func(ctx context.Context, viewerID, deckID string) (*model.Deck, []*model.Card, error)
	addCardFn          func(ctx context.Context, ownerID, deckID, front, back string) (*model.Card, error)
	getStatsFn         func(ctx context.Context, viewerID, deckID string) (*model.DeckStats, error)
	rateDeckFn         func(ctx context.Context, userID, deckID string, score int) (*model.Rating, error)
	searchPublicFn     func(ctx context.Context, q string) ([]*model.PublicDeck, error)
}

func (m *mockDeckService) CreateDeck(ctx context.Context, ownerID, title, description string, isPublic bool) (*model.Deck, error) {
	if m.createDeckFn != nil {
		return m.createDeckFn(ctx, ownerID, title, description, isPublic)
	}
	return nil, nil
}

func (m *mockDeckService) ListDecks(ctx context.Context, ownerID string) ([]*model.Deck, error) {
	if m.listDecksFn != nil {
		return m.listDecksFn(ctx, ownerID)
	}
	return nil, nil
}

func (m *mockDeckService) GetDeckWithCards(ctx context.Context, viewerID, deckID string) (*model.Deck, []*model.Card, error) {
	if m.getDeckWithCardsFn != nil {
		return m.getDeckWithCardsFn(ctx, viewerID, deckID)
	}
	return nil, nil, nil
}

func (m *mockDeckService) AddCard(ctx context.Context, ownerID, deckID, front, back string) (*model.Card, error) {
	if m.addCardFn != nil {
		return m.addCardFn(ctx, ownerID, deckID, front, back)
	}
	return nil, nil
}

func (m *mockDeckService) GetStats(ctx context.Context, viewerID, deckID string) (*model.DeckStats, error) {
	if m.getStatsFn != nil {
		return m.getStatsFn(ctx, viewerID, deckID)
	}
	return nil, nil
}

func (m *mockDeckService) RateDeck(ctx context.Context, userID, deckID string, score int) (*model.Rating, error) {
	if m.rateDeckFn != nil {
		return m.rateDeckFn(ctx, userID, deckID, score)
	}
	return nil, nil
}

func (m *mockDeckService) SearchPublic(ctx context.Context, q string) ([]*model.PublicDeck, error) {
	if m.searchPublicFn != nil {
		return m.searchPublicFn(ctx, q)
	}
	return nil, nil
}

// authedRequest は認証済みIdentityをコンテキストに注入したリクエストを生成する。
func authedRequest(t *testing.T, method, target, body, userID string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	ctx := middleware.ContextWithIdentity(req.Context(), &model.Identity{ID: userID, Email: userID + "@example.com"})
	return req.WithContext(ctx)
}

// withURLParam はchiのURLパラメータをリクエストコンテキストに設定する。
func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// --- テスト ---

func TestCreateDeckHandler_Success_Returns201(t *testing.T) {
	service := &mockDeckService{
		createDeckFn: func(ctx context.Context, ownerID, title, description string, isPublic bool) (*model.Deck, error) {
			return &model.Deck{ID: "deck-1", OwnerID: ownerID, Title: title, IsPublic: isPublic}, nil
		},
	}
	h := NewDeckHandler(service)

	req := authedRequest(t, http.MethodPost, "/api/decks", `{"title":"Spanish","is_public":true}`, "user-1")
	w := httptest.NewRecorder()

	h.CreateDeck(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusCreated {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusCreated)
	}

	var res deckResponse
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if res.OwnerID != "user-1" {
		t.Errorf("owner ID = %q, want the authenticated user", res.OwnerID)
	}
}

func TestCreateDeckHandler_NoIdentity_Returns401(t *testing.T) {
	h := NewDeckHandler(&mockDeckService{})

	req := httptest.NewRequest(http.MethodPost, "/api/decks", strings.NewReader(`{"title":"x"}`))
	w := httptest.NewRecorder()

	h.CreateDeck(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestListDecksHandler_ScopesToAuthenticatedUser(t *testing.T) {
	var capturedOwnerID string
	service := &mockDeckService{
		listDecksFn: func(ctx context.Context, ownerID string) ([]*model.Deck, error) {
			capturedOwnerID = ownerID
			return []*model.Deck{{ID: "deck-1", OwnerID: ownerID}}, nil
		},
	}
	h := NewDeckHandler(service)

	req := authedRequest(t, http.MethodGet, "/api/decks", "", "user-1")
	w := httptest.NewRecorder()

	h.ListDecks(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if capturedOwnerID != "user-1" {
		t.Errorf("owner scope = %q, want %q", capturedOwnerID, "user-1")
	}
}

func TestListDecksHandler_Empty_ReturnsEmptyArray(t *testing.T) {
	h := NewDeckHandler(&mockDeckService{})

	req := authedRequest(t, http.MethodGet, "/api/decks", "", "user-1")
	w := httptest.NewRecorder()

	h.ListDecks(w, req)

	if got := strings.TrimSpace(w.Body.String()); got != "[]" {
		t.Errorf("body = %q, want empty JSON array, not null", got)
	}
}

func TestGetDeckHandler_ReturnsDeckAndCards(t *testing.T) {
	service := &mockDeckService{
		getDeckWithCardsFn: func(ctx context.Context, viewerID, deckID string) (*model.Deck, []*model.Card, error) {
			return &model.Deck{ID: deckID, OwnerID: "user-1", Title: "Spanish"},
				[]*model.Card{{ID: "card-1", DeckID: deckID, Front: "hola", Back: "hello"}},
				nil
		},
	}
	h := NewDeckHandler(service)

	req := withURLParam(authedRequest(t, http.MethodGet, "/api/decks/deck-1", "", "user-1"), "id", "deck-1")
	w := httptest.NewRecorder()

	h.GetDeck(w, req)

	var res struct {
		Deck  deckResponse   `json:"deck"`
		Cards []cardResponse `json:"cards"`
	}
	if err := json.NewDecoder(w.Body).Decode(&res); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if res.Deck.ID != "deck-1" {
		t.Errorf("deck ID = %q", res.Deck.ID)
	}
	if len(res.Cards) != 1 || res.Cards[0].Front != "hola" {
		t.Errorf("cards = %+v", res.Cards)
	}
}

func TestGetDeckHandler_InvisibleDeck_Returns404(t *testing.T) {
	service := &mockDeckService{
		getDeckWithCardsFn: func(ctx context.Context, viewerID, deckID string) (*model.Deck, []*model.Card, error) {
			return nil, nil, model.NewNotFoundError("Deck not found")
		},
	}
	h := NewDeckHandler(service)

	req := withURLParam(authedRequest(t, http.MethodGet, "/api/decks/deck-1", "", "user-2"), "id", "deck-1")
	w := httptest.NewRecorder()

	h.GetDeck(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestAddCardHandler_Success_Returns201(t *testing.T) {
	service := &mockDeckService{
		addCardFn: func(ctx context.Context, ownerID, deckID, front, back string) (*model.Card, error) {
			return &model.Card{ID: "card-1", DeckID: deckID, Front: front, Back: back}, nil
		},
	}
	h := NewDeckHandler(service)

	req := withURLParam(
		authedRequest(t, http.MethodPost, "/api/decks/deck-1/cards", `{"front":"hola","back":"hello"}`, "user-1"),
		"id", "deck-1")
	w := httptest.NewRecorder()

	h.AddCard(w, req)

	if w.Code != http.StatusCreated {
		t.Errorf("status = %d, want %d", w.Code, http.StatusCreated)
	}
}

func TestGetStatsHandler_ReturnsAggregates(t *testing.T) {
	service := &mockDeckService{
		getStatsFn: func(ctx context.Context, viewerID, deckID string) (*model.DeckStats, error) {
			return &model.DeckStats{CardCount: 7, RatingCount: 2, AvgRating: 3.5}, nil
		},
	}
	h := NewDeckHandler(service)

	req := withURLParam(authedRequest(t, http.MethodGet, "/api/decks/deck-1/stats", "", "user-1"), "id", "deck-1")
	w := httptest.NewRecorder()

	h.GetStats(w, req)

	var res statsResponse
	if err := json.NewDecoder(w.Body).Decode(&res); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if res.CardCount != 7 || res.RatingCount != 2 || res.AvgRating != 3.5 {
		t.Errorf("stats = %+v", res)
	}
}

func TestRateDeckHandler_Success_Returns201(t *testing.T) {
	service := &mockDeckService{
		rateDeckFn: func(ctx context.Context, userID, deckID string, score int) (*model.Rating, error) {
			return &model.Rating{ID: "rating-1", DeckID: deckID, UserID: userID, Score: score}, nil
		},
	}
	h := NewDeckHandler(service)

	req := withURLParam(
		authedRequest(t, http.MethodPost, "/api/decks/deck-1/ratings", `{"score":4}`, "user-2"),
		"id", "deck-1")
	w := httptest.NewRecorder()

	h.RateDeck(w, req)

	if w.Code != http.StatusCreated {
		t.Errorf("status = %d, want %d", w.Code, http.StatusCreated)
	}

	var res struct {
		Rating ratingResponse `json:"rating"`
	}
	if err := json.NewDecoder(w.Body).Decode(&res); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if res.Rating.Score != 4 {
		t.Errorf("score = %d, want 4", res.Rating.Score)
	}
}

func TestRateDeckHandler_InvalidScore_Returns400(t *testing.T) {
	service := &mockDeckService{
		rateDeckFn: func(ctx context.Context, userID, deckID string, score int) (*model.Rating, error) {
			return nil, model.NewValidationError("score must be between 1 and 5")
		},
	}
	h := NewDeckHandler(service)

	req := withURLParam(
		authedRequest(t, http.MethodPost, "/api/decks/deck-1/ratings", `{"score":9}`, "user-2"),
		"id", "deck-1")
	w := httptest.NewRecorder()

	h.RateDeck(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestSearchPublicDecksHandler_PassesQuery(t *testing.T) {
	var capturedQuery string
	service := &mockDeckService{
		searchPublicFn: func(ctx context.Context, q string) ([]*model.PublicDeck, error) {
			capturedQuery = q
			return []*model.PublicDeck{
				{
					Deck:  model.Deck{ID: "deck-1", OwnerID: "user-1", Title: "Spanish Basics", IsPublic: true},
					Owner: model.DeckOwner{ID: "user-1", DisplayName: "Alice"},
				},
			}, nil
		},
	}
	h := NewDeckHandler(service)

	req := httptest.NewRequest(http.MethodGet, "/api/public-decks?q=spanish", nil)
	w := httptest.NewRecorder()

	h.SearchPublicDecks(w, req)

	if capturedQuery != "spanish" {
		t.Errorf("query = %q, want %q", capturedQuery, "spanish")
	}

	var res []publicDeckResponse
	if err := json.NewDecoder(w.Body).Decode(&res); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(res) != 1 || res[0].Owner.DisplayName != "Alice" {
		t.Errorf("response = %+v", res)
	}
}
