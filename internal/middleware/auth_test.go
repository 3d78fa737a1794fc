package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mizuno/cardbox/internal/model"
)

// --- モック定義 ---

type mockTokenVerifier struct {
	verifyTokenFn func(ctx context.Context, token string) (*model.Identity, error)
	callCount     int
}

func (m *mockTokenVerifier) VerifyToken(ctx context.Context, token string) (*model.Identity, error) {
	m.callCount++
	if m.verifyTokenFn != nil {
		return m.verifyTokenFn(ctx, token)
	}
	return nil, nil
}

// --- テスト ---

func TestAuthMiddleware_ValidToken_InjectsIdentity(t *testing.T) {
	verifier := &mockTokenVerifier{
		verifyTokenFn: func(ctx context.Context, token string) (*model.Identity, error) {
			if token == "valid-token" {
				return &model.Identity{ID: "user-123", Email: "alice@example.com"}, nil
			}
			return nil, errors.New("unknown token")
		},
	}

	mw := NewAuthMiddleware(verifier)

	var captured *model.Identity
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, err := IdentityFromContext(r.Context())
		if err != nil {
			t.Errorf("expected no error, got %v", err)
		}
		captured = identity
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/decks", nil)
	req.Header.Set("Authorization", "Bearer valid-token")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	if captured == nil || captured.ID != "user-123" {
		t.Errorf("identity = %+v, want ID user-123", captured)
	}
	if captured.Email != "alice@example.com" {
		t.Errorf("email = %q, want %q", captured.Email, "alice@example.com")
	}
}

func TestAuthMiddleware_NoAuthorizationHeader_Returns401WithoutVerifierCall(t *testing.T) {
	verifier := &mockTokenVerifier{}
	mw := NewAuthMiddleware(verifier)

	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/decks", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusUnauthorized)
	}
	if verifier.callCount != 0 {
		t.Errorf("verifier call count = %d, want 0", verifier.callCount)
	}
}

func TestAuthMiddleware_WrongPrefix_Returns401WithoutVerifierCall(t *testing.T) {
	// 接頭辞は大文字小文字を区別し、スペースは1つのみ許容する
	prefixes := []string{
		"bearer valid-token",
		"BEARER valid-token",
		"Basic dXNlcjpwYXNz",
		"Token valid-token",
		"Bearervalid-token",
	}

	for _, header := range prefixes {
		t.Run(header, func(t *testing.T) {
			verifier := &mockTokenVerifier{
				verifyTokenFn: func(ctx context.Context, token string) (*model.Identity, error) {
					return &model.Identity{ID: "user-123"}, nil
				},
			}
			mw := NewAuthMiddleware(verifier)

			handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Fatal("handler should not be called")
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/decks", nil)
			req.Header.Set("Authorization", header)
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			resp := w.Result()
			if resp.StatusCode != http.StatusUnauthorized {
				t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusUnauthorized)
			}
		})
	}
}

func TestAuthMiddleware_EmptyToken_Returns401WithoutVerifierCall(t *testing.T) {
	verifier := &mockTokenVerifier{}
	mw := NewAuthMiddleware(verifier)

	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/decks", nil)
	req.Header.Set("Authorization", "Bearer ")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusUnauthorized)
	}
	if verifier.callCount != 0 {
		t.Errorf("verifier call count = %d, want 0", verifier.callCount)
	}
}

func TestAuthMiddleware_VerifierError_Returns401(t *testing.T) {
	verifier := &mockTokenVerifier{
		verifyTokenFn: func(ctx context.Context, token string) (*model.Identity, error) {
			return nil, errors.New("signature verification failed")
		},
	}
	mw := NewAuthMiddleware(verifier)

	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/decks", nil)
	req.Header.Set("Authorization", "Bearer bad-token")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusUnauthorized)
	}
	if verifier.callCount != 1 {
		t.Errorf("verifier call count = %d, want 1", verifier.callCount)
	}
}

func TestAuthMiddleware_NilIdentityWithoutError_Returns401(t *testing.T) {
	// 検証が「成功」してもIdentityが解決されなければ認証失敗として扱う
	verifier := &mockTokenVerifier{
		verifyTokenFn: func(ctx context.Context, token string) (*model.Identity, error) {
			return nil, nil
		},
	}
	mw := NewAuthMiddleware(verifier)

	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/decks", nil)
	req.Header.Set("Authorization", "Bearer some-token")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusUnauthorized)
	}
}

func TestAuthMiddleware_UnauthenticatedResponsesAreIdentical(t *testing.T) {
	// トークン未提示と検証失敗のレスポンスがバイト単位で一致することを確認する。
	// クライアントは失敗理由を区別できてはならない。
	verifier := &mockTokenVerifier{
		verifyTokenFn: func(ctx context.Context, token string) (*model.Identity, error) {
			return nil, errors.New("token expired")
		},
	}
	mw := NewAuthMiddleware(verifier)

	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called")
	}))

	missingReq := httptest.NewRequest(http.MethodGet, "/api/decks", nil)
	missingRec := httptest.NewRecorder()
	handler.ServeHTTP(missingRec, missingReq)

	invalidReq := httptest.NewRequest(http.MethodGet, "/api/decks", nil)
	invalidReq.Header.Set("Authorization", "Bearer expired-token")
	invalidRec := httptest.NewRecorder()
	handler.ServeHTTP(invalidRec, invalidReq)

	if missingRec.Code != invalidRec.Code {
		t.Errorf("status codes differ: %d vs %d", missingRec.Code, invalidRec.Code)
	}
	if missingRec.Body.String() != invalidRec.Body.String() {
		t.Errorf("bodies differ: %q vs %q", missingRec.Body.String(), invalidRec.Body.String())
	}
	if got := missingRec.Header().Get("Content-Type"); got != invalidRec.Header().Get("Content-Type") {
		t.Errorf("content types differ: %q vs %q", got, invalidRec.Header().Get("Content-Type"))
	}
}

func TestIdentityFromContext_NoValue_ReturnsError(t *testing.T) {
	ctx := context.Background()
	_, err := IdentityFromContext(ctx)
	if err == nil {
		t.Error("expected error for missing identity in context")
	}
}

func TestIdentityFromContext_ValidValue_ReturnsIdentity(t *testing.T) {
	want := &model.Identity{ID: "user-456", Email: "bob@example.com"}
	ctx := ContextWithIdentity(context.Background(), want)

	identity, err := IdentityFromContext(ctx)
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if identity.ID != want.ID || identity.Email != want.Email {
		t.Errorf("identity = %+v, want %+v", identity, want)
	}
}
