package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/moriyama/asobi/internal/model"
)

type mockSessionFinder struct {
	findByIDFn func(ctx context.Context, id string) (*model.Session, error)
}

func (m *mockSessionFinder) FindByID(ctx context.Context, id string) (*model.Session, error) {
	return m.findByIDFn(ctx, id)
}

func nextHandler(t *testing.T, wantUserID string, called *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		userID, err := UserIDFromContext(r.Context())
		if wantUserID == "" {
			if err == nil {
				t.Errorf("expected anonymous context, got userID %q", userID)
			}
			return
		}
		if err != nil || userID != wantUserID {
			t.Errorf("userID = %q (err %v), want %q", userID, err, wantUserID)
		}
	})
}

// TestSessionMiddleware_ValidSession は有効なセッションでユーザーIDが
// コンテキストに注入されることを検証する。
func TestSessionMiddleware_ValidSession(t *testing.T) {
	finder := &mockSessionFinder{
		findByIDFn: func(ctx context.Context, id string) (*model.Session, error) {
			return &model.Session{ID: id, UserID: "user-1"}, nil
		},
	}

	called := false
	handler := NewSessionMiddleware(finder)(nextHandler(t, "user-1", &called))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "session-1"})
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if !called {
		t.Fatal("expected next handler to be called")
	}
}

// TestSessionMiddleware_NoCookie はCookie不在で401が返ることを検証する。
func TestSessionMiddleware_NoCookie(t *testing.T) {
	finder := &mockSessionFinder{
		findByIDFn: func(ctx context.Context, id string) (*model.Session, error) {
			t.Fatal("FindByID should not be called without a cookie")
			return nil, nil
		},
	}

	called := false
	handler := NewSessionMiddleware(finder)(nextHandler(t, "", &called))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if called {
		t.Fatal("next handler must not be called")
	}
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

// TestSessionMiddleware_UnknownSession は不明なセッションIDで401が返ることを検証する。
func TestSessionMiddleware_UnknownSession(t *testing.T) {
	finder := &mockSessionFinder{
		findByIDFn: func(ctx context.Context, id string) (*model.Session, error) {
			return nil, nil
		},
	}

	called := false
	handler := NewSessionMiddleware(finder)(nextHandler(t, "", &called))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "no-such"})
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if called {
		t.Fatal("next handler must not be called")
	}
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

// TestSessionMiddleware_LookupError はセッション検索失敗で500が返ることを検証する。
func TestSessionMiddleware_LookupError(t *testing.T) {
	finder := &mockSessionFinder{
		findByIDFn: func(ctx context.Context, id string) (*model.Session, error) {
			return nil, errors.New("store unavailable")
		},
	}

	called := false
	handler := NewSessionMiddleware(finder)(nextHandler(t, "", &called))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "session-1"})
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if called {
		t.Fatal("next handler must not be called")
	}
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
}

// TestOptionalSessionMiddleware_Anonymous はCookie不在でも匿名として
// リクエストが通ることを検証する。
func TestOptionalSessionMiddleware_Anonymous(t *testing.T) {
	finder := &mockSessionFinder{
		findByIDFn: func(ctx context.Context, id string) (*model.Session, error) {
			return nil, nil
		},
	}

	called := false
	handler := NewOptionalSessionMiddleware(finder)(nextHandler(t, "", &called))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if !called {
		t.Fatal("expected next handler to be called for anonymous request")
	}
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
}

// TestOptionalSessionMiddleware_LoggedIn は有効なセッションでユーザーIDが
// 注入されることを検証する。
func TestOptionalSessionMiddleware_LoggedIn(t *testing.T) {
	finder := &mockSessionFinder{
		findByIDFn: func(ctx context.Context, id string) (*model.Session, error) {
			return &model.Session{ID: id, UserID: "user-1"}, nil
		},
	}

	called := false
	handler := NewOptionalSessionMiddleware(finder)(nextHandler(t, "user-1", &called))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "session-1"})
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if !called {
		t.Fatal("expected next handler to be called")
	}
}
