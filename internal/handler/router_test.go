package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/moriyama/asobi/internal/middleware"
	"github.com/moriyama/asobi/internal/model"
)

type staticSessionFinder struct {
	sessions map[string]*model.Session
}

func (f *staticSessionFinder) FindByID(ctx context.Context, id string) (*model.Session, error) {
	return f.sessions[id], nil
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	rl := middleware.NewRateLimiter(middleware.DefaultRateLimiterConfig())
	t.Cleanup(rl.Stop)

	deps := &RouterDeps{
		SessionFinder: &staticSessionFinder{
			sessions: map[string]*model.Session{
				"session-1": {ID: "session-1", UserID: "user-1"},
			},
		},
		RateLimiter: rl,
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),

		AuthService: &mockAuthService{},
		AuthConfig:  testAuthConfig(),

		SearchStrategy: &mockSearchStrategy{},
		Recommender: &mockRecommender{
			randomFn: func(ctx context.Context) (*model.Recommendation, error) {
				return &model.Recommendation{Title: "Go kayaking", ExternalKey: "8557562"}, nil
			},
		},

		ActivityService: &mockActivityService{},
		UserService: &mockUserService{
			getFn: func(ctx context.Context, userID string) (*model.User, error) {
				return &model.User{ID: userID, Username: "taro"}, nil
			},
		},

		MetricsGatherer: prometheus.NewRegistry(),
		HealthChecker:   func() error { return nil },
	}

	return NewRouter(deps)
}

// TestRouter_Health はヘルスチェックエンドポイントを検証する。
func TestRouter_Health(t *testing.T) {
	router := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
}

// TestRouter_Metrics はメトリクスエンドポイントを検証する。
func TestRouter_Metrics(t *testing.T) {
	router := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
}

// TestRouter_Home_Anonymous は未ログインのホームアクセスがログインページへ
// 誘導されることを検証する。
func TestRouter_Home_Anonymous(t *testing.T) {
	router := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusSeeOther)
	}
	if loc := w.Header().Get("Location"); loc != "/login" {
		t.Errorf("Location = %q, want %q", loc, "/login")
	}
}

// TestRouter_AuthenticatedRoute_NoSession はセッションなしの保護ルートアクセスが
// 401になることを検証する。
func TestRouter_AuthenticatedRoute_NoSession(t *testing.T) {
	router := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/activity", nil))

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

// TestRouter_AuthenticatedRoute_WithSession は有効なセッションで保護ルートに
// アクセスできることを検証する。
func TestRouter_AuthenticatedRoute_WithSession(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/activity", nil)
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: "session-1"})
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
}

// TestRouter_Post_WithoutCSRFToken はCSRFトークンなしのPOSTが403になることを検証する。
func TestRouter_Post_WithoutCSRFToken(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/activity/save", nil)
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: "session-1"})
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusForbidden)
	}
}

// TestRouter_PublicProfile は未ログインでもプロフィールページが閲覧できることを検証する。
func TestRouter_PublicProfile(t *testing.T) {
	router := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/user/user-1", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
}
