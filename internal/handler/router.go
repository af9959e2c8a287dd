package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/moriyama/asobi/internal/metrics"
	"github.com/moriyama/asobi/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	SessionFinder middleware.SessionFinder
	RateLimiter   *middleware.RateLimiter
	CSRFConfig    middleware.CSRFConfig
	Logger        *slog.Logger

	// 認証
	AuthService AuthServiceInterface
	AuthConfig  AuthHandlerConfig

	// 検索
	SearchStrategy SearchStrategyInterface
	Recommender    RandomRecommender

	// アクティビティ
	ActivityService ActivityServiceInterface

	// ユーザー
	UserService UserServiceInterface

	// メトリクス
	MetricsGatherer prometheus.Gatherer

	// ヘルスチェック
	HealthChecker func() error
}

// NewRouter は全エンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → Logging → SecurityHeaders → CSRF → Session → RateLimit(General)
//
// ページ系ルート（/、/user/*）はセッション任意で、認可チェックは各ハンドラーが行う。
// /health と /metrics はミドルウェアチェーンの外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	r.Use(middleware.NewSecurityHeadersMiddleware())

	authHandler := NewAuthHandler(deps.AuthService, deps.AuthConfig)
	searchHandler := NewSearchHandler(deps.SearchStrategy, deps.Recommender)
	activityHandler := NewActivityHandler(deps.ActivityService)
	userHandler := NewUserHandler(deps.UserService)

	// --- 運用エンドポイント（CSRF・セッション対象外） ---

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		if deps.HealthChecker != nil {
			if err := deps.HealthChecker(); err != nil {
				http.Error(w, "unhealthy", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	if deps.MetricsGatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.MetricsGatherer))
	}

	// --- アプリケーションルート ---

	r.Group(func(r chi.Router) {
		r.Use(middleware.NewCSRFMiddleware(deps.CSRFConfig))

		// 認証不要のルート
		r.Group(func(r chi.Router) {
			r.Use(middleware.NewOptionalSessionMiddleware(deps.SessionFinder))

			r.Get("/", searchHandler.Home)

			r.Get("/signup", authHandler.SignupForm)
			r.Post("/signup", authHandler.Signup)
			r.Get("/login", authHandler.LoginForm)
			r.Post("/login", authHandler.Login)
			r.Get("/logout", authHandler.Logout)
			r.Get("/auth/me", authHandler.Me)

			// プロフィールページは誰でも閲覧できる
			r.Get("/user/{userID}", userHandler.Show)
		})

		// 認証が必要なルート
		// ミドルウェアスタック: Session → RateLimit(General)
		r.Group(func(r chi.Router) {
			r.Use(middleware.NewSessionMiddleware(deps.SessionFinder))
			r.Use(deps.RateLimiter.GeneralMiddleware())

			// アクティビティ検索
			r.Get("/api/activity", searchHandler.Random)

			// 条件付き検索（検索専用レート制限を追加）
			r.With(deps.RateLimiter.SearchMiddleware()).Get("/api/activity2", searchHandler.Search)
			r.With(deps.RateLimiter.SearchMiddleware()).Post("/api/activity2", searchHandler.Search)

			// アクティビティ管理
			r.Post("/activity/save", activityHandler.Save)
			r.Post("/activity/ignore", activityHandler.Ignore)
			r.Post("/activity/{ignoredID}/remove", activityHandler.RemoveIgnored)
			r.Get("/api/set_completed", activityHandler.SetCompleted)
			r.Post("/api/set_completed", activityHandler.SetCompleted)

			// ユーザーページ
			r.Route("/user/{userID}", func(r chi.Router) {
				r.Get("/new_activity", activityHandler.NewActivityForm)
				r.Get("/saved_activity", activityHandler.SavedList)
				r.Get("/completed_activities", activityHandler.CompletedList)
				r.Get("/ignored_activities", activityHandler.IgnoredList)
				r.Get("/profile_update", userHandler.ProfileUpdateForm)
				r.Post("/profile_update", userHandler.ProfileUpdate)
			})

			// 退会
			r.Post("/user/delete", userHandler.Withdraw)
		})
	})

	return r
}
