package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/moriyama/asobi/internal/middleware"
	"github.com/moriyama/asobi/internal/model"
	"github.com/moriyama/asobi/internal/user"
)

// UserServiceInterface はユーザーハンドラーが必要とするサービスインターフェース。
type UserServiceInterface interface {
	Get(ctx context.Context, userID string) (*model.User, error)
	UpdateProfile(ctx context.Context, actingUserID, targetUserID string, input user.UpdateProfileInput) (*model.User, error)
	Withdraw(ctx context.Context, actingUserID string) error
}

// UserHandler はユーザープロフィール関連のHTTPハンドラー。
type UserHandler struct {
	service UserServiceInterface
}

// NewUserHandler はUserHandlerを生成する。
func NewUserHandler(service UserServiceInterface) *UserHandler {
	return &UserHandler{service: service}
}

// userView は公開プロフィールのレスポンス表現。
// パスワードハッシュ等の内部フィールドは含めない。
type userView struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

func newUserView(u *model.User) userView {
	return userView{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
	}
}

// Show はユーザーのプロフィールページを返す。認証不要で閲覧できる。
// GET /user/{userID}
func (h *UserHandler) Show(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	u, err := h.service.Get(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	actingUserID, _ := middleware.UserIDFromContext(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"user":    newUserView(u),
		"is_self": actingUserID == u.ID,
	})
}

// ProfileUpdateForm はプロフィール更新フォームを返す。本人以外はアクセスできない。
// GET /user/{userID}/profile_update
func (h *UserHandler) ProfileUpdateForm(w http.ResponseWriter, r *http.Request) {
	targetUserID := chi.URLParam(r, "userID")
	actingUserID, _ := middleware.UserIDFromContext(r.Context())

	if actingUserID != targetUserID {
		redirectUnauthorized(w, r, actingUserID)
		return
	}

	u, err := h.service.Get(r.Context(), targetUserID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"user":   newUserView(u),
		"fields": []string{"username", "email", "current_password"},
	})
}

// ProfileUpdate はプロフィール更新を処理する。現在のパスワードによる再認証を要求する。
// POST /user/{userID}/profile_update
func (h *UserHandler) ProfileUpdate(w http.ResponseWriter, r *http.Request) {
	targetUserID := chi.URLParam(r, "userID")
	actingUserID, _ := middleware.UserIDFromContext(r.Context())

	input := user.UpdateProfileInput{
		Username:        r.PostFormValue("username"),
		Email:           r.PostFormValue("email"),
		CurrentPassword: r.PostFormValue("current_password"),
	}

	_, err := h.service.UpdateProfile(r.Context(), actingUserID, targetUserID, input)
	if err != nil {
		var apiErr *model.APIError
		if asAPIError(err, &apiErr) && apiErr.Code == model.ErrCodeUnauthorized {
			redirectUnauthorized(w, r, actingUserID)
			return
		}
		handleServiceError(w, err)
		return
	}

	http.Redirect(w, r, "/user/"+targetUserID, http.StatusSeeOther)
}

// Withdraw は退会処理を行う。本人のアカウントと関連データを全て削除する。
// POST /user/delete
func (h *UserHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	actingUserID, _ := middleware.UserIDFromContext(r.Context())

	if err := h.service.Withdraw(r.Context(), actingUserID); err != nil {
		handleServiceError(w, err)
		return
	}

	slog.Info("user withdrawn", slog.String("user_id", actingUserID))

	// セッションはWithdraw内で破棄済み。Cookieもクリアする。
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
