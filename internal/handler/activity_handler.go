package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/moriyama/asobi/internal/activity"
	"github.com/moriyama/asobi/internal/middleware"
	"github.com/moriyama/asobi/internal/model"
)

// activityTypes はレコメンドサービスが提供するアクティビティ種類の一覧。
var activityTypes = []string{
	"education",
	"recreational",
	"social",
	"diy",
	"charity",
	"cooking",
	"relaxation",
	"music",
	"busywork",
}

// ActivityServiceInterface はアクティビティハンドラーが必要とするサービスインターフェース。
type ActivityServiceInterface interface {
	Save(ctx context.Context, actingUserID string, input activity.SaveInput) (*model.Activity, error)
	Ignore(ctx context.Context, actingUserID, title, externalKey string) (*model.IgnoredActivity, error)
	SetCompleted(ctx context.Context, actingUserID, activityID string, isCompleted bool) error
	RemoveIgnored(ctx context.Context, actingUserID, ignoredID string) error
	SavedList(ctx context.Context, actingUserID, ownerUserID string) ([]*model.Activity, error)
	CompletedList(ctx context.Context, actingUserID, ownerUserID string) ([]*model.Activity, error)
	IgnoredList(ctx context.Context, actingUserID, ownerUserID string) ([]*model.IgnoredActivity, error)
}

// ActivityHandler はアクティビティ管理のHTTPハンドラー。
type ActivityHandler struct {
	service ActivityServiceInterface
}

// NewActivityHandler はActivityHandlerを生成する。
func NewActivityHandler(service ActivityServiceInterface) *ActivityHandler {
	return &ActivityHandler{service: service}
}

// activityView は保存済みアクティビティのレスポンス表現。
type activityView struct {
	ID           string  `json:"id"`
	Title        string  `json:"title"`
	Type         string  `json:"type"`
	Participants int     `json:"participants"`
	Price        float64 `json:"price"`
	ExternalKey  string  `json:"external_key"`
	IsCompleted  bool    `json:"is_completed"`
}

func newActivityViews(activities []*model.Activity) []activityView {
	views := make([]activityView, 0, len(activities))
	for _, a := range activities {
		views = append(views, activityView{
			ID:           a.ID,
			Title:        a.Title,
			Type:         a.Type,
			Participants: a.Participants,
			Price:        a.Price,
			ExternalKey:  a.ExternalKey,
			IsCompleted:  a.IsCompleted,
		})
	}
	return views
}

// ignoredView は非表示アクティビティのレスポンス表現。
type ignoredView struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	ExternalKey string `json:"external_key"`
}

// NewActivityForm は検索フォームのメタデータを返す。
// 選択可能なアクティビティ種類と人数の候補を含む。
// GET /user/{userID}/new_activity
func (h *ActivityHandler) NewActivityForm(w http.ResponseWriter, r *http.Request) {
	targetUserID := chi.URLParam(r, "userID")
	actingUserID, _ := middleware.UserIDFromContext(r.Context())

	if actingUserID != targetUserID {
		redirectUnauthorized(w, r, actingUserID)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"types":        activityTypes,
		"participants": []int{1, 2, 3},
	})
}

// SavedList は保存済みアクティビティの一覧を返す。本人のみ閲覧できる。
// 未完了が先、それぞれ更新が古い順で最大30件。
// GET /user/{userID}/saved_activity
func (h *ActivityHandler) SavedList(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, func(ctx context.Context, actingUserID, ownerUserID string) (any, error) {
		activities, err := h.service.SavedList(ctx, actingUserID, ownerUserID)
		if err != nil {
			return nil, err
		}
		return newActivityViews(activities), nil
	})
}

// CompletedList は完了済みアクティビティの一覧を返す。本人のみ閲覧できる。
// GET /user/{userID}/completed_activities
func (h *ActivityHandler) CompletedList(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, func(ctx context.Context, actingUserID, ownerUserID string) (any, error) {
		activities, err := h.service.CompletedList(ctx, actingUserID, ownerUserID)
		if err != nil {
			return nil, err
		}
		return newActivityViews(activities), nil
	})
}

// IgnoredList は非表示アクティビティの一覧を返す。本人のみ閲覧できる。
// GET /user/{userID}/ignored_activities
func (h *ActivityHandler) IgnoredList(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, func(ctx context.Context, actingUserID, ownerUserID string) (any, error) {
		ignored, err := h.service.IgnoredList(ctx, actingUserID, ownerUserID)
		if err != nil {
			return nil, err
		}
		views := make([]ignoredView, 0, len(ignored))
		for _, ig := range ignored {
			views = append(views, ignoredView{
				ID:          ig.ID,
				Title:       ig.Title,
				ExternalKey: ig.ExternalKey,
			})
		}
		return views, nil
	})
}

// list は一覧系エンドポイントの共通処理。認可エラーはリダイレクトで返す。
func (h *ActivityHandler) list(w http.ResponseWriter, r *http.Request, fetch func(ctx context.Context, actingUserID, ownerUserID string) (any, error)) {
	ownerUserID := chi.URLParam(r, "userID")
	actingUserID, _ := middleware.UserIDFromContext(r.Context())

	items, err := fetch(r.Context(), actingUserID, ownerUserID)
	if err != nil {
		handlePageError(w, r, actingUserID, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"activities": items})
}

// Save は提案されたアクティビティを保存する。
// 同じ提案を複数回保存できる（重複は許容）。
// POST /activity/save
func (h *ActivityHandler) Save(w http.ResponseWriter, r *http.Request) {
	actingUserID, _ := middleware.UserIDFromContext(r.Context())

	participants, err := strconv.Atoi(r.PostFormValue("participants"))
	if err != nil {
		handleServiceError(w, model.NewValidationError("参加人数が不正です"))
		return
	}
	price, err := strconv.ParseFloat(r.PostFormValue("price"), 64)
	if err != nil {
		handleServiceError(w, model.NewValidationError("価格が不正です"))
		return
	}

	input := activity.SaveInput{
		Title:        r.PostFormValue("title"),
		Type:         r.PostFormValue("type"),
		Participants: participants,
		Price:        price,
		ExternalKey:  r.PostFormValue("key"),
	}

	if _, err := h.service.Save(r.Context(), actingUserID, input); err != nil {
		handlePageError(w, r, actingUserID, err)
		return
	}

	http.Redirect(w, r, "/user/"+actingUserID+"/new_activity", http.StatusSeeOther)
}

// Ignore は提案されたアクティビティを非表示リストに追加する。
// POST /activity/ignore
func (h *ActivityHandler) Ignore(w http.ResponseWriter, r *http.Request) {
	actingUserID, _ := middleware.UserIDFromContext(r.Context())

	title := r.PostFormValue("title")
	externalKey := r.PostFormValue("key")

	if _, err := h.service.Ignore(r.Context(), actingUserID, title, externalKey); err != nil {
		handlePageError(w, r, actingUserID, err)
		return
	}

	http.Redirect(w, r, "/user/"+actingUserID+"/new_activity", http.StatusSeeOther)
}

// RemoveIgnored は非表示リストからアクティビティを削除する。
// POST /activity/{ignoredID}/remove
func (h *ActivityHandler) RemoveIgnored(w http.ResponseWriter, r *http.Request) {
	ignoredID := chi.URLParam(r, "ignoredID")
	actingUserID, _ := middleware.UserIDFromContext(r.Context())

	if err := h.service.RemoveIgnored(r.Context(), actingUserID, ignoredID); err != nil {
		handlePageError(w, r, actingUserID, err)
		return
	}

	http.Redirect(w, r, "/user/"+actingUserID+"/ignored_activities", http.StatusSeeOther)
}

// SetCompleted はアクティビティの完了状態を更新する。
// クエリパラメータ id と is_completed を受け付ける。
// GET/POST /api/set_completed
func (h *ActivityHandler) SetCompleted(w http.ResponseWriter, r *http.Request) {
	actingUserID, _ := middleware.UserIDFromContext(r.Context())

	activityID := r.FormValue("id")
	if activityID == "" {
		handleServiceError(w, model.NewValidationError("idは必須です"))
		return
	}

	isCompleted, err := strconv.ParseBool(r.FormValue("is_completed"))
	if err != nil {
		handleServiceError(w, model.NewValidationError("is_completedはtrueまたはfalseを指定してください"))
		return
	}

	if err := h.service.SetCompleted(r.Context(), actingUserID, activityID, isCompleted); err != nil {
		handleServiceError(w, err)
		return
	}

	slog.Info("activity completion updated",
		slog.String("activity_id", activityID),
		slog.Bool("is_completed", isCompleted))

	writeJSON(w, http.StatusOK, map[string]any{
		"id":           activityID,
		"is_completed": isCompleted,
	})
}
