package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/moriyama/asobi/internal/middleware"
	"github.com/moriyama/asobi/internal/model"
	"github.com/moriyama/asobi/internal/search"
)

// SearchStrategyInterface は条件付き検索のインターフェース。
type SearchStrategyInterface interface {
	Find(ctx context.Context, criteria search.Criteria) (*model.Recommendation, error)
}

// RandomRecommender は無条件のランダム提案を取得するインターフェース。
type RandomRecommender interface {
	Random(ctx context.Context) (*model.Recommendation, error)
}

// SearchHandler はアクティビティ検索のHTTPハンドラー。
type SearchHandler struct {
	strategy SearchStrategyInterface
	random   RandomRecommender
}

// NewSearchHandler はSearchHandlerを生成する。
func NewSearchHandler(strategy SearchStrategyInterface, random RandomRecommender) *SearchHandler {
	return &SearchHandler{
		strategy: strategy,
		random:   random,
	}
}

// recommendationView は提案のレスポンス表現。
type recommendationView struct {
	Title        string  `json:"title"`
	Type         string  `json:"type"`
	Participants int     `json:"participants"`
	Price        float64 `json:"price"`
	ExternalKey  string  `json:"key"`
}

func newRecommendationView(rec *model.Recommendation) recommendationView {
	return recommendationView{
		Title:        rec.Title,
		Type:         rec.Type,
		Participants: rec.Participants,
		Price:        rec.Price,
		ExternalKey:  rec.ExternalKey,
	}
}

// Home はホームページを返す。未ログインならログインページへ誘導する。
// GET /
func (h *SearchHandler) Home(w http.ResponseWriter, r *http.Request) {
	actingUserID, err := middleware.UserIDFromContext(r.Context())
	if err != nil || actingUserID == "" {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	rec, err := h.random.Random(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"user_id":  actingUserID,
		"activity": newRecommendationView(rec),
	})
}

// Random は無条件のランダム提案を1件返す。
// GET /api/activity
func (h *SearchHandler) Random(w http.ResponseWriter, r *http.Request) {
	rec, err := h.random.Random(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, newRecommendationView(rec))
}

// Search は条件付き検索を行う。
// パラメータ: price（価格上限）、participants（参加人数）、type（種類のカンマ区切り）。
// GET/POST /api/activity2
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	criteria, err := parseSearchCriteria(r)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	rec, err := h.strategy.Find(r.Context(), *criteria)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, newRecommendationView(rec))
}

// parseSearchCriteria はリクエストパラメータから検索条件を組み立てる。
func parseSearchCriteria(r *http.Request) (*search.Criteria, error) {
	priceRaw := r.FormValue("price")
	maxPrice, err := strconv.ParseFloat(priceRaw, 64)
	if err != nil {
		return nil, model.NewValidationError("価格は数値で指定してください")
	}

	participantsRaw := r.FormValue("participants")
	participants, err := strconv.Atoi(participantsRaw)
	if err != nil {
		return nil, model.NewValidationError("参加人数は整数で指定してください")
	}

	var types []string
	for _, t := range strings.Split(r.FormValue("type"), ",") {
		t = strings.TrimSpace(t)
		if t != "" {
			types = append(types, t)
		}
	}
	if len(types) == 0 {
		return nil, model.NewValidationError("アクティビティの種類を1つ以上指定してください")
	}

	return &search.Criteria{
		MaxPrice:     maxPrice,
		Participants: participants,
		Types:        types,
	}, nil
}
