package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/moriyama/asobi/internal/middleware"
	"github.com/moriyama/asobi/internal/model"
)

// handleServiceError はサービス層のエラーをJSONレスポンスに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		statusCode := mapAPIErrorToHTTPStatus(apiErr)
		writeAPIErrorResponse(w, statusCode, apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	writeAPIErrorResponse(w, http.StatusInternalServerError, &model.APIError{
		Code:     "INTERNAL_ERROR",
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	})
}

// handlePageError はページ系ルートのエラーを処理する。
// 認可エラーはJSONではなくリダイレクトで返し、それ以外はhandleServiceErrorに委ねる。
func handlePageError(w http.ResponseWriter, r *http.Request, actingUserID string, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) && apiErr.Code == model.ErrCodeUnauthorized {
		redirectUnauthorized(w, r, actingUserID)
		return
	}
	handleServiceError(w, err)
}

// redirectUnauthorized は他人のリソースへのアクセスを本人のページへ誘導する。
// 未ログインの場合はログインページへ誘導する。
func redirectUnauthorized(w http.ResponseWriter, r *http.Request, actingUserID string) {
	if actingUserID == "" {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/user/"+actingUserID, http.StatusSeeOther)
}

// asAPIError はerrors.Asの薄いラッパー。ハンドラー内の分岐を短く書くために使う。
func asAPIError(err error, target **model.APIError) bool {
	return errors.As(err, target)
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeUsernameTaken:
		return http.StatusConflict
	case model.ErrCodeInvalidCredentials:
		return http.StatusUnauthorized
	case model.ErrCodeUnauthorized:
		return http.StatusForbidden
	case model.ErrCodeValidation:
		return http.StatusBadRequest
	case model.ErrCodeNoMatchFound:
		return http.StatusNotFound
	case model.ErrCodeUpstreamError:
		return http.StatusBadGateway
	case model.ErrCodeActivityNotFound, model.ErrCodeUserNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// writeAPIErrorResponse はAPIErrorをJSONで書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	middleware.WriteErrorResponse(w, statusCode, apiErr)
}
