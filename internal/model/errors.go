// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, search, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeUsernameTaken      = "USERNAME_TAKEN"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeValidation         = "VALIDATION_ERROR"
	ErrCodeNoMatchFound       = "NO_MATCH_FOUND"
	ErrCodeUpstreamError      = "UPSTREAM_ERROR"
	ErrCodeActivityNotFound   = "ACTIVITY_NOT_FOUND"
	ErrCodeUserNotFound       = "USER_NOT_FOUND"
)

// NewUsernameTakenError はユーザー名重複エラーを生成する。
// usersテーブルの一意制約違反から変換される。
func NewUsernameTakenError(username string) *APIError {
	return &APIError{
		Code:     ErrCodeUsernameTaken,
		Message:  fmt.Sprintf("このユーザー名は既に使われています: %s", username),
		Category: "auth",
		Action:   "別のユーザー名を入力してください。",
	}
}

// NewInvalidCredentialsError は認証失敗エラーを生成する。
// ユーザー不在とパスワード不一致を区別しない単一のメッセージを返す。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "ユーザー名またはパスワードが正しくありません。",
		Category: "auth",
		Action:   "入力内容を確認して再度お試しください。",
	}
}

// NewUnauthorizedError は認可エラーを生成する。
// RedirectToは呼び出し元が誘導すべき自身のリソースのパス。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "この操作を行う権限がありません。",
		Category: "auth",
		Action:   "自分のページに戻ってください。",
	}
}

// NewValidationError は入力検証エラーを生成する。
func NewValidationError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeValidation,
		Message:  fmt.Sprintf("入力内容に誤りがあります: %s", reason),
		Category: "validation",
		Action:   "入力内容を修正して再度お試しください。",
	}
}

// NewNoMatchFoundError は検索リトライ上限到達エラーを生成する。
// 上流サービスの障害ではなく「条件に合うアクティビティがなかった」ことを表す。
func NewNoMatchFoundError(attempts int) *APIError {
	return &APIError{
		Code:     ErrCodeNoMatchFound,
		Message:  fmt.Sprintf("%d回試しましたが、条件に合うアクティビティが見つかりませんでした。", attempts),
		Category: "search",
		Action:   "価格の上限や種類を広げて再度検索してください。",
	}
}

// NewUpstreamError は上流サービスの通信障害エラーを生成する。
func NewUpstreamError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeUpstreamError,
		Message:  fmt.Sprintf("アクティビティ提供サービスとの通信に失敗しました: %s", reason),
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewActivityNotFoundError はアクティビティ未検出エラーを生成する。
func NewActivityNotFoundError(activityID string) *APIError {
	return &APIError{
		Code:     ErrCodeActivityNotFound,
		Message:  fmt.Sprintf("指定されたアクティビティが見つかりません: %s", activityID),
		Category: "validation",
		Action:   "アクティビティIDを確認してください。",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "ユーザーが見つかりません。",
		Category: "auth",
		Action:   "ログインし直してください。",
	}
}
