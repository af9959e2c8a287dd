// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/moriyama/asobi/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// Create はユーザーを作成する。
	// ユーザー名の一意制約違反はmodel.ErrCodeUsernameTakenのAPIErrorとして返す。
	// 事前チェックではなく制約違反の検出で重複を判定する（check-then-act競合の回避）。
	Create(ctx context.Context, user *model.User) error

	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByUsername は指定ユーザー名のユーザーを取得する。見つからない場合はnilを返す。
	// ユーザー名は大文字小文字を区別する。
	FindByUsername(ctx context.Context, username string) (*model.User, error)

	// Update はユーザー名・メールアドレスを更新する。
	// ユーザー名の一意制約違反はmodel.ErrCodeUsernameTakenのAPIErrorとして返す。
	Update(ctx context.Context, user *model.User) error

	// DeleteByID は指定IDのユーザーを削除する。
	// 関連するactivities、ignored_activitiesはCASCADE削除される。
	DeleteByID(ctx context.Context, id string) error
}

// SessionRepository はセッションデータの保存インターフェース。
// セッションはプロセス寿命を超えて保持されない。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。期限切れまたは不在の場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// DeleteByID は指定IDのセッションを削除する。不在のIDは何もしない（冪等）。
	DeleteByID(ctx context.Context, id string) error
	// DeleteByUserID は指定ユーザーの全セッションを削除する。
	DeleteByUserID(ctx context.Context, userID string) error
}

// ActivityRepository は保存済みアクティビティの永続化インターフェース。
type ActivityRepository interface {
	// Create は保存済みアクティビティを作成する。
	// 同一external_keyの重複保存は制限しない。
	Create(ctx context.Context, activity *model.Activity) error

	// FindByID は指定IDのアクティビティを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Activity, error)

	// ListByUser はユーザーの保存済みアクティビティ一覧を返す。
	// 未完了を先頭に、次にupdated_at昇順で並べ、limit件で打ち切る。
	ListByUser(ctx context.Context, userID string, limit int) ([]*model.Activity, error)

	// ListCompletedByUser はユーザーの完了済みアクティビティ一覧をlimit件まで返す。
	ListCompletedByUser(ctx context.Context, userID string, limit int) ([]*model.Activity, error)

	// SetCompleted は完了フラグを設定し、updated_atを現在時刻に更新する。
	SetCompleted(ctx context.Context, id string, isCompleted bool) error

	// DeleteByUserID はユーザーの全保存済みアクティビティを削除する。
	DeleteByUserID(ctx context.Context, userID string) error
}

// IgnoredActivityRepository は非表示アクティビティの永続化インターフェース。
type IgnoredActivityRepository interface {
	// Create は非表示アクティビティを作成する。
	Create(ctx context.Context, ignored *model.IgnoredActivity) error

	// FindByID は指定IDの非表示アクティビティを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.IgnoredActivity, error)

	// ListByUser はユーザーの非表示アクティビティ一覧をlimit件まで返す。
	ListByUser(ctx context.Context, userID string, limit int) ([]*model.IgnoredActivity, error)

	// DeleteByID は指定IDの非表示アクティビティを削除する。
	DeleteByID(ctx context.Context, id string) error

	// DeleteByUserID はユーザーの全非表示アクティビティを削除する。
	DeleteByUserID(ctx context.Context, userID string) error
}
