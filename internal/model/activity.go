// Package model はドメインモデルを定義する。
package model

import "time"

// Activity はユーザーが保存したアクティビティを表す。
// 完了トグル時にUpdatedAtが更新される。
type Activity struct {
	ID           string
	UserID       string
	Title        string
	Type         string
	Participants int
	Price        float64
	ExternalKey  string
	IsCompleted  bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IgnoredActivity はユーザーが非表示にしたアクティビティを表す。
// 明示的な削除操作でのみ消える。
type IgnoredActivity struct {
	ID          string
	UserID      string
	Title       string
	ExternalKey string
	CreatedAt   time.Time
}

// Recommendation は外部レコメンドサービスから取得した未保存の提案を表す。
// ExternalKeyはサービス側で安定しているアクティビティ識別子。
type Recommendation struct {
	Title        string
	Type         string
	Participants int
	Price        float64
	ExternalKey  string
}
