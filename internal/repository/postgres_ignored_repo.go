package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/moriyama/asobi/internal/model"
)

// PostgresIgnoredRepo はPostgreSQLを使用した非表示アクティビティリポジトリ。
type PostgresIgnoredRepo struct {
	db *sql.DB
}

// NewPostgresIgnoredRepo はPostgresIgnoredRepoを生成する。
func NewPostgresIgnoredRepo(db *sql.DB) *PostgresIgnoredRepo {
	return &PostgresIgnoredRepo{db: db}
}

// Create は非表示アクティビティを作成する。
func (r *PostgresIgnoredRepo) Create(ctx context.Context, ignored *model.IgnoredActivity) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO ignored_activities (id, user_id, title, external_key, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		ignored.ID, ignored.UserID, ignored.Title, ignored.ExternalKey, ignored.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert ignored activity: %w", err)
	}
	return nil
}

// FindByID は指定IDの非表示アクティビティを取得する。見つからない場合はnilを返す。
func (r *PostgresIgnoredRepo) FindByID(ctx context.Context, id string) (*model.IgnoredActivity, error) {
	ignored := &model.IgnoredActivity{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, title, external_key, created_at
		 FROM ignored_activities WHERE id = $1`,
		id,
	).Scan(&ignored.ID, &ignored.UserID, &ignored.Title, &ignored.ExternalKey, &ignored.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find ignored activity by ID: %w", err)
	}

	return ignored, nil
}

// ListByUser はユーザーの非表示アクティビティ一覧をlimit件まで返す。
func (r *PostgresIgnoredRepo) ListByUser(ctx context.Context, userID string, limit int) ([]*model.IgnoredActivity, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, title, external_key, created_at
		 FROM ignored_activities
		 WHERE user_id = $1
		 LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list ignored activities: %w", err)
	}
	defer rows.Close()

	var list []*model.IgnoredActivity
	for rows.Next() {
		ignored := &model.IgnoredActivity{}
		if err := rows.Scan(&ignored.ID, &ignored.UserID, &ignored.Title,
			&ignored.ExternalKey, &ignored.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan ignored activity: %w", err)
		}
		list = append(list, ignored)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate ignored activities: %w", err)
	}

	return list, nil
}

// DeleteByID は指定IDの非表示アクティビティを削除する。
func (r *PostgresIgnoredRepo) DeleteByID(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM ignored_activities WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete ignored activity: %w", err)
	}
	return nil
}

// DeleteByUserID はユーザーの全非表示アクティビティを削除する。
func (r *PostgresIgnoredRepo) DeleteByUserID(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM ignored_activities WHERE user_id = $1`,
		userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete user ignored activities: %w", err)
	}
	return nil
}

// compile-time interface check
var _ IgnoredActivityRepository = (*PostgresIgnoredRepo)(nil)
