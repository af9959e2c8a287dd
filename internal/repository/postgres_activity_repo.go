package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/moriyama/asobi/internal/model"
)

// PostgresActivityRepo はPostgreSQLを使用した保存済みアクティビティリポジトリ。
type PostgresActivityRepo struct {
	db *sql.DB
}

// NewPostgresActivityRepo はPostgresActivityRepoを生成する。
func NewPostgresActivityRepo(db *sql.DB) *PostgresActivityRepo {
	return &PostgresActivityRepo{db: db}
}

// Create は保存済みアクティビティを作成する。
func (r *PostgresActivityRepo) Create(ctx context.Context, activity *model.Activity) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO activities (id, user_id, title, type, participants, price, external_key, is_completed, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		activity.ID, activity.UserID, activity.Title, activity.Type, activity.Participants,
		activity.Price, activity.ExternalKey, activity.IsCompleted, activity.CreatedAt, activity.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert activity: %w", err)
	}
	return nil
}

// FindByID は指定IDのアクティビティを取得する。見つからない場合はnilを返す。
func (r *PostgresActivityRepo) FindByID(ctx context.Context, id string) (*model.Activity, error) {
	activity := &model.Activity{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, title, type, participants, price, external_key, is_completed, created_at, updated_at
		 FROM activities WHERE id = $1`,
		id,
	).Scan(&activity.ID, &activity.UserID, &activity.Title, &activity.Type, &activity.Participants,
		&activity.Price, &activity.ExternalKey, &activity.IsCompleted, &activity.CreatedAt, &activity.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find activity by ID: %w", err)
	}

	return activity, nil
}

// ListByUser はユーザーの保存済みアクティビティ一覧を返す。
// 未完了を先頭に、次にupdated_at昇順で並べる。limitは表示上限。
func (r *PostgresActivityRepo) ListByUser(ctx context.Context, userID string, limit int) ([]*model.Activity, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, title, type, participants, price, external_key, is_completed, created_at, updated_at
		 FROM activities
		 WHERE user_id = $1
		 ORDER BY is_completed ASC, updated_at ASC
		 LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}
	defer rows.Close()

	return scanActivities(rows)
}

// ListCompletedByUser はユーザーの完了済みアクティビティ一覧をlimit件まで返す。
func (r *PostgresActivityRepo) ListCompletedByUser(ctx context.Context, userID string, limit int) ([]*model.Activity, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, title, type, participants, price, external_key, is_completed, created_at, updated_at
		 FROM activities
		 WHERE user_id = $1 AND is_completed = TRUE
		 LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list completed activities: %w", err)
	}
	defer rows.Close()

	return scanActivities(rows)
}

// SetCompleted は完了フラグを設定し、updated_atを現在時刻に更新する。
func (r *PostgresActivityRepo) SetCompleted(ctx context.Context, id string, isCompleted bool) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE activities SET is_completed = $1, updated_at = $2 WHERE id = $3`,
		isCompleted, time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update activity completion: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return model.NewActivityNotFoundError(id)
	}
	return nil
}

// DeleteByUserID はユーザーの全保存済みアクティビティを削除する。
func (r *PostgresActivityRepo) DeleteByUserID(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM activities WHERE user_id = $1`,
		userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete user activities: %w", err)
	}
	return nil
}

// scanActivities は結果セットからアクティビティのスライスを組み立てる。
func scanActivities(rows *sql.Rows) ([]*model.Activity, error) {
	var activities []*model.Activity
	for rows.Next() {
		activity := &model.Activity{}
		if err := rows.Scan(&activity.ID, &activity.UserID, &activity.Title, &activity.Type,
			&activity.Participants, &activity.Price, &activity.ExternalKey,
			&activity.IsCompleted, &activity.CreatedAt, &activity.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		activities = append(activities, activity)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate activities: %w", err)
	}
	return activities, nil
}

// compile-time interface check
var _ ActivityRepository = (*PostgresActivityRepo)(nil)
