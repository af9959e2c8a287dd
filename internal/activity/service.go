// Package activity は保存・完了・非表示アクティビティのドメインロジックを提供する。
package activity

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/moriyama/asobi/internal/auth"
	"github.com/moriyama/asobi/internal/model"
	"github.com/moriyama/asobi/internal/repository"
)

// listLimit は一覧系エンドポイントの表示上限。ページネーションではなく固定の打ち切り。
const listLimit = 30

// SaveInput はアクティビティ保存の入力を表す。
type SaveInput struct {
	Title        string
	Type         string
	Participants int
	Price        float64
	ExternalKey  string
}

// SaveRecorder は保存・非表示操作のメトリクス記録インターフェース。
type SaveRecorder interface {
	RecordActivitySaved()
	RecordActivityIgnored()
}

// Service はアクティビティ管理のサービス層。
type Service struct {
	activityRepo repository.ActivityRepository
	ignoredRepo  repository.IgnoredActivityRepository
	metrics      SaveRecorder
}

// NewService はServiceの新しいインスタンスを生成する。metricsはnil可。
func NewService(
	activityRepo repository.ActivityRepository,
	ignoredRepo repository.IgnoredActivityRepository,
	metrics SaveRecorder,
) *Service {
	return &Service{
		activityRepo: activityRepo,
		ignoredRepo:  ignoredRepo,
		metrics:      metrics,
	}
}

// Save は提案されたアクティビティを操作主体の保存リストに追加する。
// 同一external_keyの重複保存は制限しない。
func (s *Service) Save(ctx context.Context, actingUserID string, input SaveInput) (*model.Activity, error) {
	if actingUserID == "" {
		return nil, model.NewUnauthorizedError()
	}
	if strings.TrimSpace(input.Title) == "" {
		return nil, model.NewValidationError("タイトルが空です")
	}
	if input.ExternalKey == "" {
		return nil, model.NewValidationError("アクティビティキーが空です")
	}

	now := time.Now()
	activity := &model.Activity{
		ID:           uuid.New().String(),
		UserID:       actingUserID,
		Title:        input.Title,
		Type:         input.Type,
		Participants: input.Participants,
		Price:        input.Price,
		ExternalKey:  input.ExternalKey,
		IsCompleted:  false,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.activityRepo.Create(ctx, activity); err != nil {
		return nil, fmt.Errorf("アクティビティの保存に失敗しました: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordActivitySaved()
	}
	slog.Info("activity saved",
		slog.String("user_id", actingUserID),
		slog.String("external_key", input.ExternalKey),
	)

	return activity, nil
}

// Ignore は提案されたアクティビティを操作主体の非表示リストに追加する。
func (s *Service) Ignore(ctx context.Context, actingUserID, title, externalKey string) (*model.IgnoredActivity, error) {
	if actingUserID == "" {
		return nil, model.NewUnauthorizedError()
	}
	if strings.TrimSpace(title) == "" {
		return nil, model.NewValidationError("タイトルが空です")
	}
	if externalKey == "" {
		return nil, model.NewValidationError("アクティビティキーが空です")
	}

	ignored := &model.IgnoredActivity{
		ID:          uuid.New().String(),
		UserID:      actingUserID,
		Title:       title,
		ExternalKey: externalKey,
		CreatedAt:   time.Now(),
	}

	if err := s.ignoredRepo.Create(ctx, ignored); err != nil {
		return nil, fmt.Errorf("非表示アクティビティの保存に失敗しました: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordActivityIgnored()
	}

	return ignored, nil
}

// SetCompleted は保存済みアクティビティの完了フラグを切り替える。
// 所有者本人のみが操作でき、updated_atが操作時刻に更新される。
func (s *Service) SetCompleted(ctx context.Context, actingUserID, activityID string, isCompleted bool) error {
	activity, err := s.activityRepo.FindByID(ctx, activityID)
	if err != nil {
		return fmt.Errorf("アクティビティの取得に失敗しました: %w", err)
	}
	if activity == nil {
		return model.NewActivityNotFoundError(activityID)
	}

	if err := auth.RequireSelf(actingUserID, activity.UserID); err != nil {
		return err
	}

	if err := s.activityRepo.SetCompleted(ctx, activityID, isCompleted); err != nil {
		return fmt.Errorf("完了状態の更新に失敗しました: %w", err)
	}

	return nil
}

// RemoveIgnored は非表示アクティビティを削除する。所有者本人のみが操作できる。
func (s *Service) RemoveIgnored(ctx context.Context, actingUserID, ignoredID string) error {
	ignored, err := s.ignoredRepo.FindByID(ctx, ignoredID)
	if err != nil {
		return fmt.Errorf("非表示アクティビティの取得に失敗しました: %w", err)
	}
	if ignored == nil {
		return model.NewActivityNotFoundError(ignoredID)
	}

	if err := auth.RequireSelf(actingUserID, ignored.UserID); err != nil {
		return err
	}

	if err := s.ignoredRepo.DeleteByID(ctx, ignoredID); err != nil {
		return fmt.Errorf("非表示アクティビティの削除に失敗しました: %w", err)
	}

	return nil
}

// SavedList は所有者の保存済みアクティビティ一覧を返す。
// 未完了を先頭に、次に更新時刻の昇順。所有者本人のみが閲覧できる。
func (s *Service) SavedList(ctx context.Context, actingUserID, ownerUserID string) ([]*model.Activity, error) {
	if err := auth.RequireSelf(actingUserID, ownerUserID); err != nil {
		return nil, err
	}

	list, err := s.activityRepo.ListByUser(ctx, ownerUserID, listLimit)
	if err != nil {
		return nil, fmt.Errorf("保存済みアクティビティの取得に失敗しました: %w", err)
	}
	return list, nil
}

// CompletedList は所有者の完了済みアクティビティ一覧を返す。所有者本人のみが閲覧できる。
func (s *Service) CompletedList(ctx context.Context, actingUserID, ownerUserID string) ([]*model.Activity, error) {
	if err := auth.RequireSelf(actingUserID, ownerUserID); err != nil {
		return nil, err
	}

	list, err := s.activityRepo.ListCompletedByUser(ctx, ownerUserID, listLimit)
	if err != nil {
		return nil, fmt.Errorf("完了済みアクティビティの取得に失敗しました: %w", err)
	}
	return list, nil
}

// IgnoredList は所有者の非表示アクティビティ一覧を返す。所有者本人のみが閲覧できる。
func (s *Service) IgnoredList(ctx context.Context, actingUserID, ownerUserID string) ([]*model.IgnoredActivity, error) {
	if err := auth.RequireSelf(actingUserID, ownerUserID); err != nil {
		return nil, err
	}

	list, err := s.ignoredRepo.ListByUser(ctx, ownerUserID, listLimit)
	if err != nil {
		return nil, fmt.Errorf("非表示アクティビティの取得に失敗しました: %w", err)
	}
	return list, nil
}
