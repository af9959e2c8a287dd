// Package user はユーザー管理のドメインロジックを提供する。
package user

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/moriyama/asobi/internal/auth"
	"github.com/moriyama/asobi/internal/model"
	"github.com/moriyama/asobi/internal/repository"
)

// Authenticator はプロフィール更新時の再認証インターフェース。
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) (*model.User, error)
}

// ActivityDeleter は保存済みアクティビティの一括削除インターフェース。
type ActivityDeleter interface {
	DeleteByUserID(ctx context.Context, userID string) error
}

// IgnoredDeleter は非表示アクティビティの一括削除インターフェース。
type IgnoredDeleter interface {
	DeleteByUserID(ctx context.Context, userID string) error
}

// UpdateProfileInput はプロフィール更新の入力を表す。
// CurrentPasswordは更新前の再認証に使用される。
type UpdateProfileInput struct {
	Username        string
	Email           string
	CurrentPassword string
}

// Service はユーザー管理のサービス層。
// プロフィール更新と退会処理のビジネスロジックを提供する。
type Service struct {
	userRepo      repository.UserRepository
	sessionRepo   repository.SessionRepository
	authenticator Authenticator
	activityRepo  ActivityDeleter
	ignoredRepo   IgnoredDeleter
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	authenticator Authenticator,
	activityRepo ActivityDeleter,
	ignoredRepo IgnoredDeleter,
) *Service {
	return &Service{
		userRepo:      userRepo,
		sessionRepo:   sessionRepo,
		authenticator: authenticator,
		activityRepo:  activityRepo,
		ignoredRepo:   ignoredRepo,
	}
}

// Get は指定IDのユーザーを取得する。見つからない場合はUSER_NOT_FOUNDを返す。
func (s *Service) Get(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}
	return user, nil
}

// UpdateProfile はユーザー名・メールアドレスを更新する。
// 本人のみが操作でき、現在のパスワードでの再認証に成功した場合のみ反映される。
// 新しいユーザー名が既に使われている場合はUSERNAME_TAKENを返す。
func (s *Service) UpdateProfile(ctx context.Context, actingUserID, targetUserID string, input UpdateProfileInput) (*model.User, error) {
	if err := auth.RequireSelf(actingUserID, targetUserID); err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByID(ctx, targetUserID)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}

	if strings.TrimSpace(input.Username) == "" {
		return nil, model.NewValidationError("ユーザー名が空です")
	}
	if !strings.Contains(input.Email, "@") {
		return nil, model.NewValidationError("メールアドレスの形式が正しくありません")
	}

	// 現在のユーザー名とパスワードで再認証してから反映する
	authenticated, err := s.authenticator.Authenticate(ctx, user.Username, input.CurrentPassword)
	if err != nil {
		return nil, fmt.Errorf("再認証に失敗しました: %w", err)
	}
	if authenticated == nil {
		return nil, model.NewInvalidCredentialsError()
	}

	user.Username = input.Username
	user.Email = input.Email
	user.UpdatedAt = time.Now()

	if err := s.userRepo.Update(ctx, user); err != nil {
		// USERNAME_TAKENはそのまま呼び出し元に伝える
		return nil, err
	}

	slog.Info("profile updated",
		slog.String("user_id", user.ID),
	)

	return user, nil
}

// Withdraw はユーザーの退会処理を実行する。
// 削除順序: ignored_activities → activities → sessions → user。
func (s *Service) Withdraw(ctx context.Context, actingUserID string) error {
	if actingUserID == "" {
		return model.NewUnauthorizedError()
	}

	user, err := s.userRepo.FindByID(ctx, actingUserID)
	if err != nil {
		return fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return model.NewUserNotFoundError()
	}

	slog.Info("退会処理を開始します",
		slog.String("user_id", actingUserID),
	)

	// 1. 非表示アクティビティを削除
	if s.ignoredRepo != nil {
		if err := s.ignoredRepo.DeleteByUserID(ctx, actingUserID); err != nil {
			return fmt.Errorf("非表示アクティビティの削除に失敗しました: %w", err)
		}
	}

	// 2. 保存済みアクティビティを削除
	if s.activityRepo != nil {
		if err := s.activityRepo.DeleteByUserID(ctx, actingUserID); err != nil {
			return fmt.Errorf("保存済みアクティビティの削除に失敗しました: %w", err)
		}
	}

	// 3. セッションを削除
	if s.sessionRepo != nil {
		if err := s.sessionRepo.DeleteByUserID(ctx, actingUserID); err != nil {
			return fmt.Errorf("セッションの削除に失敗しました: %w", err)
		}
	}

	// 4. ユーザーを削除
	if err := s.userRepo.DeleteByID(ctx, actingUserID); err != nil {
		return fmt.Errorf("ユーザーの削除に失敗しました: %w", err)
	}

	slog.Info("退会処理が完了しました",
		slog.String("user_id", actingUserID),
	)

	return nil
}
