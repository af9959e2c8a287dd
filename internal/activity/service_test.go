package activity

import (
	"context"
	"errors"
	"testing"

	"github.com/moriyama/asobi/internal/model"
	"github.com/moriyama/asobi/internal/repository"
)

// --- モック ---

type mockActivityRepo struct {
	createFn       func(ctx context.Context, activity *model.Activity) error
	findByIDFn     func(ctx context.Context, id string) (*model.Activity, error)
	listByUserFn   func(ctx context.Context, userID string, limit int) ([]*model.Activity, error)
	setCompletedFn func(ctx context.Context, id string, isCompleted bool) error
}

func (m *mockActivityRepo) Create(ctx context.Context, activity *model.Activity) error {
	if m.createFn != nil {
		return m.createFn(ctx, activity)
	}
	return nil
}
func (m *mockActivityRepo) FindByID(ctx context.Context, id string) (*model.Activity, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}
func (m *mockActivityRepo) ListByUser(ctx context.Context, userID string, limit int) ([]*model.Activity, error) {
	if m.listByUserFn != nil {
		return m.listByUserFn(ctx, userID, limit)
	}
	return nil, nil
}
func (m *mockActivityRepo) ListCompletedByUser(ctx context.Context, userID string, limit int) ([]*model.Activity, error) {
	return nil, nil
}
func (m *mockActivityRepo) SetCompleted(ctx context.Context, id string, isCompleted bool) error {
	if m.setCompletedFn != nil {
		return m.setCompletedFn(ctx, id, isCompleted)
	}
	return nil
}
func (m *mockActivityRepo) DeleteByUserID(ctx context.Context, userID string) error { return nil }

var _ repository.ActivityRepository = (*mockActivityRepo)(nil)

type mockIgnoredRepo struct {
	createFn     func(ctx context.Context, ignored *model.IgnoredActivity) error
	findByIDFn   func(ctx context.Context, id string) (*model.IgnoredActivity, error)
	deleteByIDFn func(ctx context.Context, id string) error
}

func (m *mockIgnoredRepo) Create(ctx context.Context, ignored *model.IgnoredActivity) error {
	if m.createFn != nil {
		return m.createFn(ctx, ignored)
	}
	return nil
}
func (m *mockIgnoredRepo) FindByID(ctx context.Context, id string) (*model.IgnoredActivity, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}
func (m *mockIgnoredRepo) ListByUser(ctx context.Context, userID string, limit int) ([]*model.IgnoredActivity, error) {
	return nil, nil
}
func (m *mockIgnoredRepo) DeleteByID(ctx context.Context, id string) error {
	if m.deleteByIDFn != nil {
		return m.deleteByIDFn(ctx, id)
	}
	return nil
}
func (m *mockIgnoredRepo) DeleteByUserID(ctx context.Context, userID string) error { return nil }

var _ repository.IgnoredActivityRepository = (*mockIgnoredRepo)(nil)

func validSaveInput() SaveInput {
	return SaveInput{
		Title:        "Learn calligraphy",
		Type:         "education",
		Participants: 1,
		Price:        0.5,
		ExternalKey:  "4565630",
	}
}

// TestService_Save は保存時に未完了状態で作成されることを検証する。
func TestService_Save(t *testing.T) {
	var created *model.Activity
	repo := &mockActivityRepo{
		createFn: func(ctx context.Context, activity *model.Activity) error {
			created = activity
			return nil
		},
	}
	svc := NewService(repo, &mockIgnoredRepo{}, nil)

	got, err := svc.Save(context.Background(), "user-1", validSaveInput())
	if err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	if created == nil {
		t.Fatal("expected activity to be created")
	}
	if created.IsCompleted {
		t.Error("new activity must start as not completed")
	}
	if created.UserID != "user-1" {
		t.Errorf("UserID = %q, want %q", created.UserID, "user-1")
	}
	if got.ID == "" {
		t.Error("expected generated ID")
	}
}

// TestService_Save_Anonymous は未ログインの保存が拒否されることを検証する。
func TestService_Save_Anonymous(t *testing.T) {
	svc := NewService(&mockActivityRepo{}, &mockIgnoredRepo{}, nil)

	_, err := svc.Save(context.Background(), "", validSaveInput())
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeUnauthorized {
		t.Fatalf("expected UNAUTHORIZED, got %v", err)
	}
}

// TestService_Save_DuplicateAllowed は同一キーの重複保存が許容されることを検証する。
func TestService_Save_DuplicateAllowed(t *testing.T) {
	createCount := 0
	repo := &mockActivityRepo{
		createFn: func(ctx context.Context, activity *model.Activity) error {
			createCount++
			return nil
		},
	}
	svc := NewService(repo, &mockIgnoredRepo{}, nil)

	for i := 0; i < 2; i++ {
		if _, err := svc.Save(context.Background(), "user-1", validSaveInput()); err != nil {
			t.Fatalf("Save #%d returned error: %v", i+1, err)
		}
	}
	if createCount != 2 {
		t.Errorf("expected 2 creates, got %d", createCount)
	}
}

// TestService_SetCompleted は所有者による完了フラグの切り替えを検証する。
func TestService_SetCompleted(t *testing.T) {
	setCalled := false
	repo := &mockActivityRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Activity, error) {
			return &model.Activity{ID: id, UserID: "user-1"}, nil
		},
		setCompletedFn: func(ctx context.Context, id string, isCompleted bool) error {
			setCalled = true
			if !isCompleted {
				t.Error("expected isCompleted = true")
			}
			return nil
		},
	}
	svc := NewService(repo, &mockIgnoredRepo{}, nil)

	if err := svc.SetCompleted(context.Background(), "user-1", "act-1", true); err != nil {
		t.Fatalf("SetCompleted returned error: %v", err)
	}
	if !setCalled {
		t.Error("expected repository SetCompleted to be called")
	}
}

// TestService_SetCompleted_WrongUser は他人のアクティビティの操作が
// 拒否されることを検証する。
func TestService_SetCompleted_WrongUser(t *testing.T) {
	repo := &mockActivityRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Activity, error) {
			return &model.Activity{ID: id, UserID: "user-other"}, nil
		},
		setCompletedFn: func(ctx context.Context, id string, isCompleted bool) error {
			t.Fatal("SetCompleted should not be called for wrong user")
			return nil
		},
	}
	svc := NewService(repo, &mockIgnoredRepo{}, nil)

	err := svc.SetCompleted(context.Background(), "user-1", "act-1", true)
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeUnauthorized {
		t.Fatalf("expected UNAUTHORIZED, got %v", err)
	}
}

// TestService_SetCompleted_NotFound は存在しないアクティビティで
// ACTIVITY_NOT_FOUNDが返ることを検証する。
func TestService_SetCompleted_NotFound(t *testing.T) {
	svc := NewService(&mockActivityRepo{}, &mockIgnoredRepo{}, nil)

	err := svc.SetCompleted(context.Background(), "user-1", "no-such", true)
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeActivityNotFound {
		t.Fatalf("expected ACTIVITY_NOT_FOUND, got %v", err)
	}
}

// TestService_RemoveIgnored は所有者による非表示解除を検証する。
func TestService_RemoveIgnored(t *testing.T) {
	deleteCalled := false
	ignoredRepo := &mockIgnoredRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.IgnoredActivity, error) {
			return &model.IgnoredActivity{ID: id, UserID: "user-1"}, nil
		},
		deleteByIDFn: func(ctx context.Context, id string) error {
			deleteCalled = true
			return nil
		},
	}
	svc := NewService(&mockActivityRepo{}, ignoredRepo, nil)

	if err := svc.RemoveIgnored(context.Background(), "user-1", "ign-1"); err != nil {
		t.Fatalf("RemoveIgnored returned error: %v", err)
	}
	if !deleteCalled {
		t.Error("expected DeleteByID to be called")
	}
}

// TestService_RemoveIgnored_WrongUser は他人の非表示エントリの削除が
// 拒否されることを検証する。
func TestService_RemoveIgnored_WrongUser(t *testing.T) {
	ignoredRepo := &mockIgnoredRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.IgnoredActivity, error) {
			return &model.IgnoredActivity{ID: id, UserID: "user-other"}, nil
		},
		deleteByIDFn: func(ctx context.Context, id string) error {
			t.Fatal("DeleteByID should not be called for wrong user")
			return nil
		},
	}
	svc := NewService(&mockActivityRepo{}, ignoredRepo, nil)

	err := svc.RemoveIgnored(context.Background(), "user-1", "ign-1")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeUnauthorized {
		t.Fatalf("expected UNAUTHORIZED, got %v", err)
	}
}

// TestService_SavedList は本人の一覧取得で表示上限が渡されることを検証する。
func TestService_SavedList(t *testing.T) {
	repo := &mockActivityRepo{
		listByUserFn: func(ctx context.Context, userID string, limit int) ([]*model.Activity, error) {
			if limit != 30 {
				t.Errorf("limit = %d, want 30", limit)
			}
			return []*model.Activity{{ID: "act-1", UserID: userID}}, nil
		},
	}
	svc := NewService(repo, &mockIgnoredRepo{}, nil)

	list, err := svc.SavedList(context.Background(), "user-1", "user-1")
	if err != nil {
		t.Fatalf("SavedList returned error: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 activity, got %d", len(list))
	}
}

// TestService_SavedList_WrongUser は他人の一覧閲覧が拒否されることを検証する。
func TestService_SavedList_WrongUser(t *testing.T) {
	repo := &mockActivityRepo{
		listByUserFn: func(ctx context.Context, userID string, limit int) ([]*model.Activity, error) {
			t.Fatal("ListByUser should not be called for wrong user")
			return nil, nil
		},
	}
	svc := NewService(repo, &mockIgnoredRepo{}, nil)

	_, err := svc.SavedList(context.Background(), "user-1", "user-other")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeUnauthorized {
		t.Fatalf("expected UNAUTHORIZED, got %v", err)
	}
}
