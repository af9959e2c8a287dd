package user

import (
	"context"
	"errors"
	"testing"

	"github.com/moriyama/asobi/internal/model"
	"github.com/moriyama/asobi/internal/repository"
)

// --- モック ---

type mockUserRepo struct {
	findByIDFn   func(ctx context.Context, id string) (*model.User, error)
	updateFn     func(ctx context.Context, user *model.User) error
	deleteByIDFn func(ctx context.Context, id string) error
}

func (m *mockUserRepo) Create(ctx context.Context, user *model.User) error { return nil }
func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}
func (m *mockUserRepo) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	return nil, nil
}
func (m *mockUserRepo) Update(ctx context.Context, user *model.User) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, user)
	}
	return nil
}
func (m *mockUserRepo) DeleteByID(ctx context.Context, id string) error {
	if m.deleteByIDFn != nil {
		return m.deleteByIDFn(ctx, id)
	}
	return nil
}

var _ repository.UserRepository = (*mockUserRepo)(nil)

type mockAuthenticator struct {
	authenticateFn func(ctx context.Context, username, password string) (*model.User, error)
}

func (m *mockAuthenticator) Authenticate(ctx context.Context, username, password string) (*model.User, error) {
	return m.authenticateFn(ctx, username, password)
}

type mockDeleter struct {
	called bool
	order  *[]string
	name   string
}

func (m *mockDeleter) DeleteByUserID(ctx context.Context, userID string) error {
	m.called = true
	if m.order != nil {
		*m.order = append(*m.order, m.name)
	}
	return nil
}

func existingUser() *model.User {
	return &model.User{ID: "user-1", Username: "taro", Email: "taro@example.com"}
}

// TestService_Get は存在するユーザーの取得を検証する。
func TestService_Get(t *testing.T) {
	userRepo := &mockUserRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.User, error) {
			return existingUser(), nil
		},
	}
	svc := NewService(userRepo, nil, nil, nil, nil)

	user, err := svc.Get(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if user.Username != "taro" {
		t.Errorf("Username = %q, want %q", user.Username, "taro")
	}
}

// TestService_Get_NotFound は不在ユーザーでUSER_NOT_FOUNDが返ることを検証する。
func TestService_Get_NotFound(t *testing.T) {
	svc := NewService(&mockUserRepo{}, nil, nil, nil, nil)

	_, err := svc.Get(context.Background(), "no-such")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeUserNotFound {
		t.Fatalf("expected USER_NOT_FOUND, got %v", err)
	}
}

// TestService_UpdateProfile は再認証成功後にプロフィールが更新されることを検証する。
func TestService_UpdateProfile(t *testing.T) {
	var updated *model.User
	userRepo := &mockUserRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.User, error) {
			return existingUser(), nil
		},
		updateFn: func(ctx context.Context, user *model.User) error {
			updated = user
			return nil
		},
	}
	authenticator := &mockAuthenticator{
		authenticateFn: func(ctx context.Context, username, password string) (*model.User, error) {
			if username != "taro" {
				t.Errorf("re-auth username = %q, want current username %q", username, "taro")
			}
			return existingUser(), nil
		},
	}
	svc := NewService(userRepo, nil, authenticator, nil, nil)

	input := UpdateProfileInput{Username: "taro2", Email: "taro2@example.com", CurrentPassword: "secret123"}
	user, err := svc.UpdateProfile(context.Background(), "user-1", "user-1", input)
	if err != nil {
		t.Fatalf("UpdateProfile returned error: %v", err)
	}
	if user.Username != "taro2" || user.Email != "taro2@example.com" {
		t.Errorf("updated user = %+v", user)
	}
	if updated == nil {
		t.Fatal("expected Update to be called")
	}
}

// TestService_UpdateProfile_WrongPassword は再認証失敗でINVALID_CREDENTIALSが
// 返り、更新されないことを検証する。
func TestService_UpdateProfile_WrongPassword(t *testing.T) {
	userRepo := &mockUserRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.User, error) {
			return existingUser(), nil
		},
		updateFn: func(ctx context.Context, user *model.User) error {
			t.Fatal("Update should not be called when re-auth fails")
			return nil
		},
	}
	authenticator := &mockAuthenticator{
		authenticateFn: func(ctx context.Context, username, password string) (*model.User, error) {
			return nil, nil
		},
	}
	svc := NewService(userRepo, nil, authenticator, nil, nil)

	input := UpdateProfileInput{Username: "taro2", Email: "taro2@example.com", CurrentPassword: "wrong"}
	_, err := svc.UpdateProfile(context.Background(), "user-1", "user-1", input)
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeInvalidCredentials {
		t.Fatalf("expected INVALID_CREDENTIALS, got %v", err)
	}
}

// TestService_UpdateProfile_WrongUser は他人のプロフィール更新が拒否されることを検証する。
func TestService_UpdateProfile_WrongUser(t *testing.T) {
	svc := NewService(&mockUserRepo{}, nil, nil, nil, nil)

	input := UpdateProfileInput{Username: "x", Email: "x@example.com", CurrentPassword: "secret"}
	_, err := svc.UpdateProfile(context.Background(), "user-1", "user-other", input)
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeUnauthorized {
		t.Fatalf("expected UNAUTHORIZED, got %v", err)
	}
}

// TestService_UpdateProfile_UsernameTaken は新しいユーザー名の重複が
// 一意制約違反として伝播することを検証する。
func TestService_UpdateProfile_UsernameTaken(t *testing.T) {
	userRepo := &mockUserRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.User, error) {
			return existingUser(), nil
		},
		updateFn: func(ctx context.Context, user *model.User) error {
			return model.NewUsernameTakenError(user.Username)
		},
	}
	authenticator := &mockAuthenticator{
		authenticateFn: func(ctx context.Context, username, password string) (*model.User, error) {
			return existingUser(), nil
		},
	}
	svc := NewService(userRepo, nil, authenticator, nil, nil)

	input := UpdateProfileInput{Username: "someone-else", Email: "taro@example.com", CurrentPassword: "secret123"}
	_, err := svc.UpdateProfile(context.Background(), "user-1", "user-1", input)
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeUsernameTaken {
		t.Fatalf("expected USERNAME_TAKEN, got %v", err)
	}
}

// TestService_Withdraw は退会時に関連データ→セッション→ユーザーの順で
// 削除されることを検証する。
func TestService_Withdraw(t *testing.T) {
	var order []string

	userDeleted := false
	userRepo := &mockUserRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.User, error) {
			return existingUser(), nil
		},
		deleteByIDFn: func(ctx context.Context, id string) error {
			userDeleted = true
			order = append(order, "user")
			return nil
		},
	}
	sessionRepo := repository.NewMemorySessionRepo()
	sessionRepo.Create(context.Background(), &model.Session{ID: "s-1", UserID: "user-1"})

	ignoredDeleter := &mockDeleter{order: &order, name: "ignored"}
	activityDeleter := &mockDeleter{order: &order, name: "activities"}

	svc := NewService(userRepo, sessionRepo, nil, activityDeleter, ignoredDeleter)

	if err := svc.Withdraw(context.Background(), "user-1"); err != nil {
		t.Fatalf("Withdraw returned error: %v", err)
	}
	if !userDeleted {
		t.Error("expected user to be deleted")
	}
	if !ignoredDeleter.called || !activityDeleter.called {
		t.Error("expected related data to be deleted")
	}

	want := []string{"ignored", "activities", "user"}
	if len(order) != len(want) {
		t.Fatalf("deletion order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("deletion order = %v, want %v", order, want)
		}
	}
}

// TestService_Withdraw_Anonymous は未ログインの退会が拒否されることを検証する。
func TestService_Withdraw_Anonymous(t *testing.T) {
	svc := NewService(&mockUserRepo{}, nil, nil, nil, nil)

	err := svc.Withdraw(context.Background(), "")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeUnauthorized {
		t.Fatalf("expected UNAUTHORIZED, got %v", err)
	}
}
