package auth

import (
	"errors"
	"testing"

	"github.com/moriyama/asobi/internal/model"
)

// TestRequireSelf は本人以外のアクセスが拒否されることを検証する。
func TestRequireSelf(t *testing.T) {
	tests := []struct {
		name    string
		acting  string
		owner   string
		wantErr bool
	}{
		{"self", "user-1", "user-1", false},
		{"other user", "user-1", "user-2", true},
		{"anonymous", "", "user-1", true},
		{"empty owner", "user-1", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := RequireSelf(tt.acting, tt.owner)
			if tt.wantErr {
				var apiErr *model.APIError
				if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeUnauthorized {
					t.Fatalf("expected UNAUTHORIZED, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("RequireSelf returned error: %v", err)
			}
		})
	}
}
