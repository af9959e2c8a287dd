package auth

import "github.com/moriyama/asobi/internal/model"

// RequireSelf は操作主体がリソース所有者本人であることを検証する。
// 未認証（actingUserIDが空）または他人のリソースへのアクセスはUNAUTHORIZEDを返す。
// ユーザースコープのリソースへの読み取り・変更の前に必ず適用する。
func RequireSelf(actingUserID, ownerUserID string) error {
	if actingUserID == "" || actingUserID != ownerUserID {
		return model.NewUnauthorizedError()
	}
	return nil
}
