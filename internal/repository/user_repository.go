package repository

import (
	"context"

	"storefront/internal/domain/model"
)

type UserListFilter struct {
	Role   *model.Role
	Search string
	Page   int
	Limit  int
}

// 保存・取得を約束
type UserRepository interface {
	//新規ユーザー作成（email重複はErrConflict）
	Create(ctx context.Context, user *model.User) error
	// IDからユーザーを1件取得する。無ければErrNotFound
	FindByID(ctx context.Context, userID int64) (*model.User, error)
	//メールからユーザーを一件取得する。無ければErrNotFound
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	Update(ctx context.Context, user *model.User) error
	//トークンのバージョンを＋１
	IncrementTokenVersion(ctx context.Context, userID int64) error
	List(ctx context.Context, f UserListFilter) ([]model.User, int64, error)
	CountByRole(ctx context.Context, role model.Role) (int64, error)
}
