package repository

import (
	"context"

	"storefront/internal/domain/model"
)

// 配送先住所。注文が参照するので作成後は is_default 以外変えない。
type AddressRepository interface {
	Create(ctx context.Context, address *model.Address) error
	FindByID(ctx context.Context, addressID int64) (model.Address, error)
	// 無ければErrNotFound
	FindDefault(ctx context.Context, userID int64) (model.Address, error)
	ListByUserID(ctx context.Context, userID int64) ([]model.Address, error)
	// ユーザー内でdefaultは1件だけ。他人の住所ならErrNotFound
	SetDefault(ctx context.Context, userID, addressID int64) error
}
