package repository

import (
	"context"

	"storefront/internal/domain/model"
)

type CartItemRepository interface {
	// Variant.Product まで読み込む
	ListByCartID(ctx context.Context, cartID int64) ([]model.CartItem, error)
	// 同一バリアントは数量をセット
	Upsert(ctx context.Context, cartID int64, variantID int64, qty int64) error
	UpdateQuantity(ctx context.Context, cartItemID int64, qty int64) error
	DeleteByID(ctx context.Context, cartItemID int64) error
	FindByID(ctx context.Context, cartItemID int64) (model.CartItem, error)
	IsOwnedByUser(ctx context.Context, cartItemID int64, userID int64) (bool, error)
	SumQuantityByUserID(ctx context.Context, userID int64) (int64, error)
	DeleteByVariantIDs(ctx context.Context, variantIDs []int64) error
}
