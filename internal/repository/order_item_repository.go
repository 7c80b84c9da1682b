package repository

import (
	"context"

	"storefront/internal/domain/model"
)

type OrderItemRepository interface {
	CreateBulk(ctx context.Context, orderID int64, items []model.OrderItem) error
	ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderItem, error)
	// バリアント削除前に参照を外す（スナップショットは残す）
	DetachVariants(ctx context.Context, variantIDs []int64) error
}
