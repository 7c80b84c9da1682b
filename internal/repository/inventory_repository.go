package repository

import (
	"context"

	"storefront/internal/domain/model"
)

type InventoryRepository interface {
	// 商品込みでバリアント取得
	FindVariant(ctx context.Context, variantID int64) (model.ProductVariant, error)

	// 在庫の現在値を設定
	SetStock(ctx context.Context, variantID int64, newStock int64) error

	// 在庫が足りるときだけ減算（UPDATE ... WHERE stock >= qty）
	DecreaseStockIfEnough(ctx context.Context, variantID int64, qty int64) (bool, error)

	// 在庫戻し（キャンセルなど）
	IncreaseStock(ctx context.Context, variantID int64, qty int64) error

	// 調整履歴作成
	CreateAdjustment(ctx context.Context, adjustment model.InventoryAdjustment) error
}
