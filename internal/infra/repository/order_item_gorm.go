package repository

import (
	"context"

	"storefront/internal/domain/model"

	"gorm.io/gorm"
)

type OrderItemGormRepository struct {
	db *gorm.DB
}

func NewOrderItemGormRepository(db *gorm.DB) *OrderItemGormRepository {
	return &OrderItemGormRepository{db: db}
}

func (r *OrderItemGormRepository) CreateBulk(ctx context.Context, orderID int64, items []model.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	for i := range items {
		items[i].OrderID = orderID
	}
	return mapError(r.db.WithContext(ctx).Create(&items).Error)
}

func (r *OrderItemGormRepository) ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderItem, error) {
	var items []model.OrderItem
	err := r.db.WithContext(ctx).Where("order_id = ?", orderID).Order("id asc").Find(&items).Error
	if err != nil {
		return []model.OrderItem{}, err
	}
	return items, nil
}

// variant_id を NULL にする。商品名・サイズ・価格のスナップショットはそのまま。
func (r *OrderItemGormRepository) DetachVariants(ctx context.Context, variantIDs []int64) error {
	if len(variantIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&model.OrderItem{}).
		Where("variant_id IN ?", variantIDs).
		Update("variant_id", gorm.Expr("NULL")).Error
}
