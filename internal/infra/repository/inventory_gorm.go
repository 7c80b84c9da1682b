package repository

import (
	"context"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"gorm.io/gorm"
)

type InventoryGormRepository struct {
	db *gorm.DB
}

func NewInventoryGormRepository(db *gorm.DB) *InventoryGormRepository {
	return &InventoryGormRepository{db: db}
}

func (r *InventoryGormRepository) FindVariant(ctx context.Context, variantID int64) (model.ProductVariant, error) {
	var v model.ProductVariant
	if err := r.db.WithContext(ctx).Preload("Product").First(&v, variantID).Error; err != nil {
		return model.ProductVariant{}, mapError(err)
	}
	return v, nil
}

// 在庫の現在値を設定
func (r *InventoryGormRepository) SetStock(ctx context.Context, variantID int64, newStock int64) error {
	res := r.db.WithContext(ctx).
		Model(&model.ProductVariant{}).
		Where("id = ?", variantID).
		Update("stock", newStock)

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// 在庫が足りるときだけ減らす（条件付きUPDATEで同時注文でもマイナスにならない）
func (r *InventoryGormRepository) DecreaseStockIfEnough(ctx context.Context, variantID int64, qty int64) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.ProductVariant{}).
		Where("id = ? AND stock >= ?", variantID, qty).
		Update("stock", gorm.Expr("stock - ?", qty))

	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	return true, nil
}

// 在庫戻し（キャンセル）
func (r *InventoryGormRepository) IncreaseStock(ctx context.Context, variantID int64, qty int64) error {
	res := r.db.WithContext(ctx).
		Model(&model.ProductVariant{}).
		Where("id = ?", variantID).
		Update("stock", gorm.Expr("stock + ?", qty))

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// 調整履歴作成
func (r *InventoryGormRepository) CreateAdjustment(ctx context.Context, adj model.InventoryAdjustment) error {
	return r.db.WithContext(ctx).Create(&adj).Error
}
