package model

import "time"

// 管理画面からの在庫変更履歴。
// Deltaは StockAfter - StockBefore。
type InventoryAdjustment struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID   int64     `gorm:"not null;index" json:"product_id"`
	VariantID   int64     `gorm:"not null;index" json:"variant_id"`
	AdminUserID int64     `gorm:"not null;index" json:"admin_user_id"`
	StockBefore int64     `gorm:"not null" json:"stock_before"`
	StockAfter  int64     `gorm:"not null" json:"stock_after"`
	Delta       int64     `gorm:"not null" json:"delta"`
	Reason      string    `gorm:"type:varchar(255);not null" json:"reason"`
	CreatedAt   time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}

func NewInventoryAdjustment(v ProductVariant, adminID int64, newStock int64, reason string, at time.Time) InventoryAdjustment {
	return InventoryAdjustment{
		ProductID:   v.ProductID,
		VariantID:   v.ID,
		AdminUserID: adminID,
		StockBefore: v.Stock,
		StockAfter:  newStock,
		Delta:       newStock - v.Stock,
		Reason:      reason,
		CreatedAt:   at,
	}
}
