package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// 注文明細。バリアントが消えてもスナップショットで履歴を表示できる。
type OrderItem struct {
	ID          int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID     int64           `gorm:"not null;index" json:"order_id"`
	VariantID   *int64          `gorm:"index" json:"variant_id"`
	ProductID   *int64          `gorm:"index" json:"product_id"`
	ProductName string          `gorm:"type:varchar(255);not null" json:"product_name"`
	Size        string          `gorm:"type:varchar(20);not null" json:"size"`
	Color       string          `gorm:"type:varchar(50);not null" json:"color"`
	SKU         string          `gorm:"column:sku;type:varchar(255);not null" json:"sku"`
	Price       decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"price"`
	Quantity    int64           `gorm:"not null" json:"quantity"`
	CreatedAt   time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
}

func (i OrderItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(i.Quantity))
}
