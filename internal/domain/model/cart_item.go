package model

import "time"

// カートの明細。価格は持たず、表示と注文時は商品の現在価格を使う。
type CartItem struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	CartID    int64     `gorm:"not null;uniqueIndex:idx_cart_variant" json:"cart_id"`
	VariantID int64     `gorm:"not null;uniqueIndex:idx_cart_variant;index" json:"variant_id"`
	Quantity  int64     `gorm:"not null;check:quantity >= 1" json:"quantity"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`

	Variant *ProductVariant `gorm:"foreignKey:VariantID" json:"variant,omitempty"`
}
