package model

import "time"

// お気に入り（ユーザー×商品で一意）
type Favorite struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    int64     `gorm:"not null;uniqueIndex:idx_fav_user_product" json:"user_id"`
	ProductID int64     `gorm:"not null;uniqueIndex:idx_fav_user_product;index" json:"product_id"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`

	Product *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}
