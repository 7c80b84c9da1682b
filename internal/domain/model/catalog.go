package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// カテゴリ（slugは一意）
type Category struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string    `gorm:"type:varchar(255);not null" json:"name"`
	Slug        string    `gorm:"type:varchar(255);not null;uniqueIndex" json:"slug"`
	Description *string   `gorm:"type:text" json:"description,omitempty"`
	CreatedAt   time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

type Product struct {
	ID           int64            `gorm:"primaryKey;autoIncrement" json:"id"`
	Name         string           `gorm:"type:varchar(255);not null" json:"name"`
	Slug         string           `gorm:"type:varchar(255);not null;uniqueIndex" json:"slug"`
	Description  string           `gorm:"type:text;not null" json:"description"`
	Price        decimal.Decimal  `gorm:"type:numeric(10,2);not null" json:"price"`
	ComparePrice *decimal.Decimal `gorm:"type:numeric(10,2)" json:"compare_price,omitempty"`
	CategoryID   int64            `gorm:"not null;index" json:"category_id"`
	IsActive     bool             `gorm:"not null;default:true;index" json:"is_active"`
	Featured     bool             `gorm:"not null;default:false;index" json:"featured"`
	CreatedAt    time.Time        `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time        `gorm:"not null;autoUpdateTime" json:"updated_at"`

	Category *Category        `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Images   []ProductImage   `gorm:"foreignKey:ProductID" json:"images,omitempty"`
	Variants []ProductVariant `gorm:"foreignKey:ProductID" json:"variants,omitempty"`
}

// 画像はSortOrder順で表示
type ProductImage struct {
	ID        int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID int64  `gorm:"not null;index" json:"product_id"`
	URL       string `gorm:"type:text;not null" json:"url"`
	Alt       string `gorm:"type:varchar(255)" json:"alt"`
	SortOrder int    `gorm:"not null;default:0" json:"sort_order"`
}

// サイズ・色ごとの在庫単位
type ProductVariant struct {
	ID        int64   `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID int64   `gorm:"not null;index" json:"product_id"`
	Size      string  `gorm:"type:varchar(20);not null" json:"size"`
	Color     string  `gorm:"type:varchar(50);not null;default:'Default'" json:"color"`
	ColorHex  *string `gorm:"type:varchar(10)" json:"color_hex,omitempty"`
	Stock     int64   `gorm:"not null;default:0;check:stock >= 0" json:"stock"`
	SKU       string  `gorm:"column:sku;type:varchar(255);not null;uniqueIndex" json:"sku"`

	Product *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}

const DefaultVariantColor = "Default"
