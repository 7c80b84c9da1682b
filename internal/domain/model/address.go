package model

import "time"

const DefaultCountry = "Perú"

// 配送先住所
type Address struct {
	ID       int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID   int64  `gorm:"not null;index" json:"user_id"`
	FullName string `gorm:"type:varchar(255);not null" json:"full_name"`
	Phone    string `gorm:"type:varchar(30);not null" json:"phone"`

	//番地など
	Street string `gorm:"type:varchar(255);not null" json:"street"`
	City   string `gorm:"type:varchar(255);not null" json:"city"`
	State  string `gorm:"type:varchar(255)" json:"state"`

	//郵便番号
	ZipCode string `gorm:"type:varchar(20)" json:"zip_code"`
	Country string `gorm:"type:varchar(100);not null;default:'Perú'" json:"country"`

	IsDefault bool `gorm:"not null;default:false" json:"is_default"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}
