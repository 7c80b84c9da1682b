package model

// AutoMigrate対象（依存順）
func All() []interface{} {
	return []interface{}{
		&User{},
		&RefreshToken{},
		&Category{},
		&Product{},
		&ProductImage{},
		&ProductVariant{},
		&Cart{},
		&CartItem{},
		&Address{},
		&Order{},
		&OrderItem{},
		&Payment{},
		&Favorite{},
		&InventoryAdjustment{},
		&AuditLog{},
	}
}
