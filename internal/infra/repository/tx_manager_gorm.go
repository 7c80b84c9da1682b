package repository

import (
	"context"

	repo "storefront/internal/repository"

	"gorm.io/gorm"
)

// txスコープのDBからその場でrepoを作る
type txScope struct {
	tx *gorm.DB
}

func (s txScope) Orders() repo.OrderRepository         { return NewOrderGormRepository(s.tx) }
func (s txScope) OrderItems() repo.OrderItemRepository { return NewOrderItemGormRepository(s.tx) }
func (s txScope) Payments() repo.PaymentRepository     { return NewPaymentGormRepository(s.tx) }
func (s txScope) Addresses() repo.AddressRepository    { return NewAddressGormRepository(s.tx) }
func (s txScope) Carts() repo.CartRepository           { return NewCartGormRepository(s.tx) }
func (s txScope) CartItems() repo.CartItemRepository   { return NewCartGormRepository(s.tx) }
func (s txScope) Inventory() repo.InventoryRepository  { return NewInventoryGormRepository(s.tx) }
func (s txScope) Products() repo.ProductRepository     { return NewProductGormRepository(s.tx) }
func (s txScope) Categories() repo.CategoryRepository  { return NewCategoryGormRepository(s.tx) }
func (s txScope) Favorites() repo.FavoriteRepository   { return NewFavoriteGormRepository(s.tx) }
func (s txScope) AuditLogs() repo.AuditLogRepository   { return NewAuditLogGormRepository(s.tx) }

var _ repo.TxRepos = txScope{}

type TxManagerGorm struct {
	db *gorm.DB
}

func NewTxManagerGorm(db *gorm.DB) *TxManagerGorm {
	return &TxManagerGorm{db: db}
}

// fnがnilを返したらcommit、errorかpanicならrollback
func (tm *TxManagerGorm) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	return tm.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(txScope{tx: tx})
	})
}
