package repository

import (
	"context"
	"time"

	"storefront/internal/domain/model"
)

type AdminOrderListFilter struct {
	Page   int
	Limit  int
	Status string
	UserID *int64
	Search string
	From   *time.Time
	To     *time.Time
}

type OrderRepository interface {
	// 明細・支払い・住所込み
	FindByID(ctx context.Context, orderID int64) (model.Order, error)
	ListByUserID(ctx context.Context, userID int64, page int, limit int) ([]model.Order, int64, error)
	Create(ctx context.Context, order *model.Order) error
	UpdateStatus(ctx context.Context, orderID int64, status model.OrderStatus) error
	ExistsByOrderNumber(ctx context.Context, orderNumber string) (bool, error)

	//検索（同じキーなら同じ結果を返す）
	FindByIdempotencyKey(ctx context.Context, userID int64, key string) (model.Order, bool, error)
	//管理者用の注文一覧
	ListAdmin(ctx context.Context, f AdminOrderListFilter) ([]model.Order, int64, error)
	// statusがnilなら全件
	Count(ctx context.Context, status *model.OrderStatus) (int64, error)
}
