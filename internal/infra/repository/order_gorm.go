package repository

import (
	"context"
	"strings"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"gorm.io/gorm"
)

type OrderGormRepository struct {
	db *gorm.DB
}

func NewOrderGormRepository(db *gorm.DB) *OrderGormRepository {
	return &OrderGormRepository{db: db}
}

func orderedItems(db *gorm.DB) *gorm.DB {
	return db.Order("order_items.id asc")
}

func (r *OrderGormRepository) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	var o model.Order
	err := r.db.WithContext(ctx).
		Preload("Items", orderedItems).
		Preload("Payment").
		Preload("Address").
		Preload("User").
		Where("id = ?", orderID).
		First(&o).Error
	if err != nil {
		return model.Order{}, mapError(err)
	}
	return o, nil
}

func (r *OrderGormRepository) ListByUserID(ctx context.Context, userID int64, page int, limit int) ([]model.Order, int64, error) {
	page, limit = normalizePage(page, limit, 20, 100)

	var total int64
	if err := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("user_id = ?", userID).
		Count(&total).Error; err != nil {
		return []model.Order{}, 0, err
	}

	var items []model.Order
	offset := (page - 1) * limit
	err := r.db.WithContext(ctx).
		Preload("Items", orderedItems).
		Preload("Payment").
		Where("user_id = ?", userID).
		Order("id desc").
		Limit(limit).
		Offset(offset).
		Find(&items).Error
	if err != nil {
		return []model.Order{}, 0, err
	}

	return items, total, nil
}

// 明細・支払いは別テーブルで作る
func (r *OrderGormRepository) Create(ctx context.Context, order *model.Order) error {
	return mapError(r.db.WithContext(ctx).
		Omit("Address", "Items", "Payment", "User").
		Create(order).Error)
}

func (r *OrderGormRepository) UpdateStatus(ctx context.Context, orderID int64, status model.OrderStatus) error {
	res := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ?", orderID).
		Update("status", status)

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *OrderGormRepository) ExistsByOrderNumber(ctx context.Context, orderNumber string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Order{}).Where("order_number = ?", orderNumber).Count(&n).Error
	return n > 0, err
}

func (r *OrderGormRepository) FindByIdempotencyKey(ctx context.Context, userID int64, key string) (model.Order, bool, error) {
	var o model.Order
	err := r.db.WithContext(ctx).
		Preload("Items", orderedItems).
		Preload("Payment").
		Where("user_id = ? AND idempotency_key = ?", userID, key).
		First(&o).Error

	if isNotFound(err) {
		return model.Order{}, false, nil
	}
	if err != nil {
		return model.Order{}, false, err
	}
	return o, true, nil
}

func (r *OrderGormRepository) ListAdmin(ctx context.Context, f repo.AdminOrderListFilter) ([]model.Order, int64, error) {
	f.Page, f.Limit = normalizePage(f.Page, f.Limit, 50, 100)

	q := r.db.WithContext(ctx).Model(&model.Order{})

	//status 絞り込み
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}

	//user_id 絞り込み
	if f.UserID != nil {
		q = q.Where("user_id = ?", *f.UserID)
	}

	//注文番号
	if s := strings.TrimSpace(f.Search); s != "" {
		q = q.Where("order_number ILIKE ?", "%"+s+"%")
	}

	//期間絞り込み
	if f.From != nil {
		q = q.Where("created_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("created_at <= ?", *f.To)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return []model.Order{}, 0, err
	}

	var items []model.Order
	offset := (f.Page - 1) * f.Limit
	if err := q.
		Preload("Items", orderedItems).
		Preload("Payment").
		Preload("User").
		Order("id desc").Limit(f.Limit).Offset(offset).
		Find(&items).Error; err != nil {
		return []model.Order{}, 0, err
	}

	return items, total, nil
}

func (r *OrderGormRepository) Count(ctx context.Context, status *model.OrderStatus) (int64, error) {
	var n int64
	q := r.db.WithContext(ctx).Model(&model.Order{})
	if status != nil {
		q = q.Where("status = ?", *status)
	}
	err := q.Count(&n).Error
	return n, err
}
