package repository

import (
	"context"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"gorm.io/gorm"
)

type PaymentGormRepository struct {
	db *gorm.DB
}

func NewPaymentGormRepository(db *gorm.DB) *PaymentGormRepository {
	return &PaymentGormRepository{db: db}
}

func (r *PaymentGormRepository) Create(ctx context.Context, p *model.Payment) error {
	return mapError(r.db.WithContext(ctx).Create(p).Error)
}

func (r *PaymentGormRepository) FindByOrderID(ctx context.Context, orderID int64) (model.Payment, error) {
	var p model.Payment
	if err := r.db.WithContext(ctx).Where("order_id = ?", orderID).First(&p).Error; err != nil {
		return model.Payment{}, mapError(err)
	}
	return p, nil
}

func (r *PaymentGormRepository) UpdateStatus(ctx context.Context, orderID int64, status model.PaymentStatus, paidAt *time.Time) error {
	updates := map[string]interface{}{"status": status}
	if paidAt != nil {
		updates["paid_at"] = *paidAt
	}

	res := r.db.WithContext(ctx).Model(&model.Payment{}).Where("order_id = ?", orderID).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}
