package repository

import (
	"context"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"gorm.io/gorm"
)

type addressGormRepository struct {
	db *gorm.DB
}

// DI
func NewAddressGormRepository(db *gorm.DB) repo.AddressRepository {
	return &addressGormRepository{db: db}
}

func (r *addressGormRepository) Create(ctx context.Context, address *model.Address) error {
	return mapError(r.db.WithContext(ctx).Create(address).Error)
}

func (r *addressGormRepository) FindByID(ctx context.Context, addressID int64) (model.Address, error) {
	var a model.Address
	if err := r.db.WithContext(ctx).First(&a, addressID).Error; err != nil {
		return model.Address{}, mapError(err)
	}
	return a, nil
}

func (r *addressGormRepository) FindDefault(ctx context.Context, userID int64) (model.Address, error) {
	var a model.Address
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND is_default = ?", userID, true).
		Order("id desc").
		First(&a).Error
	if err != nil {
		return model.Address{}, mapError(err)
	}
	return a, nil
}

// default が先頭、あとは新しい順
func (r *addressGormRepository) ListByUserID(ctx context.Context, userID int64) ([]model.Address, error) {
	var list []model.Address
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("is_default DESC, id DESC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

// 外側のtx内ならsavepointになる
func (r *addressGormRepository) SetDefault(ctx context.Context, userID, addressID int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Address{}).
			Where("user_id = ? AND is_default = ? AND id <> ?", userID, true, addressID).
			Update("is_default", false).Error; err != nil {
			return err
		}
		res := tx.Model(&model.Address{}).
			Where("id = ? AND user_id = ?", addressID, userID).
			Update("is_default", true)
		return affectedOne(res, repo.ErrNotFound)
	})
}
