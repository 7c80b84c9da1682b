package repository

import (
	"context"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type FavoriteGormRepository struct {
	db *gorm.DB
}

func NewFavoriteGormRepository(db *gorm.DB) *FavoriteGormRepository {
	return &FavoriteGormRepository{db: db}
}

func (r *FavoriteGormRepository) Exists(ctx context.Context, userID, productID int64) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Favorite{}).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Count(&n).Error
	return n > 0, err
}

// 二重登録は無視
func (r *FavoriteGormRepository) Create(ctx context.Context, userID, productID int64) error {
	fav := model.Favorite{UserID: userID, ProductID: productID}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Omit("Product").
		Create(&fav).Error
}

func (r *FavoriteGormRepository) Delete(ctx context.Context, userID, productID int64) error {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&model.Favorite{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *FavoriteGormRepository) ListByUserID(ctx context.Context, userID int64) ([]model.Favorite, error) {
	var favs []model.Favorite
	err := r.db.WithContext(ctx).
		Preload("Product.Images", orderedImages).
		Preload("Product.Category").
		Where("user_id = ?", userID).
		Order("id desc").
		Find(&favs).Error
	if err != nil {
		return []model.Favorite{}, err
	}
	return favs, nil
}

func (r *FavoriteGormRepository) DeleteByProductID(ctx context.Context, productID int64) error {
	return r.db.WithContext(ctx).Where("product_id = ?", productID).Delete(&model.Favorite{}).Error
}
