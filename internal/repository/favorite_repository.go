package repository

import (
	"context"

	"storefront/internal/domain/model"
)

type FavoriteRepository interface {
	Exists(ctx context.Context, userID, productID int64) (bool, error)
	Create(ctx context.Context, userID, productID int64) error
	Delete(ctx context.Context, userID, productID int64) error
	// Product.Images まで読み込む
	ListByUserID(ctx context.Context, userID int64) ([]model.Favorite, error)
	DeleteByProductID(ctx context.Context, productID int64) error
}
