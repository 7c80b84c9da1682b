package repository

import (
	"context"

	"storefront/internal/domain/model"
)

// 一覧表示用（商品数つき）
type CategorySummary struct {
	model.Category
	ProductCount int64 `json:"product_count"`
}

type CategoryRepository interface {
	// activeOnly=trueなら公開商品だけ数える
	ListWithCounts(ctx context.Context, activeOnly bool) ([]CategorySummary, error)
	FindByID(ctx context.Context, id int64) (model.Category, error)
	FindBySlug(ctx context.Context, slug string) (model.Category, error)
	// excludeIDは自分自身を除外するため（新規は0）
	SlugExists(ctx context.Context, slug string, excludeID int64) (bool, error)
	Create(ctx context.Context, c *model.Category) error
	Update(ctx context.Context, c model.Category) error
	Delete(ctx context.Context, id int64) error
	CountProducts(ctx context.Context, id int64) (int64, error)
}
