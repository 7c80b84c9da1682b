package repository

import (
	"context"

	"storefront/internal/domain/model"

	"github.com/shopspring/decimal"
)

// 一覧検索
type ProductListQuery struct {
	Page         int
	Limit        int
	Q            string
	CategorySlug string
	MinPrice     *decimal.Decimal
	MaxPrice     *decimal.Decimal
	Featured     *bool
	Sort         string

	// 管理画面では非公開も含める
	IncludeInactive bool
}

// 商品の永続化（保存・取得）だけを約束。
type ProductRepository interface {
	List(ctx context.Context, q ProductListQuery) ([]model.Product, int64, error)
	// 画像・バリアント・カテゴリ込み
	FindByID(ctx context.Context, id int64) (model.Product, error)
	FindBySlug(ctx context.Context, slug string) (model.Product, error)
	SlugExists(ctx context.Context, slug string, excludeID int64) (bool, error)

	// 画像・バリアントも一緒に作る
	Create(ctx context.Context, p *model.Product) error
	// スカラー項目だけ更新
	Update(ctx context.Context, p model.Product) error
	SetActive(ctx context.Context, id int64, active bool) error
	Delete(ctx context.Context, id int64) error

	ReplaceImages(ctx context.Context, productID int64, images []model.ProductImage) error
	DeleteVariants(ctx context.Context, productID int64) error
	CreateVariants(ctx context.Context, variants []model.ProductVariant) error
	VariantIDs(ctx context.Context, productID int64) ([]int64, error)

	Count(ctx context.Context) (int64, error)
}
