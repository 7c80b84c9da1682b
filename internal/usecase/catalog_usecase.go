package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"github.com/shopspring/decimal"
)

// 公開カタログ（読み取り専用）
type CatalogUsecase struct {
	categories repo.CategoryRepository
	products   repo.ProductRepository
}

func NewCatalogUsecase(categories repo.CategoryRepository, products repo.ProductRepository) *CatalogUsecase {
	return &CatalogUsecase{categories: categories, products: products}
}

type ListProductsInput struct {
	Page     int
	Limit    int
	Q        string
	Category string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	Featured *bool
	Sort     string
}

type ProductListOutput struct {
	Items []model.Product `json:"items"`
	Page
}

type CategoryDetailOutput struct {
	Category model.Category  `json:"category"`
	Products []model.Product `json:"products"`
	Page
}

const (
	defaultPageLimit = 12
	maxPageLimit     = 100
)

func (u *CatalogUsecase) ListCategories(ctx context.Context) ([]repo.CategorySummary, error) {
	cs, err := u.categories.ListWithCounts(ctx, true)
	if err != nil {
		return nil, dbError(err)
	}
	return cs, nil
}

// カテゴリと、その公開中の商品
func (u *CatalogUsecase) GetCategory(ctx context.Context, slug string, page, limit int) (CategoryDetailOutput, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return CategoryDetailOutput{}, notFound()
	}
	c, err := u.categories.FindBySlug(ctx, slug)
	if errors.Is(err, repo.ErrNotFound) {
		return CategoryDetailOutput{}, notFound()
	}
	if err != nil {
		return CategoryDetailOutput{}, dbError(err)
	}

	list, err := u.ListProducts(ctx, ListProductsInput{Page: page, Limit: limit, Category: c.Slug})
	if err != nil {
		return CategoryDetailOutput{}, err
	}
	return CategoryDetailOutput{Category: c, Products: list.Items, Page: list.Page}, nil
}

func (u *CatalogUsecase) ListProducts(ctx context.Context, in ListProductsInput) (ProductListOutput, error) {
	if in.Page == 0 {
		in.Page = 1
	}
	if in.Limit == 0 {
		in.Limit = defaultPageLimit
	}
	if err := validatePage(in.Page, in.Limit, maxPageLimit); err != nil {
		return ProductListOutput{}, err
	}
	if len(in.Q) > 100 {
		return ProductListOutput{}, badRequest("q too long")
	}
	if err := validatePriceRange(in.MinPrice, in.MaxPrice); err != nil {
		return ProductListOutput{}, err
	}
	sort, ok := normalizeSort(in.Sort)
	if !ok {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid sort")
	}

	items, total, err := u.products.List(ctx, repo.ProductListQuery{
		Page:         in.Page,
		Limit:        in.Limit,
		Q:            strings.TrimSpace(in.Q),
		CategorySlug: strings.TrimSpace(in.Category),
		MinPrice:     in.MinPrice,
		MaxPrice:     in.MaxPrice,
		Featured:     in.Featured,
		Sort:         sort,
	})
	if err != nil {
		return ProductListOutput{}, dbError(err)
	}
	if items == nil {
		items = []model.Product{}
	}
	return ProductListOutput{Items: items, Page: Page{Total: total, Page: in.Page, Limit: in.Limit}}, nil
}

// 非公開の商品は存在しない扱い
func (u *CatalogUsecase) GetProduct(ctx context.Context, slug string) (model.Product, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return model.Product{}, notFound()
	}
	p, err := u.products.FindBySlug(ctx, slug)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Product{}, notFound()
	}
	if err != nil {
		return model.Product{}, dbError(err)
	}
	if !p.IsActive {
		return model.Product{}, notFound()
	}
	return p, nil
}

func validatePriceRange(min, max *decimal.Decimal) error {
	if min != nil && min.IsNegative() {
		return badRequest("invalid min_price")
	}
	if max != nil && max.IsNegative() {
		return badRequest("invalid max_price")
	}
	if min != nil && max != nil && min.GreaterThan(*max) {
		return badRequest("invalid price range")
	}
	return nil
}

// 空はnew扱い
func normalizeSort(s string) (string, bool) {
	switch strings.TrimSpace(s) {
	case "", "new":
		return "new", true
	case "price_asc", "price_desc", "name":
		return s, true
	}
	return "", false
}
