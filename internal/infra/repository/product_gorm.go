package repository

import (
	"context"
	"strings"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"gorm.io/gorm"
)

type ProductGormRepository struct {
	db *gorm.DB
}

// DI
func NewProductGormRepository(db *gorm.DB) *ProductGormRepository {
	return &ProductGormRepository{db: db}
}

func orderedImages(db *gorm.DB) *gorm.DB {
	return db.Order("product_images.sort_order asc, product_images.id asc")
}

func orderedVariants(db *gorm.DB) *gorm.DB {
	return db.Order("product_variants.id asc")
}

// 検索/カテゴリ/価格帯/おすすめ/ソート/ページング付きで返す。
func (r *ProductGormRepository) List(ctx context.Context, q repo.ProductListQuery) ([]model.Product, int64, error) {
	var products []model.Product
	var total int64

	page, limit := normalizePage(q.Page, q.Limit, 12, 100)

	tx := r.db.WithContext(ctx).Model(&model.Product{})

	// 公開（is_active=true）だけ
	if !q.IncludeInactive {
		tx = tx.Where("products.is_active = ?", true)
	}

	// q nameと説明を対象
	if s := strings.TrimSpace(q.Q); s != "" {
		like := "%" + s + "%"
		tx = tx.Where("(products.name ILIKE ? OR products.description ILIKE ?)", like, like)
	}

	if q.CategorySlug != "" {
		tx = tx.Joins("JOIN categories ON categories.id = products.category_id").
			Where("categories.slug = ?", q.CategorySlug)
	}

	//価格帯
	if q.MinPrice != nil {
		tx = tx.Where("products.price >= ?", *q.MinPrice)
	}
	if q.MaxPrice != nil {
		tx = tx.Where("products.price <= ?", *q.MaxPrice)
	}
	if q.Featured != nil {
		tx = tx.Where("products.featured = ?", *q.Featured)
	}

	//total（件数）
	if err := tx.Count(&total).Error; err != nil {
		return []model.Product{}, 0, err
	}

	//sort
	switch q.Sort {
	case "price_asc":
		tx = tx.Order("products.price asc").Order("products.id asc")
	case "price_desc":
		tx = tx.Order("products.price desc").Order("products.id desc")
	case "name":
		tx = tx.Order("products.name asc").Order("products.id asc")
	default:
		tx = tx.Order("products.created_at desc").Order("products.id desc")
	}

	offset := (page - 1) * limit
	err := tx.
		Preload("Category").
		Preload("Images", orderedImages).
		Preload("Variants", orderedVariants).
		Offset(offset).Limit(limit).
		Find(&products).Error
	if err != nil {
		return []model.Product{}, 0, err
	}

	return products, total, nil
}

func (r *ProductGormRepository) preloaded(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Category").
		Preload("Images", orderedImages).
		Preload("Variants", orderedVariants)
}

// IDで商品を取得
func (r *ProductGormRepository) FindByID(ctx context.Context, id int64) (model.Product, error) {
	var p model.Product
	if err := r.preloaded(ctx).First(&p, id).Error; err != nil {
		return model.Product{}, mapError(err)
	}
	return p, nil
}

func (r *ProductGormRepository) FindBySlug(ctx context.Context, slug string) (model.Product, error) {
	var p model.Product
	if err := r.preloaded(ctx).Where("slug = ?", slug).First(&p).Error; err != nil {
		return model.Product{}, mapError(err)
	}
	return p, nil
}

func (r *ProductGormRepository) SlugExists(ctx context.Context, slug string, excludeID int64) (bool, error) {
	var n int64
	q := r.db.WithContext(ctx).Model(&model.Product{}).Where("slug = ?", slug)
	if excludeID > 0 {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// 商品の作成（Images / Variants も同時に保存される）
func (r *ProductGormRepository) Create(ctx context.Context, p *model.Product) error {
	if err := r.db.WithContext(ctx).Omit("Category").Create(p).Error; err != nil {
		return mapError(err)
	}
	// is_activeはdefault:trueのためfalseがINSERTで落ちる
	if !p.IsActive {
		return r.SetActive(ctx, p.ID, false)
	}
	return nil
}

// 商品の更新
func (r *ProductGormRepository) Update(ctx context.Context, p model.Product) error {
	res := r.db.WithContext(ctx).Model(&model.Product{}).Where("id = ?", p.ID).Updates(map[string]interface{}{
		"name":          p.Name,
		"slug":          p.Slug,
		"description":   p.Description,
		"price":         p.Price,
		"compare_price": p.ComparePrice,
		"category_id":   p.CategoryID,
		"is_active":     p.IsActive,
		"featured":      p.Featured,
	})
	if res.Error != nil {
		return mapError(res.Error)
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *ProductGormRepository) SetActive(ctx context.Context, id int64, active bool) error {
	res := r.db.WithContext(ctx).Model(&model.Product{}).Where("id = ?", id).Update("is_active", active)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// 商品削除（画像・バリアントは呼び出し側で先に消す）
func (r *ProductGormRepository) Delete(ctx context.Context, id int64) error {
	if err := r.db.WithContext(ctx).Where("product_id = ?", id).Delete(&model.ProductImage{}).Error; err != nil {
		return err
	}
	res := r.db.WithContext(ctx).Delete(&model.Product{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// 画像は差分を取らず全入れ替え
func (r *ProductGormRepository) ReplaceImages(ctx context.Context, productID int64, images []model.ProductImage) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("product_id = ?", productID).Delete(&model.ProductImage{}).Error; err != nil {
		return err
	}
	if len(images) == 0 {
		return nil
	}
	for i := range images {
		images[i].ID = 0
		images[i].ProductID = productID
	}
	return mapError(db.Create(&images).Error)
}

func (r *ProductGormRepository) DeleteVariants(ctx context.Context, productID int64) error {
	return r.db.WithContext(ctx).Where("product_id = ?", productID).Delete(&model.ProductVariant{}).Error
}

func (r *ProductGormRepository) CreateVariants(ctx context.Context, variants []model.ProductVariant) error {
	if len(variants) == 0 {
		return nil
	}
	return mapError(r.db.WithContext(ctx).Omit("Product").Create(&variants).Error)
}

func (r *ProductGormRepository) VariantIDs(ctx context.Context, productID int64) ([]int64, error) {
	var ids []int64
	err := r.db.WithContext(ctx).Model(&model.ProductVariant{}).
		Where("product_id = ?", productID).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *ProductGormRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Product{}).Count(&n).Error
	return n, err
}
