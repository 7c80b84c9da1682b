package repository

import (
	"context"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"gorm.io/gorm"
)

type CategoryGormRepository struct {
	db *gorm.DB
}

func NewCategoryGormRepository(db *gorm.DB) *CategoryGormRepository {
	return &CategoryGormRepository{db: db}
}

// 名前順、商品数つき
func (r *CategoryGormRepository) ListWithCounts(ctx context.Context, activeOnly bool) ([]repo.CategorySummary, error) {
	join := "LEFT JOIN products ON products.category_id = categories.id"
	if activeOnly {
		join += " AND products.is_active = TRUE"
	}

	var out []repo.CategorySummary
	err := r.db.WithContext(ctx).
		Model(&model.Category{}).
		Select("categories.*, COUNT(products.id) AS product_count").
		Joins(join).
		Group("categories.id").
		Order("categories.name asc").
		Scan(&out).Error
	if err != nil {
		return []repo.CategorySummary{}, err
	}
	return out, nil
}

func (r *CategoryGormRepository) FindByID(ctx context.Context, id int64) (model.Category, error) {
	var c model.Category
	if err := r.db.WithContext(ctx).First(&c, id).Error; err != nil {
		return model.Category{}, mapError(err)
	}
	return c, nil
}

func (r *CategoryGormRepository) FindBySlug(ctx context.Context, slug string) (model.Category, error) {
	var c model.Category
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&c).Error; err != nil {
		return model.Category{}, mapError(err)
	}
	return c, nil
}

func (r *CategoryGormRepository) SlugExists(ctx context.Context, slug string, excludeID int64) (bool, error) {
	var n int64
	q := r.db.WithContext(ctx).Model(&model.Category{}).Where("slug = ?", slug)
	if excludeID > 0 {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *CategoryGormRepository) Create(ctx context.Context, c *model.Category) error {
	return mapError(r.db.WithContext(ctx).Create(c).Error)
}

func (r *CategoryGormRepository) Update(ctx context.Context, c model.Category) error {
	res := r.db.WithContext(ctx).Model(&model.Category{}).Where("id = ?", c.ID).Updates(map[string]interface{}{
		"name":        c.Name,
		"slug":        c.Slug,
		"description": c.Description,
	})
	if res.Error != nil {
		return mapError(res.Error)
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *CategoryGormRepository) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&model.Category{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *CategoryGormRepository) CountProducts(ctx context.Context, id int64) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Product{}).Where("category_id = ?", id).Count(&n).Error
	return n, err
}
