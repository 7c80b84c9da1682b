package usecase

import (
	"context"
	"errors"
	"strings"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

type CategoryUsecase struct {
	tx         repo.TransactionManager
	categories repo.CategoryRepository
	clock      Clock
}

func NewCategoryUsecase(tx repo.TransactionManager, categories repo.CategoryRepository, clock Clock) *CategoryUsecase {
	return &CategoryUsecase{tx: tx, categories: categories, clock: clock}
}

type CategoryInput struct {
	Name        string
	Description *string
}

// 管理画面用（非公開商品も件数に含める）
func (u *CategoryUsecase) List(ctx context.Context, actor model.Actor) ([]repo.CategorySummary, error) {
	if !actor.IsAdmin() {
		return nil, unauthorized()
	}
	cs, err := u.categories.ListWithCounts(ctx, false)
	if err != nil {
		return nil, dbError(err)
	}
	return cs, nil
}

func (u *CategoryUsecase) Create(ctx context.Context, actor model.Actor, in CategoryInput) (model.Category, error) {
	if !actor.IsAdmin() {
		return model.Category{}, unauthorized()
	}
	in, err := normalizeCategoryInput(in)
	if err != nil {
		return model.Category{}, err
	}

	var out model.Category
	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		s, err := uniqueSlug(ctx, in.Name, func(ctx context.Context, c string) (bool, error) {
			return r.Categories().SlugExists(ctx, c, 0)
		})
		if err != nil {
			return err
		}
		c := model.Category{Name: in.Name, Slug: s, Description: in.Description}
		if err := r.Categories().Create(ctx, &c); err != nil {
			return writeError(err)
		}
		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  actor.UserID,
			Action:       model.AuditActionCreateCategory,
			ResourceType: model.AuditResourceCategory,
			ResourceID:   c.ID,
			BeforeJSON:   "{}",
			AfterJSON:    auditJSON(categoryAudit(c)),
			CreatedAt:    u.clock.Now(),
		}); err != nil {
			return dbError(err)
		}
		out = c
		return nil
	})
	if err != nil {
		return model.Category{}, err
	}
	return out, nil
}

// 名前が変わったときだけslugを作り直す
func (u *CategoryUsecase) Update(ctx context.Context, actor model.Actor, id int64, in CategoryInput) (model.Category, error) {
	if !actor.IsAdmin() {
		return model.Category{}, unauthorized()
	}
	if id <= 0 {
		return model.Category{}, badRequest("invalid id")
	}
	in, err := normalizeCategoryInput(in)
	if err != nil {
		return model.Category{}, err
	}

	var out model.Category
	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		before, err := r.Categories().FindByID(ctx, id)
		if errors.Is(err, repo.ErrNotFound) {
			return notFound()
		}
		if err != nil {
			return dbError(err)
		}

		c := before
		c.Name = in.Name
		c.Description = in.Description
		if in.Name != before.Name {
			c.Slug, err = uniqueSlug(ctx, in.Name, func(ctx context.Context, s string) (bool, error) {
				return r.Categories().SlugExists(ctx, s, id)
			})
			if err != nil {
				return err
			}
		}
		if err := r.Categories().Update(ctx, c); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return notFound()
			}
			return writeError(err)
		}
		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  actor.UserID,
			Action:       model.AuditActionUpdateCategory,
			ResourceType: model.AuditResourceCategory,
			ResourceID:   id,
			BeforeJSON:   auditJSON(categoryAudit(before)),
			AfterJSON:    auditJSON(categoryAudit(c)),
			CreatedAt:    u.clock.Now(),
		}); err != nil {
			return dbError(err)
		}
		out = c
		return nil
	})
	if err != nil {
		return model.Category{}, err
	}
	return out, nil
}

// 商品が残っているカテゴリは消せない
func (u *CategoryUsecase) Delete(ctx context.Context, actor model.Actor, id int64) error {
	if !actor.IsAdmin() {
		return unauthorized()
	}
	if id <= 0 {
		return badRequest("invalid id")
	}

	return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		before, err := r.Categories().FindByID(ctx, id)
		if errors.Is(err, repo.ErrNotFound) {
			return notFound()
		}
		if err != nil {
			return dbError(err)
		}
		n, err := r.Categories().CountProducts(ctx, id)
		if err != nil {
			return dbError(err)
		}
		if n > 0 {
			return badRequest("category has products")
		}
		if err := r.Categories().Delete(ctx, id); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return notFound()
			}
			return dbError(err)
		}
		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  actor.UserID,
			Action:       model.AuditActionDeleteCategory,
			ResourceType: model.AuditResourceCategory,
			ResourceID:   id,
			BeforeJSON:   auditJSON(categoryAudit(before)),
			AfterJSON:    "{}",
			CreatedAt:    u.clock.Now(),
		}); err != nil {
			return dbError(err)
		}
		return nil
	})
}

func normalizeCategoryInput(in CategoryInput) (CategoryInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return in, badRequest("name required")
	}
	if len(in.Name) > 255 {
		return in, badRequest("name too long")
	}
	if in.Description != nil {
		d := strings.TrimSpace(*in.Description)
		in.Description = optionalString(d)
	}
	return in, nil
}

func categoryAudit(c model.Category) map[string]interface{} {
	return map[string]interface{}{"name": c.Name, "slug": c.Slug}
}
