package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"storefront/internal/domain/model"
	"storefront/internal/domain/slug"
	repo "storefront/internal/repository"

	"github.com/shopspring/decimal"
)

// 管理画面の商品・在庫操作
type ProductUsecase struct {
	tx       repo.TransactionManager
	products repo.ProductRepository
	clock    Clock
}

// DI
func NewProductUsecase(tx repo.TransactionManager, products repo.ProductRepository, clock Clock) *ProductUsecase {
	return &ProductUsecase{tx: tx, products: products, clock: clock}
}

type ProductImageInput struct {
	URL string
	Alt string
}

type ProductVariantInput struct {
	Size     string
	Color    string
	ColorHex *string
	Stock    int64
}

// 作成・更新共通。画像とバリアントは丸ごと置き換える。
type ProductInput struct {
	Name         string
	Description  string
	Price        decimal.Decimal
	ComparePrice *decimal.Decimal
	CategoryID   int64
	IsActive     *bool
	Featured     bool
	Images       []ProductImageInput
	Variants     []ProductVariantInput
}

type AdminProductListInput struct {
	Page     int
	Limit    int
	Q        string
	Category string
}

type UpdateInventoryInput struct {
	Stock  *int64
	Reason string
}

func (u *ProductUsecase) AdminList(ctx context.Context, actor model.Actor, in AdminProductListInput) (ProductListOutput, error) {
	if !actor.IsAdmin() {
		return ProductListOutput{}, unauthorized()
	}
	if in.Page == 0 {
		in.Page = 1
	}
	if in.Limit == 0 {
		in.Limit = 20
	}
	if err := validatePage(in.Page, in.Limit, maxPageLimit); err != nil {
		return ProductListOutput{}, err
	}

	items, total, err := u.products.List(ctx, repo.ProductListQuery{
		Page:            in.Page,
		Limit:           in.Limit,
		Q:               strings.TrimSpace(in.Q),
		CategorySlug:    strings.TrimSpace(in.Category),
		IncludeInactive: true,
	})
	if err != nil {
		return ProductListOutput{}, dbError(err)
	}
	if items == nil {
		items = []model.Product{}
	}
	return ProductListOutput{Items: items, Page: Page{Total: total, Page: in.Page, Limit: in.Limit}}, nil
}

func (u *ProductUsecase) AdminGet(ctx context.Context, actor model.Actor, id int64) (model.Product, error) {
	if !actor.IsAdmin() {
		return model.Product{}, unauthorized()
	}
	if id <= 0 {
		return model.Product{}, badRequest("invalid product id")
	}
	p, err := u.products.FindByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Product{}, notFound()
	}
	if err != nil {
		return model.Product{}, dbError(err)
	}
	return p, nil
}

func (u *ProductUsecase) Create(ctx context.Context, actor model.Actor, in ProductInput) (model.Product, error) {
	if !actor.IsAdmin() {
		return model.Product{}, unauthorized()
	}
	in, err := normalizeProductInput(in)
	if err != nil {
		return model.Product{}, err
	}

	var created model.Product
	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		if err := ensureCategory(ctx, r.Categories(), in.CategoryID); err != nil {
			return err
		}
		s, err := uniqueSlug(ctx, in.Name, func(ctx context.Context, c string) (bool, error) {
			return r.Products().SlugExists(ctx, c, 0)
		})
		if err != nil {
			return err
		}

		p := model.Product{
			Name:         in.Name,
			Slug:         s,
			Description:  in.Description,
			Price:        in.Price,
			ComparePrice: in.ComparePrice,
			CategoryID:   in.CategoryID,
			IsActive:     in.IsActive == nil || *in.IsActive,
			Featured:     in.Featured,
			Images:       buildImages(0, in.Images),
			Variants:     u.buildVariants(0, s, in.Variants),
		}
		if err := r.Products().Create(ctx, &p); err != nil {
			return writeError(err)
		}

		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  actor.UserID,
			Action:       model.AuditActionCreateProduct,
			ResourceType: model.AuditResourceProduct,
			ResourceID:   p.ID,
			BeforeJSON:   "{}",
			AfterJSON:    auditJSON(productAudit(p)),
			CreatedAt:    u.clock.Now(),
		}); err != nil {
			return dbError(err)
		}
		created = p
		return nil
	})
	if err != nil {
		return model.Product{}, err
	}
	return created, nil
}

// 画像・バリアントは全置換。古いバリアントを参照するカート明細は消し、注文明細は切り離す。
func (u *ProductUsecase) Update(ctx context.Context, actor model.Actor, id int64, in ProductInput) (model.Product, error) {
	if !actor.IsAdmin() {
		return model.Product{}, unauthorized()
	}
	if id <= 0 {
		return model.Product{}, badRequest("invalid product id")
	}
	in, err := normalizeProductInput(in)
	if err != nil {
		return model.Product{}, err
	}

	var updated model.Product
	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		before, err := r.Products().FindByID(ctx, id)
		if errors.Is(err, repo.ErrNotFound) {
			return notFound()
		}
		if err != nil {
			return dbError(err)
		}
		if err := ensureCategory(ctx, r.Categories(), in.CategoryID); err != nil {
			return err
		}

		//名前が変わったときだけslugを作り直す
		s := before.Slug
		if in.Name != before.Name {
			s, err = uniqueSlug(ctx, in.Name, func(ctx context.Context, c string) (bool, error) {
				return r.Products().SlugExists(ctx, c, id)
			})
			if err != nil {
				return err
			}
		}

		if err := u.detachVariants(ctx, r, id); err != nil {
			return err
		}
		if err := r.Products().ReplaceImages(ctx, id, buildImages(id, in.Images)); err != nil {
			return dbError(err)
		}
		if err := r.Products().DeleteVariants(ctx, id); err != nil {
			return dbError(err)
		}
		if variants := u.buildVariants(id, s, in.Variants); len(variants) > 0 {
			if err := r.Products().CreateVariants(ctx, variants); err != nil {
				return writeError(err)
			}
		}

		active := before.IsActive
		if in.IsActive != nil {
			active = *in.IsActive
		}
		p := model.Product{
			ID:           id,
			Name:         in.Name,
			Slug:         s,
			Description:  in.Description,
			Price:        in.Price,
			ComparePrice: in.ComparePrice,
			CategoryID:   in.CategoryID,
			IsActive:     active,
			Featured:     in.Featured,
			CreatedAt:    before.CreatedAt,
		}
		if err := r.Products().Update(ctx, p); err != nil {
			return writeError(err)
		}

		after, err := r.Products().FindByID(ctx, id)
		if err != nil {
			return dbError(err)
		}
		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  actor.UserID,
			Action:       model.AuditActionUpdateProduct,
			ResourceType: model.AuditResourceProduct,
			ResourceID:   id,
			BeforeJSON:   auditJSON(productAudit(before)),
			AfterJSON:    auditJSON(productAudit(after)),
			CreatedAt:    u.clock.Now(),
		}); err != nil {
			return dbError(err)
		}
		updated = after
		return nil
	})
	if err != nil {
		return model.Product{}, err
	}
	return updated, nil
}

// 公開・非公開の切り替え
func (u *ProductUsecase) Toggle(ctx context.Context, actor model.Actor, id int64, active *bool) error {
	if !actor.IsAdmin() {
		return unauthorized()
	}
	if id <= 0 {
		return badRequest("invalid product id")
	}
	if active == nil {
		return badRequest("is_active required")
	}

	return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		before, err := r.Products().FindByID(ctx, id)
		if errors.Is(err, repo.ErrNotFound) {
			return notFound()
		}
		if err != nil {
			return dbError(err)
		}
		if err := r.Products().SetActive(ctx, id, *active); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return notFound()
			}
			return dbError(err)
		}
		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  actor.UserID,
			Action:       model.AuditActionToggleProduct,
			ResourceType: model.AuditResourceProduct,
			ResourceID:   id,
			BeforeJSON:   auditJSON(map[string]bool{"is_active": before.IsActive}),
			AfterJSON:    auditJSON(map[string]bool{"is_active": *active}),
			CreatedAt:    u.clock.Now(),
		}); err != nil {
			return dbError(err)
		}
		return nil
	})
}

// 注文・注文明細は消さない（明細はバリアントから切り離すだけ）
func (u *ProductUsecase) Delete(ctx context.Context, actor model.Actor, id int64) error {
	if !actor.IsAdmin() {
		return unauthorized()
	}
	if id <= 0 {
		return badRequest("invalid product id")
	}

	return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		before, err := r.Products().FindByID(ctx, id)
		if errors.Is(err, repo.ErrNotFound) {
			return notFound()
		}
		if err != nil {
			return dbError(err)
		}

		if err := u.detachVariants(ctx, r, id); err != nil {
			return err
		}
		if err := r.Favorites().DeleteByProductID(ctx, id); err != nil {
			return dbError(err)
		}
		if err := r.Products().DeleteVariants(ctx, id); err != nil {
			return dbError(err)
		}
		if err := r.Products().Delete(ctx, id); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return notFound()
			}
			return dbError(err)
		}

		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  actor.UserID,
			Action:       model.AuditActionDeleteProduct,
			ResourceType: model.AuditResourceProduct,
			ResourceID:   id,
			BeforeJSON:   auditJSON(productAudit(before)),
			AfterJSON:    "{}",
			CreatedAt:    u.clock.Now(),
		}); err != nil {
			return dbError(err)
		}
		return nil
	})
}

// 在庫を指定値にする（差分を在庫調整として残す）
func (u *ProductUsecase) UpdateInventory(ctx context.Context, actor model.Actor, variantID int64, in UpdateInventoryInput) (model.ProductVariant, error) {
	if !actor.IsAdmin() {
		return model.ProductVariant{}, unauthorized()
	}
	if variantID <= 0 {
		return model.ProductVariant{}, badRequest("invalid variant id")
	}
	if in.Stock == nil {
		return model.ProductVariant{}, badRequest("stock required")
	}
	if *in.Stock < 0 {
		return model.ProductVariant{}, badRequest("stock must be >= 0")
	}
	reason := strings.TrimSpace(in.Reason)
	if reason == "" {
		reason = "manual adjustment"
	}
	if len(reason) > 255 {
		return model.ProductVariant{}, badRequest("reason too long")
	}

	var out model.ProductVariant
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		v, err := r.Inventory().FindVariant(ctx, variantID)
		if errors.Is(err, repo.ErrNotFound) {
			return notFound()
		}
		if err != nil {
			return dbError(err)
		}

		if err := r.Inventory().SetStock(ctx, variantID, *in.Stock); err != nil {
			return dbError(err)
		}
		now := u.clock.Now()
		adj := model.NewInventoryAdjustment(v, actor.UserID, *in.Stock, reason, now)
		if err := r.Inventory().CreateAdjustment(ctx, adj); err != nil {
			return dbError(err)
		}
		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  actor.UserID,
			Action:       model.AuditActionUpdateStock,
			ResourceType: model.AuditResourceVariant,
			ResourceID:   variantID,
			BeforeJSON:   auditJSON(map[string]int64{"stock": v.Stock}),
			AfterJSON:    auditJSON(map[string]int64{"stock": *in.Stock}),
			CreatedAt:    now,
		}); err != nil {
			return dbError(err)
		}

		v.Stock = *in.Stock
		out = v
		return nil
	})
	if err != nil {
		return model.ProductVariant{}, err
	}
	return out, nil
}

// 商品のバリアントを参照するカート明細を消し、注文明細のvariant_idをNULLにする
func (u *ProductUsecase) detachVariants(ctx context.Context, r repo.TxRepos, productID int64) error {
	ids, err := r.Products().VariantIDs(ctx, productID)
	if err != nil {
		return dbError(err)
	}
	if len(ids) == 0 {
		return nil
	}
	if err := r.CartItems().DeleteByVariantIDs(ctx, ids); err != nil {
		return dbError(err)
	}
	if err := r.OrderItems().DetachVariants(ctx, ids); err != nil {
		return dbError(err)
	}
	return nil
}

func (u *ProductUsecase) buildVariants(productID int64, productSlug string, in []ProductVariantInput) []model.ProductVariant {
	now := u.clock.Now()
	out := make([]model.ProductVariant, 0, len(in))
	for i, v := range in {
		out = append(out, model.ProductVariant{
			ProductID: productID,
			Size:      v.Size,
			Color:     v.Color,
			ColorHex:  v.ColorHex,
			Stock:     v.Stock,
			SKU:       slug.SKU(productSlug, v.Size, i, now),
		})
	}
	return out
}

func buildImages(productID int64, in []ProductImageInput) []model.ProductImage {
	out := make([]model.ProductImage, 0, len(in))
	for i, img := range in {
		out = append(out, model.ProductImage{
			ProductID: productID,
			URL:       img.URL,
			Alt:       img.Alt,
			SortOrder: i,
		})
	}
	return out
}

func normalizeProductInput(in ProductInput) (ProductInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	if in.Name == "" {
		return in, badRequest("name required")
	}
	if tooLong(in.Name, maxNameLen) {
		return in, badRequest("name too long")
	}
	if in.Description == "" {
		return in, badRequest("description required")
	}
	if in.CategoryID <= 0 {
		return in, badRequest("category required")
	}
	if !in.Price.IsPositive() {
		return in, badRequest("price must be > 0")
	}
	if amountTooLarge(in.Price) {
		return in, badRequest("price too large")
	}
	if in.ComparePrice != nil && in.ComparePrice.IsNegative() {
		return in, badRequest("compare_price must be >= 0")
	}
	if in.ComparePrice != nil && amountTooLarge(*in.ComparePrice) {
		return in, badRequest("compare_price too large")
	}

	images := make([]ProductImageInput, 0, len(in.Images))
	for _, img := range in.Images {
		img.URL = strings.TrimSpace(img.URL)
		if img.URL == "" {
			continue
		}
		img.Alt = strings.TrimSpace(img.Alt)
		if img.Alt == "" {
			img.Alt = in.Name
		}
		if tooLong(img.Alt, maxAltLen) {
			return in, badRequest("image alt too long")
		}
		images = append(images, img)
	}
	in.Images = images

	for i := range in.Variants {
		v := &in.Variants[i]
		v.Size = strings.TrimSpace(v.Size)
		v.Color = strings.TrimSpace(v.Color)
		if v.Size == "" {
			return in, badRequest("variant size required")
		}
		if v.Color == "" {
			v.Color = model.DefaultVariantColor
		}
		hex := ""
		if v.ColorHex != nil {
			hex = strings.TrimSpace(*v.ColorHex)
			v.ColorHex = optionalString(hex)
		}
		if f := firstTooLong([]lengthRule{
			{"variant size", v.Size, maxSizeLen},
			{"variant color", v.Color, maxColorLen},
			{"variant color_hex", hex, maxColorHexLen},
		}); f != "" {
			return in, badRequest(f + " too long")
		}
		if v.Stock < 0 {
			return in, badRequest("stock must be >= 0")
		}
	}
	return in, nil
}

func ensureCategory(ctx context.Context, categories repo.CategoryRepository, id int64) error {
	_, err := categories.FindByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return badRequest("invalid category")
	}
	if err != nil {
		return dbError(err)
	}
	return nil
}

func uniqueSlug(ctx context.Context, name string, exists slug.ExistsFunc) (string, error) {
	s, err := slug.Unique(ctx, name, exists)
	if errors.Is(err, slug.ErrEmpty) {
		return "", badRequest("invalid name")
	}
	if err != nil {
		return "", dbError(err)
	}
	return s, nil
}

// 一意制約違反は409
func writeError(err error) error {
	if errors.Is(err, repo.ErrConflict) {
		return &HTTPError{Status: http.StatusConflict, Message: "already exists", Err: err}
	}
	return dbError(err)
}

func productAudit(p model.Product) map[string]interface{} {
	return map[string]interface{}{
		"name":        p.Name,
		"slug":        p.Slug,
		"price":       p.Price.StringFixed(2),
		"category_id": p.CategoryID,
		"is_active":   p.IsActive,
		"featured":    p.Featured,
		"variants":    len(p.Variants),
		"images":      len(p.Images),
	}
}
