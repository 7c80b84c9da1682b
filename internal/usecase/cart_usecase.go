package usecase

import (
	"context"
	"errors"
	"net/http"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"github.com/shopspring/decimal"
)

type CartUsecase struct {
	carts     repo.CartRepository
	items     repo.CartItemRepository
	inventory repo.InventoryRepository
}

func NewCartUsecase(carts repo.CartRepository, items repo.CartItemRepository, inventory repo.InventoryRepository) *CartUsecase {
	return &CartUsecase{carts: carts, items: items, inventory: inventory}
}

type AddCartItemInput struct {
	VariantID int64
	Quantity  int64
}

// 表示用のカート明細（価格は商品の現在価格）
type CartLineOutput struct {
	ItemID      int64           `json:"item_id"`
	VariantID   int64           `json:"variant_id"`
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"`
	ProductSlug string          `json:"product_slug"`
	Image       string          `json:"image,omitempty"`
	Size        string          `json:"size"`
	Color       string          `json:"color"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int64           `json:"quantity"`
	LineTotal   decimal.Decimal `json:"line_total"`
	Stock       int64           `json:"stock"`
}

type CartOutput struct {
	Items    []CartLineOutput `json:"items"`
	Subtotal decimal.Decimal  `json:"subtotal"`
	Count    int64            `json:"count"`
}

var (
	errProductNotAvailable = NewHTTPError(http.StatusNotFound, "product not available")
	errInsufficientStock   = NewHTTPError(http.StatusBadRequest, "insufficient stock")
)

// カートが無ければ空で返す（GETでは作らない）
func (u *CartUsecase) GetCart(ctx context.Context, actor model.Actor) (CartOutput, error) {
	if !actor.Authenticated() {
		return CartOutput{}, unauthorized()
	}
	cart, err := u.carts.FindByUserID(ctx, actor.UserID)
	if errors.Is(err, repo.ErrNotFound) {
		return emptyCart(), nil
	}
	if err != nil {
		return CartOutput{}, dbError(err)
	}
	items, err := u.items.ListByCartID(ctx, cart.ID)
	if err != nil {
		return CartOutput{}, dbError(err)
	}
	return toCartOutput(items), nil
}

func (u *CartUsecase) Count(ctx context.Context, actor model.Actor) (int64, error) {
	if !actor.Authenticated() {
		return 0, unauthorized()
	}
	n, err := u.items.SumQuantityByUserID(ctx, actor.UserID)
	if err != nil {
		return 0, dbError(err)
	}
	return n, nil
}

// 同じバリアントがあれば数量を足す。合計が在庫を超えたら400。
func (u *CartUsecase) AddItem(ctx context.Context, actor model.Actor, in AddCartItemInput) (CartOutput, error) {
	if !actor.Authenticated() {
		return CartOutput{}, unauthorized()
	}
	if in.VariantID <= 0 {
		return CartOutput{}, badRequest("invalid variant_id")
	}
	if in.Quantity < 1 {
		return CartOutput{}, badRequest("invalid quantity")
	}

	v, err := u.inventory.FindVariant(ctx, in.VariantID)
	if errors.Is(err, repo.ErrNotFound) {
		return CartOutput{}, errProductNotAvailable
	}
	if err != nil {
		return CartOutput{}, dbError(err)
	}
	if v.Product == nil || !v.Product.IsActive {
		return CartOutput{}, errProductNotAvailable
	}
	if in.Quantity > v.Stock {
		return CartOutput{}, errInsufficientStock
	}

	cart, err := u.carts.GetOrCreateByUserID(ctx, actor.UserID)
	if err != nil {
		return CartOutput{}, dbError(err)
	}
	items, err := u.items.ListByCartID(ctx, cart.ID)
	if err != nil {
		return CartOutput{}, dbError(err)
	}

	qty := in.Quantity
	for _, it := range items {
		if it.VariantID == in.VariantID {
			qty += it.Quantity
			break
		}
	}
	if qty > v.Stock {
		return CartOutput{}, errInsufficientStock
	}

	if err := u.items.Upsert(ctx, cart.ID, in.VariantID, qty); err != nil {
		return CartOutput{}, dbError(err)
	}

	items, err = u.items.ListByCartID(ctx, cart.ID)
	if err != nil {
		return CartOutput{}, dbError(err)
	}
	return toCartOutput(items), nil
}

func (u *CartUsecase) UpdateItem(ctx context.Context, actor model.Actor, itemID int64, qty int64) error {
	if !actor.Authenticated() {
		return unauthorized()
	}
	if itemID <= 0 {
		return badRequest("invalid item_id")
	}
	if qty < 1 {
		return badRequest("invalid quantity")
	}
	if err := u.ensureOwned(ctx, actor, itemID); err != nil {
		return err
	}

	it, err := u.items.FindByID(ctx, itemID)
	if errors.Is(err, repo.ErrNotFound) {
		return notFound()
	}
	if err != nil {
		return dbError(err)
	}
	if it.Variant == nil || it.Variant.Product == nil || !it.Variant.Product.IsActive {
		return errProductNotAvailable
	}
	if qty > it.Variant.Stock {
		return errInsufficientStock
	}

	if err := u.items.UpdateQuantity(ctx, itemID, qty); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return notFound()
		}
		return dbError(err)
	}
	return nil
}

func (u *CartUsecase) RemoveItem(ctx context.Context, actor model.Actor, itemID int64) error {
	if !actor.Authenticated() {
		return unauthorized()
	}
	if itemID <= 0 {
		return badRequest("invalid item_id")
	}
	if err := u.ensureOwned(ctx, actor, itemID); err != nil {
		return err
	}
	if err := u.items.DeleteByID(ctx, itemID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return notFound()
		}
		return dbError(err)
	}
	return nil
}

// 他人の明細は存在しない扱い
func (u *CartUsecase) ensureOwned(ctx context.Context, actor model.Actor, itemID int64) error {
	owned, err := u.items.IsOwnedByUser(ctx, itemID, actor.UserID)
	if err != nil {
		return dbError(err)
	}
	if !owned {
		return notFound()
	}
	return nil
}

func emptyCart() CartOutput {
	return CartOutput{Items: []CartLineOutput{}, Subtotal: decimal.Zero}
}

func toCartOutput(items []model.CartItem) CartOutput {
	out := emptyCart()
	for _, it := range items {
		v := it.Variant
		if v == nil || v.Product == nil {
			continue
		}
		line := CartLineOutput{
			ItemID:      it.ID,
			VariantID:   v.ID,
			ProductID:   v.ProductID,
			ProductName: v.Product.Name,
			ProductSlug: v.Product.Slug,
			Size:        v.Size,
			Color:       v.Color,
			Price:       v.Product.Price,
			Quantity:    it.Quantity,
			LineTotal:   v.Product.Price.Mul(decimal.NewFromInt(it.Quantity)),
			Stock:       v.Stock,
		}
		if len(v.Product.Images) > 0 {
			line.Image = v.Product.Images[0].URL
		}
		out.Items = append(out.Items, line)
		out.Subtotal = out.Subtotal.Add(line.LineTotal)
		out.Count += it.Quantity
	}
	return out
}
