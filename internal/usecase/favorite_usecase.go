package usecase

import (
	"context"
	"errors"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

type FavoriteUsecase struct {
	favorites repo.FavoriteRepository
	products  repo.ProductRepository
}

func NewFavoriteUsecase(favorites repo.FavoriteRepository, products repo.ProductRepository) *FavoriteUsecase {
	return &FavoriteUsecase{favorites: favorites, products: products}
}

type FavoriteToggleOutput struct {
	IsFavorite bool   `json:"is_favorite"`
	Message    string `json:"message"`
}

type FavoriteCheckOutput struct {
	IsFavorite bool `json:"is_favorite"`
}

// 登録済みなら外す、未登録なら追加する
func (u *FavoriteUsecase) Toggle(ctx context.Context, actor model.Actor, productID int64) (FavoriteToggleOutput, error) {
	if !actor.Authenticated() {
		return FavoriteToggleOutput{}, unauthorized()
	}
	if productID <= 0 {
		return FavoriteToggleOutput{}, badRequest("invalid product_id")
	}

	exists, err := u.favorites.Exists(ctx, actor.UserID, productID)
	if err != nil {
		return FavoriteToggleOutput{}, dbError(err)
	}
	if exists {
		if err := u.favorites.Delete(ctx, actor.UserID, productID); err != nil && !errors.Is(err, repo.ErrNotFound) {
			return FavoriteToggleOutput{}, dbError(err)
		}
		return FavoriteToggleOutput{IsFavorite: false, Message: "Removed from favorites"}, nil
	}

	p, err := u.products.FindByID(ctx, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return FavoriteToggleOutput{}, notFound()
	}
	if err != nil {
		return FavoriteToggleOutput{}, dbError(err)
	}
	if !p.IsActive {
		return FavoriteToggleOutput{}, notFound()
	}
	if err := u.favorites.Create(ctx, actor.UserID, productID); err != nil {
		return FavoriteToggleOutput{}, dbError(err)
	}
	return FavoriteToggleOutput{IsFavorite: true, Message: "Added to favorites"}, nil
}

func (u *FavoriteUsecase) Check(ctx context.Context, actor model.Actor, productID int64) (FavoriteCheckOutput, error) {
	if !actor.Authenticated() {
		return FavoriteCheckOutput{}, unauthorized()
	}
	if productID <= 0 {
		return FavoriteCheckOutput{}, badRequest("invalid product_id")
	}
	exists, err := u.favorites.Exists(ctx, actor.UserID, productID)
	if err != nil {
		return FavoriteCheckOutput{}, dbError(err)
	}
	return FavoriteCheckOutput{IsFavorite: exists}, nil
}

func (u *FavoriteUsecase) List(ctx context.Context, actor model.Actor) ([]model.Favorite, error) {
	if !actor.Authenticated() {
		return nil, unauthorized()
	}
	favs, err := u.favorites.ListByUserID(ctx, actor.UserID)
	if err != nil {
		return nil, dbError(err)
	}
	if favs == nil {
		favs = []model.Favorite{}
	}
	return favs, nil
}
