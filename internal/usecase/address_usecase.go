package usecase

import (
	"context"
	"errors"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

// 注文時に保存された配送先。次の注文で address_id として再利用できる。
type AddressUsecase struct {
	addresses repo.AddressRepository
}

func NewAddressUsecase(addresses repo.AddressRepository) *AddressUsecase {
	return &AddressUsecase{addresses: addresses}
}

func (u *AddressUsecase) List(ctx context.Context, actor model.Actor) ([]model.Address, error) {
	if !actor.Authenticated() {
		return nil, unauthorized()
	}
	list, err := u.addresses.ListByUserID(ctx, actor.UserID)
	if err != nil {
		return nil, dbError(err)
	}
	if list == nil {
		list = []model.Address{}
	}
	return list, nil
}

// 他人の住所は存在しない扱い（404）
func (u *AddressUsecase) SetDefault(ctx context.Context, actor model.Actor, addressID int64) (model.Address, error) {
	if !actor.Authenticated() {
		return model.Address{}, unauthorized()
	}
	if addressID <= 0 {
		return model.Address{}, badRequest("invalid id")
	}

	a, err := u.addresses.FindByID(ctx, addressID)
	if errors.Is(err, repo.ErrNotFound) || (err == nil && a.UserID != actor.UserID) {
		return model.Address{}, notFound()
	}
	if err != nil {
		return model.Address{}, dbError(err)
	}

	if err := u.addresses.SetDefault(ctx, actor.UserID, addressID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return model.Address{}, notFound()
		}
		return model.Address{}, dbError(err)
	}
	a.IsDefault = true
	return a, nil
}
