package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"storefront/internal/domain/event"
	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
	"storefront/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type orderFixture struct {
	tx        *TxManagerMock
	orders    *OrderRepoMock
	items     *OrderItemRepoMock
	payments  *PaymentRepoMock
	addresses *AddressRepoMock
	carts     *CartRepoMock
	cartItems *CartItemRepoMock
	inventory *InventoryRepoMock
	publisher *PublisherMock
	metrics   *MetricsMock
	uc        *usecase.OrderUsecase
}

func newOrderFixture() *orderFixture {
	f := &orderFixture{
		tx:        new(TxManagerMock),
		orders:    new(OrderRepoMock),
		items:     new(OrderItemRepoMock),
		payments:  new(PaymentRepoMock),
		addresses: new(AddressRepoMock),
		carts:     new(CartRepoMock),
		cartItems: new(CartItemRepoMock),
		inventory: new(InventoryRepoMock),
		publisher: new(PublisherMock),
		metrics:   new(MetricsMock),
	}
	f.tx.Repos = &TxReposMock{
		orders:     f.orders,
		orderItems: f.items,
		payments:   f.payments,
		addresses:  f.addresses,
		carts:      f.carts,
		cartItems:  f.cartItems,
		inventory:  f.inventory,
	}
	f.tx.On("WithinTx", mock.Anything).Return(nil)
	f.uc = usecase.NewOrderUsecase(f.tx, f.orders, f.publisher, f.metrics, model.ZeroPricing(), fixedClock{testNow})
	return f
}

func validOrderInput() usecase.PlaceOrderInput {
	return usecase.PlaceOrderInput{
		Shipping: usecase.ShippingInfo{
			FullName: "Ana Pérez",
			Phone:    "999888777",
			Address:  "Av. Arequipa 123",
			City:     "Lima",
			Notes:    "  dejar en portería ",
		},
		PaymentMethod: "YAPE",
	}
}

func cartLine(itemID, variantID int64, name, size, price string, qty, stock int64) model.CartItem {
	return model.CartItem{
		ID:        itemID,
		CartID:    3,
		VariantID: variantID,
		Quantity:  qty,
		Variant: &model.ProductVariant{
			ID:        variantID,
			ProductID: variantID * 10,
			Size:      size,
			Color:     "Negro",
			Stock:     stock,
			SKU:       "sku-" + size,
			Product:   &model.Product{ID: variantID * 10, Name: name, Price: dec(price), IsActive: true},
		},
	}
}

// =====================
// PlaceOrder
// =====================

func TestOrderUsecase_PlaceOrder_Success_TotalsAndSideEffects(t *testing.T) {
	f := newOrderFixture()
	ctx := context.Background()

	f.carts.On("FindByUserID", mock.Anything, customer.UserID).Return(model.Cart{ID: 3, UserID: customer.UserID}, nil)
	f.cartItems.On("ListByCartID", mock.Anything, int64(3)).Return([]model.CartItem{
		cartLine(1, 11, "Botas Chelsea", "40", "50.00", 2, 5),
		cartLine(2, 12, "Sandalias", "38", "30.00", 1, 1),
	}, nil)
	f.inventory.On("DecreaseStockIfEnough", mock.Anything, int64(11), int64(2)).Return(true, nil)
	f.inventory.On("DecreaseStockIfEnough", mock.Anything, int64(12), int64(1)).Return(true, nil)
	f.orders.On("ExistsByOrderNumber", mock.Anything, mock.AnythingOfType("string")).Return(false, nil)
	f.addresses.On("FindDefault", mock.Anything, customer.UserID).Return(model.Address{}, repo.ErrNotFound)
	f.addresses.On("Create", mock.Anything, mock.MatchedBy(func(a *model.Address) bool {
		return a.IsDefault && a.Street == "Av. Arequipa 123" && a.Country == model.DefaultCountry
	})).
		Run(func(args mock.Arguments) { args.Get(1).(*model.Address).ID = 55 }).
		Return(nil)
	f.orders.On("Create", mock.Anything, mock.AnythingOfType("*model.Order")).
		Run(func(args mock.Arguments) { args.Get(1).(*model.Order).ID = 900 }).
		Return(nil)
	f.items.On("CreateBulk", mock.Anything, int64(900), mock.Anything).Return(nil)
	f.payments.On("Create", mock.Anything, mock.AnythingOfType("*model.Payment")).Return(nil)
	f.carts.On("Clear", mock.Anything, int64(3)).Return(nil)
	f.metrics.On("OrderPlaced", "130").Return()
	f.publisher.On("Publish", mock.Anything, "order-900", mock.Anything).Return(nil)

	out, err := f.uc.PlaceOrder(ctx, customer, validOrderInput())
	require.NoError(t, err)

	assert.Equal(t, int64(900), out.OrderID)
	assert.True(t, out.Total.Equal(dec("130.00")))
	assert.True(t, strings.HasPrefix(out.OrderNumber, "ORD-"))
	parts := strings.Split(out.OrderNumber, "-")
	require.Len(t, parts, 3)
	assert.Len(t, parts[2], 6)
	assert.Equal(t, strings.ToUpper(parts[2]), parts[2])

	created := f.orders.Calls[len(f.orders.Calls)-1]
	for _, c := range f.orders.Calls {
		if c.Method == "Create" {
			created = c
		}
	}
	o := created.Arguments.Get(1).(*model.Order)
	assert.Equal(t, model.OrderStatusPending, o.Status)
	assert.Equal(t, int64(55), o.AddressID)
	assert.True(t, o.Subtotal.Equal(dec("130")))
	assert.True(t, o.Tax.IsZero())
	assert.True(t, o.Shipping.IsZero())
	require.NotNil(t, o.Notes)
	assert.Equal(t, "dejar en portería", *o.Notes)
	assert.Nil(t, o.IdempotencyKey)

	var items []model.OrderItem
	for _, c := range f.items.Calls {
		if c.Method == "CreateBulk" {
			items = c.Arguments.Get(2).([]model.OrderItem)
		}
	}
	require.Len(t, items, 2)
	assert.Equal(t, "Botas Chelsea", items[0].ProductName)
	assert.Equal(t, "40", items[0].Size)
	assert.True(t, items[0].Price.Equal(dec("50")))
	require.NotNil(t, items[0].VariantID)
	assert.Equal(t, int64(11), *items[0].VariantID)

	var pay *model.Payment
	for _, c := range f.payments.Calls {
		if c.Method == "Create" {
			pay = c.Arguments.Get(1).(*model.Payment)
		}
	}
	require.NotNil(t, pay)
	assert.Equal(t, model.PaymentMethodYape, pay.Method)
	assert.Equal(t, model.PaymentStatusPending, pay.Status)
	assert.Equal(t, model.CurrencyPEN, pay.Currency)
	assert.True(t, pay.Amount.Equal(dec("130")))

	ev := f.publisher.Calls[0].Arguments.Get(2).(event.Envelope)
	assert.Equal(t, event.TypeOrderPlaced, ev.Type)
	assert.Equal(t, "130.00", ev.Payload.(event.OrderPlaced).Total)

	f.tx.AssertExpectations(t)
	f.inventory.AssertExpectations(t)
	f.carts.AssertExpectations(t)
	f.metrics.AssertExpectations(t)
}

func TestOrderUsecase_PlaceOrder_InsufficientStock_NoWrites(t *testing.T) {
	f := newOrderFixture()

	f.carts.On("FindByUserID", mock.Anything, customer.UserID).Return(model.Cart{ID: 3}, nil)
	f.cartItems.On("ListByCartID", mock.Anything, int64(3)).Return([]model.CartItem{
		cartLine(1, 11, "Botas Chelsea", "40", "50.00", 1, 0),
	}, nil)
	f.inventory.On("DecreaseStockIfEnough", mock.Anything, int64(11), int64(1)).Return(false, nil)
	f.metrics.On("OrderRejected", "insufficient_stock").Return()

	_, err := f.uc.PlaceOrder(context.Background(), customer, validOrderInput())

	he, ok := usecase.AsHTTPError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, he.Status)
	assert.Equal(t, "insufficient stock for Botas Chelsea (size 40)", he.Message)

	f.addresses.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	f.orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	f.items.AssertNotCalled(t, "CreateBulk", mock.Anything, mock.Anything, mock.Anything)
	f.payments.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	f.carts.AssertNotCalled(t, "Clear", mock.Anything, mock.Anything)
	f.publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
	f.metrics.AssertExpectations(t)
}

func TestOrderUsecase_PlaceOrder_MultibyteWithinLimit(t *testing.T) {
	f := newOrderFixture()
	f.carts.On("FindByUserID", mock.Anything, customer.UserID).Return(model.Cart{}, repo.ErrNotFound)
	f.metrics.On("OrderRejected", "empty_cart").Return()

	// varcharは文字数で数える（30文字 = 60バイト）
	in := validOrderInput()
	in.Shipping.Phone = strings.Repeat("ñ", 30)

	_, err := f.uc.PlaceOrder(context.Background(), customer, in)
	assertErrContains(t, err, "cart empty")
}

func TestOrderUsecase_PlaceOrder_TotalOverflowIsBadRequest(t *testing.T) {
	f := newOrderFixture()

	f.carts.On("FindByUserID", mock.Anything, customer.UserID).Return(model.Cart{ID: 3}, nil)
	f.cartItems.On("ListByCartID", mock.Anything, int64(3)).Return([]model.CartItem{
		cartLine(1, 11, "Botas de Oro", "40", "99999999.99", 2, 5),
	}, nil)
	f.inventory.On("DecreaseStockIfEnough", mock.Anything, int64(11), int64(2)).Return(true, nil)
	f.metrics.On("OrderRejected", "validation").Return()

	_, err := f.uc.PlaceOrder(context.Background(), customer, validOrderInput())

	he, ok := usecase.AsHTTPError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, he.Status)
	assert.Equal(t, "order total too large", he.Message)

	f.addresses.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	f.orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	f.payments.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	f.carts.AssertNotCalled(t, "Clear", mock.Anything, mock.Anything)
	f.metrics.AssertExpectations(t)
}

func TestOrderUsecase_PlaceOrder_ReusesSavedAddress(t *testing.T) {
	f := newOrderFixture()

	f.carts.On("FindByUserID", mock.Anything, customer.UserID).Return(model.Cart{ID: 3}, nil)
	f.cartItems.On("ListByCartID", mock.Anything, int64(3)).Return([]model.CartItem{
		cartLine(1, 11, "Botas", "40", "10.00", 1, 1),
	}, nil)
	f.inventory.On("DecreaseStockIfEnough", mock.Anything, int64(11), int64(1)).Return(true, nil)
	f.orders.On("ExistsByOrderNumber", mock.Anything, mock.Anything).Return(false, nil)
	f.addresses.On("FindByID", mock.Anything, int64(55)).Return(model.Address{ID: 55, UserID: customer.UserID}, nil)
	f.orders.On("Create", mock.Anything, mock.MatchedBy(func(o *model.Order) bool {
		return o.AddressID == 55 && o.Notes != nil && *o.Notes == "timbre 2"
	})).Return(nil)
	f.items.On("CreateBulk", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.payments.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.carts.On("Clear", mock.Anything, int64(3)).Return(nil)
	f.metrics.On("OrderPlaced", "10").Return()
	f.publisher.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	// 保存済み住所なら配送先の入力は不要
	_, err := f.uc.PlaceOrder(context.Background(), customer, usecase.PlaceOrderInput{
		AddressID:     55,
		Shipping:      usecase.ShippingInfo{Notes: " timbre 2 "},
		PaymentMethod: "YAPE",
	})
	require.NoError(t, err)

	f.addresses.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	f.orders.AssertExpectations(t)
}

func TestOrderUsecase_PlaceOrder_ForeignAddressRejected(t *testing.T) {
	cases := []struct {
		name  string
		found model.Address
		err   error
	}{
		{"other user", model.Address{ID: 55, UserID: 999}, nil},
		{"missing", model.Address{}, repo.ErrNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newOrderFixture()
			f.carts.On("FindByUserID", mock.Anything, customer.UserID).Return(model.Cart{ID: 3}, nil)
			f.cartItems.On("ListByCartID", mock.Anything, int64(3)).Return([]model.CartItem{
				cartLine(1, 11, "Botas", "40", "10.00", 1, 1),
			}, nil)
			f.inventory.On("DecreaseStockIfEnough", mock.Anything, int64(11), int64(1)).Return(true, nil)
			f.orders.On("ExistsByOrderNumber", mock.Anything, mock.Anything).Return(false, nil)
			f.addresses.On("FindByID", mock.Anything, int64(55)).Return(tc.found, tc.err)
			f.metrics.On("OrderRejected", "validation").Return()

			_, err := f.uc.PlaceOrder(context.Background(), customer, usecase.PlaceOrderInput{AddressID: 55, PaymentMethod: "YAPE"})

			he, ok := usecase.AsHTTPError(err)
			require.True(t, ok)
			assert.Equal(t, http.StatusBadRequest, he.Status)
			assert.Equal(t, "invalid address", he.Message)
			f.orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestOrderUsecase_PlaceOrder_EmptyCart(t *testing.T) {
	t.Run("no cart", func(t *testing.T) {
		f := newOrderFixture()
		f.carts.On("FindByUserID", mock.Anything, customer.UserID).Return(model.Cart{}, repo.ErrNotFound)
		f.metrics.On("OrderRejected", "empty_cart").Return()

		_, err := f.uc.PlaceOrder(context.Background(), customer, validOrderInput())
		assertErrContains(t, err, "cart empty")
	})

	t.Run("no items", func(t *testing.T) {
		f := newOrderFixture()
		f.carts.On("FindByUserID", mock.Anything, customer.UserID).Return(model.Cart{ID: 3}, nil)
		f.cartItems.On("ListByCartID", mock.Anything, int64(3)).Return([]model.CartItem{}, nil)
		f.metrics.On("OrderRejected", "empty_cart").Return()

		_, err := f.uc.PlaceOrder(context.Background(), customer, validOrderInput())
		assertErrContains(t, err, "cart empty")
		f.inventory.AssertNotCalled(t, "DecreaseStockIfEnough", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestOrderUsecase_PlaceOrder_Validation(t *testing.T) {
	cases := []struct {
		name  string
		actor model.Actor
		edit  func(in *usecase.PlaceOrderInput)
		want  string
	}{
		{"unauthenticated", model.Actor{}, func(in *usecase.PlaceOrderInput) {}, "unauthorized"},
		{"missing name", customer, func(in *usecase.PlaceOrderInput) { in.Shipping.FullName = " " }, "invalid shipping info"},
		{"missing city", customer, func(in *usecase.PlaceOrderInput) { in.Shipping.City = "" }, "invalid shipping info"},
		{"bad payment", customer, func(in *usecase.PlaceOrderInput) { in.PaymentMethod = "BITCOIN" }, "invalid payment method"},
		{"negative address", customer, func(in *usecase.PlaceOrderInput) { in.AddressID = -1 }, "invalid address id"},
		{"long key", customer, func(in *usecase.PlaceOrderInput) { in.IdempotencyKey = strings.Repeat("k", 256) }, "invalid idempotency key"},
		{"long name", customer, func(in *usecase.PlaceOrderInput) { in.Shipping.FullName = strings.Repeat("n", 256) }, "full_name too long"},
		{"long phone", customer, func(in *usecase.PlaceOrderInput) { in.Shipping.Phone = strings.Repeat("9", 31) }, "phone too long"},
		{"long address", customer, func(in *usecase.PlaceOrderInput) { in.Shipping.Address = strings.Repeat("a", 256) }, "address too long"},
		{"long city", customer, func(in *usecase.PlaceOrderInput) { in.Shipping.City = strings.Repeat("c", 256) }, "city too long"},
		{"long state", customer, func(in *usecase.PlaceOrderInput) { in.Shipping.State = strings.Repeat("s", 256) }, "state too long"},
		{"long postal code", customer, func(in *usecase.PlaceOrderInput) { in.Shipping.PostalCode = strings.Repeat("1", 21) }, "postal_code too long"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newOrderFixture()
			f.metrics.On("OrderRejected", "validation").Return()
			in := validOrderInput()
			tc.edit(&in)

			_, err := f.uc.PlaceOrder(context.Background(), tc.actor, in)
			assertErrContains(t, err, tc.want)
			f.tx.AssertNotCalled(t, "WithinTx", mock.Anything)
		})
	}
}

func TestOrderUsecase_PlaceOrder_IdempotentReplay(t *testing.T) {
	f := newOrderFixture()
	in := validOrderInput()
	in.IdempotencyKey = "key-1"

	existing := model.Order{ID: 900, OrderNumber: "ORD-ABC-123456", Total: dec("130.00")}
	f.orders.On("FindByIdempotencyKey", mock.Anything, customer.UserID, "key-1").Return(existing, true, nil)

	out, err := f.uc.PlaceOrder(context.Background(), customer, in)
	require.NoError(t, err)
	assert.Equal(t, int64(900), out.OrderID)
	assert.Equal(t, "ORD-ABC-123456", out.OrderNumber)

	f.carts.AssertNotCalled(t, "FindByUserID", mock.Anything, mock.Anything)
	f.publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
	f.metrics.AssertNotCalled(t, "OrderPlaced", mock.Anything)
}

func TestOrderUsecase_PlaceOrder_PublishFailureDoesNotFail(t *testing.T) {
	f := newOrderFixture()

	f.carts.On("FindByUserID", mock.Anything, customer.UserID).Return(model.Cart{ID: 3}, nil)
	f.cartItems.On("ListByCartID", mock.Anything, int64(3)).Return([]model.CartItem{
		cartLine(1, 11, "Botas", "40", "10.00", 1, 1),
	}, nil)
	f.inventory.On("DecreaseStockIfEnough", mock.Anything, int64(11), int64(1)).Return(true, nil)
	f.orders.On("ExistsByOrderNumber", mock.Anything, mock.Anything).Return(false, nil)
	f.addresses.On("FindDefault", mock.Anything, customer.UserID).Return(model.Address{ID: 7, IsDefault: true}, nil)
	f.addresses.On("Create", mock.Anything, mock.MatchedBy(func(a *model.Address) bool { return !a.IsDefault })).Return(nil)
	f.orders.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.items.On("CreateBulk", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.payments.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.carts.On("Clear", mock.Anything, int64(3)).Return(nil)
	f.metrics.On("OrderPlaced", "10").Return()
	f.publisher.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("broker down"))

	_, err := f.uc.PlaceOrder(context.Background(), customer, validOrderInput())
	assert.NoError(t, err)
}

func TestOrderUsecase_PlaceOrder_DBErrorIs500(t *testing.T) {
	f := newOrderFixture()
	f.carts.On("FindByUserID", mock.Anything, customer.UserID).Return(model.Cart{}, errors.New("conn reset"))
	f.metrics.On("OrderRejected", "internal").Return()

	_, err := f.uc.PlaceOrder(context.Background(), customer, validOrderInput())
	he, ok := usecase.AsHTTPError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusInternalServerError, he.Status)
	assert.Equal(t, "db error", he.Message)
	assert.EqualError(t, errors.Unwrap(err), "conn reset")
}

func TestOrderUsecase_PlaceOrder_ColumnOverflowIs400(t *testing.T) {
	f := newOrderFixture()
	f.carts.On("FindByUserID", mock.Anything, customer.UserID).Return(model.Cart{}, fmt.Errorf("%w: numeric field overflow", repo.ErrValueOutOfRange))
	f.metrics.On("OrderRejected", "internal").Return()

	_, err := f.uc.PlaceOrder(context.Background(), customer, validOrderInput())
	he, ok := usecase.AsHTTPError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, he.Status)
	assert.Equal(t, "value too long or out of range", he.Message)
}

// =====================
// Reads
// =====================

func TestOrderUsecase_GetMyOrder_OtherUserIsNotFound(t *testing.T) {
	f := newOrderFixture()
	f.orders.On("FindByID", mock.Anything, int64(5)).Return(model.Order{ID: 5, UserID: 99}, nil)

	_, err := f.uc.GetMyOrder(context.Background(), customer, 5)
	he, ok := usecase.AsHTTPError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, he.Status)
}

func TestOrderUsecase_ListMyOrders_Defaults(t *testing.T) {
	f := newOrderFixture()
	f.orders.On("ListByUserID", mock.Anything, customer.UserID, 1, 20).Return([]model.Order{{ID: 1}}, int64(1), nil)

	out, err := f.uc.ListMyOrders(context.Background(), customer, 0, 0)
	require.NoError(t, err)
	assert.Len(t, out.Items, 1)
	assert.Equal(t, int64(1), out.Total)

	_, err = f.uc.ListMyOrders(context.Background(), customer, 1, 500)
	assertErrContains(t, err, "invalid limit")
}
