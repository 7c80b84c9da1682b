package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"storefront/internal/domain/event"
	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

type OrderUsecase struct {
	tx        repo.TransactionManager
	orders    repo.OrderRepository
	publisher EventPublisher
	metrics   OrderMetrics
	pricing   model.PricingPolicy
	clock     Clock
}

func NewOrderUsecase(
	tx repo.TransactionManager,
	orders repo.OrderRepository,
	publisher EventPublisher,
	metrics OrderMetrics,
	pricing model.PricingPolicy,
	clock Clock,
) *OrderUsecase {
	return &OrderUsecase{
		tx:        tx,
		orders:    orders,
		publisher: publisher,
		metrics:   metrics,
		pricing:   pricing,
		clock:     clock,
	}
}

// 配送先（注文ごとに住所として保存する）
type ShippingInfo struct {
	FullName   string
	Phone      string
	Address    string
	City       string
	State      string
	PostalCode string
	Notes      string
}

// AddressIDが0ならShippingから住所を作る
type PlaceOrderInput struct {
	AddressID      int64
	Shipping       ShippingInfo
	PaymentMethod  string
	IdempotencyKey string
}

type PlaceOrderOutput struct {
	OrderID     int64           `json:"order_id"`
	OrderNumber string          `json:"order_number"`
	Total       decimal.Decimal `json:"total"`
}

type OrderListOutput struct {
	Items []model.Order `json:"items"`
	Page
}

const (
	maxIdempotencyKeyLen = 255
	orderNumberAttempts  = 5
	rejectInsufficient   = "insufficient_stock"
	rejectEmptyCart      = "empty_cart"
	rejectValidation     = "validation"
	rejectUnavailable    = "product_unavailable"
	rejectInternal       = "internal"
)

func (u *OrderUsecase) PlaceOrder(ctx context.Context, actor model.Actor, in PlaceOrderInput) (out PlaceOrderOutput, err error) {
	ctx, span := startSpan(ctx, "OrderUsecase.PlaceOrder")
	defer span.End()
	span.SetAttributes(attribute.Int64("user.id", actor.UserID))

	started := u.clock.Now()
	reason := rejectValidation
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "place order failed")
			u.metrics.OrderRejected(reason)
		}
	}()

	if !actor.Authenticated() {
		return PlaceOrderOutput{}, unauthorized()
	}
	if in.AddressID < 0 {
		return PlaceOrderOutput{}, badRequest("invalid address id")
	}
	ship := ShippingInfo{Notes: strings.TrimSpace(in.Shipping.Notes)}
	if in.AddressID == 0 {
		if ship, err = normalizeShipping(in.Shipping); err != nil {
			return PlaceOrderOutput{}, err
		}
	}
	method, ok := model.ParsePaymentMethod(strings.TrimSpace(in.PaymentMethod))
	if !ok {
		return PlaceOrderOutput{}, badRequest("invalid payment method")
	}
	key := strings.TrimSpace(in.IdempotencyKey)
	if len(key) > maxIdempotencyKeyLen {
		return PlaceOrderOutput{}, badRequest("invalid idempotency key")
	}

	var (
		replayed bool
		placed   model.Order
		items    []model.OrderItem
	)

	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		// 同じキーなら同じ結果
		if key != "" {
			existing, found, err := r.Orders().FindByIdempotencyKey(ctx, actor.UserID, key)
			if err != nil {
				return dbError(err)
			}
			if found {
				replayed = true
				out = toPlaceOrderOutput(existing)
				return nil
			}
		}

		cart, err := r.Carts().FindByUserID(ctx, actor.UserID)
		if errors.Is(err, repo.ErrNotFound) {
			reason = rejectEmptyCart
			return badRequest("cart empty")
		}
		if err != nil {
			reason = rejectInternal
			return dbError(err)
		}
		cartItems, err := r.CartItems().ListByCartID(ctx, cart.ID)
		if err != nil {
			reason = rejectInternal
			return dbError(err)
		}
		if len(cartItems) == 0 {
			reason = rejectEmptyCart
			return badRequest("cart empty")
		}

		//在庫は条件付きUPDATEで減らす（足りなければ全体をロールバック）
		subtotal := decimal.Zero
		items = make([]model.OrderItem, 0, len(cartItems))
		for _, ci := range cartItems {
			v := ci.Variant
			if v == nil || v.Product == nil || !v.Product.IsActive {
				reason = rejectUnavailable
				return badRequest("product not available")
			}

			ok, err := r.Inventory().DecreaseStockIfEnough(ctx, v.ID, ci.Quantity)
			if err != nil {
				reason = rejectInternal
				return dbError(err)
			}
			if !ok {
				reason = rejectInsufficient
				return badRequest(fmt.Sprintf("insufficient stock for %s (size %s)", v.Product.Name, v.Size))
			}

			variantID := v.ID
			productID := v.ProductID
			item := model.OrderItem{
				VariantID:   &variantID,
				ProductID:   &productID,
				ProductName: v.Product.Name,
				Size:        v.Size,
				Color:       v.Color,
				SKU:         v.SKU,
				Price:       v.Product.Price,
				Quantity:    ci.Quantity,
			}
			items = append(items, item)
			subtotal = subtotal.Add(item.LineTotal())
		}
		totals := model.ComputeTotals(u.pricing, subtotal)
		if !totals.Fits() {
			reason = rejectValidation
			return badRequest("order total too large")
		}

		number, err := u.newOrderNumber(ctx, r.Orders())
		if err != nil {
			reason = rejectInternal
			return err
		}

		now := u.clock.Now()
		addr, err := resolveAddress(ctx, r.Addresses(), actor.UserID, in.AddressID, ship, now)
		if err != nil {
			reason = rejectInternal
			if he, ok := AsHTTPError(err); ok && he.Status == http.StatusBadRequest {
				reason = rejectValidation
			}
			return err
		}

		placed = model.Order{
			OrderNumber: number,
			UserID:      actor.UserID,
			AddressID:   addr.ID,
			Subtotal:    totals.Subtotal,
			Tax:         totals.Tax,
			Shipping:    totals.Shipping,
			Total:       totals.Total,
			Status:      model.OrderStatusPending,
			Notes:       optionalString(ship.Notes),
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if key != "" {
			placed.IdempotencyKey = &key
		}
		if err := r.Orders().Create(ctx, &placed); err != nil {
			reason = rejectInternal
			if errors.Is(err, repo.ErrConflict) {
				return &HTTPError{Status: http.StatusConflict, Message: "duplicate order", Err: err}
			}
			return dbError(err)
		}

		if err := r.OrderItems().CreateBulk(ctx, placed.ID, items); err != nil {
			reason = rejectInternal
			return dbError(err)
		}

		if err := r.Payments().Create(ctx, &model.Payment{
			OrderID:  placed.ID,
			Method:   method,
			Amount:   totals.Total,
			Currency: model.CurrencyPEN,
			Status:   model.PaymentStatusPending,
		}); err != nil {
			reason = rejectInternal
			return dbError(err)
		}

		//カートの行は残して明細だけ消す
		if err := r.Carts().Clear(ctx, cart.ID); err != nil {
			reason = rejectInternal
			return dbError(err)
		}

		out = toPlaceOrderOutput(placed)
		return nil
	})
	if err != nil {
		return PlaceOrderOutput{}, err
	}
	if replayed {
		span.SetAttributes(attribute.Bool("order.replayed", true))
		return out, nil
	}

	span.SetAttributes(attribute.String("order.number", placed.OrderNumber))
	u.metrics.OrderPlaced(placed.Total, u.clock.Now().Sub(started))
	u.publishPlaced(ctx, placed, items, method)
	return out, nil
}

func (u *OrderUsecase) ListMyOrders(ctx context.Context, actor model.Actor, page, limit int) (OrderListOutput, error) {
	if !actor.Authenticated() {
		return OrderListOutput{}, unauthorized()
	}
	if page == 0 {
		page = 1
	}
	if limit == 0 {
		limit = 20
	}
	if err := validatePage(page, limit, maxPageLimit); err != nil {
		return OrderListOutput{}, err
	}

	orders, total, err := u.orders.ListByUserID(ctx, actor.UserID, page, limit)
	if err != nil {
		return OrderListOutput{}, dbError(err)
	}
	if orders == nil {
		orders = []model.Order{}
	}
	return OrderListOutput{Items: orders, Page: Page{Total: total, Page: page, Limit: limit}}, nil
}

func (u *OrderUsecase) GetMyOrder(ctx context.Context, actor model.Actor, orderID int64) (model.Order, error) {
	if !actor.Authenticated() {
		return model.Order{}, unauthorized()
	}
	if orderID <= 0 {
		return model.Order{}, badRequest("invalid id")
	}

	o, err := u.orders.FindByID(ctx, orderID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Order{}, notFound()
	}
	if err != nil {
		return model.Order{}, dbError(err)
	}
	//他人の注文は「存在しない扱い」にする
	if o.UserID != actor.UserID {
		return model.Order{}, notFound()
	}
	o.User = nil
	return o, nil
}

// ORD-<base36ミリ秒>-<ランダム6桁>。衝突したら作り直す。
func (u *OrderUsecase) newOrderNumber(ctx context.Context, orders repo.OrderRepository) (string, error) {
	for i := 0; i < orderNumberAttempts; i++ {
		n := formatOrderNumber(u.clock.Now(), uuid.New())
		exists, err := orders.ExistsByOrderNumber(ctx, n)
		if err != nil {
			return "", dbError(err)
		}
		if !exists {
			return n, nil
		}
	}
	return "", NewHTTPError(http.StatusInternalServerError, "could not allocate order number")
}

func formatOrderNumber(now time.Time, id uuid.UUID) string {
	ts := strings.ToUpper(strconv.FormatInt(now.UnixMilli(), 36))
	suffix := strings.ToUpper(strings.ReplaceAll(id.String(), "-", "")[:6])
	return "ORD-" + ts + "-" + suffix
}

func (u *OrderUsecase) publishPlaced(ctx context.Context, o model.Order, items []model.OrderItem, method model.PaymentMethod) {
	payload := event.OrderPlaced{
		OrderID:       o.ID,
		OrderNumber:   o.OrderNumber,
		UserID:        o.UserID,
		Total:         o.Total.StringFixed(2),
		PaymentMethod: string(method),
		Items:         make([]event.OrderPlacedItem, 0, len(items)),
	}
	for _, it := range items {
		var vid int64
		if it.VariantID != nil {
			vid = *it.VariantID
		}
		payload.Items = append(payload.Items, event.OrderPlacedItem{
			VariantID: vid,
			SKU:       it.SKU,
			Quantity:  it.Quantity,
			Price:     it.Price.StringFixed(2),
		})
	}

	pctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	if err := u.publisher.Publish(pctx, event.OrderKey(o.ID), event.NewOrderPlaced(payload, u.clock.Now())); err != nil {
		zap.L().Warn("publish order.placed failed", zap.Int64("order_id", o.ID), zap.Error(err))
	}
}

func normalizeShipping(s ShippingInfo) (ShippingInfo, error) {
	s.FullName = strings.TrimSpace(s.FullName)
	s.Phone = strings.TrimSpace(s.Phone)
	s.Address = strings.TrimSpace(s.Address)
	s.City = strings.TrimSpace(s.City)
	s.State = strings.TrimSpace(s.State)
	s.PostalCode = strings.TrimSpace(s.PostalCode)
	s.Notes = strings.TrimSpace(s.Notes)
	if s.FullName == "" || s.Phone == "" || s.Address == "" || s.City == "" {
		return s, badRequest("invalid shipping info")
	}
	if f := firstTooLong([]lengthRule{
		{"full_name", s.FullName, maxNameLen},
		{"phone", s.Phone, maxPhoneLen},
		{"address", s.Address, maxStreetLen},
		{"city", s.City, maxCityLen},
		{"state", s.State, maxStateLen},
		{"postal_code", s.PostalCode, maxZipLen},
	}); f != "" {
		return s, badRequest(f + " too long")
	}
	return s, nil
}

// 保存済み住所を使うか入力から新規作成する。最初の住所はdefaultになる。
func resolveAddress(ctx context.Context, addresses repo.AddressRepository, userID, addressID int64, ship ShippingInfo, now time.Time) (model.Address, error) {
	if addressID > 0 {
		a, err := addresses.FindByID(ctx, addressID)
		if errors.Is(err, repo.ErrNotFound) || (err == nil && a.UserID != userID) {
			return model.Address{}, badRequest("invalid address")
		}
		if err != nil {
			return model.Address{}, dbError(err)
		}
		return a, nil
	}

	_, err := addresses.FindDefault(ctx, userID)
	if err != nil && !errors.Is(err, repo.ErrNotFound) {
		return model.Address{}, dbError(err)
	}
	a := model.Address{
		UserID:    userID,
		FullName:  ship.FullName,
		Phone:     ship.Phone,
		Street:    ship.Address,
		City:      ship.City,
		State:     ship.State,
		ZipCode:   ship.PostalCode,
		Country:   model.DefaultCountry,
		IsDefault: errors.Is(err, repo.ErrNotFound),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := addresses.Create(ctx, &a); err != nil {
		return model.Address{}, dbError(err)
	}
	return a, nil
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func toPlaceOrderOutput(o model.Order) PlaceOrderOutput {
	return PlaceOrderOutput{OrderID: o.ID, OrderNumber: o.OrderNumber, Total: o.Total}
}
