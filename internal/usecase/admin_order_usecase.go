package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront/internal/domain/event"
	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

type AdminOrderUsecase struct {
	tx        repo.TransactionManager
	orders    repo.OrderRepository
	publisher EventPublisher
	metrics   OrderMetrics
	clock     Clock
}

func NewAdminOrderUsecase(
	tx repo.TransactionManager,
	orders repo.OrderRepository,
	publisher EventPublisher,
	metrics OrderMetrics,
	clock Clock,
) *AdminOrderUsecase {
	return &AdminOrderUsecase{tx: tx, orders: orders, publisher: publisher, metrics: metrics, clock: clock}
}

type AdminUpdateOrderStatusInput struct {
	Status string
}

type OrderStatusOutput struct {
	OrderID int64             `json:"order_id"`
	From    model.OrderStatus `json:"from"`
	Status  model.OrderStatus `json:"status"`
	Changed bool              `json:"changed"`
}

// 注文一覧
func (u *AdminOrderUsecase) List(ctx context.Context, actor model.Actor, f repo.AdminOrderListFilter) (OrderListOutput, error) {
	if !actor.IsAdmin() {
		return OrderListOutput{}, unauthorized()
	}
	if f.Page == 0 {
		f.Page = 1
	}
	if f.Limit == 0 {
		f.Limit = 20
	}
	if err := validatePage(f.Page, f.Limit, maxPageLimit); err != nil {
		return OrderListOutput{}, err
	}
	f.Status = strings.TrimSpace(f.Status)
	if f.Status != "" {
		if _, ok := model.ParseOrderStatus(f.Status); !ok {
			return OrderListOutput{}, badRequest("invalid status")
		}
	}
	if f.From != nil && f.To != nil && f.From.After(*f.To) {
		return OrderListOutput{}, badRequest("invalid date range")
	}

	orders, total, err := u.orders.ListAdmin(ctx, f)
	if err != nil {
		return OrderListOutput{}, dbError(err)
	}
	if orders == nil {
		orders = []model.Order{}
	}
	return OrderListOutput{Items: orders, Page: Page{Total: total, Page: f.Page, Limit: f.Limit}}, nil
}

func (u *AdminOrderUsecase) Get(ctx context.Context, actor model.Actor, orderID int64) (model.Order, error) {
	if !actor.IsAdmin() {
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
	return o, nil
}

// ステータス更新（CANCELLED / REFUNDEDなら在庫戻し、支払いも追従）
func (u *AdminOrderUsecase) UpdateStatus(ctx context.Context, actor model.Actor, orderID int64, in AdminUpdateOrderStatusInput) (out OrderStatusOutput, err error) {
	ctx, span := startSpan(ctx, "AdminOrderUsecase.UpdateStatus")
	defer span.End()
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "update order status failed")
		}
	}()

	if !actor.IsAdmin() {
		return OrderStatusOutput{}, unauthorized()
	}
	if orderID <= 0 {
		return OrderStatusOutput{}, badRequest("invalid id")
	}
	next, ok := model.ParseOrderStatus(strings.TrimSpace(in.Status))
	if !ok {
		return OrderStatusOutput{}, badRequest("invalid status")
	}
	span.SetAttributes(attribute.Int64("order.id", orderID), attribute.String("order.status", string(next)))

	var orderNumber string

	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return notFound()
		}
		if err != nil {
			return dbError(err)
		}
		orderNumber = o.OrderNumber
		out = OrderStatusOutput{OrderID: orderID, From: o.Status, Status: o.Status}

		// すでに同じなら何もしない（200）
		if o.Status == next {
			return nil
		}
		if !o.Status.CanTransitionTo(next) {
			return badRequest(fmt.Sprintf("cannot change order status from %s to %s", o.Status, next))
		}

		if next.ReleasesStock() {
			items := o.Items
			if items == nil {
				items, err = r.OrderItems().ListByOrderID(ctx, orderID)
				if err != nil {
					return dbError(err)
				}
			}
			for _, it := range items {
				//バリアントが消えた明細は戻し先がない
				if it.VariantID == nil {
					continue
				}
				if err := r.Inventory().IncreaseStock(ctx, *it.VariantID, it.Quantity); err != nil {
					if errors.Is(err, repo.ErrNotFound) {
						continue
					}
					return dbError(err)
				}
			}
		}

		if err := r.Orders().UpdateStatus(ctx, orderID, next); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return notFound()
			}
			return dbError(err)
		}

		now := u.clock.Now()
		if o.Payment != nil {
			if ps, changed := model.PaymentStatusFor(next, o.Payment.Status); changed {
				var paidAt *time.Time
				if ps == model.PaymentStatusCompleted {
					paidAt = &now
				}
				if err := r.Payments().UpdateStatus(ctx, orderID, ps, paidAt); err != nil {
					return dbError(err)
				}
			}
		}

		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  actor.UserID,
			Action:       model.AuditActionUpdateOrderStatus,
			ResourceType: model.AuditResourceOrder,
			ResourceID:   orderID,
			BeforeJSON:   auditJSON(map[string]string{"status": string(o.Status)}),
			AfterJSON:    auditJSON(map[string]string{"status": string(next)}),
			CreatedAt:    now,
		}); err != nil {
			return dbError(err)
		}

		out.Status = next
		out.Changed = true
		return nil
	})
	if err != nil {
		return OrderStatusOutput{}, err
	}

	if out.Changed {
		u.metrics.OrderStatusChanged(out.From, out.Status)
		u.publishStatusChanged(ctx, actor, orderNumber, out)
	}
	return out, nil
}

func (u *AdminOrderUsecase) publishStatusChanged(ctx context.Context, actor model.Actor, orderNumber string, out OrderStatusOutput) {
	ev := event.NewOrderStatusChanged(event.OrderStatusChanged{
		OrderID:     out.OrderID,
		OrderNumber: orderNumber,
		From:        string(out.From),
		To:          string(out.Status),
		ActorUserID: actor.UserID,
	}, u.clock.Now())

	pctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	if err := u.publisher.Publish(pctx, event.OrderKey(out.OrderID), ev); err != nil {
		zap.L().Warn("publish order.status_changed failed", zap.Int64("order_id", out.OrderID), zap.Error(err))
	}
}

// 監査ログ用。失敗しても空のJSONにする。
func auditJSON(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(b)
}
