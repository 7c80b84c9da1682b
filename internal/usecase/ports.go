package usecase

import (
	"context"
	"time"

	"storefront/internal/domain/event"
	"storefront/internal/domain/model"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// コミット後に注文イベントを流す先（Kafkaなど）
type EventPublisher interface {
	Publish(ctx context.Context, key string, ev event.Envelope) error
}

type OrderMetrics interface {
	OrderPlaced(total decimal.Decimal, d time.Duration)
	OrderRejected(reason string)
	OrderStatusChanged(from, to model.OrderStatus)
}

// 現在の時間
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

type NopOrderMetrics struct{}

func (NopOrderMetrics) OrderPlaced(decimal.Decimal, time.Duration)              {}
func (NopOrderMetrics) OrderRejected(string)                                    {}
func (NopOrderMetrics) OrderStatusChanged(model.OrderStatus, model.OrderStatus) {}

const publishTimeout = 3 * time.Second

var tracer = otel.Tracer("storefront/usecase")

func startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return tracer.Start(ctx, name)
}

// ページング共通
type Page struct {
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
}

func validatePage(page, limit, maxLimit int) error {
	if page < 1 {
		return badRequest("invalid page")
	}
	if limit < 1 || limit > maxLimit {
		return badRequest("invalid limit")
	}
	return nil
}
