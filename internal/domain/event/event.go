// Package event は注文まわりのドメインイベント。
package event

import (
	"fmt"
	"time"
)

type Type string

const (
	TypeOrderPlaced        Type = "order.placed"
	TypeOrderStatusChanged Type = "order.status_changed"
)

// ブローカーに流す共通の外側
type Envelope struct {
	Type       Type        `json:"type"`
	OccurredAt time.Time   `json:"occurred_at"`
	Payload    interface{} `json:"payload"`
}

type OrderPlacedItem struct {
	VariantID int64  `json:"variant_id"`
	SKU       string `json:"sku"`
	Quantity  int64  `json:"quantity"`
	Price     string `json:"price"`
}

type OrderPlaced struct {
	OrderID       int64             `json:"order_id"`
	OrderNumber   string            `json:"order_number"`
	UserID        int64             `json:"user_id"`
	Total         string            `json:"total"`
	PaymentMethod string            `json:"payment_method"`
	Items         []OrderPlacedItem `json:"items"`
}

type OrderStatusChanged struct {
	OrderID     int64  `json:"order_id"`
	OrderNumber string `json:"order_number"`
	From        string `json:"from"`
	To          string `json:"to"`
	ActorUserID int64  `json:"actor_user_id"`
}

func NewOrderPlaced(p OrderPlaced, at time.Time) Envelope {
	return Envelope{Type: TypeOrderPlaced, OccurredAt: at, Payload: p}
}

func NewOrderStatusChanged(p OrderStatusChanged, at time.Time) Envelope {
	return Envelope{Type: TypeOrderStatusChanged, OccurredAt: at, Payload: p}
}

// パーティションキー（同じ注文は同じ順序で届く）
func OrderKey(orderID int64) string {
	return fmt.Sprintf("order-%d", orderID)
}
