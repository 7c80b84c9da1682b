package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "PENDING"
	OrderStatusPaid       OrderStatus = "PAID"
	OrderStatusProcessing OrderStatus = "PROCESSING"
	OrderStatusShipped    OrderStatus = "SHIPPED"
	OrderStatusDelivered  OrderStatus = "DELIVERED"
	OrderStatusCancelled  OrderStatus = "CANCELLED"
	OrderStatusRefunded   OrderStatus = "REFUNDED"
)

// 管理者が変更できる遷移先。ここに無い遷移は拒否する。
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusPaid, OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusPaid:       {OrderStatusProcessing, OrderStatusCancelled, OrderStatusRefunded},
	OrderStatusProcessing: {OrderStatusShipped, OrderStatusCancelled, OrderStatusRefunded},
	OrderStatusShipped:    {OrderStatusDelivered},
}

func ParseOrderStatus(s string) (OrderStatus, bool) {
	st := OrderStatus(s)
	switch st {
	case OrderStatusPending, OrderStatusPaid, OrderStatusProcessing, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled, OrderStatusRefunded:
		return st, true
	}
	return "", false
}

// 終端（DELIVERED / CANCELLED / REFUNDED）
func (s OrderStatus) IsTerminal() bool {
	return len(orderTransitions[s]) == 0
}

func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, to := range orderTransitions[s] {
		if to == next {
			return true
		}
	}
	return false
}

// 在庫を戻す遷移か
func (s OrderStatus) ReleasesStock() bool {
	return s == OrderStatusCancelled || s == OrderStatusRefunded
}

// 作成後はstatus以外変更しない
type Order struct {
	ID             int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderNumber    string          `gorm:"type:varchar(64);not null;uniqueIndex" json:"order_number"`
	UserID         int64           `gorm:"not null;index;uniqueIndex:idx_order_user_idem" json:"user_id"`
	AddressID      int64           `gorm:"not null" json:"address_id"`
	Subtotal       decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"subtotal"`
	Tax            decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"tax"`
	Shipping       decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"shipping"`
	Total          decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"total"`
	Status         OrderStatus     `gorm:"type:varchar(20);not null;index" json:"status"`
	Notes          *string         `gorm:"type:text" json:"notes,omitempty"`
	IdempotencyKey *string         `gorm:"type:varchar(255);uniqueIndex:idx_order_user_idem" json:"-"`
	CreatedAt      time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"not null;autoUpdateTime" json:"updated_at"`

	Address *Address    `gorm:"foreignKey:AddressID" json:"address,omitempty"`
	Items   []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"`
	Payment *Payment    `gorm:"foreignKey:OrderID" json:"payment,omitempty"`
	User    *User       `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
