package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentMethod string

const (
	PaymentMethodCash         PaymentMethod = "CASH"
	PaymentMethodCard         PaymentMethod = "CARD"
	PaymentMethodBankTransfer PaymentMethod = "BANK_TRANSFER"
	PaymentMethodYape         PaymentMethod = "YAPE"
	PaymentMethodPlin         PaymentMethod = "PLIN"
)

func ParsePaymentMethod(s string) (PaymentMethod, bool) {
	m := PaymentMethod(s)
	switch m {
	case PaymentMethodCash, PaymentMethodCard, PaymentMethodBankTransfer, PaymentMethodYape, PaymentMethodPlin:
		return m, true
	}
	return "", false
}

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusCompleted PaymentStatus = "COMPLETED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
	PaymentStatusRefunded  PaymentStatus = "REFUNDED"
)

const CurrencyPEN = "PEN"

// 注文と1:1
type Payment struct {
	ID        int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID   int64           `gorm:"not null;uniqueIndex" json:"order_id"`
	Method    PaymentMethod   `gorm:"type:varchar(20);not null" json:"method"`
	Amount    decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"amount"`
	Currency  string          `gorm:"type:varchar(3);not null;default:'PEN'" json:"currency"`
	Status    PaymentStatus   `gorm:"type:varchar(20);not null" json:"status"`
	PaidAt    *time.Time      `json:"paid_at,omitempty"`
	CreatedAt time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time       `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// 注文ステータスに追従する支払いステータス。変化しない場合はfalse。
func PaymentStatusFor(order OrderStatus, current PaymentStatus) (PaymentStatus, bool) {
	switch order {
	case OrderStatusPaid:
		if current == PaymentStatusPending {
			return PaymentStatusCompleted, true
		}
	case OrderStatusRefunded:
		if current == PaymentStatusCompleted {
			return PaymentStatusRefunded, true
		}
		if current == PaymentStatusPending {
			return PaymentStatusFailed, true
		}
	case OrderStatusCancelled:
		if current == PaymentStatusPending {
			return PaymentStatusFailed, true
		}
	}
	return current, false
}
