package model

import "github.com/shopspring/decimal"

// 税・送料の計算ルール。現在はどちらも0。
type PricingPolicy interface {
	Tax(subtotal decimal.Decimal) decimal.Decimal
	Shipping(subtotal decimal.Decimal) decimal.Decimal
}

type FlatPricing struct {
	TaxRate     decimal.Decimal
	ShippingFee decimal.Decimal
}

func ZeroPricing() FlatPricing {
	return FlatPricing{TaxRate: decimal.Zero, ShippingFee: decimal.Zero}
}

func (p FlatPricing) Tax(subtotal decimal.Decimal) decimal.Decimal {
	return subtotal.Mul(p.TaxRate).Round(2)
}

func (p FlatPricing) Shipping(_ decimal.Decimal) decimal.Decimal {
	return p.ShippingFee
}

// numeric(10,2) に入る上限
var MaxAmount = decimal.New(9999999999, -2)

func WithinAmount(d decimal.Decimal) bool {
	return d.LessThanOrEqual(MaxAmount)
}

type OrderTotals struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Shipping decimal.Decimal
	Total    decimal.Decimal
}

// total = subtotal + tax + shipping
func ComputeTotals(policy PricingPolicy, subtotal decimal.Decimal) OrderTotals {
	tax := policy.Tax(subtotal)
	shipping := policy.Shipping(subtotal)
	return OrderTotals{
		Subtotal: subtotal,
		Tax:      tax,
		Shipping: shipping,
		Total:    subtotal.Add(tax).Add(shipping),
	}
}

// 全項目が金額カラムに収まるか
func (t OrderTotals) Fits() bool {
	return WithinAmount(t.Subtotal) && WithinAmount(t.Tax) &&
		WithinAmount(t.Shipping) && WithinAmount(t.Total)
}
