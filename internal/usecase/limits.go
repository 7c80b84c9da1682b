package usecase

import (
	"unicode/utf8"

	"storefront/internal/domain/model"

	"github.com/shopspring/decimal"
)

// varchar(n) の n（文字数）
const (
	maxNameLen     = 255
	maxPhoneLen    = 30
	maxStreetLen   = 255
	maxCityLen     = 255
	maxStateLen    = 255
	maxZipLen      = 20
	maxSizeLen     = 20
	maxColorLen    = 50
	maxColorHexLen = 10
	maxAltLen      = 255
)

func tooLong(s string, n int) bool {
	return utf8.RuneCountInString(s) > n
}

// 先に引っかかった項目名を返す
func firstTooLong(fields []lengthRule) string {
	for _, f := range fields {
		if tooLong(f.value, f.max) {
			return f.field
		}
	}
	return ""
}

type lengthRule struct {
	field string
	value string
	max   int
}

func amountTooLarge(d decimal.Decimal) bool {
	return !model.WithinAmount(d)
}
