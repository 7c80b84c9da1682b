package repository

import "errors"

// 対象が無い
var ErrNotFound = errors.New("not found")

// 一意制約違反（slug / sku / email など）
var ErrConflict = errors.New("conflict")

// カラムの長さ・桁を超えた
var ErrValueOutOfRange = errors.New("value out of range")

var ErrRefreshTokenNotFound = errors.New("refresh token not found")
