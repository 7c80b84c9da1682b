package usecase

import (
	"errors"
	"fmt"
	"net/http"

	repo "storefront/internal/repository"
)

// HTTPのステータスとクライアント向けメッセージを持つエラー。
// Errは原因（ログ用）でレスポンスには出さない。
type HTTPError struct {
	Status  int
	Message string
	Err     error
}

func (e *HTTPError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%d: %s: %v", e.Status, e.Message, e.Err)
	}
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

func NewHTTPError(status int, message string) error {
	return &HTTPError{
		Status:  status,
		Message: message,
	}
}

func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	ok := errors.As(err, &he)
	return he, ok
}

// DB起因の500。原因はhandlerでログに出す。
func dbError(err error) error {
	if errors.Is(err, repo.ErrValueOutOfRange) {
		return &HTTPError{Status: http.StatusBadRequest, Message: "value too long or out of range", Err: err}
	}
	return &HTTPError{Status: http.StatusInternalServerError, Message: "db error", Err: err}
}

func unauthorized() error {
	return NewHTTPError(http.StatusUnauthorized, "unauthorized")
}

func notFound() error {
	return NewHTTPError(http.StatusNotFound, "not found")
}

func badRequest(msg string) error {
	return NewHTTPError(http.StatusBadRequest, msg)
}

// 認証まわりの結果（handlerでステータスに変換する）
var (
	//400 入力不足
	ErrValidation = errors.New("validation error")
	//401 認証失敗
	ErrUnauthorized = errors.New("unauthorized")
	//403　停止ユーザー
	ErrForbidden = errors.New("forbidden")
	//401 使用済みrefreshの再利用
	ErrSecurityIncident = errors.New("security incident")
	//409
	ErrConflict = errors.New("conflict")
	//500
	ErrInternal = errors.New("internal error")
)
