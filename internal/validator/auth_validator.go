package validator

import (
	"context"
	"errors"
	"net/http"
	"regexp"
	"strings"
	"unicode/utf8"

	"storefront/internal/repository"
	"storefront/internal/usecase"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

const (
	minNameLen     = 2
	minPasswordLen = 6
	maxPasswordLen = 72
)

type authValidator struct {
	users repository.UserRepository
}

// Usecaseは interface を依存注入
func NewAuthValidator(users repository.UserRepository) usecase.AuthValidator {
	return &authValidator{users: users}
}

// サインアップの入力を検証
func (v *authValidator) ValidateRegister(ctx context.Context, name string, email string, password string) error {
	if utf8.RuneCountInString(strings.TrimSpace(name)) < minNameLen {
		return invalid("name must be at least 2 characters")
	}
	if !isEmailLike(email) {
		return invalid("invalid email")
	}
	if len(password) < minPasswordLen {
		return invalid("password must be at least 6 characters")
	}
	//bcryptは72バイトまで
	if len(password) > maxPasswordLen {
		return invalid("password too long")
	}

	// email重複チェック（DBが必要）
	u, err := v.users.FindByEmail(ctx, email)
	if err == nil && u != nil {
		return usecase.NewHTTPError(http.StatusConflict, "email already registered")
	}
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return usecase.ErrInternal
	}
	return nil
}

// ログインの入力を検証
func (v *authValidator) ValidateLogin(ctx context.Context, email string, password string) error {
	if strings.TrimSpace(email) == "" || password == "" {
		return invalid("email and password required")
	}
	if !isEmailLike(email) {
		return invalid("invalid email")
	}
	return nil
}

func (v *authValidator) ValidateRefresh(ctx context.Context, refreshToken string) error {
	if strings.TrimSpace(refreshToken) == "" {
		return usecase.ErrUnauthorized
	}
	return nil
}

// 強制ログアウトの入力を検証
func (v *authValidator) ValidateForceLogout(ctx context.Context, targetUserID int64) error {
	if targetUserID <= 0 {
		return invalid("invalid user_id")
	}
	return nil
}

func invalid(msg string) error {
	return usecase.NewHTTPError(http.StatusBadRequest, msg)
}

// 簡易メール形式をチェック
func isEmailLike(s string) bool {
	return emailPattern.MatchString(strings.TrimSpace(s))
}
