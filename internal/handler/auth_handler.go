package handler

import (
	"net/http"
	"time"

	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

const refreshCookieName = "refresh"

type AuthHandler struct {
	uc           *usecase.AuthUsecase
	cookieSecure bool
}

// DIコンストラクタ
func NewAuthHandler(uc *usecase.AuthUsecase, cookieSecure bool) *AuthHandler {
	return &AuthHandler{uc: uc, cookieSecure: cookieSecure}
}

// /auth 配下。/me だけ requireAuth を通す。
func (h *AuthHandler) RegisterRoutes(g *echo.Group, requireAuth ...echo.MiddlewareFunc) {
	g.POST("/register", h.Register)
	g.POST("/login", h.Login)
	g.POST("/refresh", h.Refresh)
	g.POST("/logout", h.Logout)
	g.GET("/me", h.Me, requireAuth...)
}

// RegisterはPOST /auth/registerのハンドラ
func (h *AuthHandler) Register(c echo.Context) error {
	var req usecase.AuthRegisterRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	out, err := h.uc.Register(c.Request().Context(), req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, out)
}

// LoginはPOST /auth/login のハンドラ。
func (h *AuthHandler) Login(c echo.Context) error {
	var req usecase.AuthLoginRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	// User-Agentを取得（refreshtokenに紐付ける）
	res, err := h.uc.Login(c.Request().Context(), req, c.Request().UserAgent())
	if err != nil {
		return writeError(c, err)
	}

	h.setRefreshCookie(c, res.RefreshTokenPlain, res.RefreshExpiresAt)
	return c.JSON(http.StatusOK, res.Body)
}

func (h *AuthHandler) Refresh(c echo.Context) error {
	plain := ""
	if ck, err := c.Cookie(refreshCookieName); err == nil {
		plain = ck.Value
	}

	res, err := h.uc.Refresh(c.Request().Context(), plain, c.Request().UserAgent())
	if err != nil {
		//失敗したらCookieも消しておく
		h.clearRefreshCookie(c)
		return writeError(c, err)
	}

	h.setRefreshCookie(c, res.RefreshTokenPlain, res.RefreshExpiresAt)
	return c.JSON(http.StatusOK, res.Body)
}

func (h *AuthHandler) Logout(c echo.Context) error {
	plain := ""
	if ck, err := c.Cookie(refreshCookieName); err == nil {
		plain = ck.Value
	}

	res, err := h.uc.Logout(c.Request().Context(), plain)
	if err != nil {
		return writeError(c, err)
	}
	h.clearRefreshCookie(c)
	return c.JSON(http.StatusOK, res)
}

func (h *AuthHandler) Me(c echo.Context) error {
	out, err := h.uc.Me(c.Request().Context(), actor(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// refreshtoken をCookieにセット。
func (h *AuthHandler) setRefreshCookie(c echo.Context, plain string, exp time.Time) {
	c.SetCookie(&http.Cookie{
		Name:     refreshCookieName,
		Value:    plain,
		Path:     "/auth",
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
		Expires:  exp,
	})
}

func (h *AuthHandler) clearRefreshCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     "/auth",
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
	})
}
