package handler

import (
	"net/http"

	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

type FavoriteHandler struct {
	uc *usecase.FavoriteUsecase
}

func NewFavoriteHandler(uc *usecase.FavoriteUsecase) *FavoriteHandler {
	return &FavoriteHandler{uc: uc}
}

type favoriteRequest struct {
	ProductID int64 `json:"product_id"`
}

func (h *FavoriteHandler) RegisterRoutes(g *echo.Group) {
	g.GET("", h.list)
	g.POST("/toggle", h.toggle)
	g.POST("/check", h.check)
}

func (h *FavoriteHandler) list(c echo.Context) error {
	out, err := h.uc.List(c.Request().Context(), actor(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *FavoriteHandler) toggle(c echo.Context) error {
	var req favoriteRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	out, err := h.uc.Toggle(c.Request().Context(), actor(c), req.ProductID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *FavoriteHandler) check(c echo.Context) error {
	var req favoriteRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	out, err := h.uc.Check(c.Request().Context(), actor(c), req.ProductID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
