package handler

import (
	"net/http"

	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

type AddressHandler struct {
	uc *usecase.AddressUsecase
}

func NewAddressHandler(uc *usecase.AddressUsecase) *AddressHandler {
	return &AddressHandler{uc: uc}
}

func (h *AddressHandler) RegisterRoutes(g *echo.Group) {
	g.GET("", h.List)
	g.POST("/:id/default", h.SetDefault)
}

func (h *AddressHandler) List(c echo.Context) error {
	list, err := h.uc.List(c.Request().Context(), actor(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, list)
}

func (h *AddressHandler) SetDefault(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	a, err := h.uc.SetDefault(c.Request().Context(), actor(c), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, a)
}
