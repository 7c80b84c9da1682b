package handler

import (
	"net/http"
	"strconv"

	"storefront/internal/repository"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

type AdminOrderHandler struct {
	uc *usecase.AdminOrderUsecase
}

func NewAdminOrderHandler(uc *usecase.AdminOrderUsecase) *AdminOrderHandler {
	return &AdminOrderHandler{uc: uc}
}

type OrderStatusUpdateRequest struct {
	Status string `json:"status"`
}

func (h *AdminOrderHandler) RegisterRoutes(admin *echo.Group) {
	admin.GET("/orders", h.list)
	admin.GET("/orders/:id", h.detail)
	admin.PATCH("/orders/:id/status", h.updateStatus)
}

func (h *AdminOrderHandler) list(c echo.Context) error {
	page, err := queryInt(c, "page")
	if err != nil {
		return badRequest(c, "invalid page")
	}
	limit, err := queryInt(c, "limit")
	if err != nil {
		return badRequest(c, "invalid limit")
	}

	var userID *int64
	if v := c.QueryParam("user_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return badRequest(c, "invalid user_id")
		}
		userID = &id
	}

	from, err := queryTime(c, "from")
	if err != nil {
		return badRequest(c, "invalid from")
	}
	to, err := queryTime(c, "to")
	if err != nil {
		return badRequest(c, "invalid to")
	}

	out, err := h.uc.List(c.Request().Context(), actor(c), repository.AdminOrderListFilter{
		Page:   page,
		Limit:  limit,
		Status: c.QueryParam("status"),
		UserID: userID,
		Search: c.QueryParam("search"),
		From:   from,
		To:     to,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AdminOrderHandler) detail(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	o, err := h.uc.Get(c.Request().Context(), actor(c), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, o)
}

func (h *AdminOrderHandler) updateStatus(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}

	var req OrderStatusUpdateRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	out, err := h.uc.UpdateStatus(c.Request().Context(), actor(c), id, usecase.AdminUpdateOrderStatusInput{Status: req.Status})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
