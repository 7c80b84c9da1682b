package handler

import (
	"net/http"

	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

type AdminCategoryHandler struct {
	uc *usecase.CategoryUsecase
}

func NewAdminCategoryHandler(uc *usecase.CategoryUsecase) *AdminCategoryHandler {
	return &AdminCategoryHandler{uc: uc}
}

type CategoryRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

func (h *AdminCategoryHandler) RegisterRoutes(admin *echo.Group) {
	admin.GET("/categories", h.list)
	admin.POST("/categories", h.create)
	admin.PATCH("/categories/:id", h.update)
	admin.DELETE("/categories/:id", h.delete)
}

func (h *AdminCategoryHandler) list(c echo.Context) error {
	out, err := h.uc.List(c.Request().Context(), actor(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AdminCategoryHandler) create(c echo.Context) error {
	var req CategoryRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	cat, err := h.uc.Create(c.Request().Context(), actor(c), usecase.CategoryInput{Name: req.Name, Description: req.Description})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, cat)
}

func (h *AdminCategoryHandler) update(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	var req CategoryRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	cat, err := h.uc.Update(c.Request().Context(), actor(c), id, usecase.CategoryInput{Name: req.Name, Description: req.Description})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, cat)
}

func (h *AdminCategoryHandler) delete(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	if err := h.uc.Delete(c.Request().Context(), actor(c), id); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Message: "deleted"})
}
