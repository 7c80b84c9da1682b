package handler

import (
	"net/http"

	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

type SuccessResponse struct {
	Message string `json:"message"`
}

type productImageRequest struct {
	URL string `json:"url"`
	Alt string `json:"alt"`
}

type productVariantRequest struct {
	Size     string  `json:"size"`
	Color    string  `json:"color"`
	ColorHex *string `json:"color_hex"`
	Stock    int64   `json:"stock"`
}

// 作成・更新共通
type ProductRequest struct {
	Name         string                  `json:"name"`
	Description  string                  `json:"description"`
	Price        decimal.Decimal         `json:"price"`
	ComparePrice *decimal.Decimal        `json:"compare_price"`
	CategoryID   int64                   `json:"category_id"`
	IsActive     *bool                   `json:"is_active"`
	Featured     bool                    `json:"featured"`
	Images       []productImageRequest   `json:"images"`
	Variants     []productVariantRequest `json:"variants"`
}

type ToggleProductRequest struct {
	IsActive *bool `json:"is_active"`
}

// InventoryUpdateRequest は在庫更新の入力です。
type InventoryUpdateRequest struct {
	Stock  *int64 `json:"stock"`
	Reason string `json:"reason"`
}

// /admin/products と /admin/inventory をまとめる
type AdminProductHandler struct {
	uc *usecase.ProductUsecase
}

// DI
func NewAdminProductHandler(uc *usecase.ProductUsecase) *AdminProductHandler {
	return &AdminProductHandler{uc: uc}
}

// adminグループ（JWT + token_version + ADMIN）に登録
func (h *AdminProductHandler) RegisterRoutes(admin *echo.Group) {
	admin.GET("/products", h.list)
	admin.POST("/products", h.create)
	admin.GET("/products/:id", h.get)
	admin.PATCH("/products/:id", h.update)
	admin.DELETE("/products/:id", h.delete)
	admin.PATCH("/products/:id/toggle", h.toggle)
	admin.PUT("/inventory/:variant_id", h.updateInventory)
}

func (h *AdminProductHandler) list(c echo.Context) error {
	page, err := queryInt(c, "page")
	if err != nil {
		return badRequest(c, "invalid page")
	}
	limit, err := queryInt(c, "limit")
	if err != nil {
		return badRequest(c, "invalid limit")
	}

	out, err := h.uc.AdminList(c.Request().Context(), actor(c), usecase.AdminProductListInput{
		Page:     page,
		Limit:    limit,
		Q:        c.QueryParam("q"),
		Category: c.QueryParam("category"),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AdminProductHandler) get(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	p, err := h.uc.AdminGet(c.Request().Context(), actor(c), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *AdminProductHandler) create(c echo.Context) error {
	var req ProductRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	p, err := h.uc.Create(c.Request().Context(), actor(c), req.toInput())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *AdminProductHandler) update(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	var req ProductRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	p, err := h.uc.Update(c.Request().Context(), actor(c), id, req.toInput())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *AdminProductHandler) toggle(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	var req ToggleProductRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	if err := h.uc.Toggle(c.Request().Context(), actor(c), id, req.IsActive); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Message: "updated"})
}

func (h *AdminProductHandler) delete(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}

	if err := h.uc.Delete(c.Request().Context(), actor(c), id); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Message: "deleted"})
}

func (h *AdminProductHandler) updateInventory(c echo.Context) error {
	variantID, ok := pathID(c, "variant_id")
	if !ok {
		return badRequest(c, "invalid variant_id")
	}
	var req InventoryUpdateRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	v, err := h.uc.UpdateInventory(c.Request().Context(), actor(c), variantID, usecase.UpdateInventoryInput{
		Stock:  req.Stock,
		Reason: req.Reason,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, v)
}

func (r ProductRequest) toInput() usecase.ProductInput {
	in := usecase.ProductInput{
		Name:         r.Name,
		Description:  r.Description,
		Price:        r.Price,
		ComparePrice: r.ComparePrice,
		CategoryID:   r.CategoryID,
		IsActive:     r.IsActive,
		Featured:     r.Featured,
	}
	for _, img := range r.Images {
		in.Images = append(in.Images, usecase.ProductImageInput{URL: img.URL, Alt: img.Alt})
	}
	for _, v := range r.Variants {
		in.Variants = append(in.Variants, usecase.ProductVariantInput{
			Size:     v.Size,
			Color:    v.Color,
			ColorHex: v.ColorHex,
			Stock:    v.Stock,
		})
	}
	return in
}
