package handler

import (
	"net/http"

	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /cartのHTTP
type CartHandler struct {
	uc *usecase.CartUsecase
}

// DI
func NewCartHandler(uc *usecase.CartUsecase) *CartHandler {
	return &CartHandler{uc: uc}
}

type AddCartRequest struct {
	VariantID int64 `json:"variant_id"`
	Quantity  int64 `json:"quantity"`
}

type UpdateCartItemRequest struct {
	ItemID   int64 `json:"item_id"`
	Quantity int64 `json:"quantity"`
}

type RemoveCartItemRequest struct {
	ItemID int64 `json:"item_id"`
}

type cartCountResponse struct {
	Count int64 `json:"count"`
}

// /cart グループに登録
func (h *CartHandler) RegisterRoutes(g *echo.Group) {
	g.GET("", h.getCart)
	g.GET("/count", h.count)
	g.POST("/add", h.add)
	g.PATCH("/update", h.update)
	g.DELETE("/remove", h.remove)
}

func (h *CartHandler) getCart(c echo.Context) error {
	out, err := h.uc.GetCart(c.Request().Context(), actor(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CartHandler) count(c echo.Context) error {
	n, err := h.uc.Count(c.Request().Context(), actor(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, cartCountResponse{Count: n})
}

func (h *CartHandler) add(c echo.Context) error {
	var req AddCartRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if req.VariantID <= 0 {
		return badRequest(c, "variant_id required")
	}

	out, err := h.uc.AddItem(c.Request().Context(), actor(c), usecase.AddCartItemInput{
		VariantID: req.VariantID,
		Quantity:  req.Quantity,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CartHandler) update(c echo.Context) error {
	var req UpdateCartItemRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if req.ItemID <= 0 {
		return badRequest(c, "item_id required")
	}

	if err := h.uc.UpdateItem(c.Request().Context(), actor(c), req.ItemID, req.Quantity); err != nil {
		return writeError(c, err)
	}
	return h.getCart(c)
}

func (h *CartHandler) remove(c echo.Context) error {
	var req RemoveCartItemRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if req.ItemID <= 0 {
		return badRequest(c, "item_id required")
	}

	if err := h.uc.RemoveItem(c.Request().Context(), actor(c), req.ItemID); err != nil {
		return writeError(c, err)
	}
	return h.getCart(c)
}
