package handler

import (
	"net/http"

	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

const idempotencyHeader = "X-Idempotency-Key"

type OrderHandler struct {
	uc *usecase.OrderUsecase
}

func NewOrderHandler(uc *usecase.OrderUsecase) *OrderHandler {
	return &OrderHandler{uc: uc}
}

type shippingRequest struct {
	FullName   string `json:"full_name"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Notes      string `json:"notes"`
}

// address_idを指定したらshippingはnotesだけ見る
type PlaceOrderRequest struct {
	AddressID     int64           `json:"address_id"`
	Shipping      shippingRequest `json:"shipping"`
	PaymentMethod string          `json:"payment_method"`
}

func (h *OrderHandler) RegisterRoutes(g *echo.Group) {
	g.POST("", h.place)
	g.GET("", h.list)
	g.GET("/:id", h.detail)
}

// 同じX-Idempotency-Keyなら同じ注文を返す
func (h *OrderHandler) place(c echo.Context) error {
	var req PlaceOrderRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	out, err := h.uc.PlaceOrder(c.Request().Context(), actor(c), usecase.PlaceOrderInput{
		AddressID: req.AddressID,
		Shipping: usecase.ShippingInfo{
			FullName:   req.Shipping.FullName,
			Phone:      req.Shipping.Phone,
			Address:    req.Shipping.Address,
			City:       req.Shipping.City,
			State:      req.Shipping.State,
			PostalCode: req.Shipping.PostalCode,
			Notes:      req.Shipping.Notes,
		},
		PaymentMethod:  req.PaymentMethod,
		IdempotencyKey: c.Request().Header.Get(idempotencyHeader),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, out)
}

func (h *OrderHandler) list(c echo.Context) error {
	page, err := queryInt(c, "page")
	if err != nil {
		return badRequest(c, "invalid page")
	}
	limit, err := queryInt(c, "limit")
	if err != nil {
		return badRequest(c, "invalid limit")
	}

	out, err := h.uc.ListMyOrders(c.Request().Context(), actor(c), page, limit)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *OrderHandler) detail(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}

	o, err := h.uc.GetMyOrder(c.Request().Context(), actor(c), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, o)
}
