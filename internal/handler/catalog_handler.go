package handler

import (
	"net/http"
	"strconv"

	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// /categories, /products の公開API
type CatalogHandler struct {
	uc *usecase.CatalogUsecase
}

// DI
func NewCatalogHandler(uc *usecase.CatalogUsecase) *CatalogHandler {
	return &CatalogHandler{uc: uc}
}

// 公開カタログのルートを登録
func (h *CatalogHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/categories", h.listCategories)
	g.GET("/categories/:slug", h.category)
	g.GET("/products", h.listProducts)
	g.GET("/products/:slug", h.product)
}

func (h *CatalogHandler) listCategories(c echo.Context) error {
	out, err := h.uc.ListCategories(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CatalogHandler) category(c echo.Context) error {
	page, err := queryInt(c, "page")
	if err != nil {
		return badRequest(c, "invalid page")
	}
	limit, err := queryInt(c, "limit")
	if err != nil {
		return badRequest(c, "invalid limit")
	}

	out, err := h.uc.GetCategory(c.Request().Context(), c.Param("slug"), page, limit)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CatalogHandler) listProducts(c echo.Context) error {
	page, err := queryInt(c, "page")
	if err != nil {
		return badRequest(c, "invalid page")
	}
	limit, err := queryInt(c, "limit")
	if err != nil {
		return badRequest(c, "invalid limit")
	}

	minPrice, err := queryDecimal(c, "min_price")
	if err != nil {
		return badRequest(c, "invalid min_price")
	}
	maxPrice, err := queryDecimal(c, "max_price")
	if err != nil {
		return badRequest(c, "invalid max_price")
	}

	var featured *bool
	if v := c.QueryParam("featured"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return badRequest(c, "invalid featured")
		}
		featured = &b
	}

	out, err := h.uc.ListProducts(c.Request().Context(), usecase.ListProductsInput{
		Page:     page,
		Limit:    limit,
		Q:        c.QueryParam("q"),
		Category: c.QueryParam("category"),
		MinPrice: minPrice,
		MaxPrice: maxPrice,
		Featured: featured,
		Sort:     c.QueryParam("sort"),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CatalogHandler) product(c echo.Context) error {
	p, err := h.uc.GetProduct(c.Request().Context(), c.Param("slug"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

func queryDecimal(c echo.Context, name string) (*decimal.Decimal, error) {
	v := c.QueryParam(name)
	if v == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
