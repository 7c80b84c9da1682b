package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"storefront/internal/domain/model"
	"storefront/internal/middleware"
	repo "storefront/internal/repository"
	"storefront/internal/usecase"
	"storefront/internal/validator"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// =====================
// ProductRepository モック（一覧と詳細だけ）
// =====================

type productRepoMock struct{ mock.Mock }

func (m *productRepoMock) List(ctx context.Context, q repo.ProductListQuery) ([]model.Product, int64, error) {
	args := m.Called(ctx, q)
	ps, _ := args.Get(0).([]model.Product)
	return ps, args.Get(1).(int64), args.Error(2)
}

func (m *productRepoMock) FindBySlug(ctx context.Context, slug string) (model.Product, error) {
	args := m.Called(ctx, slug)
	return args.Get(0).(model.Product), args.Error(1)
}

func (m *productRepoMock) FindByID(ctx context.Context, id int64) (model.Product, error) {
	panic("not used in handler tests")
}
func (m *productRepoMock) SlugExists(ctx context.Context, slug string, excludeID int64) (bool, error) {
	panic("not used in handler tests")
}
func (m *productRepoMock) Create(ctx context.Context, p *model.Product) error {
	panic("not used in handler tests")
}
func (m *productRepoMock) Update(ctx context.Context, p model.Product) error {
	panic("not used in handler tests")
}
func (m *productRepoMock) SetActive(ctx context.Context, id int64, active bool) error {
	panic("not used in handler tests")
}
func (m *productRepoMock) Delete(ctx context.Context, id int64) error {
	panic("not used in handler tests")
}
func (m *productRepoMock) ReplaceImages(ctx context.Context, productID int64, images []model.ProductImage) error {
	panic("not used in handler tests")
}
func (m *productRepoMock) DeleteVariants(ctx context.Context, productID int64) error {
	panic("not used in handler tests")
}
func (m *productRepoMock) CreateVariants(ctx context.Context, variants []model.ProductVariant) error {
	panic("not used in handler tests")
}
func (m *productRepoMock) VariantIDs(ctx context.Context, productID int64) ([]int64, error) {
	panic("not used in handler tests")
}
func (m *productRepoMock) Count(ctx context.Context) (int64, error) {
	panic("not used in handler tests")
}

var _ repo.ProductRepository = (*productRepoMock)(nil)

// =====================
// helper
// =====================

func do(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

// テスト用にActorを直接入れる
func withActor(a model.Actor) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(middleware.CtxActorKey, a)
			return next(c)
		}
	}
}

// =====================
// writeError
// =====================

func TestWriteError(t *testing.T) {
	cases := []struct {
		err    error
		status int
		body   string
	}{
		{usecase.NewHTTPError(http.StatusBadRequest, "insufficient stock for Botas (size 42)"), 400, `{"error":"insufficient stock for Botas (size 42)"}`},
		{fmt.Errorf("wrap: %w", usecase.NewHTTPError(http.StatusNotFound, "not found")), 404, `{"error":"not found"}`},
		{usecase.ErrValidation, 400, `{"error":"validation error"}`},
		{usecase.ErrUnauthorized, 401, `{"error":"unauthorized"}`},
		{usecase.ErrSecurityIncident, 401, `{"error":"unauthorized"}`},
		{usecase.ErrForbidden, 403, `{"error":"forbidden"}`},
		{usecase.ErrConflict, 409, `{"error":"conflict"}`},
		{errors.New("boom"), 500, `{"error":"internal error"}`},
	}
	for _, tc := range cases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			e := echo.New()
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

			require.NoError(t, writeError(c, tc.err))
			assert.Equal(t, tc.status, rec.Code)
			assert.JSONEq(t, tc.body, rec.Body.String())
		})
	}
}

// =====================
// CatalogHandler
// =====================

func newCatalogEcho(products *productRepoMock) *echo.Echo {
	e := echo.New()
	NewCatalogHandler(usecase.NewCatalogUsecase(nil, products)).RegisterRoutes(e.Group(""))
	return e
}

func TestCatalogHandler_ListProducts_ParsesQuery(t *testing.T) {
	products := new(productRepoMock)
	min := decimal.RequireFromString("49.90")
	featured := true
	products.On("List", mock.Anything, repo.ProductListQuery{
		Page: 2, Limit: 5, Q: "bota", CategorySlug: "botas", MinPrice: &min, Featured: &featured, Sort: "price_asc",
	}).Return([]model.Product{{ID: 1, Name: "Bota"}}, int64(6), nil)

	rec := do(newCatalogEcho(products), http.MethodGet,
		"/products?page=2&limit=5&q=bota&category=botas&min_price=49.90&featured=true&sort=price_asc", "")

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"total":6`)
	products.AssertExpectations(t)
}

func TestCatalogHandler_ListProducts_BadQuery(t *testing.T) {
	e := newCatalogEcho(new(productRepoMock))

	cases := map[string]string{
		"/products?page=x":          "invalid page",
		"/products?min_price=cheap": "invalid min_price",
		"/products?featured=maybe":  "invalid featured",
		"/products?sort=random":     "invalid sort",
	}
	for path, msg := range cases {
		rec := do(e, http.MethodGet, path, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, path)
		assert.JSONEq(t, fmt.Sprintf(`{"error":%q}`, msg), rec.Body.String(), path)
	}
}

func TestCatalogHandler_Product_InactiveIs404(t *testing.T) {
	products := new(productRepoMock)
	products.On("FindBySlug", mock.Anything, "botas").Return(model.Product{ID: 1, IsActive: false}, nil)

	rec := do(newCatalogEcho(products), http.MethodGet, "/products/botas", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// =====================
// AuthHandler
// =====================

func newAuthEcho() *echo.Echo {
	e := echo.New()
	uc := usecase.NewAuthUsecase(nil, nil, nil, validator.NewAuthValidator(nil), nil, nil, nil, nil, usecase.SystemClock{}, 0)
	NewAuthHandler(uc, true).RegisterRoutes(e.Group("/auth"))
	return e
}

func TestAuthHandler_Refresh_WithoutCookie(t *testing.T) {
	rec := do(newAuthEcho(), http.MethodPost, "/auth/refresh", "")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	cookie := rec.Result().Cookies()
	require.Len(t, cookie, 1)
	assert.Equal(t, refreshCookieName, cookie[0].Name)
	assert.Equal(t, -1, cookie[0].MaxAge)
}

func TestAuthHandler_Logout_IsIdempotent(t *testing.T) {
	rec := do(newAuthEcho(), http.MethodPost, "/auth/logout", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"logout success"}`, rec.Body.String())
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.True(t, cookies[0].HttpOnly)
	assert.True(t, cookies[0].Secure)
}

// =====================
// 認証が必要なハンドラ
// =====================

func TestOrderHandler_Place_RequiresActor(t *testing.T) {
	e := echo.New()
	uc := usecase.NewOrderUsecase(nil, nil, nil, usecase.NopOrderMetrics{}, model.ZeroPricing(), usecase.SystemClock{})
	NewOrderHandler(uc).RegisterRoutes(e.Group("/orders"))

	rec := do(e, http.MethodPost, "/orders", `{"payment_method":"card"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCartHandler_BodyValidation(t *testing.T) {
	e := echo.New()
	NewCartHandler(usecase.NewCartUsecase(nil, nil, nil)).RegisterRoutes(e.Group("/cart", withActor(model.Actor{UserID: 7, Role: model.RoleCustomer})))

	rec := do(e, http.MethodPost, "/cart/add", `{"quantity":1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"variant_id required"}`, rec.Body.String())

	rec = do(e, http.MethodPatch, "/cart/update", `{"quantity":2}`)
	assert.JSONEq(t, `{"error":"item_id required"}`, rec.Body.String())

	rec = do(e, http.MethodDelete, "/cart/remove", `{}`)
	assert.JSONEq(t, `{"error":"item_id required"}`, rec.Body.String())
}
