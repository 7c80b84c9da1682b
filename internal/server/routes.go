package server

import (
	"net/http"

	"storefront/internal/config"
	"storefront/internal/handler"
	"storefront/internal/middleware"
	"storefront/internal/repository"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Handlers struct {
	Auth          *handler.AuthHandler
	Catalog       *handler.CatalogHandler
	Cart          *handler.CartHandler
	Order         *handler.OrderHandler
	Favorite      *handler.FavoriteHandler
	Address       *handler.AddressHandler
	AdminProduct  *handler.AdminProductHandler
	AdminCategory *handler.AdminCategoryHandler
	AdminOrder    *handler.AdminOrderHandler
	AdminUser     *handler.AdminUserHandler
}

type healthResponse struct {
	Status string `json:"status"`
}

// 公開 / JWT必須 / ADMIN限定 の3グループに分けて登録
func RegisterRoutes(e *echo.Echo, cfg config.Config, userRepo repository.UserRepository, h Handlers) {
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, healthResponse{Status: "ok"})
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	public := e.Group("")
	h.Catalog.RegisterRoutes(public)

	// JWT必須 + token_version一致
	requireAuth := []echo.MiddlewareFunc{
		middleware.AuthJWT(cfg),
		middleware.TokenVersionGuard(userRepo),
	}
	h.Auth.RegisterRoutes(e.Group("/auth"), requireAuth...)
	h.Cart.RegisterRoutes(e.Group("/cart", requireAuth...))
	h.Order.RegisterRoutes(e.Group("/orders", requireAuth...))
	h.Favorite.RegisterRoutes(e.Group("/favorites", requireAuth...))
	h.Address.RegisterRoutes(e.Group("/addresses", requireAuth...))

	// /admin 配下は全部「JWT必須 + token_version一致 + ADMIN限定」
	admin := e.Group("/admin", append(requireAuth, middleware.AdminRoleGuard())...)
	h.AdminProduct.RegisterRoutes(admin)
	h.AdminCategory.RegisterRoutes(admin)
	h.AdminOrder.RegisterRoutes(admin)
	h.AdminUser.RegisterRoutes(admin)
}
