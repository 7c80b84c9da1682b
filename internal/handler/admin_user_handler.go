package handler

import (
	"net/http"
	"strconv"

	"storefront/internal/domain/model"
	"storefront/internal/repository"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

// 顧客一覧・強制ログアウト・ダッシュボード・監査ログ
type AdminUserHandler struct {
	uc     *usecase.AdminUserUsecase
	authUC *usecase.AuthUsecase
}

func NewAdminUserHandler(uc *usecase.AdminUserUsecase, authUC *usecase.AuthUsecase) *AdminUserHandler {
	return &AdminUserHandler{uc: uc, authUC: authUC}
}

func (h *AdminUserHandler) RegisterRoutes(admin *echo.Group) {
	admin.GET("/users", h.listCustomers)
	admin.POST("/users/:id/force-logout", h.ForceLogout)
	admin.GET("/stats", h.stats)
	admin.GET("/audit-logs", h.auditLogs)
}

func (h *AdminUserHandler) listCustomers(c echo.Context) error {
	page, err := queryInt(c, "page")
	if err != nil {
		return badRequest(c, "invalid page")
	}
	limit, err := queryInt(c, "limit")
	if err != nil {
		return badRequest(c, "invalid limit")
	}

	out, err := h.uc.ListCustomers(c.Request().Context(), actor(c), usecase.CustomerListInput{
		Page:   page,
		Limit:  limit,
		Search: c.QueryParam("search"),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AdminUserHandler) ForceLogout(c echo.Context) error {
	userID, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid user_id")
	}

	res, err := h.authUC.ForceLogout(c.Request().Context(), actor(c), userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *AdminUserHandler) stats(c echo.Context) error {
	out, err := h.uc.Stats(c.Request().Context(), actor(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// action / resource_type / actor_user_id / resource_id / from / to / limit / offset
func (h *AdminUserHandler) auditLogs(c echo.Context) error {
	var f repository.AuditLogFilter

	if v := c.QueryParam("action"); v != "" {
		a := model.AuditAction(v)
		f.Action = &a
	}
	if v := c.QueryParam("resource_type"); v != "" {
		rt := model.AuditResourceType(v)
		f.ResourceType = &rt
	}
	if v := c.QueryParam("actor_user_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return badRequest(c, "invalid actor_user_id")
		}
		f.ActorUserID = &id
	}
	if v := c.QueryParam("resource_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return badRequest(c, "invalid resource_id")
		}
		f.ResourceID = &id
	}

	var err error
	if f.CreatedFrom, err = queryTime(c, "from"); err != nil {
		return badRequest(c, "invalid from")
	}
	if f.CreatedTo, err = queryTime(c, "to"); err != nil {
		return badRequest(c, "invalid to")
	}
	if f.Limit, err = queryInt(c, "limit"); err != nil {
		return badRequest(c, "invalid limit")
	}
	if f.Offset, err = queryInt(c, "offset"); err != nil {
		return badRequest(c, "invalid offset")
	}

	logs, err := h.uc.ListAuditLogs(c.Request().Context(), actor(c), f)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, logs)
}
