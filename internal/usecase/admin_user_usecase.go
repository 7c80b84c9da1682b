package usecase

import (
	"context"
	"strings"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

// 管理画面の顧客一覧・ダッシュボード・監査ログ
type AdminUserUsecase struct {
	users    repo.UserRepository
	orders   repo.OrderRepository
	products repo.ProductRepository
	audits   repo.AuditLogRepository
}

func NewAdminUserUsecase(
	users repo.UserRepository,
	orders repo.OrderRepository,
	products repo.ProductRepository,
	audits repo.AuditLogRepository,
) *AdminUserUsecase {
	return &AdminUserUsecase{users: users, orders: orders, products: products, audits: audits}
}

type CustomerListInput struct {
	Page   int
	Limit  int
	Search string
}

type CustomerListOutput struct {
	Items []model.User `json:"items"`
	Page
}

type AuditLogListOutput struct {
	Items  []model.AuditLog `json:"items"`
	Total  int64            `json:"total"`
	Limit  int              `json:"limit"`
	Offset int              `json:"offset"`
}

type DashboardStats struct {
	Products      int64 `json:"products"`
	Orders        int64 `json:"orders"`
	Customers     int64 `json:"customers"`
	PendingOrders int64 `json:"pending_orders"`
}

func (u *AdminUserUsecase) ListCustomers(ctx context.Context, actor model.Actor, in CustomerListInput) (CustomerListOutput, error) {
	if !actor.IsAdmin() {
		return CustomerListOutput{}, unauthorized()
	}
	if in.Page == 0 {
		in.Page = 1
	}
	if in.Limit == 0 {
		in.Limit = 20
	}
	if err := validatePage(in.Page, in.Limit, maxPageLimit); err != nil {
		return CustomerListOutput{}, err
	}

	role := model.RoleCustomer
	users, total, err := u.users.List(ctx, repo.UserListFilter{
		Role:   &role,
		Search: strings.TrimSpace(in.Search),
		Page:   in.Page,
		Limit:  in.Limit,
	})
	if err != nil {
		return CustomerListOutput{}, dbError(err)
	}
	if users == nil {
		users = []model.User{}
	}
	return CustomerListOutput{Items: users, Page: Page{Total: total, Page: in.Page, Limit: in.Limit}}, nil
}

func (u *AdminUserUsecase) Stats(ctx context.Context, actor model.Actor) (DashboardStats, error) {
	if !actor.IsAdmin() {
		return DashboardStats{}, unauthorized()
	}

	var s DashboardStats
	var err error
	if s.Products, err = u.products.Count(ctx); err != nil {
		return DashboardStats{}, dbError(err)
	}
	if s.Orders, err = u.orders.Count(ctx, nil); err != nil {
		return DashboardStats{}, dbError(err)
	}
	if s.Customers, err = u.users.CountByRole(ctx, model.RoleCustomer); err != nil {
		return DashboardStats{}, dbError(err)
	}
	pending := model.OrderStatusPending
	if s.PendingOrders, err = u.orders.Count(ctx, &pending); err != nil {
		return DashboardStats{}, dbError(err)
	}
	return s, nil
}

func (u *AdminUserUsecase) ListAuditLogs(ctx context.Context, actor model.Actor, f repo.AuditLogFilter) (AuditLogListOutput, error) {
	if !actor.IsAdmin() {
		return AuditLogListOutput{}, unauthorized()
	}
	if f.Limit == 0 {
		f.Limit = 50
	}
	if f.Limit < 1 || f.Limit > 200 {
		return AuditLogListOutput{}, badRequest("invalid limit")
	}
	if f.Offset < 0 {
		return AuditLogListOutput{}, badRequest("invalid offset")
	}
	if f.CreatedFrom != nil && f.CreatedTo != nil && f.CreatedFrom.After(*f.CreatedTo) {
		return AuditLogListOutput{}, badRequest("invalid date range")
	}

	logs, total, err := u.audits.List(ctx, f)
	if err != nil {
		return AuditLogListOutput{}, dbError(err)
	}
	if logs == nil {
		logs = []model.AuditLog{}
	}
	return AuditLogListOutput{Items: logs, Total: total, Limit: f.Limit, Offset: f.Offset}, nil
}
