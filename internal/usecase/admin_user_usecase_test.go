package usecase_test

import (
	"context"
	"testing"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
	"storefront/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newAdminUserFixture() (*usecase.AdminUserUsecase, *UserRepoMock, *OrderRepoMock, *ProductRepoMock, *AuditRepoMock) {
	users := new(UserRepoMock)
	orders := new(OrderRepoMock)
	products := new(ProductRepoMock)
	audit := new(AuditRepoMock)
	return usecase.NewAdminUserUsecase(users, orders, products, audit), users, orders, products, audit
}

func TestAdminUserUsecase_Stats(t *testing.T) {
	uc, users, orders, products, _ := newAdminUserFixture()
	products.On("Count", mock.Anything).Return(int64(12), nil)
	orders.On("Count", mock.Anything, (*model.OrderStatus)(nil)).Return(int64(40), nil)
	orders.On("Count", mock.Anything, mock.MatchedBy(func(s *model.OrderStatus) bool {
		return s != nil && *s == model.OrderStatusPending
	})).Return(int64(5), nil)
	users.On("CountByRole", mock.Anything, model.RoleCustomer).Return(int64(9), nil)

	s, err := uc.Stats(context.Background(), admin)
	require.NoError(t, err)
	assert.Equal(t, usecase.DashboardStats{Products: 12, Orders: 40, Customers: 9, PendingOrders: 5}, s)

	_, err = uc.Stats(context.Background(), customer)
	assertErrContains(t, err, "unauthorized")
}

func TestAdminUserUsecase_ListCustomers_FiltersCustomers(t *testing.T) {
	uc, users, _, _, _ := newAdminUserFixture()
	users.On("List", mock.Anything, mock.MatchedBy(func(f repo.UserListFilter) bool {
		return f.Role != nil && *f.Role == model.RoleCustomer && f.Search == "ana" && f.Page == 1 && f.Limit == 20
	})).Return([]model.User{{ID: 7}}, int64(1), nil)

	out, err := uc.ListCustomers(context.Background(), admin, usecase.CustomerListInput{Search: " ana "})
	require.NoError(t, err)
	assert.Len(t, out.Items, 1)
	assert.Equal(t, int64(1), out.Total)
}

func TestAdminUserUsecase_ListAuditLogs(t *testing.T) {
	uc, _, _, _, audit := newAdminUserFixture()
	audit.On("List", mock.Anything, repo.AuditLogFilter{Limit: 50}).Return([]model.AuditLog{{ID: 1}}, int64(31), nil)

	out, err := uc.ListAuditLogs(context.Background(), admin, repo.AuditLogFilter{})
	require.NoError(t, err)
	assert.Len(t, out.Items, 1)
	assert.Equal(t, int64(31), out.Total)
	assert.Equal(t, 50, out.Limit)

	from := time.Now()
	to := from.Add(-time.Hour)
	_, err = uc.ListAuditLogs(context.Background(), admin, repo.AuditLogFilter{CreatedFrom: &from, CreatedTo: &to})
	assertErrContains(t, err, "invalid date range")

	_, err = uc.ListAuditLogs(context.Background(), admin, repo.AuditLogFilter{Limit: 500})
	assertErrContains(t, err, "invalid limit")
}
