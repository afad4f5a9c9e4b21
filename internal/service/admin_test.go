package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flicky/storefront-api/internal/model"
)

func newAdminService(f *fixture) (*AdminService, *mockReportRepo) {
	reports := &mockReportRepo{db: f.db}
	return NewAdminService(&mockRoleRepo{db: f.db}, &mockOrderRepo{db: f.db}, reports,
		&mockActivityRepo{db: f.db}, &mockUserRepo{db: f.db}, f.recorder), reports
}

func TestAdminService_NonAdminIsForbiddenEverywhere(t *testing.T) {
	f := newFixture()
	f.db.addUser("alice", "x")
	svc, _ := newAdminService(f)
	ctx := context.Background()

	_, err := svc.RecentOrders(ctx, "alice", 10)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = svc.UpdateOrderStatus(ctx, "alice", 1, model.OrderStatusShipped, "")
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = svc.SalesAnalytics(ctx, "alice", model.TimeFrameMonth, nil)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = svc.Customers(ctx, "alice")
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = svc.CustomerOrders(ctx, "alice", "alice")
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = svc.ActivityLogs(ctx, "alice", 10)
	assert.ErrorIs(t, err, ErrAuth)

	assert.Empty(t, f.db.statuses)
}

func TestAdminService_IsAdmin(t *testing.T) {
	f := newFixture()
	svc, _ := newAdminService(f)
	f.db.roles["root"] = model.RoleAdmin

	ok, err := svc.IsAdmin(context.Background(), "root")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.IsAdmin(context.Background(), "alice")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAdminService_UpdateOrderStatus(t *testing.T) {
	f := newFixture()
	order := createPaidScenario(t, f)
	f.db.roles["root"] = model.RoleAdmin
	svc, _ := newAdminService(f)
	ctx := context.Background()

	_, err := svc.UpdateOrderStatus(ctx, "root", order.ID, "lost", "")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.UpdateOrderStatus(ctx, "root", 999, model.OrderStatusShipped, "")
	assert.ErrorIs(t, err, ErrOrderNotFound)

	st, err := svc.UpdateOrderStatus(ctx, "root", order.ID, model.OrderStatusShipped, "via courier")
	require.NoError(t, err)
	assert.Equal(t, "root", st.UpdatedBy)

	_, err = svc.UpdateOrderStatus(ctx, "root", order.ID, model.OrderStatusDelivered, "")
	require.NoError(t, err)
	assert.Len(t, f.db.statuses, 1)

	recent, err := svc.RecentOrders(ctx, "root", 0)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, model.OrderStatusDelivered, recent[0].Status)
	assert.Equal(t, model.ActionUpdateOrderStatus, f.db.activity[len(f.db.activity)-1].Action)
}

func TestAdminService_SalesAnalytics(t *testing.T) {
	f := newFixture()
	f.db.roles["root"] = model.RoleAdmin
	svc, reports := newAdminService(f)
	ctx := context.Background()
	cat := 1

	_, err := svc.SalesAnalytics(ctx, "root", "", &cat)
	require.NoError(t, err)
	assert.Equal(t, model.TimeFrameMonth, reports.lastFrame)
	assert.Equal(t, &cat, reports.lastCatID)

	_, err = svc.SalesAnalytics(ctx, "root", "fortnight", nil)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestAdminService_ActivityLogsNewestFirst(t *testing.T) {
	f := newFixture()
	f.db.roles["root"] = model.RoleAdmin
	svc, _ := newAdminService(f)
	ctx := context.Background()

	f.recorder.Record(ctx, model.ActivityLog{Username: "alice", Action: model.ActionLogin})
	f.recorder.Record(ctx, model.ActivityLog{Username: "alice", Action: model.ActionLogout})

	logs, err := svc.ActivityLogs(ctx, "root", 1)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, model.ActionLogout, logs[0].Action)
}

func TestAdminService_GrantRole(t *testing.T) {
	f := newFixture()
	f.db.addUser("alice", "x")
	svc, _ := newAdminService(f)
	ctx := context.Background()

	require.NoError(t, svc.GrantRole(ctx, "alice", model.RoleAdmin))
	assert.Equal(t, model.RoleAdmin, f.db.roles["alice"])

	assert.ErrorIs(t, svc.GrantRole(ctx, "alice", "superuser"), ErrValidation)
	assert.ErrorIs(t, svc.GrantRole(ctx, "ghost", model.RoleAdmin), ErrUserNotFound)
}

func TestDirectActivityRecorder_SwallowsErrors(t *testing.T) {
	f := newFixture()
	f.db.failOn["activity.Append"] = errInjected

	assert.NotPanics(t, func() {
		f.recorder.Record(context.Background(), model.ActivityLog{Username: "alice", Action: model.ActionLogin})
	})
	assert.Empty(t, f.db.activity)
}

func TestActivityEntry_CarriesClientInfo(t *testing.T) {
	ctx := WithClientInfo(context.Background(), "10.0.0.1", "curl/8.0")
	e := activityEntry(ctx, "alice", model.ActionLogin, "")
	assert.Equal(t, "10.0.0.1", e.IPAddress)
	assert.Equal(t, "curl/8.0", e.UserAgent)
}
