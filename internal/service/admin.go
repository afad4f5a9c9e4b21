package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/flicky/storefront-api/internal/model"
	"github.com/flicky/storefront-api/internal/repository"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// AdminService gates every operation on the actor holding the admin role.
type AdminService struct {
	roleRepo     repository.RoleRepository
	orderRepo    repository.OrderRepository
	reportRepo   repository.ReportRepository
	activityRepo repository.ActivityRepository
	userRepo     repository.UserRepository
	activity     ActivityRecorder
}

func NewAdminService(roleRepo repository.RoleRepository, orderRepo repository.OrderRepository,
	reportRepo repository.ReportRepository, activityRepo repository.ActivityRepository,
	userRepo repository.UserRepository, activity ActivityRecorder) *AdminService {
	return &AdminService{
		roleRepo: roleRepo, orderRepo: orderRepo, reportRepo: reportRepo,
		activityRepo: activityRepo, userRepo: userRepo, activity: activity,
	}
}

func (s *AdminService) IsAdmin(ctx context.Context, username string) (bool, error) {
	if username == "" {
		return false, nil
	}
	role, err := s.roleRepo.GetRole(ctx, username)
	if err != nil {
		return false, storageError("get role", err)
	}
	return role == model.RoleAdmin, nil
}

func (s *AdminService) requireAdmin(ctx context.Context, actor string) error {
	ok, err := s.IsAdmin(ctx, actor)
	if err != nil {
		return err
	}
	if !ok {
		slog.Warn("admin access denied", "username", actor)
		return ErrForbidden
	}
	return nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}

func (s *AdminService) RecentOrders(ctx context.Context, actor string, limit int) ([]model.OrderSummary, error) {
	if err := s.requireAdmin(ctx, actor); err != nil {
		return nil, err
	}
	orders, err := s.orderRepo.Recent(ctx, clampLimit(limit))
	if err != nil {
		return nil, storageError("recent orders", err)
	}
	return orders, nil
}

func (s *AdminService) UpdateOrderStatus(ctx context.Context, actor string, orderID int, status, notes string) (*model.OrderStatus, error) {
	if err := s.requireAdmin(ctx, actor); err != nil {
		return nil, err
	}
	if !model.ValidOrderStatus(status) {
		return nil, validationError(fmt.Sprintf("invalid order status %q", status))
	}

	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, storageError("get order", err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}

	st := &model.OrderStatus{OrderID: orderID, Status: status, UpdatedBy: actor, Notes: notes}
	if err := s.orderRepo.UpsertStatus(ctx, st); err != nil {
		return nil, storageError("update order status", err)
	}

	slog.Info("order status updated", "order_id", orderID, "status", status, "updated_by", actor)
	record(ctx, s.activity, actor, model.ActionUpdateOrderStatus, fmt.Sprintf("order %d status %s", orderID, status))
	return st, nil
}

func (s *AdminService) SalesAnalytics(ctx context.Context, actor string, tf model.TimeFrame, categoryID *int) ([]model.SalesBucket, error) {
	if err := s.requireAdmin(ctx, actor); err != nil {
		return nil, err
	}
	if tf == "" {
		tf = model.TimeFrameMonth
	}
	if !tf.Valid() {
		return nil, validationError(fmt.Sprintf("invalid time frame %q", tf))
	}
	buckets, err := s.reportRepo.SalesAnalytics(ctx, tf, categoryID)
	if err != nil {
		return nil, storageError("sales analytics", err)
	}
	return buckets, nil
}

func (s *AdminService) Customers(ctx context.Context, actor string) ([]model.CustomerSummary, error) {
	if err := s.requireAdmin(ctx, actor); err != nil {
		return nil, err
	}
	customers, err := s.reportRepo.CustomerSummaries(ctx)
	if err != nil {
		return nil, storageError("list customers", err)
	}
	return customers, nil
}

func (s *AdminService) CustomerOrders(ctx context.Context, actor, customerID string) ([]model.OrderSummary, error) {
	if err := s.requireAdmin(ctx, actor); err != nil {
		return nil, err
	}
	orders, err := s.orderRepo.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, storageError("list customer orders", err)
	}
	return orders, nil
}

func (s *AdminService) ActivityLogs(ctx context.Context, actor string, limit int) ([]model.ActivityLog, error) {
	if err := s.requireAdmin(ctx, actor); err != nil {
		return nil, err
	}
	logs, err := s.activityRepo.List(ctx, clampLimit(limit))
	if err != nil {
		return nil, storageError("list activity", err)
	}
	return logs, nil
}

// GrantRole sets a user's role. It is not actor-gated; callers are the
// admin CLI and bootstrap code.
func (s *AdminService) GrantRole(ctx context.Context, username, role string) error {
	if role != model.RoleUser && role != model.RoleAdmin {
		return validationError(fmt.Sprintf("invalid role %q", role))
	}
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return storageError("get user", err)
	}
	if user == nil {
		return ErrUserNotFound
	}
	if err := s.roleRepo.SetRole(ctx, username, role); err != nil {
		return storageError("set role", err)
	}
	slog.Info("role granted", "username", username, "role", role)
	return nil
}
