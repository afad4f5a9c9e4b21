package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flicky/storefront-api/internal/model"
)

// ActivityRepository is append-only.
type ActivityRepository interface {
	Append(ctx context.Context, entry *model.ActivityLog) error
	List(ctx context.Context, limit int) ([]model.ActivityLog, error)
}

type pgActivityRepo struct{ pool *pgxpool.Pool }

func NewActivityRepository(pool *pgxpool.Pool) ActivityRepository {
	return &pgActivityRepo{pool: pool}
}

func (r *pgActivityRepo) Append(ctx context.Context, e *model.ActivityLog) error {
	createdAt := any(nil)
	if !e.CreatedAt.IsZero() {
		createdAt = e.CreatedAt
	}
	err := r.pool.QueryRow(ctx,
		`INSERT INTO activity_logs (username, action, details, ip_address, user_agent, created_at)
		 VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), NULLIF($5, ''), COALESCE($6::timestamptz, NOW()))
		 RETURNING id, created_at`,
		e.Username, e.Action, e.Details, e.IPAddress, e.UserAgent, createdAt,
	).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return fmt.Errorf("append activity: %w", err)
	}
	return nil
}

func (r *pgActivityRepo) List(ctx context.Context, limit int) ([]model.ActivityLog, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT a.id, a.username, a.action, COALESCE(a.details, ''), COALESCE(a.ip_address, ''),
		        COALESCE(a.user_agent, ''), a.created_at, COALESCE(r.role, 'user')
		 FROM activity_logs a LEFT JOIN user_roles r ON r.username = a.username
		 ORDER BY a.created_at DESC, a.id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	defer rows.Close()

	var logs []model.ActivityLog
	for rows.Next() {
		var l model.ActivityLog
		if err := rows.Scan(&l.ID, &l.Username, &l.Action, &l.Details, &l.IPAddress,
			&l.UserAgent, &l.CreatedAt, &l.Role); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
