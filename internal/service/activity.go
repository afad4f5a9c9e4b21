package service

import (
	"context"
	"log/slog"

	"github.com/flicky/storefront-api/internal/model"
	"github.com/flicky/storefront-api/internal/repository"
)

// ActivityRecorder appends to the activity log. Implementations must not
// fail the calling operation; errors are logged and dropped.
type ActivityRecorder interface {
	Record(ctx context.Context, entry model.ActivityLog)
}

type clientInfoKey struct{}

type clientInfo struct {
	ip        string
	userAgent string
}

// WithClientInfo attaches the caller's address and user agent so recorded
// activity carries them.
func WithClientInfo(ctx context.Context, ip, userAgent string) context.Context {
	return context.WithValue(ctx, clientInfoKey{}, clientInfo{ip: ip, userAgent: userAgent})
}

func activityEntry(ctx context.Context, username, action, details string) model.ActivityLog {
	entry := model.ActivityLog{Username: username, Action: action, Details: details}
	if info, ok := ctx.Value(clientInfoKey{}).(clientInfo); ok {
		entry.IPAddress = info.ip
		entry.UserAgent = info.userAgent
	}
	return entry
}

func record(ctx context.Context, rec ActivityRecorder, username, action, details string) {
	if rec == nil || username == "" {
		return
	}
	rec.Record(ctx, activityEntry(ctx, username, action, details))
}

// DirectActivityRecorder writes entries synchronously through the repository.
type DirectActivityRecorder struct {
	repo repository.ActivityRepository
}

func NewDirectActivityRecorder(repo repository.ActivityRepository) *DirectActivityRecorder {
	return &DirectActivityRecorder{repo: repo}
}

func (r *DirectActivityRecorder) Record(ctx context.Context, entry model.ActivityLog) {
	if err := r.repo.Append(ctx, &entry); err != nil {
		slog.Error("failed to record activity", "username", entry.Username, "action", entry.Action, "error", err)
	}
}
