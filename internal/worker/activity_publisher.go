package worker

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/flicky/storefront-api/internal/model"
)

// Publisher is the subset of *amqp.Channel the activity publisher uses.
type Publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// ActivityPublisher queues activity entries for ActivityWorker. Publish
// failures are logged and never reach the caller.
type ActivityPublisher struct {
	ch  Publisher
	log *slog.Logger
	now func() time.Time
}

func NewActivityPublisher(ch Publisher, log *slog.Logger) *ActivityPublisher {
	return &ActivityPublisher{ch: ch, log: log, now: time.Now}
}

func (p *ActivityPublisher) Record(ctx context.Context, entry model.ActivityLog) {
	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = p.now()
	}
	msg := model.ActivityMessage{
		MessageID: uuid.New(),
		Username:  entry.Username,
		Action:    entry.Action,
		Details:   entry.Details,
		IPAddress: entry.IPAddress,
		UserAgent: entry.UserAgent,
		CreatedAt: createdAt,
	}
	body, err := json.Marshal(msg)
	if err != nil {
		p.log.Error("marshal activity message", "error", err)
		return
	}

	err = p.ch.PublishWithContext(ctx, "", activityQueueName, false, false, amqp.Publishing{
		ContentType:  "application/json",
		MessageId:    msg.MessageID.String(),
		Timestamp:    createdAt,
		Body:         body,
		DeliveryMode: amqp.Persistent,
	})
	if err != nil {
		p.log.Error("publish activity message", "username", entry.Username, "action", entry.Action, "error", err)
	}
}
