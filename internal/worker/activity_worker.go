package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"github.com/flicky/storefront-api/internal/model"
	"github.com/flicky/storefront-api/internal/repository"
)

const (
	activityQueueName = "activity"
	dlxExchange       = "activity.dlx"
	dlqQueueName      = "activity.dlq"
	idempotencyTTL    = 24 * time.Hour
	prefetchCount     = 10
)

// Consumer is the part of *amqp.Channel the worker reads from.
type Consumer interface {
	Qos(prefetchCount, prefetchSize int, global bool) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
}

// Deduper remembers which messages have already been written.
type Deduper interface {
	Seen(ctx context.Context, messageID string) (bool, error)
	Mark(ctx context.Context, messageID string) error
}

type redisDeduper struct{ client *redis.Client }

// NewRedisDeduper keys entries as activity_processed:<id>. A nil client
// disables de-duplication.
func NewRedisDeduper(client *redis.Client) Deduper {
	if client == nil {
		return noopDeduper{}
	}
	return &redisDeduper{client: client}
}

func idempotencyKey(messageID string) string {
	return "activity_processed:" + messageID
}

func (d *redisDeduper) Seen(ctx context.Context, messageID string) (bool, error) {
	n, err := d.client.Exists(ctx, idempotencyKey(messageID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (d *redisDeduper) Mark(ctx context.Context, messageID string) error {
	return d.client.Set(ctx, idempotencyKey(messageID), "1", idempotencyTTL).Err()
}

type noopDeduper struct{}

func (noopDeduper) Seen(context.Context, string) (bool, error) { return false, nil }
func (noopDeduper) Mark(context.Context, string) error         { return nil }

// ActivityWorker drains the activity queue into activity_logs.
type ActivityWorker struct {
	channel      Consumer
	activityRepo repository.ActivityRepository
	dedup        Deduper
	log          *slog.Logger
	done         chan struct{}
}

func NewActivityWorker(ch Consumer, activityRepo repository.ActivityRepository, dedup Deduper, log *slog.Logger) *ActivityWorker {
	return &ActivityWorker{
		channel:      ch,
		activityRepo: activityRepo,
		dedup:        dedup,
		log:          log,
		done:         make(chan struct{}),
	}
}

// SetupRabbitMQ declares the activity queue and its dead-letter route.
func SetupRabbitMQ(ch *amqp.Channel) error {
	if err := ch.ExchangeDeclare(dlxExchange, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare DLX: %w", err)
	}
	if _, err := ch.QueueDeclare(dlqQueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare DLQ: %w", err)
	}
	if err := ch.QueueBind(dlqQueueName, activityQueueName, dlxExchange, false, nil); err != nil {
		return fmt.Errorf("bind DLQ: %w", err)
	}
	if _, err := ch.QueueDeclare(activityQueueName, true, false, false, false, amqp.Table{
		"x-dead-letter-exchange":    dlxExchange,
		"x-dead-letter-routing-key": activityQueueName,
	}); err != nil {
		return fmt.Errorf("declare activity queue: %w", err)
	}
	return nil
}

// Start bounds the channel's prefetch and consumes in a goroutine until Stop
// or ctx is done.
func (w *ActivityWorker) Start(ctx context.Context) error {
	if err := w.channel.Qos(prefetchCount, 0, false); err != nil {
		return fmt.Errorf("set QoS: %w", err)
	}
	msgs, err := w.channel.Consume(activityQueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	go func() {
		for {
			select {
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				w.processMessage(ctx, msg)
			case <-w.done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	w.log.Info("activity worker started")
	return nil
}

func (w *ActivityWorker) Stop() { close(w.done) }

func (w *ActivityWorker) processMessage(ctx context.Context, msg amqp.Delivery) {
	var am model.ActivityMessage
	if err := json.Unmarshal(msg.Body, &am); err != nil || am.Username == "" || am.Action == "" {
		w.log.Error("undecodable activity message", "error", err)
		_ = msg.Nack(false, false)
		return
	}

	id := am.MessageID.String()
	log := w.log.With("message_id", id, "username", am.Username, "action", am.Action)

	seen, err := w.dedup.Seen(ctx, id)
	if err != nil {
		log.Error("check idempotency key", "error", err)
		_ = msg.Nack(false, true)
		return
	}
	if seen {
		log.Info("activity already recorded, skipping")
		_ = msg.Ack(false)
		return
	}

	entry := &model.ActivityLog{
		Username: am.Username, Action: am.Action, Details: am.Details,
		IPAddress: am.IPAddress, UserAgent: am.UserAgent, CreatedAt: am.CreatedAt,
	}
	if err := w.activityRepo.Append(ctx, entry); err != nil {
		log.Error("append activity failed", "error", err)
		_ = msg.Nack(false, false)
		return
	}

	if err := w.dedup.Mark(ctx, id); err != nil {
		log.Error("set idempotency key", "error", err)
	}

	_ = msg.Ack(false)
}
