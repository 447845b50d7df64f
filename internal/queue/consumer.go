package queue

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/tocafy/tocafy-server/internal/logger"
)

// ActivityLog appends one line per change event to <dir>/activity.log.
type ActivityLog struct {
	dir string
}

// NewActivityLog writes into dir, creating it on first use.
func NewActivityLog(dir string) *ActivityLog {
	return &ActivityLog{dir: dir}
}

// Path returns the log file location.
func (a *ActivityLog) Path() string {
	return filepath.Join(a.dir, "activity.log")
}

// Handle decodes one broker payload and appends it to the log.
func (a *ActivityLog) Handle(body []byte) error {
	ev, err := Decode(body)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(a.dir, 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	f, err := os.OpenFile(a.Path(), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	position := "-"
	if ev.Position != nil {
		position = fmt.Sprint(*ev.Position)
	}
	line := fmt.Sprintf("[%s] %s %s | show_id=%s | state=%s | flagged=%t | position=%s\n",
		ev.At.UTC().Format(time.RFC3339), ev.Entity, ev.ID, ev.ShowID, ev.NewState, ev.Flagged, position)

	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

// StartChangeConsumer connects to RabbitMQ, declares the tocafy.changes
// queue (durable) and records every message in the activity log.  It
// reconnects with exponential backoff and only returns once ctx is
// cancelled.  Messages that cannot be handled are rejected without requeue
// so a poison message cannot stall the queue.
func StartChangeConsumer(ctx context.Context, url string, activity *ActivityLog, log *logger.Logger) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(url)
		if err != nil {
			log.Warn("change-consumer: failed to dial broker", "error", err, "retry_in", backoff)
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		err = consumeLoop(ctx, conn, activity, log)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Warn("change-consumer: consume loop ended; reconnecting", "error", err)
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, activity *ActivityLog, log *logger.Logger) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Warn("change-consumer: set QoS failed", "error", err)
	}

	if _, err := ch.QueueDeclare(ChangesQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	msgs, err := ch.ConsumeWithContext(ctx, ChangesQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for d := range msgs {
		if err := activity.Handle(d.Body); err != nil {
			log.Warn("change-consumer: handle message failed", "error", err)
			_ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
			continue
		}
		_ = d.Ack(false)
	}
	return errors.New("deliveries channel closed")
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
