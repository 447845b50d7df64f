package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/tocafy/tocafy-server/internal/model"
	q "github.com/tocafy/tocafy-server/internal/queue"
)

const (
	// dialTimeout bounds connect and handshake when the caller has no deadline.
	dialTimeout = 5 * time.Second
	// redialBackoff is how long a failed dial keeps later publishes from
	// trying again.
	redialBackoff = 10 * time.Second
)

// ErrBrokerUnavailable is returned while the publisher waits before redialing.
var ErrBrokerUnavailable = errors.New("amqp broker unavailable")

// AMQPPublisher publishes change events to the durable tocafy.changes queue
// over one long-lived connection and channel.  Both are reopened lazily after
// a failure; a broker outage only costs the events emitted while it lasts
// and never blocks startup.
type AMQPPublisher struct {
	url string

	mu        sync.Mutex
	conn      *amqp.Connection
	ch        *amqp.Channel
	nextDial  time.Time
	now       func() time.Time
	dialLimit time.Duration
}

// NewAMQPPublisher returns a publisher for the broker at url.  Nothing is
// dialed until the first event.
func NewAMQPPublisher(url string) *AMQPPublisher {
	return &AMQPPublisher{url: url, now: time.Now, dialLimit: dialTimeout}
}

// Publish sends ev as a persistent JSON message.
func (p *AMQPPublisher) Publish(ctx context.Context, ev model.ChangeEvent) error {
	body, err := q.Encode(ev)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	ch, err := p.channelLocked(ctx)
	if err != nil {
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent, // store on disk
		Timestamp:    time.Now().UTC(),
		MessageId:    ev.Entity + ":" + ev.ID + ":" + ev.NewState,
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx,
		"",             // default exchange
		q.ChangesQueue, // routing key = queue name
		false,          // mandatory
		false,          // immediate
		pub,
	); err != nil {
		p.resetLocked()
		return fmt.Errorf("amqp publish: %w", err)
	}
	return nil
}

// Close releases the connection.  A later Publish dials again.
func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	var err error
	if p.conn != nil {
		err = p.conn.Close()
	}
	p.ch, p.conn = nil, nil
	return err
}

// channelLocked returns the open channel, dialing when there is none.
func (p *AMQPPublisher) channelLocked(ctx context.Context) (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() && p.conn != nil && !p.conn.IsClosed() {
		return p.ch, nil
	}
	p.resetLocked()
	if p.now().Before(p.nextDial) {
		return nil, ErrBrokerUnavailable
	}

	conn, err := amqp.DialConfig(p.url, amqp.Config{Dial: amqp.DefaultDial(p.dialBudget(ctx))})
	if err != nil {
		p.nextDial = p.now().Add(redialBackoff)
		return nil, fmt.Errorf("amqp dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		p.nextDial = p.now().Add(redialBackoff)
		return nil, fmt.Errorf("amqp channel: %w", err)
	}
	// Ensure the queue exists (idempotent). Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(
		q.ChangesQueue, // name
		true,           // durable
		false,          // autoDelete
		false,          // exclusive
		false,          // noWait
		nil,            // args
	); err != nil {
		_ = conn.Close()
		p.nextDial = p.now().Add(redialBackoff)
		return nil, fmt.Errorf("amqp declare: %w", err)
	}
	p.conn, p.ch = conn, ch
	return ch, nil
}

// dialBudget is the time left before ctx expires, capped by the dial limit.
func (p *AMQPPublisher) dialBudget(ctx context.Context) time.Duration {
	budget := p.dialLimit
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < budget {
			budget = left
		}
	}
	if budget <= 0 {
		budget = time.Millisecond
	}
	return budget
}

func (p *AMQPPublisher) resetLocked() {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
	p.ch, p.conn = nil, nil
}
