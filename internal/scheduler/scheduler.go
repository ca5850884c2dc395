// Package scheduler defers waiting-list timeout checks through the
// message broker. A check is published to the waitlist.timeout.delay
// queue with a per-message TTL and no consumer; when the TTL expires
// the broker dead-letters the message into waitlist.timeout, where
// the consumer runs the check. Delivery is at-least-once and checks
// are idempotent, so duplicates and late deliveries are harmless.
package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/mgarsanz/unisport/internal/booking"
)

const (
	delayQueueName = "waitlist.timeout.delay"
	checkQueueName = "waitlist.timeout"
)

type timeoutMessage struct {
	SessionID   uint64 `json:"session_id"`
	ScheduledAt string `json:"scheduled_at"`
}

// Rabbit schedules timeout checks over RabbitMQ. It implements
// booking.TimeoutScheduler.
type Rabbit struct {
	url string
}

// NewRabbit returns a scheduler publishing to the given broker URL.
func NewRabbit(url string) *Rabbit { return &Rabbit{url: url} }

// Schedule publishes a timeout check that the broker will hold for
// the given delay before handing it to the check consumer.
func (r *Rabbit) Schedule(ctx context.Context, sessionID uint64, delay time.Duration) error {
	conn, err := amqp.Dial(r.url)
	if err != nil {
		log.Printf("scheduler: dial failed: %v", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Printf("scheduler: channel open failed: %v", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	if err := declareQueues(ch); err != nil {
		log.Printf("scheduler: queue declare failed: %v", err)
		return err
	}

	body, err := json.Marshal(timeoutMessage{
		SessionID:   sessionID,
		ScheduledAt: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Expiration:   strconv.FormatInt(delay.Milliseconds(), 10),
		Body:         body,
	}

	if err := ch.PublishWithContext(ctx, "", delayQueueName, false, false, pub); err != nil {
		log.Printf("scheduler: publish failed: %v", err)
		return err
	}
	return nil
}

// declareQueues declares both halves of the delay pipeline. The delay
// queue has no consumer; its dead-letter settings route expired
// messages into the check queue on the default exchange.
func declareQueues(ch *amqp.Channel) error {
	if _, err := ch.QueueDeclare(checkQueueName, true, false, false, false, nil); err != nil {
		return err
	}
	_, err := ch.QueueDeclare(delayQueueName, true, false, false, false, amqp.Table{
		"x-dead-letter-exchange":    "",
		"x-dead-letter-routing-key": checkQueueName,
	})
	return err
}

// StartTimeoutConsumer connects to RabbitMQ and consumes expired
// timeout messages, running the waiting-list check for each. It runs
// a reconnect loop and keeps operating through broker restarts;
// failed checks are requeued once via Nack so a transient database
// error does not silently drop an offer cascade.
func StartTimeoutConsumer(url string, svc *booking.Service) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(url)
		if err != nil {
			log.Printf("timeout-consumer: failed to dial broker: %v; retrying in %s", err, backoff)
			time.Sleep(backoff)
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		if err := consumeChecks(conn, svc); err != nil {
			log.Printf("timeout-consumer: consume loop ended: %v; reconnecting", err)
			time.Sleep(2 * time.Second)
			continue
		}
	}
}

func consumeChecks(conn *amqp.Connection, svc *booking.Service) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := declareQueues(ch); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	msgs, err := ch.Consume(checkQueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for d := range msgs {
		var m timeoutMessage
		if err := json.Unmarshal(d.Body, &m); err != nil {
			log.Printf("timeout-consumer: unmarshal failed: %v", err)
			_ = d.Nack(false, false)
			continue
		}
		if err := svc.OnTimeoutCheck(context.Background(), m.SessionID); err != nil {
			log.Printf("timeout-consumer: check for session %d failed: %v", m.SessionID, err)
			_ = d.Nack(false, !d.Redelivered)
			continue
		}
		_ = d.Ack(false)
	}
	return errors.New("deliveries channel closed")
}
