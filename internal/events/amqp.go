package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

const (
	UpdatesExchange = "session_updates"
)

func RoutingKey(userID string) string {
	return fmt.Sprintf("user.%s", userID)
}

// AMQPPublisher publishes updates on the topic exchange so other processes
// (the API relaying worker progress) can pick them up.
type AMQPPublisher struct {
	conn     *amqp.Connection
	exchange string
	once     sync.Once
	declErr  error
}

func NewAMQPPublisher(conn *amqp.Connection) *AMQPPublisher {
	return &AMQPPublisher{conn: conn, exchange: UpdatesExchange}
}

func (p *AMQPPublisher) declare() error {
	p.once.Do(func() {
		ch, err := p.conn.Channel()
		if err != nil {
			p.declErr = err
			return
		}
		defer ch.Close()
		p.declErr = ch.ExchangeDeclare(
			p.exchange, // name
			"topic",    // kind
			true,       // durable
			false,      // auto-delete
			false,      // internal
			false,      // no-wait
			nil,        // arguments
		)
	})
	return p.declErr
}

func (p *AMQPPublisher) Publish(_ context.Context, u Update) error {
	if err := p.declare(); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}
	ch, err := p.conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	if u.Timestamp.IsZero() {
		u.Timestamp = time.Now()
	}
	body, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("marshal update: %w", err)
	}

	return ch.Publish(
		p.exchange,
		RoutingKey(u.UserID),
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
}

// Relay binds an exclusive queue to every user's updates and republishes
// them into the hub until ctx is done.
func Relay(ctx context.Context, conn *amqp.Connection, hub *Hub, logger *zap.Logger) error {
	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	if err := ch.ExchangeDeclare(UpdatesExchange, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}
	q, err := ch.QueueDeclare(
		"",    // server-named
		false, // durable
		true,  // auto-delete
		true,  // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("declare relay queue: %w", err)
	}
	if err := ch.QueueBind(q.Name, "user.*", UpdatesExchange, false, nil); err != nil {
		return fmt.Errorf("bind relay queue: %w", err)
	}
	msgs, err := ch.Consume(q.Name, "", true, true, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume relay queue: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return fmt.Errorf("relay channel closed")
			}
			var u Update
			if err := json.Unmarshal(msg.Body, &u); err != nil {
				logger.Warn("dropping malformed update", zap.Error(err))
				continue
			}
			_ = hub.Publish(ctx, u)
		}
	}
}
