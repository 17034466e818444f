package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

const QueueName = "resume_analyses"

func declareQueue(ch *amqp.Channel) error {
	_, err := ch.QueueDeclare(
		QueueName, // queue name
		true,      // durable (survives broker restarts)
		false,     // auto-delete when unused
		false,     // exclusive
		false,     // no-wait
		nil,       // arguments
	)
	return err
}

// AMQPQueue hands jobs to the worker pool through RabbitMQ.
type AMQPQueue struct {
	conn *amqp.Connection
}

func NewAMQPQueue(conn *amqp.Connection) *AMQPQueue {
	return &AMQPQueue{conn: conn}
}

func (q *AMQPQueue) Enqueue(_ context.Context, job Job) error {
	ch, err := q.conn.Channel()
	if err != nil {
		return fmt.Errorf("error connecting to rabbitmq channel: %w", err)
	}
	defer ch.Close()

	if err := declareQueue(ch); err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}
	body, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return ch.Publish("", QueueName, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
}

// Inline runs jobs in-process, for deployments without a broker.
type Inline struct {
	processor *Processor
	logger    *zap.Logger
	wg        sync.WaitGroup
}

func NewInline(p *Processor, logger *zap.Logger) *Inline {
	return &Inline{processor: p, logger: logger}
}

func (i *Inline) Enqueue(ctx context.Context, job Job) error {
	i.wg.Add(1)
	go func() {
		defer i.wg.Done()
		if err := i.processor.Process(context.WithoutCancel(ctx), job); err != nil {
			i.logger.Warn("inline resume job failed", zap.String("resume_id", job.ResumeID.String()), zap.Error(err))
		}
	}()
	return nil
}

// Wait blocks until every enqueued job has finished.
func (i *Inline) Wait() {
	i.wg.Wait()
}
