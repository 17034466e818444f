package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

// Pool consumes the job queue with a fixed number of workers, each on its
// own channel.
type Pool struct {
	conn      *amqp.Connection
	processor *Processor
	workers   int
	logger    *zap.Logger
}

func NewPool(conn *amqp.Connection, p *Processor, workers int, logger *zap.Logger) *Pool {
	if workers <= 0 {
		workers = 1
	}
	return &Pool{conn: conn, processor: p, workers: workers, logger: logger}
}

// Run blocks until ctx is done or every worker has stopped. The first worker
// setup error is returned.
func (p *Pool) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	errs := make(chan error, p.workers)

	wg.Add(p.workers)
	for i := range p.workers {
		p.logger.Info("worker started", zap.Int("worker_id", i+1))
		go func(id int) {
			defer wg.Done()
			if err := p.work(ctx, id); err != nil {
				errs <- err
			}
		}(i + 1)
	}
	wg.Wait()
	close(errs)
	return <-errs
}

func (p *Pool) work(ctx context.Context, id int) error {
	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("error connecting to rabbitmq channel: %w", err)
	}
	defer ch.Close()

	if err := declareQueue(ch); err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}
	if err := ch.Qos(1, 0, false); err != nil {
		return fmt.Errorf("failed to set qos: %w", err)
	}

	msgs, err := ch.Consume(
		QueueName, // queue name
		"",        // consumer tag
		false,     // auto-ack
		false,     // exclusive
		false,     // no-local
		false,     // no-wait
		nil,       // arguments
	)
	if err != nil {
		return fmt.Errorf("error consuming rabbitmq message: %w", err)
	}

	log := p.logger.With(zap.Int("worker_id", id))
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			p.handle(ctx, log, msg)
		}
	}
}

func (p *Pool) handle(ctx context.Context, log *zap.Logger, msg amqp.Delivery) {
	var job Job
	if err := json.Unmarshal(msg.Body, &job); err != nil {
		log.Error("error unmarshalling message body", zap.Error(err))
		_ = msg.Nack(false, false)
		return
	}

	log.Info("processing resume", zap.String("resume_id", job.ResumeID.String()))
	if err := p.processor.Process(ctx, job); err != nil {
		log.Warn("resume job failed", zap.String("resume_id", job.ResumeID.String()), zap.Error(err))
	}
	// failures are recorded on the resume, redelivery would repeat them
	_ = msg.Ack(false)
}
