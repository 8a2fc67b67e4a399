package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/streadway/amqp"

	"github.com/trailblaize/outreach-backend/internal/service"
)

// JobsQueueName is the AMQP queue scheduler drivers publish outreach jobs to.
const JobsQueueName = "outreach_jobs"

// RetryHeader carries the delivery attempt count on republished jobs.
const RetryHeader = "x-retry-count"

// MaxJobRetries bounds redelivery for a failing job before it is dropped.
const MaxJobRetries = 3

// RetryCount reads the attempt counter from delivery headers. Broker
// clients hand header numbers back as varying integer widths.
func RetryCount(headers amqp.Table) int32 {
	switch v := headers[RetryHeader].(type) {
	case int32:
		return v
	case int64:
		return int32(v)
	case int:
		return int32(v)
	}
	return 0
}

// RetryHeaders builds the headers for the next delivery attempt.
func RetryHeaders(count int32) amqp.Table {
	return amqp.Table{RetryHeader: count}
}

// Queue decouples job producers from the worker that runs them.
type Queue interface {
	Publish(topic string, payload any) error
	Subscribe(topic string, handler func(payload any) error) error
}

// InMemoryQueue runs handlers in-process; used when no broker is
// configured and in tests.
type InMemoryQueue struct {
	mu       sync.Mutex
	handlers map[string][]func(payload any) error
}

func NewInMemoryQueue() *InMemoryQueue {
	return &InMemoryQueue{
		handlers: make(map[string][]func(payload any) error),
	}
}

// jobEnvelope wraps a payload with retry bookkeeping.
type jobEnvelope struct {
	Payload    any
	RetryCount int
	MaxRetries int
}

// Publish hands the payload to every subscriber of the topic.
func (q *InMemoryQueue) Publish(topic string, payload any) error {
	q.mu.Lock()
	handlers := q.handlers[topic]
	q.mu.Unlock()

	if len(handlers) == 0 {
		return fmt.Errorf("no subscribers for topic %s", topic)
	}

	job := jobEnvelope{Payload: payload, MaxRetries: 3}
	for _, handler := range handlers {
		go q.processJob(handler, job)
	}
	return nil
}

func (q *InMemoryQueue) processJob(handler func(payload any) error, job jobEnvelope) {
	for job.RetryCount <= job.MaxRetries {
		err := handler(job.Payload)
		if err == nil {
			return
		}

		job.RetryCount++
		log.Warn().Err(err).Int("attempt", job.RetryCount).Int("maxRetries", job.MaxRetries).
			Msg("Queued job failed")

		if job.RetryCount > job.MaxRetries {
			log.Error().Int("maxRetries", job.MaxRetries).Msg("Queued job permanently failed")
			return
		}

		time.Sleep(time.Duration(job.RetryCount*500) * time.Millisecond)
	}
}

func (q *InMemoryQueue) Subscribe(topic string, handler func(payload any) error) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers[topic] = append(q.handlers[topic], handler)
	return nil
}

// StartJobSubscriber runs queued outreach jobs through the runner. Used
// with the in-memory queue when the server runs without a broker.
func StartJobSubscriber(q Queue, runner *service.JobRunner) {
	go func() {
		err := q.Subscribe(JobsQueueName, func(payload any) error {
			job, ok := payload.(service.OutreachJob)
			if !ok {
				log.Warn().Msg("Invalid job payload type, expected service.OutreachJob")
				return nil
			}
			return runner.Run(context.Background(), job)
		})
		if err != nil {
			log.Error().Err(err).Msg("Failed to start outreach job subscriber")
		}
	}()
}

// AMQPPublisher publishes outreach jobs to a durable broker queue for the
// separate worker process.
type AMQPPublisher struct {
	conn    *amqp.Connection
	channel *amqp.Channel
}

func NewAMQPPublisher(url string) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open broker channel: %w", err)
	}

	if _, err := ch.QueueDeclare(
		JobsQueueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare queue: %w", err)
	}

	return &AMQPPublisher{conn: conn, channel: ch}, nil
}

func (p *AMQPPublisher) Publish(topic string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return p.channel.Publish(
		"",
		topic,
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
}

// Subscribe is unsupported on the publisher; the worker consumes directly
// from the broker.
func (p *AMQPPublisher) Subscribe(topic string, handler func(payload any) error) error {
	return fmt.Errorf("AMQPPublisher does not support subscribing")
}

func (p *AMQPPublisher) Close() {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		p.conn.Close()
	}
}

var _ Queue = (*InMemoryQueue)(nil)
var _ Queue = (*AMQPPublisher)(nil)
