package queue

import (
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/urjalabs/solatlas/internal/ports"
)

// RabbitMQQueue maps every subject to a fanout exchange of the same name, so
// NATS and RabbitMQ deployments see identical subject semantics. Subjects are
// declared lazily on first use and remembered per channel.
type RabbitMQQueue struct {
	url string
	log *zap.Logger

	mu       sync.RWMutex
	conn     *amqp.Connection
	channel  *amqp.Channel
	declared map[string]bool
}

func NewRabbitMQQueue(url string, log *zap.Logger) (ports.MessageQueue, error) {
	q := &RabbitMQQueue{url: url, log: log}
	if err := q.dial(); err != nil {
		return nil, err
	}
	go q.reconnectLoop()

	log.Info("Connected to RabbitMQ", zap.String("url", url))
	return q, nil
}

// dial opens a fresh connection and channel, replacing the current pair.
// Declared exchanges are forgotten because they belong to the old channel.
func (q *RabbitMQQueue) dial() error {
	conn, err := amqp.Dial(q.url)
	if err != nil {
		return fmt.Errorf("connecting to RabbitMQ at %s: %w", q.url, err)
	}
	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("opening RabbitMQ channel: %w", err)
	}

	q.mu.Lock()
	q.conn = conn
	q.channel = channel
	q.declared = make(map[string]bool)
	q.mu.Unlock()
	return nil
}

// ensureExchange declares the subject's fanout exchange once per channel.
func (q *RabbitMQQueue) ensureExchange(subject string) (*amqp.Channel, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.channel == nil {
		return nil, fmt.Errorf("rabbitmq channel is not open")
	}
	if !q.declared[subject] {
		if err := q.channel.ExchangeDeclare(subject, "fanout", true, false, false, false, nil); err != nil {
			return nil, fmt.Errorf("declaring exchange %s: %w", subject, err)
		}
		q.declared[subject] = true
	}
	return q.channel, nil
}

func (q *RabbitMQQueue) Publish(subject string, data []byte) error {
	channel, err := q.ensureExchange(subject)
	if err != nil {
		return err
	}
	err = channel.Publish(subject, "", false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        data,
		Timestamp:   time.Now(),
	})
	if err != nil {
		return fmt.Errorf("publishing to %s: %w", subject, err)
	}
	return nil
}

// Subscribe binds an exclusive auto-deleted queue to the subject's exchange
// and feeds deliveries to the handler. Handler errors are logged and the
// consumer keeps going.
func (q *RabbitMQQueue) Subscribe(subject string, handler func(data []byte) error) error {
	channel, err := q.ensureExchange(subject)
	if err != nil {
		return err
	}

	queue, err := channel.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		return fmt.Errorf("declaring queue for %s: %w", subject, err)
	}
	if err := channel.QueueBind(queue.Name, "", subject, false, nil); err != nil {
		return fmt.Errorf("binding queue to %s: %w", subject, err)
	}
	deliveries, err := channel.Consume(queue.Name, "", true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consuming from %s: %w", subject, err)
	}

	go func() {
		for delivery := range deliveries {
			if err := handler(delivery.Body); err != nil {
				q.log.Error("Subscriber handler failed",
					zap.String("subject", subject),
					zap.Error(err))
			}
		}
	}()

	q.log.Info("Subscribed to RabbitMQ exchange", zap.String("subject", subject))
	return nil
}

func (q *RabbitMQQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.channel != nil {
		q.channel.Close()
		q.channel = nil
	}
	if q.conn != nil {
		err := q.conn.Close()
		q.conn = nil
		return err
	}
	return nil
}

// reconnectLoop redials with a capped backoff whenever the broker closes the
// connection. Subscriptions do not survive a redial; the serving process only
// subscribes at startup, so a broker restart there warrants a process restart
// too.
func (q *RabbitMQQueue) reconnectLoop() {
	for {
		q.mu.RLock()
		conn := q.conn
		q.mu.RUnlock()
		if conn == nil {
			return
		}

		reason, ok := <-conn.NotifyClose(make(chan *amqp.Error))
		if !ok {
			return
		}
		q.log.Warn("RabbitMQ connection lost", zap.String("reason", reason.Reason))

		backoff := time.Second
		for {
			time.Sleep(backoff)
			if backoff < 30*time.Second {
				backoff *= 2
			}
			if err := q.dial(); err != nil {
				q.log.Error("RabbitMQ reconnect failed", zap.Error(err))
				continue
			}
			q.log.Info("Reconnected to RabbitMQ")
			break
		}
	}
}
