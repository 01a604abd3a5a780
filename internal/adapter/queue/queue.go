package queue

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/urjalabs/solatlas/internal/ports"
	"github.com/urjalabs/solatlas/pkg/config"
)

// New selects the queue backend from configuration. Returns (nil, nil) when
// the backend is "none", which callers treat as "skip publishing".
func New(cfg config.QueueConfig, log *zap.Logger) (ports.MessageQueue, error) {
	switch cfg.Backend {
	case "", "none":
		return nil, nil
	case "nats":
		return NewNATSQueue(cfg.URL, log)
	case "rabbitmq":
		return NewRabbitMQQueue(cfg.URL, log)
	default:
		return nil, fmt.Errorf("unknown queue backend %q", cfg.Backend)
	}
}
