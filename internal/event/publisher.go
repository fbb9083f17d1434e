package event

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/Kyz7/fincore/internal/models"
	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const ExchangeName = "fincore.events"

type Publisher interface {
	Publish(ctx context.Context, t Type, data any) error
	Close() error
}

// AMQPPublisher publishes events to a RabbitMQ topic exchange, using the
// event type as routing key. Every event is also written to the events table
// when a database is attached.
type AMQPPublisher struct {
	mu      sync.Mutex
	conn    *amqp091.Connection
	channel *amqp091.Channel
	db      *gorm.DB
	enabled bool
}

func NewPublisher(rabbitURI string, db *gorm.DB) (*AMQPPublisher, error) {
	if rabbitURI == "" {
		zap.L().Warn("RabbitMQ URI is empty, event publishing is disabled")
		return &AMQPPublisher{db: db}, nil
	}

	conn, err := amqp091.Dial(rabbitURI)
	if err != nil {
		return nil, fmt.Errorf("connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		ExchangeName,
		"topic",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	return &AMQPPublisher{
		conn:    conn,
		channel: channel,
		db:      db,
		enabled: true,
	}, nil
}

func (p *AMQPPublisher) Publish(ctx context.Context, t Type, data any) error {
	env := NewEnvelope(t, data)
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	var row *models.Event
	if p.db != nil {
		row = &models.Event{Name: string(t), Payload: body}
		if err := p.db.WithContext(ctx).Create(row).Error; err != nil {
			zap.L().Error("failed to record event", zap.String("type", string(t)), zap.Error(err))
			row = nil
		}
	}

	if !p.enabled {
		zap.L().Debug("event publishing disabled, skipping", zap.String("type", string(t)))
		return nil
	}

	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	p.mu.Lock()
	err = p.channel.PublishWithContext(
		pubCtx,
		ExchangeName,
		string(t),
		false, // mandatory
		false, // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			MessageId:    env.ID,
			Timestamp:    env.OccurredAt,
			Body:         body,
		},
	)
	p.mu.Unlock()
	if err != nil {
		return fmt.Errorf("publish %s: %w", t, err)
	}

	if row != nil {
		p.db.Model(row).Update("published", true)
	}
	zap.L().Info("published event", zap.String("type", string(t)), zap.String("id", env.ID))
	return nil
}

func (p *AMQPPublisher) Close() error {
	if !p.enabled {
		return nil
	}
	if err := p.channel.Close(); err != nil {
		return err
	}
	return p.conn.Close()
}

// Nop discards events. Used when a component is built without a broker.
type Nop struct{}

func (Nop) Publish(context.Context, Type, any) error { return nil }
func (Nop) Close() error                             { return nil }
