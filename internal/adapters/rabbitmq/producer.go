package rabbitmq

import (
	"context"
	"fmt"
	"sync"

	"moderation-console/internal/core/port"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Channel - часть *amqp.Channel, которой пользуется Publisher.
type Channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	IsClosed() bool
	Close() error
}

// ChannelOpener открывает новый канал, например ConnectionManager.Channel.
type ChannelOpener func() (Channel, error)

// PublisherConfig конфигурация для производителя
type PublisherConfig struct {
	ExchangeName string // пустая строка - default exchange
	ExchangeType string // direct, fanout, topic, headers
	Durable      bool
	// DeclareExchange - объявлять ли обменник при открытии канала
	DeclareExchange bool
}

// Publisher публикует сообщения в один обменник.
// Закрытый брокером канал переоткрывается при следующей публикации.
type Publisher struct {
	config  PublisherConfig
	open    ChannelOpener
	logger  port.LoggerPort
	mu      sync.Mutex
	channel Channel
}

func NewPublisher(cfg PublisherConfig, open ChannelOpener, logger port.LoggerPort) (*Publisher, error) {
	if open == nil {
		return nil, fmt.Errorf("producer: channel opener cannot be nil")
	}
	if cfg.DeclareExchange && (cfg.ExchangeName == "" || cfg.ExchangeType == "") {
		return nil, fmt.Errorf("producer: exchange name and type are required to declare an exchange")
	}

	p := &Publisher{
		config: cfg,
		open:   open,
		logger: logger.WithFields(port.Fields{"component": "RabbitMQPublisher", "exchange": cfg.ExchangeName}),
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, err := p.channelLocked(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Publisher) channelLocked() (Channel, error) {
	if p.channel != nil && !p.channel.IsClosed() {
		return p.channel, nil
	}

	ch, err := p.open()
	if err != nil {
		return nil, fmt.Errorf("producer: failed to open channel: %w", err)
	}
	if p.config.DeclareExchange {
		p.logger.Debug("Declaring exchange", port.Fields{"type": p.config.ExchangeType})
		err = ch.ExchangeDeclare(
			p.config.ExchangeName,
			p.config.ExchangeType,
			p.config.Durable,
			false, // auto-delete
			false, // internal
			false, // no-wait
			nil,
		)
		if err != nil {
			_ = ch.Close()
			return nil, fmt.Errorf("producer: failed to declare exchange '%s': %w", p.config.ExchangeName, err)
		}
	}
	p.channel = ch
	return ch, nil
}

// Publish публикует сообщение
func (p *Publisher) Publish(ctx context.Context, routingKey string, msg amqp.Publishing) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	ch, err := p.channelLocked()
	if err != nil {
		return err
	}
	err = ch.PublishWithContext(ctx, p.config.ExchangeName, routingKey, false, false, msg)
	if err != nil {
		return fmt.Errorf("producer: failed to publish message: %w", err)
	}
	return nil
}

// Close закрывает канал производителя
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.channel == nil {
		return nil
	}
	err := p.channel.Close()
	p.channel = nil
	if err != nil {
		p.logger.Error("Error closing channel", err, nil)
		return err
	}
	p.logger.Info("Producer closed.", nil)
	return nil
}
