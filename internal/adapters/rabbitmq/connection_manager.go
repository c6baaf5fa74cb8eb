package rabbitmq

import (
	"fmt"
	"sync"
	"time"

	"moderation-console/internal/core/port"

	amqp "github.com/rabbitmq/amqp091-go"
)

const reconnectInterval = 10 * time.Second

// ConnectionManager держит одно соединение с RabbitMQ и восстанавливает его в фоне.
type ConnectionManager struct {
	url        string
	connection *amqp.Connection
	mutex      sync.RWMutex
	logger     port.LoggerPort
	done       chan struct{}
	closeOnce  sync.Once
}

func NewConnectionManager(url string, logger port.LoggerPort) (*ConnectionManager, error) {
	m := &ConnectionManager{
		url:    url,
		logger: logger.WithFields(port.Fields{"component": "RabbitMQConnectionManager"}),
		done:   make(chan struct{}),
	}
	if _, err := m.getConnection(); err != nil {
		return nil, fmt.Errorf("initial connection failed: %w", err)
	}
	go m.handleReconnect()
	return m, nil
}

// getConnection возвращает существующее соединение или устанавливает новое
func (m *ConnectionManager) getConnection() (*amqp.Connection, error) {
	m.mutex.RLock()
	if m.connection != nil && !m.connection.IsClosed() {
		defer m.mutex.RUnlock()
		return m.connection, nil
	}
	m.mutex.RUnlock()

	m.mutex.Lock()
	defer m.mutex.Unlock()

	// другая горутина могла успеть переподключиться
	if m.connection != nil && !m.connection.IsClosed() {
		return m.connection, nil
	}

	m.logger.Debug("Connecting to RabbitMQ...", nil)
	conn, err := amqp.Dial(m.url)
	if err != nil {
		return nil, fmt.Errorf("failed to dial RabbitMQ: %w", err)
	}
	m.connection = conn
	m.logger.Debug("Connected to RabbitMQ", nil)
	return conn, nil
}

// Channel открывает новый канал на общем соединении.
// Сигнатура совпадает с ChannelOpener, чтобы Publisher мог переоткрывать канал.
func (m *ConnectionManager) Channel() (Channel, error) {
	conn, err := m.getConnection()
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}
	return ch, nil
}

func (m *ConnectionManager) handleReconnect() {
	ticker := time.NewTicker(reconnectInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
		}

		m.mutex.RLock()
		healthy := m.connection != nil && !m.connection.IsClosed()
		m.mutex.RUnlock()
		if healthy {
			continue
		}

		m.logger.Warn("Detected closed RabbitMQ connection, reconnecting", nil)
		if _, err := m.getConnection(); err != nil {
			m.logger.Error("RabbitMQ reconnect failed", err, nil)
		}
	}
}

// Close останавливает переподключение и закрывает соединение
func (m *ConnectionManager) Close() error {
	m.closeOnce.Do(func() { close(m.done) })

	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.connection == nil || m.connection.IsClosed() {
		return nil
	}
	if err := m.connection.Close(); err != nil {
		m.logger.Error("Failed to close RabbitMQ connection", err, nil)
		return err
	}
	m.logger.Debug("RabbitMQ connection closed", nil)
	return nil
}
