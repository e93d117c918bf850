package mq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Handler обрабатывает одно событие из очереди.
// Ошибка возвращает сообщение в очередь один раз; ошибка, обёрнутая в
// ErrPermanent, сразу отправляет его в DLQ.
type Handler func(ctx context.Context, d *Delivery) error

// ErrPermanent помечает ошибку, повтор которой не поможет (например, неизвестный тип события).
var ErrPermanent = errors.New("permanent failure")

// Delivery — разобранное сообщение и сведения о доставке.
type Delivery struct {
	Message Message

	// Redelivered — сообщение уже возвращалось в очередь.
	Redelivered bool
}

// Исход обработки сообщения.
const (
	outcomeAck     = "ack"
	outcomeRequeue = "requeue"
	outcomeDLQ     = "dlq"
)

// Consumer потребляет события из очереди RabbitMQ и переживает переподключения.
type Consumer struct {
	conn     *Connection
	logger   *slog.Logger
	queue    string
	tag      string
	handler  Handler
	prefetch int

	cancelFunc context.CancelFunc
}

// ConsumerConfig — конфигурация consumer.
type ConsumerConfig struct {
	// Queue — имя очереди.
	Queue string

	// Tag — consumer tag (пусто — генерирует сервер).
	Tag string

	// Handler — обработчик сообщений.
	Handler Handler

	// Prefetch — число сообщений без ack (default: 1).
	Prefetch int
}

// NewConsumer создаёт новый Consumer.
func NewConsumer(conn *Connection, logger *slog.Logger, cfg ConsumerConfig) *Consumer {
	prefetch := cfg.Prefetch
	if prefetch <= 0 {
		prefetch = 1
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Consumer{
		conn:     conn,
		logger:   logger.With("queue", cfg.Queue),
		queue:    cfg.Queue,
		tag:      cfg.Tag,
		handler:  cfg.Handler,
		prefetch: prefetch,
	}
}

// Start блокируется, пока ctx не отменён или не вызван Stop.
func (c *Consumer) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	c.cancelFunc = cancel

	for {
		deliveries, err := c.subscribe()
		if err != nil {
			c.logger.Error("failed to subscribe", "error", err)
		} else {
			c.logger.Info("consumer subscribed")
			err = c.drain(ctx, deliveries)
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Warn("subscription lost, waiting for reconnect", "error", err)
		}

		// Новый канал появится только после переподключения Connection
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.conn.ReconnectNotify():
		}
	}
}

// Stop останавливает consumer.
func (c *Consumer) Stop() {
	if c.cancelFunc != nil {
		c.cancelFunc()
	}
}

// subscribe настраивает prefetch и открывает поток доставок.
func (c *Consumer) subscribe() (<-chan amqp.Delivery, error) {
	ch := c.conn.Channel()
	if ch == nil {
		return nil, ErrNoChannel
	}

	if err := ch.Qos(c.prefetch, 0, false); err != nil {
		return nil, fmt.Errorf("set qos: %w", err)
	}

	// auto-ack выключен: подтверждение только после записи в архив
	deliveries, err := ch.Consume(c.queue, c.tag, false, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("consume: %w", err)
	}
	return deliveries, nil
}

// drain обрабатывает доставки, пока канал открыт.
func (c *Consumer) drain(ctx context.Context, deliveries <-chan amqp.Delivery) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case raw, ok := <-deliveries:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			c.settle(raw, c.process(ctx, raw))
		}
	}
}

// process разбирает и обрабатывает одно сообщение, возвращая исход.
//
// Неразборчивое сообщение уходит в DLQ. Ошибка обработчика возвращает
// сообщение в очередь один раз; повторная неудача или ErrPermanent — в DLQ.
func (c *Consumer) process(ctx context.Context, raw amqp.Delivery) string {
	msg, err := DecodeMessage(raw.Body)
	if err != nil {
		c.logger.Error("undecodable message", "error", err, "body", string(raw.Body))
		return outcomeDLQ
	}

	logger := c.logger.With("message_id", msg.ID, "type", msg.Type, "search_id", msg.SearchID)
	logger.Debug("received message", "redelivered", raw.Redelivered)

	err = c.handler(ctx, &Delivery{Message: *msg, Redelivered: raw.Redelivered})
	switch {
	case err == nil:
		return outcomeAck
	case errors.Is(err, ErrPermanent) || raw.Redelivered:
		logger.Error("message dead-lettered", "error", err)
		return outcomeDLQ
	default:
		logger.Warn("handler failed, requeueing", "error", err)
		return outcomeRequeue
	}
}

// settle подтверждает или отклоняет доставку.
func (c *Consumer) settle(raw amqp.Delivery, outcome string) {
	var err error
	switch outcome {
	case outcomeAck:
		err = raw.Ack(false)
	case outcomeRequeue:
		err = raw.Nack(false, true)
	default:
		err = raw.Nack(false, false)
	}
	if err != nil {
		c.logger.Warn("failed to settle delivery", "outcome", outcome, "error", err)
	}
}

// DecodeMessage разбирает тело AMQP сообщения. Payload остаётся json.RawMessage.
func DecodeMessage(body []byte) (*Message, error) {
	var wire struct {
		Message
		Payload json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, fmt.Errorf("unmarshal message: %w", err)
	}
	if wire.Type == "" {
		return nil, fmt.Errorf("message without type")
	}

	msg := wire.Message
	msg.Payload = wire.Payload
	return &msg, nil
}

// ParsePayload парсит payload сообщения в указанный тип.
func ParsePayload[T any](msg *Message) (T, error) {
	var result T

	var payloadBytes []byte
	switch p := msg.Payload.(type) {
	case json.RawMessage:
		payloadBytes = p
	case []byte:
		payloadBytes = p
	default:
		b, err := json.Marshal(p)
		if err != nil {
			return result, fmt.Errorf("marshal payload: %w", err)
		}
		payloadBytes = b
	}

	if err := json.Unmarshal(payloadBytes, &result); err != nil {
		return result, fmt.Errorf("unmarshal payload: %w", err)
	}

	return result, nil
}
