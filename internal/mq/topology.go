package mq

import (
	"context"
	"fmt"
	"strings"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/shaiso/Coldcluster/internal/domain"
)

// Exchange — тип для имени обменника.
type Exchange string

// Queue — тип для имени очереди.
type Queue string

// RoutingKey — тип для ключа маршрутизации.
type RoutingKey string

// Exchanges — имена обменников.
const (
	ExchangeEvents Exchange = "coldcluster.events"
	ExchangeDLQ    Exchange = "coldcluster.dlq"
)

// Queues — имена очередей.
const (
	QueueArchiveEvents Queue = "archive.events"
	QueueDLQArchive    Queue = "dlq.archive"
)

// Routing keys.
const (
	// RoutingKeySearchAll — все события поиска (search.started, search.status_changed, search.snapshot).
	RoutingKeySearchAll RoutingKey = "search.#"

	// RoutingKeyAssemblyAll — все события по assemblies.
	RoutingKeyAssemblyAll RoutingKey = "assembly.#"

	RoutingKeyDLQArchive RoutingKey = "archive"
)

// RoutingKeyFor возвращает routing key события: совпадает с его типом.
func RoutingKeyFor(t domain.EventType) RoutingKey {
	return RoutingKey(t)
}

type exchangeDecl struct {
	name Exchange
	kind string
}

type queueDecl struct {
	name Queue
	args amqp.Table
}

type bindingDecl struct {
	queue    Queue
	key      RoutingKey
	exchange Exchange
}

// topology — всё, что объявляет SetupTopology.
var topology = struct {
	exchanges []exchangeDecl
	queues    []queueDecl
	bindings  []bindingDecl
}{
	exchanges: []exchangeDecl{
		{ExchangeEvents, amqp.ExchangeTopic},
		{ExchangeDLQ, amqp.ExchangeDirect},
	},
	queues: []queueDecl{
		// Отклонённые архиватором события уходят в dlq.archive
		{QueueArchiveEvents, amqp.Table{
			"x-dead-letter-exchange":    string(ExchangeDLQ),
			"x-dead-letter-routing-key": string(RoutingKeyDLQArchive),
		}},
		{QueueDLQArchive, nil},
	},
	bindings: []bindingDecl{
		{QueueArchiveEvents, RoutingKeySearchAll, ExchangeEvents},
		{QueueArchiveEvents, RoutingKeyAssemblyAll, ExchangeEvents},
		{QueueDLQArchive, RoutingKeyDLQArchive, ExchangeDLQ},
	},
}

// SetupTopology объявляет exchanges, queues и bindings. Операции идемпотентны.
func SetupTopology(ctx context.Context, conn *Connection) error {
	return conn.WithChannel(ctx, declareTopology)
}

func declareTopology(ch *amqp.Channel) error {
	for _, ex := range topology.exchanges {
		// durable, не auto-delete, не internal
		if err := ch.ExchangeDeclare(string(ex.name), ex.kind, true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare exchange %s: %w", ex.name, err)
		}
	}

	for _, q := range topology.queues {
		// durable, не auto-delete, не exclusive
		if _, err := ch.QueueDeclare(string(q.name), true, false, false, false, q.args); err != nil {
			return fmt.Errorf("declare queue %s: %w", q.name, err)
		}
	}

	for _, b := range topology.bindings {
		if err := ch.QueueBind(string(b.queue), string(b.key), string(b.exchange), false, nil); err != nil {
			return fmt.Errorf("bind queue %s to %s (%s): %w", b.queue, b.exchange, b.key, err)
		}
	}

	return nil
}

// TopologyInfo описывает топологию для логов: exchange → очередь [ключи].
func TopologyInfo() string {
	var sb strings.Builder
	for _, ex := range topology.exchanges {
		fmt.Fprintf(&sb, "%s (%s)\n", ex.name, ex.kind)
		for _, q := range topology.queues {
			var keys []string
			for _, b := range topology.bindings {
				if b.exchange == ex.name && b.queue == q.name {
					keys = append(keys, string(b.key))
				}
			}
			if len(keys) > 0 {
				fmt.Fprintf(&sb, "  -> %s [%s]\n", q.name, strings.Join(keys, ", "))
			}
		}
	}
	return sb.String()
}
