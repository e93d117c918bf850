package mq

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// testConnection подключается к брокеру из COLDCLUSTER_TEST_AMQP_URL.
func testConnection(t *testing.T) *Connection {
	t.Helper()

	url := os.Getenv("COLDCLUSTER_TEST_AMQP_URL")
	if url == "" {
		t.Skip("COLDCLUSTER_TEST_AMQP_URL not set, no broker to test against")
	}

	conn, err := NewConnection(url, nil)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestConnection_ReopensChannelClosedByBroker(t *testing.T) {
	conn := testConnection(t)
	ctx := context.Background()

	// Publish в несуществующий exchange: брокер закрывает канал (404), соединение живо
	err := conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		return ch.PublishWithContext(ctx, "coldcluster.missing", "x", false, false, amqp.Publishing{Body: []byte("{}")})
	})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}

	select {
	case <-conn.ReconnectNotify():
	case <-time.After(10 * time.Second):
		t.Fatal("channel was not reopened")
	}

	if !conn.IsConnected() {
		t.Error("connection should survive a channel-level error")
	}
	if err := SetupTopology(ctx, conn); err != nil {
		t.Errorf("channel unusable after reopen: %v", err)
	}
}

func TestConnection_CloseIsIdempotent(t *testing.T) {
	conn := testConnection(t)

	if err := conn.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := conn.Close(); err != nil {
		t.Errorf("second close: %v", err)
	}
	if err := conn.WithChannel(context.Background(), func(*amqp.Channel) error { return nil }); !errors.Is(err, ErrNoChannel) {
		t.Errorf("expected ErrNoChannel after close, got %v", err)
	}
}
