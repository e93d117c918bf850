package mq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/shaiso/Coldcluster/internal/domain"
)

func TestConsumer_ProcessOutcome(t *testing.T) {
	body, err := json.Marshal(NewEventMessage(domain.Event{
		Type:     domain.EventSnapshot,
		SearchID: uuid.New(),
		Payload:  domain.SnapshotPayload{Unsolved: 1},
	}))
	if err != nil {
		t.Fatal(err)
	}

	transient := errors.New("connection reset")

	tests := []struct {
		name        string
		body        []byte
		redelivered bool
		handlerErr  error
		want        string
	}{
		{"ok", body, false, nil, outcomeAck},
		{"transient error requeued", body, false, transient, outcomeRequeue},
		{"transient error after redelivery", body, true, transient, outcomeDLQ},
		{"permanent error", body, false, fmt.Errorf("%w: bad payload", ErrPermanent), outcomeDLQ},
		{"undecodable body", []byte("{"), false, nil, outcomeDLQ},
		{"message without type", []byte(`{"id":"x"}`), false, nil, outcomeDLQ},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got *Delivery
			c := NewConsumer(nil, nil, ConsumerConfig{
				Queue: "test",
				Handler: func(_ context.Context, d *Delivery) error {
					got = d
					return tt.handlerErr
				},
			})

			outcome := c.process(context.Background(), amqp.Delivery{Body: tt.body, Redelivered: tt.redelivered})
			if outcome != tt.want {
				t.Errorf("expected %s, got %s", tt.want, outcome)
			}
			if got != nil && got.Redelivered != tt.redelivered {
				t.Error("redelivered flag not passed to handler")
			}
		})
	}
}
