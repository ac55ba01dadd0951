package kafka

import (
	"context"
	"fmt"

	"github.com/andreyxaxa/auction-sync/internal/contracts"
	"github.com/andreyxaxa/auction-sync/internal/entity"
	"github.com/andreyxaxa/auction-sync/pkg/kafka/producer"
	"github.com/segmentio/kafka-go"
)

const (
	HeaderEventID   = "event_id"
	HeaderEventType = "event_type"
)

// Topics routes every event kind to its topic.
type Topics map[contracts.Kind]string

type EventProducer struct {
	*producer.Producer
	topics Topics
}

func NewEventProducer(producer *producer.Producer, topics Topics) *EventProducer {
	return &EventProducer{
		producer,
		topics,
	}
}

// SendEvents publishes entries in the given order, keyed by aggregate id so that all events
// of one auction land on the same partition.
func (ep *EventProducer) SendEvents(ctx context.Context, entries []*entity.OutboxEntry) error {
	msgsToSend := make([]kafka.Message, 0, len(entries))

	for _, entry := range entries {
		topic, ok := ep.topics[contracts.Kind(entry.EventType)]
		if !ok {
			return fmt.Errorf("EventProducer - SendEvents - no topic for %q", entry.EventType)
		}

		msgsToSend = append(msgsToSend, kafka.Message{
			Topic: topic,
			Key:   []byte(entry.AggregateID.String()),
			Value: entry.Payload,
			Headers: []kafka.Header{
				{Key: HeaderEventID, Value: []byte(entry.ID.String())},
				{Key: HeaderEventType, Value: []byte(entry.EventType)},
			},
		})
	}

	if len(msgsToSend) == 0 {
		return nil
	}

	err := ep.Writer.WriteMessages(ctx, msgsToSend...)
	if err != nil {
		return fmt.Errorf("EventProducer - SendEvents - ep.Writer.WriteMessages: %w", err)
	}

	return nil
}

func (ep *EventProducer) Close() error {
	err := ep.Producer.Close()
	if err != nil {
		return fmt.Errorf("EventProducer - Close: %w", err)
	}

	return nil
}
