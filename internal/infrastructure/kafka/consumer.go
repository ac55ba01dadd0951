package kafka

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/andreyxaxa/auction-sync/pkg/kafka/consumer"
	"github.com/segmentio/kafka-go"
)

// ErrReaderClosed is returned by ReadEvent once the underlying reader has been closed.
var ErrReaderClosed = errors.New("event reader closed")

// EventConsumer reads from every subscribed topic of one consumer group.
// Offsets are committed explicitly, after the message has been handled.
type EventConsumer struct {
	*consumer.Consumer
}

func NewEventConsumer(consumer *consumer.Consumer) *EventConsumer {
	return &EventConsumer{consumer}
}

func (ec *EventConsumer) ReadEvent(ctx context.Context) (kafka.Message, error) {
	msg, err := ec.Reader.FetchMessage(ctx)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return kafka.Message{}, ErrReaderClosed
		}
		return kafka.Message{}, fmt.Errorf("EventConsumer - ReadEvent - ec.Reader.FetchMessage: %w", err)
	}

	return msg, nil
}

func (ec *EventConsumer) CommitEvent(ctx context.Context, msg kafka.Message) error {
	err := ec.Reader.CommitMessages(ctx, msg)
	if err != nil {
		return fmt.Errorf("EventConsumer - CommitEvent - ec.Reader.CommitMessages: %w", err)
	}

	return nil
}

func (ec *EventConsumer) Close() error {
	err := ec.Consumer.Close()
	if err != nil {
		return fmt.Errorf("EventConsumer - Close: %w", err)
	}

	return nil
}
