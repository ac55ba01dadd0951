package kafka

import (
	"context"
	"fmt"
	"path"
	"time"

	"github.com/andreyxaxa/auction-sync/internal/contracts"
	"github.com/andreyxaxa/auction-sync/internal/repo"
	"github.com/andreyxaxa/auction-sync/pkg/kafka/producer"
	"github.com/andreyxaxa/auction-sync/pkg/logger"
	"github.com/segmentio/kafka-go"
)

// DeadLetterProducer publishes faults to the fault topic and, when an archive is
// configured, keeps a copy of each one there.
type DeadLetterProducer struct {
	*producer.Producer
	topic   string
	archive repo.DeadLetterArchive
	logger  logger.Interface
}

func NewDeadLetterProducer(
	producer *producer.Producer,
	topic string,
	archive repo.DeadLetterArchive,
	l logger.Interface,
) *DeadLetterProducer {
	return &DeadLetterProducer{
		Producer: producer,
		topic:    topic,
		archive:  archive,
		logger:   l,
	}
}

func (dp *DeadLetterProducer) Send(ctx context.Context, fault contracts.AuctionCreatedFault) error {
	env, err := contracts.Wrap(fault, time.Now())
	if err != nil {
		return fmt.Errorf("DeadLetterProducer - Send - contracts.Wrap: %w", err)
	}

	value, err := env.Marshal()
	if err != nil {
		return fmt.Errorf("DeadLetterProducer - Send - env.Marshal: %w", err)
	}

	// A fault that came from the fault topic itself is only archived, never fed back in.
	if fault.Topic == dp.topic {
		dp.logger.Warn("DeadLetterProducer - Send - poison message on %s not re-published: %s", dp.topic, fault.Reason)
		dp.archiveFault(ctx, fault, env.ID.String(), value)

		return nil
	}

	err = dp.Writer.WriteMessages(ctx, kafka.Message{
		Topic: dp.topic,
		Key:   []byte(fault.Key()),
		Value: value,
		Headers: []kafka.Header{
			{Key: HeaderEventID, Value: []byte(env.ID.String())},
			{Key: HeaderEventType, Value: []byte(env.Kind)},
		},
	})
	if err != nil {
		return fmt.Errorf("DeadLetterProducer - Send - dp.Writer.WriteMessages: %w", err)
	}

	// The bus copy is authoritative; the archive is best effort.
	dp.archiveFault(ctx, fault, env.ID.String(), value)

	return nil
}

func (dp *DeadLetterProducer) archiveFault(ctx context.Context, fault contracts.AuctionCreatedFault, id string, value []byte) {
	if dp.archive == nil {
		return
	}

	key := path.Join(fault.Topic, fault.FailedAt.UTC().Format("2006/01/02"), id+".json")
	if err := dp.archive.Archive(ctx, key, value); err != nil {
		dp.logger.Error(err, "DeadLetterProducer - archiveFault - dp.archive.Archive")
	}
}
