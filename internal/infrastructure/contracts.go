package infrastructure

import (
	"context"
	"time"

	"github.com/andreyxaxa/auction-sync/internal/contracts"
	"github.com/andreyxaxa/auction-sync/internal/entity"
	"github.com/segmentio/kafka-go"
)

type (
	EventsSender interface {
		SendEvents(ctx context.Context, entries []*entity.OutboxEntry) error
	}

	EventsReader interface {
		ReadEvent(ctx context.Context) (kafka.Message, error)
		CommitEvent(ctx context.Context, msg kafka.Message) error
		Close() error
	}

	// DeadLetterSink takes messages a consumer gave up on.
	DeadLetterSink interface {
		Send(ctx context.Context, fault contracts.AuctionCreatedFault) error
	}

	// AuctionSource is the authoritative store the search projection reconciles against.
	AuctionSource interface {
		ListUpdatedSince(ctx context.Context, since time.Time) ([]entity.Item, error)
	}
)
