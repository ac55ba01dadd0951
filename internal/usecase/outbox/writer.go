package outbox

import (
	"context"
	"fmt"
	"time"

	"github.com/andreyxaxa/auction-sync/internal/contracts"
	"github.com/andreyxaxa/auction-sync/internal/entity"
	"github.com/andreyxaxa/auction-sync/internal/repo"
	"github.com/google/uuid"
)

// Writer commits a change together with the outbox entry describing it.
// Either both are durable or neither is; nothing is retried here.
type Writer struct {
	transactor repo.Transactor
	outboxRepo repo.OutboxRepo

	now func() time.Time
}

func NewWriter(transactor repo.Transactor, outboxRepo repo.OutboxRepo) *Writer {
	return &Writer{
		transactor: transactor,
		outboxRepo: outboxRepo,
		now:        time.Now,
	}
}

// Commit runs change inside a transaction and stages the event it returns.
// A nil event commits the change alone.
func (w *Writer) Commit(ctx context.Context, change func(ctx context.Context) (contracts.Event, error)) error {
	err := w.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		event, err := change(ctx)
		if err != nil {
			return err
		}

		if event == nil {
			return nil
		}

		entry, err := w.newEntry(event)
		if err != nil {
			return fmt.Errorf("Writer - Commit - w.newEntry: %w", err)
		}

		if err := w.outboxRepo.Create(ctx, entry); err != nil {
			return fmt.Errorf("Writer - Commit - w.outboxRepo.Create: %w", err)
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("Writer - Commit - w.transactor.WithinTransaction: %w", err)
	}

	return nil
}

func (w *Writer) newEntry(event contracts.Event) (*entity.OutboxEntry, error) {
	aggregateID, err := uuid.Parse(event.Key())
	if err != nil {
		return nil, fmt.Errorf("uuid.Parse %q: %w", event.Key(), err)
	}

	now := w.now().UTC()

	env, err := contracts.Wrap(event, now)
	if err != nil {
		return nil, err
	}

	payload, err := env.Marshal()
	if err != nil {
		return nil, err
	}

	// The envelope id doubles as the entry id so a republished entry keeps its identity.
	return &entity.OutboxEntry{
		ID:          env.ID,
		AggregateID: aggregateID,
		EventType:   string(env.Kind),
		Payload:     payload,
		CreatedAt:   now,
	}, nil
}
