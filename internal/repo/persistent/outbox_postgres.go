package persistent

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/andreyxaxa/auction-sync/internal/entity"
	"github.com/andreyxaxa/auction-sync/pkg/postgres"
	"github.com/google/uuid"
)

const (
	// Tables
	AuctionsOutboxTable = "auctions_outbox"
	BidsOutboxTable     = "bids_outbox"

	// Columns
	outboxIDColumn          = "id"
	outboxAggregateIDColumn = "aggregate_id"
	outboxEventTypeColumn   = "event_type"
	outboxPayloadColumn     = "payload"
	outboxCreatedAtColumn   = "created_at"
	outboxSentAtColumn      = "sent_at"
	outboxClaimedByColumn   = "claimed_by"
	outboxClaimedAtColumn   = "claimed_at"
	outboxAttemptsColumn    = "attempts"
)

var outboxColumns = []string{
	outboxIDColumn,
	outboxAggregateIDColumn,
	outboxEventTypeColumn,
	outboxPayloadColumn,
	outboxCreatedAtColumn,
	outboxSentAtColumn,
	outboxClaimedByColumn,
	outboxClaimedAtColumn,
	outboxAttemptsColumn,
}

// OutboxRepo works on one outbox table; each service owns its own.
type OutboxRepo struct {
	*postgres.Postgres
	table string
}

func NewOutboxRepo(pg *postgres.Postgres, table string) *OutboxRepo {
	return &OutboxRepo{pg, table}
}

func (r *OutboxRepo) Create(ctx context.Context, e *entity.OutboxEntry) error {
	sql, args, err := r.Builder.
		Insert(r.table).
		Columns(
			outboxIDColumn,
			outboxAggregateIDColumn,
			outboxEventTypeColumn,
			outboxPayloadColumn,
			outboxCreatedAtColumn,
			outboxAttemptsColumn,
		).
		Values(
			e.ID,
			e.AggregateID,
			e.EventType,
			e.Payload,
			e.CreatedAt,
			e.Attempts,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("OutboxRepo - Create - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	_, err = executor.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("OutboxRepo - Create - executor.Exec: %w", err)
	}

	return nil
}

func (r *OutboxRepo) ClaimPending(ctx context.Context, owner string, limit int, claimTTL time.Duration) ([]*entity.OutboxEntry, error) {
	now := time.Now().UTC()

	// Built with '?' placeholders so the outer builder renumbers them.
	sub, subArgs, err := squirrel.
		Select(outboxIDColumn).
		From(r.table).
		Where(squirrel.And{
			squirrel.Eq{outboxSentAtColumn: nil},
			squirrel.Or{
				squirrel.Eq{outboxClaimedAtColumn: nil},
				squirrel.Lt{outboxClaimedAtColumn: now.Add(-claimTTL)},
			},
		}).
		OrderBy(outboxCreatedAtColumn + " ASC").
		Limit(uint64(limit)).
		Suffix("FOR UPDATE SKIP LOCKED").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("OutboxRepo - ClaimPending - squirrel.Select.ToSql: %w", err)
	}

	sql, args, err := r.Builder.
		Update(r.table).
		Set(outboxClaimedByColumn, owner).
		Set(outboxClaimedAtColumn, now).
		Where(squirrel.Expr(outboxIDColumn+" IN ("+sub+")", subArgs...)).
		Suffix("RETURNING " + strings.Join(outboxColumns, ", ")).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("OutboxRepo - ClaimPending - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	rows, err := executor.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("OutboxRepo - ClaimPending - executor.Query: %w", err)
	}
	defer rows.Close()

	entries := make([]*entity.OutboxEntry, 0, limit)
	for rows.Next() {
		var e entity.OutboxEntry
		err = rows.Scan(
			&e.ID,
			&e.AggregateID,
			&e.EventType,
			&e.Payload,
			&e.CreatedAt,
			&e.SentAt,
			&e.ClaimedBy,
			&e.ClaimedAt,
			&e.Attempts,
		)
		if err != nil {
			return nil, fmt.Errorf("OutboxRepo - ClaimPending - rows.Scan: %w", err)
		}
		entries = append(entries, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("OutboxRepo - ClaimPending - rows.Err: %w", err)
	}

	// RETURNING gives no order guarantee.
	sortByCreatedAt(entries)

	return entries, nil
}

// MarkSentBatch only touches rows still claimed by owner; a reaped claim stays pending.
func (r *OutboxRepo) MarkSentBatch(ctx context.Context, IDs uuid.UUIDs, owner string) (int64, error) {
	sql, args, err := r.Builder.
		Update(r.table).
		Set(outboxSentAtColumn, time.Now().UTC()).
		Set(outboxClaimedByColumn, nil).
		Set(outboxClaimedAtColumn, nil).
		Where(squirrel.And{
			squirrel.Eq{outboxIDColumn: IDs},
			squirrel.Eq{outboxClaimedByColumn: owner},
		}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("OutboxRepo - MarkSentBatch - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	tag, err := executor.Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("OutboxRepo - MarkSentBatch - executor.Exec: %w", err)
	}

	return tag.RowsAffected(), nil
}

func (r *OutboxRepo) ReleaseBatch(ctx context.Context, IDs uuid.UUIDs, owner string) error {
	sql, args, err := r.Builder.
		Update(r.table).
		Set(outboxAttemptsColumn, squirrel.Expr(outboxAttemptsColumn+" + 1")).
		Set(outboxClaimedByColumn, nil).
		Set(outboxClaimedAtColumn, nil).
		Where(squirrel.And{
			squirrel.Eq{outboxIDColumn: IDs},
			squirrel.Eq{outboxClaimedByColumn: owner},
		}).
		ToSql()
	if err != nil {
		return fmt.Errorf("OutboxRepo - ReleaseBatch - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	_, err = executor.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("OutboxRepo - ReleaseBatch - executor.Exec: %w", err)
	}

	return nil
}

func (r *OutboxRepo) ReleaseStaleClaims(ctx context.Context, claimTTL time.Duration) (int64, error) {
	sql, args, err := r.Builder.
		Update(r.table).
		Set(outboxClaimedByColumn, nil).
		Set(outboxClaimedAtColumn, nil).
		Where(squirrel.And{
			squirrel.Eq{outboxSentAtColumn: nil},
			squirrel.Lt{outboxClaimedAtColumn: time.Now().UTC().Add(-claimTTL)},
		}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("OutboxRepo - ReleaseStaleClaims - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	tag, err := executor.Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("OutboxRepo - ReleaseStaleClaims - executor.Exec: %w", err)
	}

	return tag.RowsAffected(), nil
}

func (r *OutboxRepo) DeleteSentBefore(ctx context.Context, before time.Time) (int64, error) {
	sql, args, err := r.Builder.
		Delete(r.table).
		Where(squirrel.And{
			squirrel.NotEq{outboxSentAtColumn: nil},
			squirrel.Lt{outboxSentAtColumn: before},
		}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("OutboxRepo - DeleteSentBefore - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	tag, err := executor.Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("OutboxRepo - DeleteSentBefore - executor.Exec: %w", err)
	}

	return tag.RowsAffected(), nil
}

func sortByCreatedAt(entries []*entity.OutboxEntry) {
	slices.SortStableFunc(entries, func(a, b *entity.OutboxEntry) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
}
