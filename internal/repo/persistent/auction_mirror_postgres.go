package persistent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/andreyxaxa/auction-sync/internal/entity"
	"github.com/andreyxaxa/auction-sync/pkg/postgres"
	"github.com/andreyxaxa/auction-sync/pkg/types/errs"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const (
	// Table
	mirrorTable = "auction_mirror"
)

var mirrorColumns = []string{
	idColumn,
	sellerColumn,
	reservePriceColumn,
	auctionEndColumn,
	statusColumn,
	updatedAtColumn,
}

type AuctionMirrorRepo struct {
	*postgres.Postgres
}

func NewAuctionMirrorRepo(pg *postgres.Postgres) *AuctionMirrorRepo {
	return &AuctionMirrorRepo{pg}
}

// Insert reports false when the auction was already mirrored.
func (r *AuctionMirrorRepo) Insert(ctx context.Context, m *entity.AuctionMirror) (bool, error) {
	sql, args, err := r.Builder.
		Insert(mirrorTable).
		Columns(mirrorColumns...).
		Values(
			m.ID,
			m.Seller,
			m.ReservePrice,
			m.AuctionEnd,
			m.Status,
			m.UpdatedAt,
		).
		Suffix("ON CONFLICT (" + idColumn + ") DO NOTHING").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("AuctionMirrorRepo - Insert - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	tag, err := executor.Exec(ctx, sql, args...)
	if err != nil {
		return false, fmt.Errorf("AuctionMirrorRepo - Insert - executor.Exec: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

func (r *AuctionMirrorRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.AuctionMirror, error) {
	return r.get(ctx, id, "")
}

func (r *AuctionMirrorRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*entity.AuctionMirror, error) {
	return r.get(ctx, id, "FOR UPDATE")
}

func (r *AuctionMirrorRepo) get(ctx context.Context, id uuid.UUID, suffix string) (*entity.AuctionMirror, error) {
	q := r.Builder.
		Select(mirrorColumns...).
		From(mirrorTable).
		Where(squirrel.Eq{idColumn: id})
	if suffix != "" {
		q = q.Suffix(suffix)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("AuctionMirrorRepo - get - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	var m entity.AuctionMirror
	err = executor.QueryRow(ctx, sql, args...).Scan(
		&m.ID,
		&m.Seller,
		&m.ReservePrice,
		&m.AuctionEnd,
		&m.Status,
		&m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("AuctionMirrorRepo - get: %w", errs.ErrRecordNotFound)
		}
		return nil, fmt.Errorf("AuctionMirrorRepo - get - executor.QueryRow: %w", err)
	}

	return &m, nil
}

func (r *AuctionMirrorRepo) FinishIfDue(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	sql, args, err := r.Builder.
		Update(mirrorTable).
		Set(statusColumn, entity.AuctionFinished).
		Set(updatedAtColumn, now).
		Where(squirrel.And{
			squirrel.Eq{idColumn: id},
			squirrel.Eq{statusColumn: entity.AuctionLive},
			squirrel.LtOrEq{auctionEndColumn: now},
		}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("AuctionMirrorRepo - FinishIfDue - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	tag, err := executor.Exec(ctx, sql, args...)
	if err != nil {
		return false, fmt.Errorf("AuctionMirrorRepo - FinishIfDue - executor.Exec: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

func (r *AuctionMirrorRepo) ListDue(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error) {
	sql, args, err := r.Builder.
		Select(idColumn).
		From(mirrorTable).
		Where(squirrel.And{
			squirrel.Eq{statusColumn: entity.AuctionLive},
			squirrel.LtOrEq{auctionEndColumn: now},
		}).
		OrderBy(auctionEndColumn + " ASC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("AuctionMirrorRepo - ListDue - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	rows, err := executor.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("AuctionMirrorRepo - ListDue - executor.Query: %w", err)
	}
	defer rows.Close()

	IDs := make([]uuid.UUID, 0, limit)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("AuctionMirrorRepo - ListDue - rows.Scan: %w", err)
		}
		IDs = append(IDs, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("AuctionMirrorRepo - ListDue - rows.Err: %w", err)
	}

	return IDs, nil
}

func (r *AuctionMirrorRepo) MarkDeleted(ctx context.Context, id uuid.UUID, seller string, deletedAt time.Time) error {
	sql, args, err := r.Builder.
		Insert(mirrorTable).
		Columns(mirrorColumns...).
		Values(
			id,
			seller,
			0,
			deletedAt,
			entity.AuctionDeleted,
			deletedAt,
		).
		Suffix("ON CONFLICT (" + idColumn + ") DO UPDATE SET " +
			statusColumn + " = EXCLUDED." + statusColumn + ", " +
			updatedAtColumn + " = GREATEST(" + mirrorTable + "." + updatedAtColumn + ", EXCLUDED." + updatedAtColumn + ")").
		ToSql()
	if err != nil {
		return fmt.Errorf("AuctionMirrorRepo - MarkDeleted - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	_, err = executor.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("AuctionMirrorRepo - MarkDeleted - executor.Exec: %w", err)
	}

	return nil
}
