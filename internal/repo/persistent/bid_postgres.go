package persistent

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/andreyxaxa/auction-sync/internal/entity"
	"github.com/andreyxaxa/auction-sync/pkg/postgres"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const (
	// Table
	bidsTable = "bids"

	// Columns
	bidAuctionIDColumn = "auction_id"
	bidBidderColumn    = "bidder"
	bidAmountColumn    = "amount"
	bidTimeColumn      = "bid_time"
	bidStatusColumn    = "status"
)

var bidColumns = []string{
	idColumn,
	bidAuctionIDColumn,
	bidBidderColumn,
	bidAmountColumn,
	bidTimeColumn,
	bidStatusColumn,
}

type BidRepo struct {
	*postgres.Postgres
}

func NewBidRepo(pg *postgres.Postgres) *BidRepo {
	return &BidRepo{pg}
}

func (r *BidRepo) Create(ctx context.Context, bid *entity.Bid) error {
	sql, args, err := r.Builder.
		Insert(bidsTable).
		Columns(bidColumns...).
		Values(
			bid.ID,
			bid.AuctionID,
			bid.Bidder,
			bid.Amount,
			bid.BidTime,
			bid.Status,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("BidRepo - Create - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	_, err = executor.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("BidRepo - Create - executor.Exec: %w", err)
	}

	return nil
}

// HighestCompetitive returns nil, nil when the auction has no competitive bid.
func (r *BidRepo) HighestCompetitive(ctx context.Context, auctionID uuid.UUID) (*entity.Bid, error) {
	sql, args, err := r.Builder.
		Select(bidColumns...).
		From(bidsTable).
		Where(squirrel.And{
			squirrel.Eq{bidAuctionIDColumn: auctionID},
			squirrel.Eq{bidStatusColumn: []string{
				string(entity.BidAccepted),
				string(entity.BidAcceptedBelowReserve),
			}},
		}).
		OrderBy(bidAmountColumn+" DESC", bidTimeColumn+" ASC").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("BidRepo - HighestCompetitive - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	bid, err := scanBid(executor.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("BidRepo - HighestCompetitive - executor.QueryRow: %w", err)
	}

	return bid, nil
}

func (r *BidRepo) ListByAuction(ctx context.Context, auctionID uuid.UUID) ([]*entity.Bid, error) {
	sql, args, err := r.Builder.
		Select(bidColumns...).
		From(bidsTable).
		Where(squirrel.Eq{bidAuctionIDColumn: auctionID}).
		OrderBy(bidTimeColumn + " DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("BidRepo - ListByAuction - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	rows, err := executor.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("BidRepo - ListByAuction - executor.Query: %w", err)
	}
	defer rows.Close()

	bids := make([]*entity.Bid, 0)
	for rows.Next() {
		bid, err := scanBid(rows)
		if err != nil {
			return nil, fmt.Errorf("BidRepo - ListByAuction - rows.Scan: %w", err)
		}
		bids = append(bids, bid)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("BidRepo - ListByAuction - rows.Err: %w", err)
	}

	return bids, nil
}

func scanBid(row pgx.Row) (*entity.Bid, error) {
	var bid entity.Bid

	err := row.Scan(
		&bid.ID,
		&bid.AuctionID,
		&bid.Bidder,
		&bid.Amount,
		&bid.BidTime,
		&bid.Status,
	)
	if err != nil {
		return nil, err
	}

	return &bid, nil
}
