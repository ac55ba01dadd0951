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
	"github.com/shopspring/decimal"
)

const (
	// Table
	auctionsTable = "auctions"

	// Columns
	idColumn             = "id"
	sellerColumn         = "seller"
	winnerColumn         = "winner"
	reservePriceColumn   = "reserve_price"
	soldAmountColumn     = "sold_amount"
	currentHighBidColumn = "current_high_bid"
	statusColumn         = "status"
	auctionEndColumn     = "auction_end"
	createdAtColumn      = "created_at"
	updatedAtColumn      = "updated_at"
	makeColumn           = "make"
	modelColumn          = "model"
	yearColumn           = "year"
	colorColumn          = "color"
	mileageColumn        = "mileage"
	imageURLColumn       = "image_url"
)

var auctionColumns = []string{
	idColumn,
	sellerColumn,
	winnerColumn,
	reservePriceColumn,
	soldAmountColumn,
	currentHighBidColumn,
	statusColumn,
	auctionEndColumn,
	createdAtColumn,
	updatedAtColumn,
	makeColumn,
	modelColumn,
	yearColumn,
	colorColumn,
	mileageColumn,
	imageURLColumn,
}

type AuctionRepo struct {
	*postgres.Postgres
}

func NewAuctionRepo(pg *postgres.Postgres) *AuctionRepo {
	return &AuctionRepo{pg}
}

func (r *AuctionRepo) Create(ctx context.Context, a *entity.Auction) error {
	sql, args, err := r.Builder.
		Insert(auctionsTable).
		Columns(auctionColumns...).
		Values(
			a.ID,
			a.Seller,
			a.Winner,
			a.ReservePrice,
			a.SoldAmount,
			a.CurrentHighBid,
			a.Status,
			a.AuctionEnd,
			a.CreatedAt,
			a.UpdatedAt,
			a.Item.Make,
			a.Item.Model,
			a.Item.Year,
			a.Item.Color,
			a.Item.Mileage,
			a.Item.ImageURL,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("AuctionRepo - Create - r.Builder.ToSql: %w", err)
	}

	// Pool / Tx
	executor := r.GetExecutor(ctx)

	_, err = executor.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("AuctionRepo - Create - executor.Exec: %w", err)
	}

	return nil
}

func (r *AuctionRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Auction, error) {
	sql, args, err := r.Builder.
		Select(auctionColumns...).
		From(auctionsTable).
		Where(squirrel.Eq{idColumn: id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("AuctionRepo - GetByID - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	a, err := scanAuction(executor.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("AuctionRepo - GetByID: %w", errs.ErrRecordNotFound)
		}
		return nil, fmt.Errorf("AuctionRepo - GetByID - executor.QueryRow: %w", err)
	}

	return a, nil
}

func (r *AuctionRepo) UpdateDetails(ctx context.Context, id uuid.UUID, d entity.ItemDetails, updatedAt time.Time) error {
	sql, args, err := r.Builder.
		Update(auctionsTable).
		Set(makeColumn, d.Make).
		Set(modelColumn, d.Model).
		Set(yearColumn, d.Year).
		Set(colorColumn, d.Color).
		Set(mileageColumn, d.Mileage).
		Set(imageURLColumn, d.ImageURL).
		Set(updatedAtColumn, updatedAt).
		Where(squirrel.Eq{idColumn: id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("AuctionRepo - UpdateDetails - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	tag, err := executor.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("AuctionRepo - UpdateDetails - executor.Exec: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("AuctionRepo - UpdateDetails: %w", errs.ErrRecordNotFound)
	}

	return nil
}

func (r *AuctionRepo) Delete(ctx context.Context, id uuid.UUID) error {
	sql, args, err := r.Builder.
		Delete(auctionsTable).
		Where(squirrel.Eq{idColumn: id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("AuctionRepo - Delete - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	tag, err := executor.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("AuctionRepo - Delete - executor.Exec: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("AuctionRepo - Delete: %w", errs.ErrRecordNotFound)
	}

	return nil
}

func (r *AuctionRepo) ListUpdatedSince(ctx context.Context, since time.Time, limit int) ([]*entity.Auction, error) {
	q := r.Builder.
		Select(auctionColumns...).
		From(auctionsTable).
		Where(squirrel.Gt{updatedAtColumn: since}).
		OrderBy(updatedAtColumn + " ASC")
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("AuctionRepo - ListUpdatedSince - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	rows, err := executor.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("AuctionRepo - ListUpdatedSince - executor.Query: %w", err)
	}
	defer rows.Close()

	auctions := make([]*entity.Auction, 0)
	for rows.Next() {
		a, err := scanAuction(rows)
		if err != nil {
			return nil, fmt.Errorf("AuctionRepo - ListUpdatedSince - rows.Scan: %w", err)
		}
		auctions = append(auctions, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("AuctionRepo - ListUpdatedSince - rows.Err: %w", err)
	}

	return auctions, nil
}

func (r *AuctionRepo) RaiseHighBid(ctx context.Context, id uuid.UUID, amount decimal.Decimal, updatedAt time.Time) (bool, error) {
	sql, args, err := r.Builder.
		Update(auctionsTable).
		Set(currentHighBidColumn, amount).
		Set(updatedAtColumn, squirrel.Expr("GREATEST("+updatedAtColumn+", ?)", updatedAt)).
		Where(squirrel.And{
			squirrel.Eq{idColumn: id},
			squirrel.Or{
				squirrel.Eq{currentHighBidColumn: nil},
				squirrel.Lt{currentHighBidColumn: amount},
			},
		}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("AuctionRepo - RaiseHighBid - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	tag, err := executor.Exec(ctx, sql, args...)
	if err != nil {
		return false, fmt.Errorf("AuctionRepo - RaiseHighBid - executor.Exec: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

func (r *AuctionRepo) ApplyFinish(ctx context.Context, f entity.Finish) (bool, error) {
	sql, args, err := r.Builder.
		Update(auctionsTable).
		Set(statusColumn, entity.AuctionFinished).
		Set(winnerColumn, f.Winner).
		Set(soldAmountColumn, f.Amount).
		Set(updatedAtColumn, squirrel.Expr("GREATEST("+updatedAtColumn+", ?)", f.FinishedAt)).
		Where(squirrel.And{
			squirrel.Eq{idColumn: f.AuctionID},
			squirrel.Eq{statusColumn: entity.AuctionLive},
		}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("AuctionRepo - ApplyFinish - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	tag, err := executor.Exec(ctx, sql, args...)
	if err != nil {
		return false, fmt.Errorf("AuctionRepo - ApplyFinish - executor.Exec: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

func scanAuction(row pgx.Row) (*entity.Auction, error) {
	var a entity.Auction

	err := row.Scan(
		&a.ID,
		&a.Seller,
		&a.Winner,
		&a.ReservePrice,
		&a.SoldAmount,
		&a.CurrentHighBid,
		&a.Status,
		&a.AuctionEnd,
		&a.CreatedAt,
		&a.UpdatedAt,
		&a.Item.Make,
		&a.Item.Model,
		&a.Item.Year,
		&a.Item.Color,
		&a.Item.Mileage,
		&a.Item.ImageURL,
	)
	if err != nil {
		return nil, err
	}

	return &a, nil
}
