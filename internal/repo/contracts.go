package repo

import (
	"context"
	"time"

	"github.com/andreyxaxa/auction-sync/internal/entity"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type (
	Transactor interface {
		WithinTransaction(ctx context.Context, f func(ctx context.Context) error) error
	}

	// AuctionRepo is the authoritative auction store, owned by the auction service.
	AuctionRepo interface {
		Create(ctx context.Context, auction *entity.Auction) error
		GetByID(ctx context.Context, id uuid.UUID) (*entity.Auction, error)
		UpdateDetails(ctx context.Context, id uuid.UUID, details entity.ItemDetails, updatedAt time.Time) error
		ListUpdatedSince(ctx context.Context, since time.Time, limit int) ([]*entity.Auction, error)
		Delete(ctx context.Context, id uuid.UUID) error
		// RaiseHighBid stores amount only if it exceeds the current high bid.
		RaiseHighBid(ctx context.Context, id uuid.UUID, amount decimal.Decimal, updatedAt time.Time) (bool, error)
		// ApplyFinish flips a Live auction to Finished; false when it was already Finished.
		ApplyFinish(ctx context.Context, finish entity.Finish) (bool, error)
	}

	BidRepo interface {
		Create(ctx context.Context, bid *entity.Bid) error
		// HighestCompetitive returns the highest Accepted or AcceptedBelowReserve bid, nil when none.
		HighestCompetitive(ctx context.Context, auctionID uuid.UUID) (*entity.Bid, error)
		ListByAuction(ctx context.Context, auctionID uuid.UUID) ([]*entity.Bid, error)
	}

	// AuctionMirrorRepo is the bidding service's copy of auctions.
	AuctionMirrorRepo interface {
		Insert(ctx context.Context, mirror *entity.AuctionMirror) (bool, error)
		GetByID(ctx context.Context, id uuid.UUID) (*entity.AuctionMirror, error)
		// GetForUpdate locks the row until the surrounding transaction ends.
		GetForUpdate(ctx context.Context, id uuid.UUID) (*entity.AuctionMirror, error)
		// FinishIfDue is the compare-and-set Live -> Finished guarded by auction_end <= now.
		FinishIfDue(ctx context.Context, id uuid.UUID, now time.Time) (bool, error)
		ListDue(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error)
		// MarkDeleted leaves a Deleted tombstone, creating the row when the auction was never mirrored.
		MarkDeleted(ctx context.Context, id uuid.UUID, seller string, deletedAt time.Time) error
	}

	OutboxRepo interface {
		Create(ctx context.Context, entry *entity.OutboxEntry) error
		// ClaimPending atomically claims unsent entries for owner, oldest first.
		// Claims older than claimTTL are considered abandoned and may be taken over.
		ClaimPending(ctx context.Context, owner string, limit int, claimTTL time.Duration) ([]*entity.OutboxEntry, error)
		MarkSentBatch(ctx context.Context, IDs uuid.UUIDs, owner string) (int64, error)
		ReleaseBatch(ctx context.Context, IDs uuid.UUIDs, owner string) error
		ReleaseStaleClaims(ctx context.Context, claimTTL time.Duration) (int64, error)
		DeleteSentBefore(ctx context.Context, before time.Time) (int64, error)
	}

	// ItemProjectionRepo is the search-side read model.
	ItemProjectionRepo interface {
		// Upsert applies item only when its watermark is newer than the stored one.
		Upsert(ctx context.Context, item *entity.Item) (bool, error)
		UpdateDetails(ctx context.Context, id uuid.UUID, details entity.ItemDetails, updatedAt time.Time) (bool, error)
		// ApplyBid raises the current high bid; bidID makes repeated deliveries no-ops.
		ApplyBid(ctx context.Context, auctionID, bidID uuid.UUID, amount decimal.Decimal) (bool, error)
		ApplyFinish(ctx context.Context, finish entity.Finish) error
		// Remove drops the item from every index and keeps a tombstone watermark.
		Remove(ctx context.Context, id uuid.UUID, updatedAt time.Time) (bool, error)
		GetByID(ctx context.Context, id uuid.UUID) (*entity.Item, error)
		Search(ctx context.Context, query entity.SearchQuery) (entity.SearchResult, error)
		Watermark(ctx context.Context) (time.Time, error)
		AdvanceWatermark(ctx context.Context, to time.Time) error
	}

	DeadLetterArchive interface {
		Archive(ctx context.Context, key string, data []byte) error
	}
)
