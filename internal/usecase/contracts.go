package usecase

import (
	"context"
	"time"

	"github.com/andreyxaxa/auction-sync/internal/contracts"
	"github.com/andreyxaxa/auction-sync/internal/entity"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type (
	// OutboxWriter makes a state change and the event describing it durable together.
	OutboxWriter interface {
		Commit(ctx context.Context, change func(ctx context.Context) (contracts.Event, error)) error
	}

	OutboxRelayUseCase interface {
		ClaimPending(ctx context.Context, limit int) ([]*entity.OutboxEntry, error)
		MarkSent(ctx context.Context, entries []*entity.OutboxEntry) error
		Release(ctx context.Context, entries []*entity.OutboxEntry) error
		ReleaseStaleClaims(ctx context.Context) error
		Cleanup(ctx context.Context) error
	}

	BidUseCase interface {
		PlaceBid(ctx context.Context, auctionID uuid.UUID, bidder string, amount decimal.Decimal) (*entity.Bid, error)
		GetBidsForAuction(ctx context.Context, auctionID uuid.UUID) ([]*entity.Bid, error)
		Finalize(ctx context.Context, auctionID uuid.UUID) (entity.FinalizeResult, error)
		FinalizeDue(ctx context.Context, limit int) (int, error)
		MirrorAuction(ctx context.Context, e contracts.AuctionCreated) error
		RemoveAuction(ctx context.Context, e contracts.AuctionDeleted) error
	}

	AuctionUseCase interface {
		Create(ctx context.Context, seller string, reservePrice decimal.Decimal, auctionEnd time.Time, details entity.ItemDetails) (*entity.Auction, error)
		Update(ctx context.Context, id uuid.UUID, caller string, patch entity.ItemDetails) (*entity.Auction, error)
		Delete(ctx context.Context, id uuid.UUID, caller string) error
		GetByID(ctx context.Context, id uuid.UUID) (*entity.Auction, error)
		ListUpdatedSince(ctx context.Context, since time.Time) ([]*entity.Auction, error)
		ApplyBidPlaced(ctx context.Context, e contracts.BidPlaced) error
		ApplyAuctionFinished(ctx context.Context, e contracts.AuctionFinished) error
		RecordFault(ctx context.Context, e contracts.AuctionCreatedFault) error
	}

	SearchUseCase interface {
		ProjectCreated(ctx context.Context, e contracts.AuctionCreated) error
		ProjectUpdated(ctx context.Context, e contracts.AuctionUpdated) error
		ProjectBidPlaced(ctx context.Context, e contracts.BidPlaced) error
		ProjectFinished(ctx context.Context, e contracts.AuctionFinished) error
		ProjectDeleted(ctx context.Context, e contracts.AuctionDeleted) error
		Search(ctx context.Context, q entity.SearchQuery) (entity.SearchResult, error)
		PullUpdatesSince(ctx context.Context, watermark time.Time) ([]entity.Item, error)
		Reconcile(ctx context.Context) (int, error)
	}
)
