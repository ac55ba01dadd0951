package bid

import (
	"context"
	"fmt"
	"time"

	"github.com/andreyxaxa/auction-sync/internal/contracts"
	"github.com/andreyxaxa/auction-sync/internal/entity"
	"github.com/andreyxaxa/auction-sync/internal/metrics"
	"github.com/andreyxaxa/auction-sync/internal/repo"
	"github.com/andreyxaxa/auction-sync/internal/usecase"
	"github.com/andreyxaxa/auction-sync/pkg/logger"
	"github.com/andreyxaxa/auction-sync/pkg/types/errs"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type BidUseCase struct {
	bidRepo    repo.BidRepo
	mirrorRepo repo.AuctionMirrorRepo
	outbox     usecase.OutboxWriter

	logger logger.Interface

	now func() time.Time
}

func New(
	bidRepo repo.BidRepo,
	mirrorRepo repo.AuctionMirrorRepo,
	outbox usecase.OutboxWriter,
	l logger.Interface,
) *BidUseCase {
	return &BidUseCase{
		bidRepo:    bidRepo,
		mirrorRepo: mirrorRepo,
		outbox:     outbox,
		logger:     l,
		now:        time.Now,
	}
}

// PlaceBid records the bid with its final status and stages BidPlaced in the same transaction.
// Only a missing auction, a self-bid or an invalid amount are errors; TooLow and Finished
// are ordinary outcomes.
func (uc *BidUseCase) PlaceBid(ctx context.Context, auctionID uuid.UUID, bidder string, amount decimal.Decimal) (*entity.Bid, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("BidUseCase - PlaceBid: %w", errs.ErrInvalidAmount)
	}

	var bid *entity.Bid

	err := uc.outbox.Commit(ctx, func(ctx context.Context) (contracts.Event, error) {
		// 1. lock the auction; concurrent bids on it queue up here
		auction, err := uc.mirrorRepo.GetForUpdate(ctx, auctionID)
		if err != nil {
			return nil, fmt.Errorf("uc.mirrorRepo.GetForUpdate: %w", err)
		}

		if auction.Status == entity.AuctionDeleted {
			return nil, errs.ErrRecordNotFound
		}

		if auction.Seller == bidder {
			return nil, errs.ErrSelfBid
		}

		// 2. classify against the current highest competitive bid
		highest, err := uc.bidRepo.HighestCompetitive(ctx, auctionID)
		if err != nil {
			return nil, fmt.Errorf("uc.bidRepo.HighestCompetitive: %w", err)
		}

		now := uc.now().UTC()

		bid = &entity.Bid{
			ID:        uuid.New(),
			AuctionID: auctionID,
			Bidder:    bidder,
			Amount:    amount,
			BidTime:   now,
			Status:    Evaluate(auction, highest, amount, now),
		}

		// 3. persist; the writer stages the event in the same transaction
		if err := uc.bidRepo.Create(ctx, bid); err != nil {
			return nil, fmt.Errorf("uc.bidRepo.Create: %w", err)
		}

		return bidPlaced(bid), nil
	})
	if err != nil {
		return nil, fmt.Errorf("BidUseCase - PlaceBid - uc.outbox.Commit: %w", err)
	}

	metrics.BidsPlaced.WithLabelValues(string(bid.Status)).Inc()

	return bid, nil
}

func (uc *BidUseCase) GetBidsForAuction(ctx context.Context, auctionID uuid.UUID) ([]*entity.Bid, error) {
	bids, err := uc.bidRepo.ListByAuction(ctx, auctionID)
	if err != nil {
		return nil, fmt.Errorf("BidUseCase - GetBidsForAuction - uc.bidRepo.ListByAuction: %w", err)
	}

	return bids, nil
}

// MirrorAuction stores the bidding-relevant part of a newly created auction.
// Redelivery of the same event is a no-op.
func (uc *BidUseCase) MirrorAuction(ctx context.Context, e contracts.AuctionCreated) error {
	status := entity.AuctionStatus(e.Status)
	if status != entity.AuctionFinished {
		status = entity.AuctionLive
	}

	inserted, err := uc.mirrorRepo.Insert(ctx, &entity.AuctionMirror{
		ID:           e.ID,
		Seller:       e.Seller,
		ReservePrice: e.ReservePrice,
		AuctionEnd:   e.AuctionEnd.UTC(),
		Status:       status,
		UpdatedAt:    e.UpdatedAt.UTC(),
	})
	if err != nil {
		return fmt.Errorf("BidUseCase - MirrorAuction - uc.mirrorRepo.Insert: %w", err)
	}

	if !inserted {
		uc.logger.Debug("auction %s already mirrored", e.ID)
	}

	return nil
}

// RemoveAuction tombstones the mirror of a withdrawn auction. Bids already placed are kept,
// new bids are refused and the finalizer skips it. A late AuctionCreated does not revive it.
func (uc *BidUseCase) RemoveAuction(ctx context.Context, e contracts.AuctionDeleted) error {
	if err := uc.mirrorRepo.MarkDeleted(ctx, e.ID, e.Seller, e.UpdatedAt.UTC()); err != nil {
		return fmt.Errorf("BidUseCase - RemoveAuction - uc.mirrorRepo.MarkDeleted: %w", err)
	}

	return nil
}

func bidPlaced(b *entity.Bid) contracts.BidPlaced {
	return contracts.BidPlaced{
		ID:        b.ID,
		AuctionID: b.AuctionID,
		Bidder:    b.Bidder,
		BidTime:   b.BidTime,
		Amount:    b.Amount,
		BidStatus: string(b.Status),
	}
}
