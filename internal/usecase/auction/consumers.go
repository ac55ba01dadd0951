package auction

import (
	"context"
	"fmt"

	"github.com/andreyxaxa/auction-sync/internal/contracts"
	"github.com/andreyxaxa/auction-sync/internal/entity"
)

// ApplyBidPlaced raises current_high_bid for competitive bids. Replays and stale bids
// do not change anything because the update only ever moves the value up.
func (uc *AuctionUseCase) ApplyBidPlaced(ctx context.Context, e contracts.BidPlaced) error {
	if !entity.BidStatus(e.BidStatus).Competitive() {
		return nil
	}

	raised, err := uc.auctionRepo.RaiseHighBid(ctx, e.AuctionID, e.Amount, uc.now().UTC())
	if err != nil {
		return fmt.Errorf("AuctionUseCase - ApplyBidPlaced - uc.auctionRepo.RaiseHighBid: %w", err)
	}

	if !raised {
		uc.logger.Debug("bid %s on auction %s did not raise the high bid", e.ID, e.AuctionID)
	}

	return nil
}

// ApplyAuctionFinished records the outcome once; a second delivery finds the auction Finished.
func (uc *AuctionUseCase) ApplyAuctionFinished(ctx context.Context, e contracts.AuctionFinished) error {
	finish := entity.Finish{
		AuctionID:  e.AuctionID,
		FinishedAt: e.FinishedAt.UTC(),
	}
	if e.ItemSold {
		finish.Winner = e.Winner
		finish.Amount = e.Amount
	}

	applied, err := uc.auctionRepo.ApplyFinish(ctx, finish)
	if err != nil {
		return fmt.Errorf("AuctionUseCase - ApplyAuctionFinished - uc.auctionRepo.ApplyFinish: %w", err)
	}

	if !applied {
		uc.logger.Debug("auction %s already finished", e.AuctionID)
	}

	return nil
}

// RecordFault surfaces messages another service gave up on.
func (uc *AuctionUseCase) RecordFault(_ context.Context, e contracts.AuctionCreatedFault) error {
	uc.logger.Warn("dead-lettered message: consumer=%s topic=%s key=%s reason=%s failedAt=%s",
		e.Consumer, e.Topic, e.SourceKey, e.Reason, e.FailedAt)

	return nil
}
