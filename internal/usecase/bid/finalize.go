package bid

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/andreyxaxa/auction-sync/internal/contracts"
	"github.com/andreyxaxa/auction-sync/internal/entity"
	"github.com/andreyxaxa/auction-sync/internal/metrics"
	"github.com/andreyxaxa/auction-sync/pkg/types/errs"
	"github.com/google/uuid"
)

// Finalize moves a Live auction whose end has passed to Finished and stages AuctionFinished
// with the winning bid. The flip is a compare-and-set, so concurrent or repeated calls leave
// exactly one transition; the others report Transitioned == false.
func (uc *BidUseCase) Finalize(ctx context.Context, auctionID uuid.UUID) (entity.FinalizeResult, error) {
	res := entity.FinalizeResult{AuctionID: auctionID}

	err := uc.outbox.Commit(ctx, func(ctx context.Context) (contracts.Event, error) {
		// The lock makes a bid in flight finish before the winner is chosen.
		auction, err := uc.mirrorRepo.GetForUpdate(ctx, auctionID)
		if err != nil {
			return nil, fmt.Errorf("uc.mirrorRepo.GetForUpdate: %w", err)
		}

		now := uc.now().UTC()

		flipped, err := uc.mirrorRepo.FinishIfDue(ctx, auctionID, now)
		if err != nil {
			return nil, fmt.Errorf("uc.mirrorRepo.FinishIfDue: %w", err)
		}
		if !flipped {
			return nil, nil
		}

		winning, err := uc.bidRepo.HighestCompetitive(ctx, auctionID)
		if err != nil {
			return nil, fmt.Errorf("uc.bidRepo.HighestCompetitive: %w", err)
		}

		event := contracts.AuctionFinished{
			AuctionID:  auctionID,
			Seller:     auction.Seller,
			FinishedAt: now,
		}
		if winning != nil {
			event.ItemSold = true
			event.Winner = &winning.Bidder
			event.Amount = &winning.Amount
		}

		res.Transitioned = true
		res.ItemSold = event.ItemSold
		res.Winner = event.Winner
		res.Amount = event.Amount

		return event, nil
	})
	if err != nil {
		return entity.FinalizeResult{AuctionID: auctionID}, fmt.Errorf("BidUseCase - Finalize - uc.outbox.Commit: %w", err)
	}

	if res.Transitioned {
		metrics.AuctionsFinalized.WithLabelValues(strconv.FormatBool(res.ItemSold)).Inc()
	}

	return res, nil
}

// FinalizeDue sweeps Live auctions whose end has passed and returns how many it finished.
// A failure on one auction is logged and does not stop the sweep.
func (uc *BidUseCase) FinalizeDue(ctx context.Context, limit int) (int, error) {
	IDs, err := uc.mirrorRepo.ListDue(ctx, uc.now().UTC(), limit)
	if err != nil {
		return 0, fmt.Errorf("BidUseCase - FinalizeDue - uc.mirrorRepo.ListDue: %w", err)
	}

	finished := 0
	for _, id := range IDs {
		if ctx.Err() != nil {
			return finished, ctx.Err()
		}

		res, err := uc.Finalize(ctx, id)
		if err != nil {
			if !errors.Is(err, errs.ErrRecordNotFound) {
				uc.logger.Error(err, "BidUseCase - FinalizeDue - uc.Finalize")
			}
			continue
		}

		if res.Transitioned {
			finished++
		}
	}

	return finished, nil
}
