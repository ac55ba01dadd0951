package auction

import (
	"context"
	"fmt"
	"time"

	"github.com/andreyxaxa/auction-sync/internal/contracts"
	"github.com/andreyxaxa/auction-sync/internal/entity"
	"github.com/andreyxaxa/auction-sync/internal/repo"
	"github.com/andreyxaxa/auction-sync/internal/usecase"
	"github.com/andreyxaxa/auction-sync/pkg/logger"
	"github.com/andreyxaxa/auction-sync/pkg/types/errs"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const _listLimit = 1000

type AuctionUseCase struct {
	auctionRepo repo.AuctionRepo
	outbox      usecase.OutboxWriter

	logger logger.Interface

	now func() time.Time
}

func New(auctionRepo repo.AuctionRepo, outbox usecase.OutboxWriter, l logger.Interface) *AuctionUseCase {
	return &AuctionUseCase{
		auctionRepo: auctionRepo,
		outbox:      outbox,
		logger:      l,
		now:         time.Now,
	}
}

func (uc *AuctionUseCase) Create(
	ctx context.Context,
	seller string,
	reservePrice decimal.Decimal,
	auctionEnd time.Time,
	details entity.ItemDetails,
) (*entity.Auction, error) {
	if reservePrice.IsNegative() {
		return nil, fmt.Errorf("AuctionUseCase - Create: %w", errs.ErrInvalidAmount)
	}

	now := uc.now().UTC()

	auction := &entity.Auction{
		ID:           uuid.New(),
		Seller:       seller,
		ReservePrice: reservePrice,
		Status:       entity.AuctionLive,
		AuctionEnd:   auctionEnd.UTC(),
		CreatedAt:    now,
		UpdatedAt:    now,
		Item:         details,
	}

	err := uc.outbox.Commit(ctx, func(ctx context.Context) (contracts.Event, error) {
		if err := uc.auctionRepo.Create(ctx, auction); err != nil {
			return nil, fmt.Errorf("uc.auctionRepo.Create: %w", err)
		}

		return auctionCreated(auction), nil
	})
	if err != nil {
		return nil, fmt.Errorf("AuctionUseCase - Create - uc.outbox.Commit: %w", err)
	}

	return auction, nil
}

// Update changes the listing details. Only the seller may do it, and only while Live.
// Zero fields of patch keep their stored value.
func (uc *AuctionUseCase) Update(ctx context.Context, id uuid.UUID, caller string, patch entity.ItemDetails) (*entity.Auction, error) {
	var auction *entity.Auction

	err := uc.outbox.Commit(ctx, func(ctx context.Context) (contracts.Event, error) {
		var err error

		auction, err = uc.auctionRepo.GetByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("uc.auctionRepo.GetByID: %w", err)
		}

		if auction.Seller != caller {
			return nil, errs.ErrNotOwner
		}

		if auction.Status == entity.AuctionFinished {
			return nil, errs.ErrAlreadyFinished
		}

		updatedAt := uc.nextWatermark(auction)

		details := auction.Item.Merge(patch)

		if err := uc.auctionRepo.UpdateDetails(ctx, id, details, updatedAt); err != nil {
			return nil, fmt.Errorf("uc.auctionRepo.UpdateDetails: %w", err)
		}

		auction.Item = details
		auction.UpdatedAt = updatedAt

		return auctionUpdated(auction), nil
	})
	if err != nil {
		return nil, fmt.Errorf("AuctionUseCase - Update - uc.outbox.Commit: %w", err)
	}

	return auction, nil
}

// Delete withdraws the auction. Only the seller may do it; a finished auction can be
// deleted too. Consumers receive AuctionDeleted and drop their copies.
func (uc *AuctionUseCase) Delete(ctx context.Context, id uuid.UUID, caller string) error {
	err := uc.outbox.Commit(ctx, func(ctx context.Context) (contracts.Event, error) {
		auction, err := uc.auctionRepo.GetByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("uc.auctionRepo.GetByID: %w", err)
		}

		if auction.Seller != caller {
			return nil, errs.ErrNotOwner
		}

		if err := uc.auctionRepo.Delete(ctx, id); err != nil {
			return nil, fmt.Errorf("uc.auctionRepo.Delete: %w", err)
		}

		return contracts.AuctionDeleted{
			ID:        id,
			Seller:    auction.Seller,
			UpdatedAt: uc.nextWatermark(auction),
		}, nil
	})
	if err != nil {
		return fmt.Errorf("AuctionUseCase - Delete - uc.outbox.Commit: %w", err)
	}

	return nil
}

func (uc *AuctionUseCase) GetByID(ctx context.Context, id uuid.UUID) (*entity.Auction, error) {
	auction, err := uc.auctionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("AuctionUseCase - GetByID - uc.auctionRepo.GetByID: %w", err)
	}

	return auction, nil
}

// ListUpdatedSince serves the search reconciliation pull, oldest change first.
func (uc *AuctionUseCase) ListUpdatedSince(ctx context.Context, since time.Time) ([]*entity.Auction, error) {
	auctions, err := uc.auctionRepo.ListUpdatedSince(ctx, since.UTC(), _listLimit)
	if err != nil {
		return nil, fmt.Errorf("AuctionUseCase - ListUpdatedSince - uc.auctionRepo.ListUpdatedSince: %w", err)
	}

	return auctions, nil
}

// nextWatermark is the UpdatedAt of the next change to a. It is the projection watermark
// and must move forward even when the clock has not.
func (uc *AuctionUseCase) nextWatermark(a *entity.Auction) time.Time {
	t := uc.now().UTC()
	if !t.After(a.UpdatedAt) {
		t = a.UpdatedAt.Add(time.Microsecond)
	}

	return t
}

func auctionCreated(a *entity.Auction) contracts.AuctionCreated {
	return contracts.AuctionCreated{
		ID:           a.ID,
		Seller:       a.Seller,
		ReservePrice: a.ReservePrice,
		AuctionEnd:   a.AuctionEnd,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
		Status:       string(a.Status),
		Make:         a.Item.Make,
		Model:        a.Item.Model,
		Year:         a.Item.Year,
		Color:        a.Item.Color,
		Mileage:      a.Item.Mileage,
		ImageURL:     a.Item.ImageURL,
	}
}

func auctionUpdated(a *entity.Auction) contracts.AuctionUpdated {
	return contracts.AuctionUpdated{
		ID:        a.ID,
		Make:      a.Item.Make,
		Model:     a.Item.Model,
		Year:      a.Item.Year,
		Color:     a.Item.Color,
		Mileage:   a.Item.Mileage,
		ImageURL:  a.Item.ImageURL,
		UpdatedAt: a.UpdatedAt,
	}
}
