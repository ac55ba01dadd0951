package v1

import (
	"context"
	"time"

	"github.com/andreyxaxa/auction-sync/internal/contracts"
	"github.com/andreyxaxa/auction-sync/internal/entity"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

type mockBidUseCase struct {
	mock.Mock
}

func (m *mockBidUseCase) PlaceBid(ctx context.Context, auctionID uuid.UUID, bidder string, amount decimal.Decimal) (*entity.Bid, error) {
	args := m.Called(ctx, auctionID, bidder, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*entity.Bid), args.Error(1)
}

func (m *mockBidUseCase) GetBidsForAuction(ctx context.Context, auctionID uuid.UUID) ([]*entity.Bid, error) {
	args := m.Called(ctx, auctionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*entity.Bid), args.Error(1)
}

func (m *mockBidUseCase) Finalize(ctx context.Context, auctionID uuid.UUID) (entity.FinalizeResult, error) {
	args := m.Called(ctx, auctionID)

	return args.Get(0).(entity.FinalizeResult), args.Error(1)
}

func (m *mockBidUseCase) FinalizeDue(ctx context.Context, limit int) (int, error) {
	args := m.Called(ctx, limit)

	return args.Int(0), args.Error(1)
}

func (m *mockBidUseCase) MirrorAuction(ctx context.Context, e contracts.AuctionCreated) error {
	return m.Called(ctx, e).Error(0)
}

func (m *mockBidUseCase) RemoveAuction(ctx context.Context, e contracts.AuctionDeleted) error {
	return m.Called(ctx, e).Error(0)
}

type mockAuctionUseCase struct {
	mock.Mock
}

func (m *mockAuctionUseCase) Create(ctx context.Context, seller string, reservePrice decimal.Decimal, auctionEnd time.Time, details entity.ItemDetails) (*entity.Auction, error) {
	args := m.Called(ctx, seller, reservePrice, auctionEnd, details)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*entity.Auction), args.Error(1)
}

func (m *mockAuctionUseCase) Update(ctx context.Context, id uuid.UUID, caller string, patch entity.ItemDetails) (*entity.Auction, error) {
	args := m.Called(ctx, id, caller, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*entity.Auction), args.Error(1)
}

func (m *mockAuctionUseCase) Delete(ctx context.Context, id uuid.UUID, caller string) error {
	return m.Called(ctx, id, caller).Error(0)
}

func (m *mockAuctionUseCase) GetByID(ctx context.Context, id uuid.UUID) (*entity.Auction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*entity.Auction), args.Error(1)
}

func (m *mockAuctionUseCase) ListUpdatedSince(ctx context.Context, since time.Time) ([]*entity.Auction, error) {
	args := m.Called(ctx, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*entity.Auction), args.Error(1)
}

func (m *mockAuctionUseCase) ApplyBidPlaced(ctx context.Context, e contracts.BidPlaced) error {
	return m.Called(ctx, e).Error(0)
}

func (m *mockAuctionUseCase) ApplyAuctionFinished(ctx context.Context, e contracts.AuctionFinished) error {
	return m.Called(ctx, e).Error(0)
}

func (m *mockAuctionUseCase) RecordFault(ctx context.Context, e contracts.AuctionCreatedFault) error {
	return m.Called(ctx, e).Error(0)
}
