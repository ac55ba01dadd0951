package search

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/andreyxaxa/auction-sync/internal/contracts"
	"github.com/andreyxaxa/auction-sync/internal/entity"
	"github.com/andreyxaxa/auction-sync/internal/repo/projection"
	"github.com/andreyxaxa/auction-sync/pkg/logger"
	rds "github.com/andreyxaxa/auction-sync/pkg/redis"
	"github.com/andreyxaxa/auction-sync/pkg/types/errs"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var _now = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

type mockSource struct {
	mock.Mock
}

func (m *mockSource) ListUpdatedSince(ctx context.Context, since time.Time) ([]entity.Item, error) {
	args := m.Called(ctx, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]entity.Item), args.Error(1)
}

func setup(t *testing.T) (*SearchUseCase, *projection.ItemRepo, *mockSource) {
	t.Helper()

	mr := miniredis.RunT(t)

	r, err := rds.New(context.Background(), "redis://"+mr.Addr(), rds.ConnAttempts(1))
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })

	items := projection.NewItemRepo(r)
	src := new(mockSource)

	uc := New(items, src, logger.NewNop())
	uc.now = func() time.Time { return _now }

	return uc, items, src
}

func created(id uuid.UUID, updatedAt time.Time) contracts.AuctionCreated {
	return contracts.AuctionCreated{
		ID:           id,
		Seller:       "alice",
		ReservePrice: decimal.NewFromInt(1000),
		AuctionEnd:   _now.Add(time.Hour),
		CreatedAt:    updatedAt,
		UpdatedAt:    updatedAt,
		Make:         "Ford",
		Model:        "GT",
		Year:         2020,
		Color:        "White",
	}
}

func TestProjectCreatedDefaultsToLive(t *testing.T) {
	uc, items, _ := setup(t)
	ctx := context.Background()

	id := uuid.New()
	require.NoError(t, uc.ProjectCreated(ctx, created(id, _now)))

	got, err := items.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, entity.AuctionLive, got.Status)
}

func TestDuplicateBidPlacedLeavesProjectionUnchanged(t *testing.T) {
	uc, items, _ := setup(t)
	ctx := context.Background()

	id := uuid.New()
	require.NoError(t, uc.ProjectCreated(ctx, created(id, _now)))

	bid := contracts.BidPlaced{
		ID:        uuid.New(),
		AuctionID: id,
		Bidder:    "bob",
		BidTime:   _now,
		Amount:    decimal.NewFromInt(1200),
		BidStatus: string(entity.BidAccepted),
	}

	require.NoError(t, uc.ProjectBidPlaced(ctx, bid))
	first, err := items.GetByID(ctx, id)
	require.NoError(t, err)

	require.NoError(t, uc.ProjectBidPlaced(ctx, bid))
	second, err := items.GetByID(ctx, id)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.True(t, decimal.NewFromInt(1200).Equal(*second.CurrentHighBid))
}

func TestNonCompetitiveBidIgnored(t *testing.T) {
	uc, items, _ := setup(t)
	ctx := context.Background()

	id := uuid.New()
	require.NoError(t, uc.ProjectCreated(ctx, created(id, _now)))

	for _, status := range []entity.BidStatus{entity.BidTooLow, entity.BidFinished} {
		require.NoError(t, uc.ProjectBidPlaced(ctx, contracts.BidPlaced{
			ID:        uuid.New(),
			AuctionID: id,
			Bidder:    "bob",
			Amount:    decimal.NewFromInt(5000),
			BidStatus: string(status),
		}))
	}

	got, err := items.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, got.CurrentHighBid)
}

func TestOutOfOrderUpdates(t *testing.T) {
	uc, items, _ := setup(t)
	ctx := context.Background()

	id := uuid.New()
	require.NoError(t, uc.ProjectCreated(ctx, created(id, _now)))

	newer := contracts.AuctionUpdated{ID: id, Make: "Ford", Model: "Mustang", Year: 2021, Color: "Blue", UpdatedAt: _now.Add(2 * time.Minute)}
	older := contracts.AuctionUpdated{ID: id, Make: "Ford", Model: "Focus", Year: 2019, Color: "Grey", UpdatedAt: _now.Add(time.Minute)}

	require.NoError(t, uc.ProjectUpdated(ctx, newer))
	require.NoError(t, uc.ProjectUpdated(ctx, older))

	got, err := items.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Mustang", got.Model)
}

func TestProjectFinishedTwice(t *testing.T) {
	uc, items, _ := setup(t)
	ctx := context.Background()

	id := uuid.New()
	require.NoError(t, uc.ProjectCreated(ctx, created(id, _now)))

	winner := "carol"
	amount := decimal.NewFromInt(1500)
	e := contracts.AuctionFinished{AuctionID: id, ItemSold: true, Seller: "alice", Winner: &winner, Amount: &amount, FinishedAt: _now}

	require.NoError(t, uc.ProjectFinished(ctx, e))
	require.NoError(t, uc.ProjectFinished(ctx, e))

	got, err := items.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, entity.AuctionFinished, got.Status)
	assert.Equal(t, "carol", *got.Winner)
}

func TestReconcileAdvancesWatermark(t *testing.T) {
	uc, items, src := setup(t)
	ctx := context.Background()

	missed := entity.Item{
		ID:           uuid.New(),
		Seller:       "alice",
		ReservePrice: decimal.NewFromInt(10),
		Status:       entity.AuctionLive,
		AuctionEnd:   _now.Add(time.Hour),
		CreatedAt:    _now.Add(-time.Hour),
		UpdatedAt:    _now.Add(-time.Minute),
		Make:         "Audi",
	}
	newest := missed
	newest.ID = uuid.New()
	newest.UpdatedAt = _now

	src.On("ListUpdatedSince", mock.Anything, mock.MatchedBy(time.Time.IsZero)).Return([]entity.Item{missed, newest}, nil).Once()
	src.On("ListUpdatedSince", mock.Anything, mock.MatchedBy(_now.Add(-_defaultOverlap).Equal)).Return([]entity.Item{}, nil).Once()

	n, err := uc.Reconcile(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = items.GetByID(ctx, missed.ID)
	require.NoError(t, err)

	wm, err := items.Watermark(ctx)
	require.NoError(t, err)
	assert.True(t, _now.Equal(wm))

	// next round starts one overlap behind the watermark and finds nothing
	n, err = uc.Reconcile(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	src.AssertExpectations(t)
}

func TestReconcileSourceFailureKeepsWatermark(t *testing.T) {
	uc, items, src := setup(t)
	ctx := context.Background()

	require.NoError(t, items.AdvanceWatermark(ctx, _now))

	src.On("ListUpdatedSince", mock.Anything, mock.MatchedBy(_now.Add(-_defaultOverlap).Equal)).Return(nil, errors.New("auction service down")).Once()

	_, err := uc.Reconcile(ctx)
	require.Error(t, err)

	wm, err := items.Watermark(ctx)
	require.NoError(t, err)
	assert.True(t, _now.Equal(wm))
}

func TestReconcilePicksUpLateCommit(t *testing.T) {
	uc, items, src := setup(t)
	ctx := context.Background()

	require.NoError(t, items.AdvanceWatermark(ctx, _now))

	// stamped before the watermark, committed after the previous pull
	late := entity.Item{
		ID:           uuid.New(),
		Seller:       "alice",
		ReservePrice: decimal.NewFromInt(10),
		Status:       entity.AuctionLive,
		AuctionEnd:   _now.Add(time.Hour),
		CreatedAt:    _now.Add(-time.Hour),
		UpdatedAt:    _now.Add(-20 * time.Second),
		Make:         "Audi",
	}

	src.On("ListUpdatedSince", mock.Anything, mock.MatchedBy(_now.Add(-_defaultOverlap).Equal)).Return([]entity.Item{late}, nil).Once()

	n, err := uc.Reconcile(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = items.GetByID(ctx, late.ID)
	require.NoError(t, err)

	wm, err := items.Watermark(ctx)
	require.NoError(t, err)
	assert.True(t, _now.Equal(wm))

	src.AssertExpectations(t)
}

func TestReconcileOverlapOption(t *testing.T) {
	mr := miniredis.RunT(t)

	r, err := rds.New(context.Background(), "redis://"+mr.Addr(), rds.ConnAttempts(1))
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })

	items := projection.NewItemRepo(r)
	src := new(mockSource)
	uc := New(items, src, logger.NewNop(), Overlap(0))

	ctx := context.Background()
	require.NoError(t, items.AdvanceWatermark(ctx, _now))

	src.On("ListUpdatedSince", mock.Anything, mock.MatchedBy(_now.Equal)).Return([]entity.Item{}, nil).Once()

	n, err := uc.Reconcile(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	src.AssertExpectations(t)
}

func TestSearchFillsNow(t *testing.T) {
	uc, _, _ := setup(t)
	ctx := context.Background()

	require.NoError(t, uc.ProjectCreated(ctx, created(uuid.New(), _now)))

	res, err := uc.Search(ctx, entity.SearchQuery{SearchTerm: "ford"})
	require.NoError(t, err)
	assert.Equal(t, 1, res.TotalCount)
}

func TestProjectDeletedSurvivesLateCreate(t *testing.T) {
	uc, items, _ := setup(t)
	ctx := context.Background()

	id := uuid.New()
	deleted := contracts.AuctionDeleted{ID: id, Seller: "alice", UpdatedAt: _now.Add(time.Minute)}

	require.NoError(t, uc.ProjectCreated(ctx, created(id, _now)))
	require.NoError(t, uc.ProjectDeleted(ctx, deleted))
	require.NoError(t, uc.ProjectDeleted(ctx, deleted))

	// redelivered create from before the deletion
	require.NoError(t, uc.ProjectCreated(ctx, created(id, _now)))

	_, err := items.GetByID(ctx, id)
	require.ErrorIs(t, err, errs.ErrRecordNotFound)

	res, err := uc.Search(ctx, entity.SearchQuery{})
	require.NoError(t, err)
	assert.Empty(t, res.Results)
}
