package persistent

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/andreyxaxa/auction-sync/internal/entity"
	"github.com/andreyxaxa/auction-sync/migrations"
	"github.com/andreyxaxa/auction-sync/pkg/postgres"
	"github.com/andreyxaxa/auction-sync/pkg/types/errs"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
)

func setupPostgres(t *testing.T, dir string) *postgres.Postgres {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}

	ctx := context.Background()

	ctr, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("auction_sync"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		tcpostgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = testcontainers.TerminateContainer(ctr) })

	url, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	require.NoError(t, postgres.Migrate(url, migrations.FS, dir))

	pg, err := postgres.New(url, postgres.MaxPoolSize(8), postgres.ConnAttempts(3))
	require.NoError(t, err)
	t.Cleanup(pg.Close)

	return pg
}

func mirror(end time.Time) *entity.AuctionMirror {
	return &entity.AuctionMirror{
		ID:           uuid.New(),
		Seller:       "alice",
		ReservePrice: decimal.NewFromInt(1000),
		AuctionEnd:   end.UTC().Truncate(time.Microsecond),
		Status:       entity.AuctionLive,
		UpdatedAt:    time.Now().UTC().Truncate(time.Microsecond),
	}
}

func TestBiddingStore(t *testing.T) {
	pg := setupPostgres(t, migrations.BiddingDir)
	ctx := context.Background()

	mirrors := NewAuctionMirrorRepo(pg)
	bids := NewBidRepo(pg)

	t.Run("mirror insert is idempotent", func(t *testing.T) {
		m := mirror(time.Now().Add(time.Hour))

		inserted, err := mirrors.Insert(ctx, m)
		require.NoError(t, err)
		assert.True(t, inserted)

		inserted, err = mirrors.Insert(ctx, m)
		require.NoError(t, err)
		assert.False(t, inserted)

		got, err := mirrors.GetByID(ctx, m.ID)
		require.NoError(t, err)
		assert.True(t, m.ReservePrice.Equal(got.ReservePrice))
		assert.True(t, m.AuctionEnd.Equal(got.AuctionEnd))

		_, err = mirrors.GetByID(ctx, uuid.New())
		require.ErrorIs(t, err, errs.ErrRecordNotFound)
	})

	t.Run("mark deleted tombstones the mirror", func(t *testing.T) {
		m := mirror(time.Now().Add(-time.Minute))

		_, err := mirrors.Insert(ctx, m)
		require.NoError(t, err)

		deletedAt := time.Now().UTC().Truncate(time.Microsecond)
		require.NoError(t, mirrors.MarkDeleted(ctx, m.ID, m.Seller, deletedAt))
		require.NoError(t, mirrors.MarkDeleted(ctx, m.ID, m.Seller, deletedAt))

		got, err := mirrors.GetByID(ctx, m.ID)
		require.NoError(t, err)
		assert.Equal(t, entity.AuctionDeleted, got.Status)
		assert.True(t, m.AuctionEnd.Equal(got.AuctionEnd))

		// a late create does not revive it, and the finalizer skips it
		inserted, err := mirrors.Insert(ctx, m)
		require.NoError(t, err)
		assert.False(t, inserted)

		due, err := mirrors.ListDue(ctx, time.Now(), 100)
		require.NoError(t, err)
		assert.NotContains(t, due, m.ID)

		flipped, err := mirrors.FinishIfDue(ctx, m.ID, time.Now())
		require.NoError(t, err)
		assert.False(t, flipped)

		// deletion seen before the create
		early := uuid.New()
		require.NoError(t, mirrors.MarkDeleted(ctx, early, "alice", deletedAt))

		got, err = mirrors.GetByID(ctx, early)
		require.NoError(t, err)
		assert.Equal(t, entity.AuctionDeleted, got.Status)
	})

	t.Run("highest competitive ignores rejected bids", func(t *testing.T) {
		m := mirror(time.Now().Add(time.Hour))
		_, err := mirrors.Insert(ctx, m)
		require.NoError(t, err)

		none, err := bids.HighestCompetitive(ctx, m.ID)
		require.NoError(t, err)
		assert.Nil(t, none)

		at := time.Now().UTC().Truncate(time.Microsecond)
		for i, b := range []struct {
			amount int64
			status entity.BidStatus
		}{
			{800, entity.BidAcceptedBelowReserve},
			{1200, entity.BidAccepted},
			{5000, entity.BidFinished},
			{1100, entity.BidTooLow},
		} {
			require.NoError(t, bids.Create(ctx, &entity.Bid{
				ID:        uuid.New(),
				AuctionID: m.ID,
				Bidder:    "bob",
				Amount:    decimal.NewFromInt(b.amount),
				BidTime:   at.Add(time.Duration(i) * time.Second),
				Status:    b.status,
			}))
		}

		top, err := bids.HighestCompetitive(ctx, m.ID)
		require.NoError(t, err)
		require.NotNil(t, top)
		assert.True(t, decimal.NewFromInt(1200).Equal(top.Amount))

		all, err := bids.ListByAuction(ctx, m.ID)
		require.NoError(t, err)
		require.Len(t, all, 4)
		assert.Equal(t, entity.BidTooLow, all[0].Status)
	})

	t.Run("finish if due transitions once", func(t *testing.T) {
		now := time.Now().UTC()

		due := mirror(now.Add(-time.Minute))
		live := mirror(now.Add(time.Hour))
		for _, m := range []*entity.AuctionMirror{due, live} {
			_, err := mirrors.Insert(ctx, m)
			require.NoError(t, err)
		}

		IDs, err := mirrors.ListDue(ctx, now, 100)
		require.NoError(t, err)
		assert.Contains(t, IDs, due.ID)
		assert.NotContains(t, IDs, live.ID)

		ok, err := mirrors.FinishIfDue(ctx, live.ID, now)
		require.NoError(t, err)
		assert.False(t, ok)

		var wins atomic.Int32
		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()

				ok, err := mirrors.FinishIfDue(ctx, due.ID, now)
				assert.NoError(t, err)
				if ok {
					wins.Add(1)
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, int32(1), wins.Load())

		got, err := mirrors.GetByID(ctx, due.ID)
		require.NoError(t, err)
		assert.Equal(t, entity.AuctionFinished, got.Status)
	})

	t.Run("get for update inside a transaction", func(t *testing.T) {
		m := mirror(time.Now().Add(time.Hour))
		_, err := mirrors.Insert(ctx, m)
		require.NoError(t, err)

		err = pg.WithinTransaction(ctx, func(ctx context.Context) error {
			locked, err := mirrors.GetForUpdate(ctx, m.ID)
			if err != nil {
				return err
			}
			assert.Equal(t, m.ID, locked.ID)

			return nil
		})
		require.NoError(t, err)
	})
}

func TestOutboxClaims(t *testing.T) {
	pg := setupPostgres(t, migrations.BiddingDir)
	ctx := context.Background()

	repo := NewOutboxRepo(pg, BidsOutboxTable)

	base := time.Now().UTC().Add(-time.Minute).Truncate(time.Microsecond)

	var IDs uuid.UUIDs
	for i := 0; i < 3; i++ {
		e := &entity.OutboxEntry{
			ID:          uuid.New(),
			AggregateID: uuid.New(),
			EventType:   "BidPlaced",
			Payload:     []byte(`{"kind":"BidPlaced"}`),
			CreatedAt:   base.Add(time.Duration(i) * time.Second),
		}
		require.NoError(t, repo.Create(ctx, e))
		IDs = append(IDs, e.ID)
	}

	claimed, err := repo.ClaimPending(ctx, "relay-a", 10, time.Minute)
	require.NoError(t, err)
	require.Len(t, claimed, 3)
	for i, e := range claimed {
		assert.Equal(t, IDs[i], e.ID)
		require.NotNil(t, e.ClaimedBy)
		assert.Equal(t, "relay-a", *e.ClaimedBy)
	}

	// claims are exclusive while fresh
	other, err := repo.ClaimPending(ctx, "relay-b", 10, time.Minute)
	require.NoError(t, err)
	assert.Empty(t, other)

	// only the owner can mark or release
	n, err := repo.MarkSentBatch(ctx, IDs[:1], "relay-b")
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = repo.MarkSentBatch(ctx, IDs[:1], "relay-a")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	require.NoError(t, repo.ReleaseBatch(ctx, IDs[1:2], "relay-a"))

	again, err := repo.ClaimPending(ctx, "relay-b", 10, time.Minute)
	require.NoError(t, err)
	require.Len(t, again, 1)
	assert.Equal(t, IDs[1], again[0].ID)
	assert.Equal(t, 1, again[0].Attempts)

	// a zero ttl treats every remaining claim as stale
	released, err := repo.ReleaseStaleClaims(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), released)

	deleted, err := repo.DeleteSentBefore(ctx, time.Now().UTC().Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
}

func TestAuctionStore(t *testing.T) {
	pg := setupPostgres(t, migrations.AuctionDir)
	ctx := context.Background()

	repo := NewAuctionRepo(pg)

	created := time.Now().UTC().Add(-time.Hour).Truncate(time.Microsecond)

	a := &entity.Auction{
		ID:           uuid.New(),
		Seller:       "alice",
		ReservePrice: decimal.NewFromInt(1000),
		Status:       entity.AuctionLive,
		AuctionEnd:   created.Add(48 * time.Hour),
		CreatedAt:    created,
		UpdatedAt:    created,
		Item:         entity.ItemDetails{Make: "Ford", Model: "GT", Year: 2020, Color: "White", Mileage: 50},
	}
	require.NoError(t, repo.Create(ctx, a))

	updatedAt := created.Add(time.Minute)
	details := a.Item.Merge(entity.ItemDetails{Color: "Blue"})
	require.NoError(t, repo.UpdateDetails(ctx, a.ID, details, updatedAt))
	require.ErrorIs(t, repo.UpdateDetails(ctx, uuid.New(), details, updatedAt), errs.ErrRecordNotFound)

	raised, err := repo.RaiseHighBid(ctx, a.ID, decimal.NewFromInt(1200), updatedAt)
	require.NoError(t, err)
	assert.True(t, raised)

	raised, err = repo.RaiseHighBid(ctx, a.ID, decimal.NewFromInt(900), updatedAt)
	require.NoError(t, err)
	assert.False(t, raised)

	changed, err := repo.ListUpdatedSince(ctx, created, 0)
	require.NoError(t, err)
	require.Len(t, changed, 1)
	assert.Equal(t, "Blue", changed[0].Item.Color)
	assert.True(t, decimal.NewFromInt(1200).Equal(*changed[0].CurrentHighBid))

	none, err := repo.ListUpdatedSince(ctx, updatedAt, 0)
	require.NoError(t, err)
	assert.Empty(t, none)

	winner := "carol"
	amount := decimal.NewFromInt(1200)
	finish := entity.Finish{AuctionID: a.ID, Winner: &winner, Amount: &amount, FinishedAt: updatedAt.Add(time.Minute)}

	applied, err := repo.ApplyFinish(ctx, finish)
	require.NoError(t, err)
	assert.True(t, applied)

	applied, err = repo.ApplyFinish(ctx, finish)
	require.NoError(t, err)
	assert.False(t, applied)

	got, err := repo.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.AuctionFinished, got.Status)
	require.NotNil(t, got.Winner)
	assert.Equal(t, "carol", *got.Winner)
	assert.True(t, amount.Equal(*got.SoldAmount))
	assert.True(t, finish.FinishedAt.Equal(got.UpdatedAt))

	require.NoError(t, repo.Delete(ctx, a.ID))
	require.ErrorIs(t, repo.Delete(ctx, a.ID), errs.ErrRecordNotFound)

	_, err = repo.GetByID(ctx, a.ID)
	require.ErrorIs(t, err, errs.ErrRecordNotFound)
}
