package bid

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/andreyxaxa/auction-sync/internal/contracts"
	"github.com/andreyxaxa/auction-sync/internal/entity"
	"github.com/andreyxaxa/auction-sync/pkg/types/errs"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFinalizeSoldOnce(t *testing.T) {
	h := newHarness(t)
	id := h.auction(t, "alice", 1000, _t0.Add(time.Hour))

	h.bid(t, id, "bob", 900)
	h.bid(t, id, "carol", 1500)

	h.clock = _t0.Add(time.Hour)

	res, err := h.uc.Finalize(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, res.Transitioned)
	assert.True(t, res.ItemSold)
	require.NotNil(t, res.Winner)
	assert.Equal(t, "carol", *res.Winner)
	assert.True(t, decimal.NewFromInt(1500).Equal(*res.Amount))

	finished := h.outbox.events[len(h.outbox.events)-1].(contracts.AuctionFinished)
	assert.Equal(t, id, finished.AuctionID)
	assert.Equal(t, "alice", finished.Seller)
	assert.Equal(t, "carol", *finished.Winner)

	eventsBefore := len(h.outbox.events)

	res, err = h.uc.Finalize(context.Background(), id)
	require.NoError(t, err)
	assert.False(t, res.Transitioned)
	assert.Len(t, h.outbox.events, eventsBefore)
	assert.Equal(t, entity.AuctionFinished, h.store.mirrors[id].Status)
}

func TestFinalizeUnsoldWhenOnlyTooLowOrNoBids(t *testing.T) {
	h := newHarness(t)
	id := h.auction(t, "alice", 1000, _t0.Add(time.Hour))

	h.clock = _t0.Add(time.Hour)

	res, err := h.uc.Finalize(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, res.Transitioned)
	assert.False(t, res.ItemSold)
	assert.Nil(t, res.Winner)

	finished := h.outbox.events[0].(contracts.AuctionFinished)
	assert.False(t, finished.ItemSold)
	assert.Nil(t, finished.Amount)
}

func TestFinalizeBelowReserveStillWins(t *testing.T) {
	h := newHarness(t)
	id := h.auction(t, "alice", 1000, _t0.Add(time.Hour))

	h.bid(t, id, "bob", 800)
	h.clock = _t0.Add(time.Hour)

	res, err := h.uc.Finalize(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, res.ItemSold)
	assert.Equal(t, "bob", *res.Winner)
}

func TestFinalizeNotYetEnded(t *testing.T) {
	h := newHarness(t)
	id := h.auction(t, "alice", 1000, _t0.Add(time.Hour))

	res, err := h.uc.Finalize(context.Background(), id)
	require.NoError(t, err)
	assert.False(t, res.Transitioned)
	assert.Empty(t, h.outbox.events)
	assert.Equal(t, entity.AuctionLive, h.store.mirrors[id].Status)
}

func TestFinalizeMissing(t *testing.T) {
	h := newHarness(t)

	_, err := h.uc.Finalize(context.Background(), uuid.New())
	require.ErrorIs(t, err, errs.ErrRecordNotFound)
}

func TestFinalizeConcurrentSingleTransition(t *testing.T) {
	h := newHarness(t)
	id := h.auction(t, "alice", 10, _t0.Add(time.Hour))
	h.bid(t, id, "bob", 20)
	h.clock = _t0.Add(time.Hour)

	var transitions atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			res, err := h.uc.Finalize(context.Background(), id)
			assert.NoError(t, err)
			if res.Transitioned {
				transitions.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), transitions.Load())

	finishedEvents := 0
	for _, e := range h.outbox.events {
		if e.Kind() == contracts.KindAuctionFinished {
			finishedEvents++
		}
	}
	assert.Equal(t, 1, finishedEvents)
}

func TestFinalizeDue(t *testing.T) {
	h := newHarness(t)
	due1 := h.auction(t, "alice", 10, _t0.Add(time.Minute))
	due2 := h.auction(t, "alice", 10, _t0.Add(2*time.Minute))
	later := h.auction(t, "alice", 10, _t0.Add(time.Hour))

	h.clock = _t0.Add(5 * time.Minute)

	n, err := h.uc.FinalizeDue(context.Background(), 100)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	assert.Equal(t, entity.AuctionFinished, h.store.mirrors[due1].Status)
	assert.Equal(t, entity.AuctionFinished, h.store.mirrors[due2].Status)
	assert.Equal(t, entity.AuctionLive, h.store.mirrors[later].Status)

	n, err = h.uc.FinalizeDue(context.Background(), 100)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestBidAfterFinalizeIsFinished(t *testing.T) {
	h := newHarness(t)
	id := h.auction(t, "alice", 10, _t0.Add(time.Hour))
	h.clock = _t0.Add(time.Hour)

	_, err := h.uc.Finalize(context.Background(), id)
	require.NoError(t, err)

	assert.Equal(t, entity.BidFinished, h.bid(t, id, "bob", 100).Status)
}
