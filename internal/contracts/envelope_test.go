package contracts_test

import (
	"testing"
	"time"

	"github.com/andreyxaxa/auction-sync/internal/contracts"
	"github.com/andreyxaxa/auction-sync/pkg/types/errs"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapDecode(t *testing.T) {
	bid := contracts.BidPlaced{
		ID:        uuid.New(),
		AuctionID: uuid.New(),
		Bidder:    "bob",
		BidTime:   time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Amount:    decimal.RequireFromString("1200.50"),
		BidStatus: "Accepted",
	}

	env, err := contracts.Wrap(bid, time.Now())
	require.NoError(t, err)
	assert.Equal(t, contracts.KindBidPlaced, env.Kind)
	assert.NotEqual(t, uuid.Nil, env.ID)

	raw, err := env.Marshal()
	require.NoError(t, err)

	parsed, err := contracts.Unmarshal(raw)
	require.NoError(t, err)
	assert.Equal(t, env.ID, parsed.ID)

	got, err := contracts.Decode[contracts.BidPlaced](parsed)
	require.NoError(t, err)
	assert.Equal(t, bid.ID, got.ID)
	assert.True(t, bid.Amount.Equal(got.Amount))
	assert.True(t, bid.BidTime.Equal(got.BidTime))
}

func TestWrapRejectsInvalidEvent(t *testing.T) {
	_, err := contracts.Wrap(contracts.BidPlaced{Bidder: "bob"}, time.Now())
	require.ErrorIs(t, err, errs.ErrInvalidEvent)
}

func TestUnmarshalMalformed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "not json", raw: "{{{"},
		{name: "no kind", raw: `{"id":"` + uuid.NewString() + `","data":{}}`},
		{name: "no data", raw: `{"id":"` + uuid.NewString() + `","kind":"BidPlaced"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := contracts.Unmarshal([]byte(tt.raw))
			require.ErrorIs(t, err, errs.ErrInvalidEvent)
		})
	}
}

func TestDecodeKindMismatch(t *testing.T) {
	env, err := contracts.Wrap(contracts.AuctionUpdated{ID: uuid.New(), UpdatedAt: time.Now()}, time.Now())
	require.NoError(t, err)

	_, err = contracts.Decode[contracts.BidPlaced](env)
	require.ErrorIs(t, err, errs.ErrInvalidEvent)
}

func TestDecodeValidates(t *testing.T) {
	env := contracts.Envelope{
		ID:   uuid.New(),
		Kind: contracts.KindAuctionFinished,
		Data: []byte(`{"auctionId":"` + uuid.NewString() + `","itemSold":true}`),
	}

	_, err := contracts.Decode[contracts.AuctionFinished](env)
	require.ErrorIs(t, err, errs.ErrInvalidEvent)
}

func TestAuctionDeletedRequiresWatermark(t *testing.T) {
	id := uuid.New()

	env, err := contracts.Wrap(contracts.AuctionDeleted{ID: id, Seller: "alice", UpdatedAt: time.Now()}, time.Now())
	require.NoError(t, err)
	assert.Equal(t, contracts.KindAuctionDeleted, env.Kind)

	got, err := contracts.Decode[contracts.AuctionDeleted](env)
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, id.String(), got.Key())

	_, err = contracts.Wrap(contracts.AuctionDeleted{ID: id, Seller: "alice"}, time.Now())
	require.ErrorIs(t, err, errs.ErrInvalidEvent)
}
