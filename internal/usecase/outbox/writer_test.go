package outbox

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/andreyxaxa/auction-sync/internal/contracts"
	"github.com/andreyxaxa/auction-sync/internal/entity"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func bidPlacedEvent() contracts.BidPlaced {
	return contracts.BidPlaced{
		ID:        uuid.New(),
		AuctionID: uuid.New(),
		Bidder:    "bob",
		BidTime:   time.Now().UTC(),
		Amount:    decimal.NewFromInt(42),
		BidStatus: string(entity.BidAccepted),
	}
}

func TestWriterCommitStagesEntry(t *testing.T) {
	tx := &txRecorder{}
	repo := new(mockOutboxRepo)
	w := NewWriter(tx, repo)

	event := bidPlacedEvent()

	var staged *entity.OutboxEntry
	repo.On("Create", mock.Anything, mock.AnythingOfType("*entity.OutboxEntry")).
		Run(func(args mock.Arguments) { staged = args.Get(1).(*entity.OutboxEntry) }).
		Return(nil).Once()

	changed := false
	err := w.Commit(context.Background(), func(ctx context.Context) (contracts.Event, error) {
		changed = true

		return event, nil
	})
	require.NoError(t, err)

	assert.True(t, changed)
	assert.Equal(t, 1, tx.calls)
	assert.True(t, tx.committed)
	repo.AssertExpectations(t)

	require.NotNil(t, staged)
	assert.Equal(t, event.AuctionID, staged.AggregateID)
	assert.Equal(t, string(contracts.KindBidPlaced), staged.EventType)
	assert.Nil(t, staged.SentAt)

	env, err := contracts.Unmarshal(staged.Payload)
	require.NoError(t, err)
	assert.Equal(t, staged.ID, env.ID)

	decoded, err := contracts.Decode[contracts.BidPlaced](env)
	require.NoError(t, err)
	assert.Equal(t, event.ID, decoded.ID)
}

func TestWriterChangeFailureStagesNothing(t *testing.T) {
	tx := &txRecorder{}
	repo := new(mockOutboxRepo)
	w := NewWriter(tx, repo)

	boom := errors.New("boom")

	err := w.Commit(context.Background(), func(ctx context.Context) (contracts.Event, error) {
		return nil, boom
	})
	require.ErrorIs(t, err, boom)

	assert.False(t, tx.committed)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestWriterNilEventCommitsChangeOnly(t *testing.T) {
	tx := &txRecorder{}
	repo := new(mockOutboxRepo)
	w := NewWriter(tx, repo)

	err := w.Commit(context.Background(), func(ctx context.Context) (contracts.Event, error) {
		return nil, nil
	})
	require.NoError(t, err)

	assert.True(t, tx.committed)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestWriterOutboxFailureRollsBack(t *testing.T) {
	tx := &txRecorder{}
	repo := new(mockOutboxRepo)
	w := NewWriter(tx, repo)

	dbErr := errors.New("insert failed")
	repo.On("Create", mock.Anything, mock.Anything).Return(dbErr).Once()

	err := w.Commit(context.Background(), func(ctx context.Context) (contracts.Event, error) {
		return bidPlacedEvent(), nil
	})
	require.ErrorIs(t, err, dbErr)

	assert.False(t, tx.committed)
}

func TestWriterInvalidEventRollsBack(t *testing.T) {
	tx := &txRecorder{}
	repo := new(mockOutboxRepo)
	w := NewWriter(tx, repo)

	err := w.Commit(context.Background(), func(ctx context.Context) (contracts.Event, error) {
		return contracts.BidPlaced{AuctionID: uuid.New()}, nil
	})
	require.Error(t, err)

	assert.False(t, tx.committed)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}
