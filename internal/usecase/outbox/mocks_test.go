package outbox

import (
	"context"
	"time"

	"github.com/andreyxaxa/auction-sync/internal/entity"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type mockOutboxRepo struct {
	mock.Mock
}

func (m *mockOutboxRepo) Create(ctx context.Context, entry *entity.OutboxEntry) error {
	return m.Called(ctx, entry).Error(0)
}

func (m *mockOutboxRepo) ClaimPending(ctx context.Context, owner string, limit int, claimTTL time.Duration) ([]*entity.OutboxEntry, error) {
	args := m.Called(ctx, owner, limit, claimTTL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*entity.OutboxEntry), args.Error(1)
}

func (m *mockOutboxRepo) MarkSentBatch(ctx context.Context, IDs uuid.UUIDs, owner string) (int64, error) {
	args := m.Called(ctx, IDs, owner)

	return args.Get(0).(int64), args.Error(1)
}

func (m *mockOutboxRepo) ReleaseBatch(ctx context.Context, IDs uuid.UUIDs, owner string) error {
	return m.Called(ctx, IDs, owner).Error(0)
}

func (m *mockOutboxRepo) ReleaseStaleClaims(ctx context.Context, claimTTL time.Duration) (int64, error) {
	args := m.Called(ctx, claimTTL)

	return args.Get(0).(int64), args.Error(1)
}

func (m *mockOutboxRepo) DeleteSentBefore(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)

	return args.Get(0).(int64), args.Error(1)
}

// txRecorder runs f directly and remembers whether the transaction would have committed.
type txRecorder struct {
	calls     int
	committed bool
}

func (tx *txRecorder) WithinTransaction(ctx context.Context, f func(ctx context.Context) error) error {
	tx.calls++

	err := f(ctx)
	tx.committed = err == nil

	return err
}
