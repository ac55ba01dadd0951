package outbox

import (
	"context"
	"fmt"
	"time"

	"github.com/andreyxaxa/auction-sync/internal/entity"
	"github.com/andreyxaxa/auction-sync/internal/metrics"
	"github.com/andreyxaxa/auction-sync/internal/repo"
	"github.com/andreyxaxa/auction-sync/pkg/logger"
	"github.com/google/uuid"
)

// RelayUseCase is the storage side of the outbox relay for a single relay instance.
type RelayUseCase struct {
	outboxRepo repo.OutboxRepo
	logger     logger.Interface

	owner     string
	claimTTL  time.Duration
	retention time.Duration
}

func NewRelayUseCase(
	outboxRepo repo.OutboxRepo,
	l logger.Interface,
	owner string,
	claimTTL time.Duration,
	retention time.Duration,
) *RelayUseCase {
	return &RelayUseCase{
		outboxRepo: outboxRepo,
		logger:     l,
		owner:      owner,
		claimTTL:   claimTTL,
		retention:  retention,
	}
}

func (uc *RelayUseCase) ClaimPending(ctx context.Context, limit int) ([]*entity.OutboxEntry, error) {
	entries, err := uc.outboxRepo.ClaimPending(ctx, uc.owner, limit, uc.claimTTL)
	if err != nil {
		return nil, fmt.Errorf("RelayUseCase - ClaimPending - uc.outboxRepo.ClaimPending: %w", err)
	}

	return entries, nil
}

func (uc *RelayUseCase) MarkSent(ctx context.Context, entries []*entity.OutboxEntry) error {
	n, err := uc.outboxRepo.MarkSentBatch(ctx, ids(entries), uc.owner)
	if err != nil {
		return fmt.Errorf("RelayUseCase - MarkSent - uc.outboxRepo.MarkSentBatch: %w", err)
	}

	// Our claim was reaped mid-publish; another relay will send these again.
	if int(n) < len(entries) {
		uc.logger.Warn("outbox: %d of %d entries lost their claim before being marked sent", len(entries)-int(n), len(entries))
	}

	for _, e := range entries {
		metrics.OutboxPublished.WithLabelValues(e.EventType).Inc()
	}

	return nil
}

func (uc *RelayUseCase) Release(ctx context.Context, entries []*entity.OutboxEntry) error {
	err := uc.outboxRepo.ReleaseBatch(ctx, ids(entries), uc.owner)
	if err != nil {
		return fmt.Errorf("RelayUseCase - Release - uc.outboxRepo.ReleaseBatch: %w", err)
	}

	metrics.OutboxPublishFailures.Inc()

	return nil
}

func (uc *RelayUseCase) ReleaseStaleClaims(ctx context.Context) error {
	n, err := uc.outboxRepo.ReleaseStaleClaims(ctx, uc.claimTTL)
	if err != nil {
		return fmt.Errorf("RelayUseCase - ReleaseStaleClaims - uc.outboxRepo.ReleaseStaleClaims: %w", err)
	}

	if n > 0 {
		metrics.OutboxReclaimed.Add(float64(n))
		uc.logger.Info("outbox: released stale claims, count = %d", n)
	}

	return nil
}

func (uc *RelayUseCase) Cleanup(ctx context.Context) error {
	count, err := uc.outboxRepo.DeleteSentBefore(ctx, time.Now().UTC().Add(-uc.retention))
	if err != nil {
		return fmt.Errorf("RelayUseCase - Cleanup - uc.outboxRepo.DeleteSentBefore: %w", err)
	}

	if count > 0 {
		uc.logger.Info("outbox: deleted sent entries, count = %d", count)
	}

	return nil
}

func ids(entries []*entity.OutboxEntry) uuid.UUIDs {
	IDs := make(uuid.UUIDs, 0, len(entries))
	for _, e := range entries {
		IDs = append(IDs, e.ID)
	}

	return IDs
}
