package outbox

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/andreyxaxa/auction-sync/internal/infrastructure"
	"github.com/andreyxaxa/auction-sync/internal/usecase"
	"github.com/andreyxaxa/auction-sync/pkg/logger"
)

// OutboxRelay moves committed outbox entries onto the bus. Delivery is at least once:
// an entry is marked sent only after the bus acknowledged it, so a crash in between
// publishes it again.
type OutboxRelay struct {
	uc     usecase.OutboxRelayUseCase
	es     infrastructure.EventsSender
	logger logger.Interface

	pollInterval        time.Duration
	reapInterval        time.Duration
	cleanupInterval     time.Duration
	processBatchTimeout time.Duration
	batchSize           int

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	started atomic.Bool
}

func New(
	uc usecase.OutboxRelayUseCase,
	es infrastructure.EventsSender,
	l logger.Interface,
	pollInterval time.Duration,
	reapInterval time.Duration,
	cleanupInterval time.Duration,
	processBatchTimeout time.Duration,
	batchSize int,
) *OutboxRelay {
	return &OutboxRelay{
		uc:                  uc,
		es:                  es,
		logger:              l,
		pollInterval:        pollInterval,
		reapInterval:        reapInterval,
		cleanupInterval:     cleanupInterval,
		processBatchTimeout: processBatchTimeout,
		batchSize:           batchSize,
	}
}

func (r *OutboxRelay) Start(ctx context.Context) error {
	if !r.started.CompareAndSwap(false, true) {
		return fmt.Errorf("OutboxRelay - Start - worker already started")
	}

	r.ctx, r.cancel = context.WithCancel(ctx)

	// 1. publish pending entries; a full batch means there is a backlog, so keep going
	r.worker(r.pollInterval, func() {
		for r.ctx.Err() == nil {
			batchCtx, batchCancel := context.WithTimeout(r.ctx, r.processBatchTimeout)
			n := r.PublishBatch(batchCtx)
			batchCancel()

			if n < r.batchSize {
				return
			}
		}
	})

	// 2. release claims left behind by a crashed relay
	r.worker(r.reapInterval, func() {
		err := r.uc.ReleaseStaleClaims(r.ctx)
		if err != nil {
			r.logger.Error(err, "OutboxRelay - Start - worker - r.uc.ReleaseStaleClaims")
		}
	})

	// 3. drop entries that were sent long ago
	r.worker(r.cleanupInterval, func() {
		err := r.uc.Cleanup(r.ctx)
		if err != nil {
			r.logger.Error(err, "OutboxRelay - Start - worker - r.uc.Cleanup")
		}
	})

	return nil
}

// PublishBatch runs one claim, publish, mark cycle and reports how many entries were sent.
func (r *OutboxRelay) PublishBatch(ctx context.Context) int {
	// 1. claim the oldest unsent entries for this relay
	entries, err := r.uc.ClaimPending(ctx, r.batchSize)
	if err != nil {
		r.logger.Error(err, "OutboxRelay - PublishBatch - r.uc.ClaimPending")

		return 0
	}
	if len(entries) == 0 {
		return 0
	}

	// 2. publish in creation order
	err = r.es.SendEvents(ctx, entries)
	if err != nil {
		r.logger.Error(err, "OutboxRelay - PublishBatch - r.es.SendEvents")
		// 2.1 give the claim back; the entries are retried on a later poll
		relErr := r.uc.Release(context.WithoutCancel(ctx), entries)
		if relErr != nil {
			r.logger.Error(relErr, "OutboxRelay - PublishBatch - r.uc.Release")
		}

		return 0
	}

	// 3. mark sent; if this fails the entries are published again later
	err = r.uc.MarkSent(context.WithoutCancel(ctx), entries)
	if err != nil {
		r.logger.Error(err, "OutboxRelay - PublishBatch - r.uc.MarkSent")

		return 0
	}

	return len(entries)
}

func (r *OutboxRelay) worker(interval time.Duration, task func()) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-r.ctx.Done():
				return
			case <-ticker.C:
				task()
			}
		}
	}()
}

func (r *OutboxRelay) Shutdown(ctx context.Context) error {
	if !r.started.Load() {
		return nil
	}

	if r.cancel != nil {
		r.cancel()
	}

	done := make(chan struct{})

	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("OutboxRelay - Shutdown: %w", ctx.Err())
	}
}
