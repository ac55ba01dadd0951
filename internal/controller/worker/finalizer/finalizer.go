package finalizer

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/andreyxaxa/auction-sync/internal/usecase"
	"github.com/andreyxaxa/auction-sync/pkg/logger"
)

// Finalizer periodically closes auctions whose end time has passed.
// Running several instances is safe; the finish transition is a compare-and-set.
type Finalizer struct {
	uc     usecase.BidUseCase
	logger logger.Interface

	interval  time.Duration
	timeout   time.Duration
	batchSize int

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	started atomic.Bool
}

func New(uc usecase.BidUseCase, l logger.Interface, interval, timeout time.Duration, batchSize int) *Finalizer {
	return &Finalizer{
		uc:        uc,
		logger:    l,
		interval:  interval,
		timeout:   timeout,
		batchSize: batchSize,
	}
}

func (f *Finalizer) Start(ctx context.Context) error {
	if !f.started.CompareAndSwap(false, true) {
		return fmt.Errorf("Finalizer - Start - worker already started")
	}

	f.ctx, f.cancel = context.WithCancel(ctx)

	f.wg.Add(1)
	go func() {
		defer f.wg.Done()

		ticker := time.NewTicker(f.interval)
		defer ticker.Stop()

		for {
			select {
			case <-f.ctx.Done():
				return
			case <-ticker.C:
				f.sweep()
			}
		}
	}()

	return nil
}

func (f *Finalizer) sweep() {
	sweepCtx, sweepCancel := context.WithTimeout(f.ctx, f.timeout)
	defer sweepCancel()

	n, err := f.uc.FinalizeDue(sweepCtx, f.batchSize)
	if err != nil {
		f.logger.Error(err, "Finalizer - sweep - f.uc.FinalizeDue")
		return
	}

	if n > 0 {
		f.logger.Info("finalized auctions, count = %d", n)
	}
}

func (f *Finalizer) Shutdown(ctx context.Context) error {
	if !f.started.Load() {
		return nil
	}

	if f.cancel != nil {
		f.cancel()
	}

	done := make(chan struct{})

	go func() {
		f.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("Finalizer - Shutdown: %w", ctx.Err())
	}
}
