package reconcile

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/andreyxaxa/auction-sync/internal/usecase"
	"github.com/andreyxaxa/auction-sync/pkg/logger"
)

// Reconciler pulls missed auction changes into the search projection, once at startup
// and then on every interval.
type Reconciler struct {
	uc     usecase.SearchUseCase
	logger logger.Interface

	interval time.Duration
	timeout  time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	started atomic.Bool
}

func New(uc usecase.SearchUseCase, l logger.Interface, interval, timeout time.Duration) *Reconciler {
	return &Reconciler{
		uc:       uc,
		logger:   l,
		interval: interval,
		timeout:  timeout,
	}
}

func (r *Reconciler) Start(ctx context.Context) error {
	if !r.started.CompareAndSwap(false, true) {
		return fmt.Errorf("Reconciler - Start - worker already started")
	}

	r.ctx, r.cancel = context.WithCancel(ctx)

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		r.run()

		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()

		for {
			select {
			case <-r.ctx.Done():
				return
			case <-ticker.C:
				r.run()
			}
		}
	}()

	return nil
}

// run never fails the service: an unreachable auction service only delays freshness.
func (r *Reconciler) run() {
	runCtx, runCancel := context.WithTimeout(r.ctx, r.timeout)
	defer runCancel()

	_, err := r.uc.Reconcile(runCtx)
	if err != nil {
		r.logger.Error(err, "Reconciler - run - r.uc.Reconcile")
	}
}

func (r *Reconciler) Shutdown(ctx context.Context) error {
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
		return fmt.Errorf("Reconciler - Shutdown: %w", ctx.Err())
	}
}
