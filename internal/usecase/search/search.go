package search

import (
	"context"
	"fmt"
	"time"

	"github.com/andreyxaxa/auction-sync/internal/contracts"
	"github.com/andreyxaxa/auction-sync/internal/entity"
	"github.com/andreyxaxa/auction-sync/internal/infrastructure"
	"github.com/andreyxaxa/auction-sync/internal/metrics"
	"github.com/andreyxaxa/auction-sync/internal/repo"
	"github.com/andreyxaxa/auction-sync/pkg/logger"
)

const _defaultOverlap = time.Minute

type SearchUseCase struct {
	itemRepo repo.ItemProjectionRepo
	source   infrastructure.AuctionSource

	logger logger.Interface

	// overlap is how far behind the watermark a pull starts. A change stamped before a
	// later one but committed after it is still picked up by the next round.
	overlap time.Duration

	now func() time.Time
}

type Option func(*SearchUseCase)

func Overlap(d time.Duration) Option {
	return func(uc *SearchUseCase) {
		if d >= 0 {
			uc.overlap = d
		}
	}
}

func New(itemRepo repo.ItemProjectionRepo, source infrastructure.AuctionSource, l logger.Interface, opts ...Option) *SearchUseCase {
	uc := &SearchUseCase{
		itemRepo: itemRepo,
		source:   source,
		logger:   l,
		overlap:  _defaultOverlap,
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(uc)
	}

	return uc
}

func (uc *SearchUseCase) ProjectCreated(ctx context.Context, e contracts.AuctionCreated) error {
	item := &entity.Item{
		ID:           e.ID,
		Seller:       e.Seller,
		ReservePrice: e.ReservePrice,
		Status:       entity.AuctionStatus(e.Status),
		AuctionEnd:   e.AuctionEnd,
		CreatedAt:    e.CreatedAt,
		UpdatedAt:    e.UpdatedAt,
		Make:         e.Make,
		Model:        e.Model,
		Year:         e.Year,
		Color:        e.Color,
		Mileage:      e.Mileage,
		ImageURL:     e.ImageURL,
	}
	if item.Status == "" {
		item.Status = entity.AuctionLive
	}

	applied, err := uc.itemRepo.Upsert(ctx, item)
	if err != nil {
		return fmt.Errorf("SearchUseCase - ProjectCreated - uc.itemRepo.Upsert: %w", err)
	}

	if !applied {
		uc.logger.Debug("stale AuctionCreated for %s discarded", e.ID)
	}

	return nil
}

func (uc *SearchUseCase) ProjectUpdated(ctx context.Context, e contracts.AuctionUpdated) error {
	details := entity.ItemDetails{
		Make:     e.Make,
		Model:    e.Model,
		Year:     e.Year,
		Color:    e.Color,
		Mileage:  e.Mileage,
		ImageURL: e.ImageURL,
	}

	applied, err := uc.itemRepo.UpdateDetails(ctx, e.ID, details, e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("SearchUseCase - ProjectUpdated - uc.itemRepo.UpdateDetails: %w", err)
	}

	if !applied {
		uc.logger.Debug("stale or early AuctionUpdated for %s discarded", e.ID)
	}

	return nil
}

// ProjectBidPlaced only lets competitive bids touch the high bid view.
func (uc *SearchUseCase) ProjectBidPlaced(ctx context.Context, e contracts.BidPlaced) error {
	if !entity.BidStatus(e.BidStatus).Competitive() {
		return nil
	}

	_, err := uc.itemRepo.ApplyBid(ctx, e.AuctionID, e.ID, e.Amount)
	if err != nil {
		return fmt.Errorf("SearchUseCase - ProjectBidPlaced - uc.itemRepo.ApplyBid: %w", err)
	}

	return nil
}

func (uc *SearchUseCase) ProjectFinished(ctx context.Context, e contracts.AuctionFinished) error {
	finish := entity.Finish{
		AuctionID:  e.AuctionID,
		FinishedAt: e.FinishedAt,
	}
	if e.ItemSold {
		finish.Winner = e.Winner
		finish.Amount = e.Amount
	}

	if err := uc.itemRepo.ApplyFinish(ctx, finish); err != nil {
		return fmt.Errorf("SearchUseCase - ProjectFinished - uc.itemRepo.ApplyFinish: %w", err)
	}

	return nil
}

// ProjectDeleted removes the item from search. Redelivery is a no-op and events older than
// the deletion are discarded afterwards.
func (uc *SearchUseCase) ProjectDeleted(ctx context.Context, e contracts.AuctionDeleted) error {
	removed, err := uc.itemRepo.Remove(ctx, e.ID, e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("SearchUseCase - ProjectDeleted - uc.itemRepo.Remove: %w", err)
	}

	if !removed {
		uc.logger.Debug("AuctionDeleted for %s already applied", e.ID)
	}

	return nil
}

func (uc *SearchUseCase) Search(ctx context.Context, q entity.SearchQuery) (entity.SearchResult, error) {
	if q.Now.IsZero() {
		q.Now = uc.now()
	}

	res, err := uc.itemRepo.Search(ctx, q)
	if err != nil {
		return entity.SearchResult{}, fmt.Errorf("SearchUseCase - Search - uc.itemRepo.Search: %w", err)
	}

	return res, nil
}

// PullUpdatesSince fetches everything the auction service changed after watermark and runs it
// through the same monotonic upsert as the event handlers.
func (uc *SearchUseCase) PullUpdatesSince(ctx context.Context, watermark time.Time) ([]entity.Item, error) {
	items, err := uc.source.ListUpdatedSince(ctx, watermark)
	if err != nil {
		return nil, fmt.Errorf("SearchUseCase - PullUpdatesSince - uc.source.ListUpdatedSince: %w", err)
	}

	metrics.ReconcilePulled.Add(float64(len(items)))

	for i := range items {
		applied, err := uc.itemRepo.Upsert(ctx, &items[i])
		if err != nil {
			return nil, fmt.Errorf("SearchUseCase - PullUpdatesSince - uc.itemRepo.Upsert: %w", err)
		}

		if applied {
			metrics.ReconcileApplied.Inc()
		}
	}

	return items, nil
}

// Reconcile pulls from the local watermark minus the overlap and moves the watermark to the
// newest change seen. Items inside the overlap are read again; the upsert drops them.
func (uc *SearchUseCase) Reconcile(ctx context.Context) (int, error) {
	watermark, err := uc.itemRepo.Watermark(ctx)
	if err != nil {
		return 0, fmt.Errorf("SearchUseCase - Reconcile - uc.itemRepo.Watermark: %w", err)
	}

	since := watermark
	if !since.IsZero() {
		since = since.Add(-uc.overlap)
	}

	items, err := uc.PullUpdatesSince(ctx, since)
	if err != nil {
		return 0, fmt.Errorf("SearchUseCase - Reconcile - uc.PullUpdatesSince: %w", err)
	}

	if len(items) == 0 {
		return 0, nil
	}

	latest := watermark
	for _, item := range items {
		if item.UpdatedAt.After(latest) {
			latest = item.UpdatedAt
		}
	}

	if err := uc.itemRepo.AdvanceWatermark(ctx, latest); err != nil {
		return 0, fmt.Errorf("SearchUseCase - Reconcile - uc.itemRepo.AdvanceWatermark: %w", err)
	}

	uc.logger.Info("reconciled %d items, watermark %s", len(items), latest.Format(time.RFC3339Nano))

	return len(items), nil
}
