package bid

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/andreyxaxa/auction-sync/internal/contracts"
	"github.com/andreyxaxa/auction-sync/internal/entity"
	"github.com/andreyxaxa/auction-sync/pkg/types/errs"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// memStore backs both fake repos so a failed commit can roll back bids and mirrors together.
type memStore struct {
	mu      sync.Mutex
	mirrors map[uuid.UUID]entity.AuctionMirror
	bids    []entity.Bid
}

func newMemStore() *memStore {
	return &memStore{mirrors: map[uuid.UUID]entity.AuctionMirror{}}
}

type memMirrorRepo struct{ s *memStore }

func (r memMirrorRepo) Insert(_ context.Context, m *entity.AuctionMirror) (bool, error) {
	if _, ok := r.s.mirrors[m.ID]; ok {
		return false, nil
	}
	r.s.mirrors[m.ID] = *m

	return true, nil
}

func (r memMirrorRepo) GetByID(_ context.Context, id uuid.UUID) (*entity.AuctionMirror, error) {
	m, ok := r.s.mirrors[id]
	if !ok {
		return nil, errs.ErrRecordNotFound
	}

	return &m, nil
}

func (r memMirrorRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*entity.AuctionMirror, error) {
	return r.GetByID(ctx, id)
}

func (r memMirrorRepo) FinishIfDue(_ context.Context, id uuid.UUID, now time.Time) (bool, error) {
	m, ok := r.s.mirrors[id]
	if !ok || m.Status != entity.AuctionLive || m.AuctionEnd.After(now) {
		return false, nil
	}

	m.Status = entity.AuctionFinished
	r.s.mirrors[id] = m

	return true, nil
}

func (r memMirrorRepo) ListDue(_ context.Context, now time.Time, limit int) ([]uuid.UUID, error) {
	var IDs []uuid.UUID
	for id, m := range r.s.mirrors {
		if m.Status == entity.AuctionLive && !m.AuctionEnd.After(now) && len(IDs) < limit {
			IDs = append(IDs, id)
		}
	}

	return IDs, nil
}

func (r memMirrorRepo) MarkDeleted(_ context.Context, id uuid.UUID, seller string, deletedAt time.Time) error {
	m, ok := r.s.mirrors[id]
	if !ok {
		m = entity.AuctionMirror{ID: id, Seller: seller, AuctionEnd: deletedAt}
	}
	m.Status = entity.AuctionDeleted
	if deletedAt.After(m.UpdatedAt) {
		m.UpdatedAt = deletedAt
	}
	r.s.mirrors[id] = m

	return nil
}

type memBidRepo struct{ s *memStore }

func (r memBidRepo) Create(_ context.Context, b *entity.Bid) error {
	r.s.bids = append(r.s.bids, *b)

	return nil
}

func (r memBidRepo) HighestCompetitive(_ context.Context, auctionID uuid.UUID) (*entity.Bid, error) {
	var best *entity.Bid
	for i := range r.s.bids {
		b := r.s.bids[i]
		if b.AuctionID != auctionID || !b.Status.Competitive() {
			continue
		}
		if best == nil || b.Amount.GreaterThan(best.Amount) {
			best = &b
		}
	}

	return best, nil
}

func (r memBidRepo) ListByAuction(_ context.Context, auctionID uuid.UUID) ([]*entity.Bid, error) {
	var res []*entity.Bid
	for i := range r.s.bids {
		if r.s.bids[i].AuctionID == auctionID {
			b := r.s.bids[i]
			res = append(res, &b)
		}
	}

	slices.SortFunc(res, func(a, b *entity.Bid) int { return b.BidTime.Compare(a.BidTime) })

	return res, nil
}

// memOutbox serializes commits like the row lock does and rolls the store back on error.
type memOutbox struct {
	s      *memStore
	events []contracts.Event
}

func (o *memOutbox) Commit(ctx context.Context, change func(ctx context.Context) (contracts.Event, error)) error {
	o.s.mu.Lock()
	defer o.s.mu.Unlock()

	mirrors := make(map[uuid.UUID]entity.AuctionMirror, len(o.s.mirrors))
	for k, v := range o.s.mirrors {
		mirrors[k] = v
	}
	bids := slices.Clone(o.s.bids)

	event, err := change(ctx)
	if err != nil {
		o.s.mirrors, o.s.bids = mirrors, bids

		return err
	}

	if event != nil {
		o.events = append(o.events, event)
	}

	return nil
}

type mockBidRepo struct {
	mock.Mock
}

func (m *mockBidRepo) Create(ctx context.Context, b *entity.Bid) error {
	return m.Called(ctx, b).Error(0)
}

func (m *mockBidRepo) HighestCompetitive(ctx context.Context, auctionID uuid.UUID) (*entity.Bid, error) {
	args := m.Called(ctx, auctionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*entity.Bid), args.Error(1)
}

func (m *mockBidRepo) ListByAuction(ctx context.Context, auctionID uuid.UUID) ([]*entity.Bid, error) {
	args := m.Called(ctx, auctionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*entity.Bid), args.Error(1)
}
