package holdingStore

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"

	"github.com/KotFed0t/librefolio/internal/model"
	"github.com/KotFed0t/librefolio/utils"
)

var ErrEmptyBatch = errors.New("empty holdings batch")

type Repository interface {
	GetHoldings(ctx context.Context) ([]model.Holding, error)
	ReplaceHoldings(ctx context.Context, holdings []model.Holding) error
}

// HoldingStore is the live view of the persisted batch.
// Readers always get a complete batch: the old one or the new one, never a cleared table.
type HoldingStore struct {
	repo Repository

	replaceMu sync.Mutex // serializes ReplaceAll

	mu          sync.RWMutex
	current     Batch
	subscribers map[uint64]chan Batch
	nextSubID   uint64
}

// Batch is one published set of holdings. Generation grows by one with every publish.
type Batch struct {
	Generation uint64
	Holdings   []model.Holding
}

func (b Batch) clone() Batch {
	return Batch{Generation: b.Generation, Holdings: slices.Clone(b.Holdings)}
}

func New(repo Repository) *HoldingStore {
	return &HoldingStore{
		repo:        repo,
		current:     Batch{Holdings: []model.Holding{}},
		subscribers: make(map[uint64]chan Batch),
	}
}

// Load seeds the view with what the repository holds, e.g. the batch of a previous run.
func (s *HoldingStore) Load(ctx context.Context) error {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "HoldingStore.Load"

	s.replaceMu.Lock()
	defer s.replaceMu.Unlock()

	holdings, err := s.repo.GetHoldings(ctx)
	if err != nil {
		slog.Error("got error from repo.GetHoldings", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return err
	}

	s.publish(holdings)

	slog.Info("holdings loaded", slog.String("rqID", rqID), slog.String("op", op), slog.Int("holdings", len(holdings)))

	return nil
}

// Holdings returns a copy of the current batch.
func (s *HoldingStore) Holdings() []model.Holding {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.current.Holdings)
}

// Generation returns the generation of the current batch.
func (s *HoldingStore) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.current.Generation
}

// ReplaceAll persists holdings as the new batch and then shows it to every subscriber.
// The view is left untouched if the repository fails.
func (s *HoldingStore) ReplaceAll(ctx context.Context, holdings []model.Holding) (err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "HoldingStore.ReplaceAll"

	if len(holdings) == 0 {
		return ErrEmptyBatch
	}

	batch := slices.Clone(holdings)

	s.replaceMu.Lock()
	defer s.replaceMu.Unlock()

	err = s.repo.ReplaceHoldings(ctx, batch)
	if err != nil {
		slog.Error("got error from repo.ReplaceHoldings", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return err
	}

	s.publish(batch)

	return nil
}

// Subscribe returns a subscription whose channel already holds the current batch.
// Slow readers only see the latest batch.
func (s *HoldingStore) Subscribe() *Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSubID
	s.nextSubID++

	ch := make(chan Batch, 1)
	ch <- s.current.clone()
	s.subscribers[id] = ch

	return &Subscription{
		updates: ch,
		closeFn: func() { s.unsubscribe(id) },
	}
}

func (s *HoldingStore) unsubscribe(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ch, ok := s.subscribers[id]; ok {
		delete(s.subscribers, id)
		close(ch)
	}
}

// publish swaps the batch and notifies subscribers. holdings must not be shared with callers.
func (s *HoldingStore) publish(holdings []model.Holding) {
	s.mu.Lock()
	defer s.mu.Unlock()

	batch := Batch{Generation: s.current.Generation + 1, Holdings: holdings}
	s.current = batch

	for _, ch := range s.subscribers {
		// only this method sends and it runs under s.mu, so after the drain the send never blocks
		select {
		case <-ch:
		default:
		}
		ch <- batch.clone()
	}
}

type Subscription struct {
	updates   <-chan Batch
	closeFn   func()
	closeOnce sync.Once
}

// Updates is closed after Close.
func (sub *Subscription) Updates() <-chan Batch {
	return sub.updates
}

func (sub *Subscription) Close() {
	sub.closeOnce.Do(sub.closeFn)
}
