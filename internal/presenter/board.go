package presenter

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/KotFed0t/librefolio/internal/holdingStore"
	"github.com/KotFed0t/librefolio/internal/model"
)

type HoldingStore interface {
	Subscribe() *holdingStore.Subscription
	Generation() uint64
}

type snapshot struct {
	generation uint64
	holdings   []model.Holding
	changed    chan struct{} // closed when the next snapshot replaces this one
}

// Board follows the holding store and keeps the latest batch for rendering.
type Board struct {
	store    HoldingStore
	snapshot atomic.Pointer[snapshot]
}

func NewBoard(store HoldingStore) *Board {
	b := &Board{store: store}
	b.snapshot.Store(&snapshot{holdings: []model.Holding{}, changed: make(chan struct{})})
	return b
}

// Run consumes store updates until ctx is done. It must not be called twice.
func (b *Board) Run(ctx context.Context) {
	sub := b.store.Subscribe()
	defer sub.Close()

	slog.Info("board started")
	defer slog.Info("board stopped")

	for {
		select {
		case <-ctx.Done():
			return
		case batch, ok := <-sub.Updates():
			if !ok {
				return
			}
			prev := b.snapshot.Swap(&snapshot{generation: batch.Generation, holdings: batch.Holdings, changed: make(chan struct{})})
			close(prev.changed)
			slog.Debug("board updated", slog.Uint64("generation", batch.Generation), slog.Int("holdings", len(batch.Holdings)))
		}
	}
}

// Holdings returns the latest batch. The slice must not be modified.
func (b *Board) Holdings() []model.Holding {
	return b.snapshot.Load().holdings
}

// Cards returns the display cards of the latest batch.
func (b *Board) Cards(now time.Time) []model.EquityCard {
	return BuildCards(b.Holdings(), now)
}

// WaitCurrent blocks until the board shows the batch the store holds at call time,
// or a later one. It returns ctx.Err() if ctx is done first.
func (b *Board) WaitCurrent(ctx context.Context) error {
	target := b.store.Generation()

	for {
		snap := b.snapshot.Load()
		if snap.generation >= target {
			return nil
		}

		select {
		case <-snap.changed:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
