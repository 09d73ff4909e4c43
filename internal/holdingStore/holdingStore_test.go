package holdingStore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/KotFed0t/librefolio/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	mu       sync.Mutex
	holdings []model.Holding
	replaces int
	err      error
}

func (r *fakeRepo) GetHoldings(context.Context) ([]model.Holding, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.err != nil {
		return nil, r.err
	}
	return append([]model.Holding{}, r.holdings...), nil
}

func (r *fakeRepo) ReplaceHoldings(_ context.Context, holdings []model.Holding) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.err != nil {
		return r.err
	}
	r.replaces++
	r.holdings = append([]model.Holding{}, holdings...)
	return nil
}

// batch builds n holdings tagged with gen so that a mixed batch is detectable.
func batch(gen, n int) []model.Holding {
	res := make([]model.Holding, 0, n)
	for i := 0; i < n; i++ {
		res = append(res, model.Holding{
			ID:         fmt.Sprint(i),
			Ticker:     fmt.Sprintf("G%d", gen),
			Currency:   "USD",
			PriceCents: int64(gen),
			Quantity:   1,
		})
	}
	return res
}

func TestSubscribe_InitialValueIsEmpty(t *testing.T) {
	store := New(&fakeRepo{})

	sub := store.Subscribe()
	defer sub.Close()

	initial := <-sub.Updates()
	assert.NotNil(t, initial.Holdings)
	assert.Empty(t, initial.Holdings)
	assert.Zero(t, initial.Generation)
	assert.Empty(t, store.Holdings())
}

func TestReplaceAll_PublishesBatch(t *testing.T) {
	repo := &fakeRepo{}
	store := New(repo)

	sub := store.Subscribe()
	defer sub.Close()
	<-sub.Updates()

	newBatch := batch(1, 3)
	require.NoError(t, store.ReplaceAll(context.Background(), newBatch))

	assert.Equal(t, Batch{Generation: 1, Holdings: newBatch}, <-sub.Updates())
	assert.Equal(t, newBatch, store.Holdings())
	assert.Equal(t, newBatch, repo.holdings)
	assert.Equal(t, uint64(1), store.Generation())

	late := store.Subscribe()
	defer late.Close()
	assert.Equal(t, Batch{Generation: 1, Holdings: newBatch}, <-late.Updates())
}

func TestReplaceAll_EmptyBatch(t *testing.T) {
	repo := &fakeRepo{}
	store := New(repo)

	err := store.ReplaceAll(context.Background(), nil)
	require.ErrorIs(t, err, ErrEmptyBatch)
	assert.Zero(t, repo.replaces)
}

func TestReplaceAll_RepositoryFailureKeepsView(t *testing.T) {
	repo := &fakeRepo{}
	store := New(repo)

	first := batch(1, 2)
	require.NoError(t, store.ReplaceAll(context.Background(), first))

	sub := store.Subscribe()
	defer sub.Close()
	<-sub.Updates()

	repo.err = errors.New("connection reset")
	err := store.ReplaceAll(context.Background(), batch(2, 2))
	require.Error(t, err)

	assert.Equal(t, first, store.Holdings())
	assert.Equal(t, uint64(1), store.Generation())
	select {
	case got := <-sub.Updates():
		t.Fatalf("unexpected emission after failed replace: %v", got)
	default:
	}
}

func TestLoad(t *testing.T) {
	stored := batch(7, 4)
	store := New(&fakeRepo{holdings: stored})

	require.NoError(t, store.Load(context.Background()))
	assert.Equal(t, stored, store.Holdings())

	failing := New(&fakeRepo{err: errors.New("db down")})
	require.Error(t, failing.Load(context.Background()))
	assert.Empty(t, failing.Holdings())
}

func TestHoldings_ReturnsCopy(t *testing.T) {
	store := New(&fakeRepo{})
	require.NoError(t, store.ReplaceAll(context.Background(), batch(1, 1)))

	got := store.Holdings()
	got[0].Ticker = "CHANGED"

	assert.Equal(t, "G1", store.Holdings()[0].Ticker)
}

func TestSubscription_Close(t *testing.T) {
	store := New(&fakeRepo{})
	sub := store.Subscribe()
	<-sub.Updates()

	sub.Close()
	sub.Close()

	_, ok := <-sub.Updates()
	assert.False(t, ok)

	require.NoError(t, store.ReplaceAll(context.Background(), batch(1, 1)))
}

// Subscribers must never see an empty or mixed batch while batches are replaced.
func TestReplaceAll_ConcurrentSubscribersSeeWholeBatches(t *testing.T) {
	const (
		generations = 200
		batchSize   = 5
		subscribers = 8
	)

	store := New(&fakeRepo{})
	require.NoError(t, store.ReplaceAll(context.Background(), batch(0, batchSize)))

	var wg sync.WaitGroup
	errs := make(chan error, subscribers*2)
	subs := make([]*Subscription, 0, subscribers)

	for i := 0; i < subscribers; i++ {
		sub := store.Subscribe()
		subs = append(subs, sub)

		wg.Add(1)
		go func() {
			defer wg.Done()
			var lastGen uint64
			for update := range sub.Updates() {
				if update.Generation < lastGen {
					errs <- fmt.Errorf("generation went back from %d to %d", lastGen, update.Generation)
					return
				}
				lastGen = update.Generation
				if err := checkWholeBatch(update.Holdings, batchSize); err != nil {
					errs <- err
					return
				}
			}
		}()
	}

	var readers sync.WaitGroup
	stop := make(chan struct{})
	readers.Add(1)
	go func() {
		defer readers.Done()
		for {
			select {
			case <-stop:
				return
			default:
			}
			if err := checkWholeBatch(store.Holdings(), batchSize); err != nil {
				errs <- err
				return
			}
		}
	}()

	for gen := 1; gen <= generations; gen++ {
		require.NoError(t, store.ReplaceAll(context.Background(), batch(gen, batchSize)))
	}

	close(stop)
	readers.Wait()

	for _, sub := range subs {
		sub.Close()
	}
	wg.Wait()

	select {
	case err := <-errs:
		t.Fatal(err)
	default:
	}

	assert.Equal(t, batch(generations, batchSize), store.Holdings())
	assert.Equal(t, uint64(generations+1), store.Generation())
}

func checkWholeBatch(holdings []model.Holding, size int) error {
	if len(holdings) != size {
		return fmt.Errorf("observed batch of %d holdings, want %d", len(holdings), size)
	}
	for _, h := range holdings {
		if h.Ticker != holdings[0].Ticker {
			return fmt.Errorf("observed mixed batch: %s and %s", holdings[0].Ticker, h.Ticker)
		}
	}
	return nil
}
