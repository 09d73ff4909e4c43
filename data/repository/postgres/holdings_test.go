package postgres

import (
	"context"
	"strconv"
	"testing"

	"github.com/KotFed0t/librefolio/config"
	"github.com/KotFed0t/librefolio/internal/model"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3" // sqlite3 driver
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const holdingsSchema = `
	CREATE TABLE holdings (
		holding_id              TEXT PRIMARY KEY,
		position                INTEGER NOT NULL,
		ticker                  TEXT NOT NULL,
		name                    TEXT NOT NULL,
		currency                TEXT NOT NULL,
		current_price_cents     BIGINT NOT NULL,
		quantity                BIGINT NOT NULL DEFAULT 0,
		current_price_timestamp BIGINT NOT NULL
	)`

// setupTestRepo opens an in-memory sqlite database with the holdings table.
func setupTestRepo(t *testing.T) *Postgres {
	t.Helper()

	db, err := sqlx.Connect("sqlite3", ":memory:")
	require.NoError(t, err, "failed to open test database")

	// every new connection to :memory: is a separate database
	db.SetMaxOpenConns(1)

	t.Cleanup(func() {
		_ = db.Close()
	})

	db.MustExec(holdingsSchema)

	return NewPostgres(&config.Config{}, db)
}

func holding(id, ticker string, price, quantity int64) model.Holding {
	return model.Holding{
		ID:             id,
		Ticker:         ticker,
		Name:           ticker + " Inc.",
		Currency:       "USD",
		PriceCents:     price,
		Quantity:       quantity,
		PriceTimestamp: 1681845832,
	}
}

func TestGetHoldings_EmptyTable(t *testing.T) {
	repo := setupTestRepo(t)

	holdings, err := repo.GetHoldings(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, holdings)
	assert.Empty(t, holdings)
}

func TestReplaceHoldings_ReplacesWholeBatch(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	first := []model.Holding{
		holding("0", "AAPL", 17000, 3),
		holding("1", "MSFT", 29000, 0),
		holding("2", "TSLA", 18000, 5),
	}
	require.NoError(t, repo.ReplaceHoldings(ctx, first))

	got, err := repo.GetHoldings(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, got)

	second := []model.Holding{
		holding("0", "GOOG", 10500, 1),
		holding("3", "NFLX", 33000, 2),
	}
	require.NoError(t, repo.ReplaceHoldings(ctx, second))

	got, err = repo.GetHoldings(ctx)
	require.NoError(t, err)
	assert.Equal(t, second, got)
}

func TestReplaceHoldings_KeepsBatchOrder(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	batch := make([]model.Holding, 0, 12)
	for _, id := range []string{"0", "2", "10", "11", "3"} {
		batch = append(batch, holding(id, "T"+id, 100, 1))
	}
	require.NoError(t, repo.ReplaceHoldings(ctx, batch))

	got, err := repo.GetHoldings(ctx)
	require.NoError(t, err)
	assert.Equal(t, batch, got)
}

func TestReplaceHoldings_SpansSeveralInserts(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	count := 2*insertBatchSize + 7
	batch := make([]model.Holding, 0, count)
	for i := 0; i < count; i++ {
		id := strconv.Itoa(i)
		batch = append(batch, holding(id, "T"+id, int64(i), 1))
	}
	require.NoError(t, repo.ReplaceHoldings(ctx, batch))

	got, err := repo.GetHoldings(ctx)
	require.NoError(t, err)
	assert.Equal(t, batch, got)
}

func TestReplaceHoldings_LateChunkFailureKeepsPreviousBatch(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	previous := []model.Holding{holding("0", "AAPL", 17000, 3)}
	require.NoError(t, repo.ReplaceHoldings(ctx, previous))

	// the duplicate lands in the second insert, after the first one was applied
	batch := make([]model.Holding, 0, insertBatchSize+1)
	for i := 0; i < insertBatchSize; i++ {
		id := strconv.Itoa(i)
		batch = append(batch, holding(id, "T"+id, 100, 1))
	}
	batch = append(batch, holding("0", "DUP", 100, 1))

	require.Error(t, repo.ReplaceHoldings(ctx, batch))

	got, err := repo.GetHoldings(ctx)
	require.NoError(t, err)
	assert.Equal(t, previous, got)
}

func TestReplaceHoldings_FailureKeepsPreviousBatch(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	previous := []model.Holding{holding("0", "AAPL", 17000, 3)}
	require.NoError(t, repo.ReplaceHoldings(ctx, previous))

	// duplicate primary key makes the insert fail after the delete ran
	broken := []model.Holding{
		holding("0", "GOOG", 10500, 1),
		holding("0", "NFLX", 33000, 2),
	}
	err := repo.ReplaceHoldings(ctx, broken)
	require.Error(t, err)

	got, err := repo.GetHoldings(ctx)
	require.NoError(t, err)
	assert.Equal(t, previous, got)
}

func TestReplaceHoldings_CancelledContext(t *testing.T) {
	repo := setupTestRepo(t)

	previous := []model.Holding{holding("0", "AAPL", 17000, 3)}
	require.NoError(t, repo.ReplaceHoldings(context.Background(), previous))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := repo.ReplaceHoldings(ctx, []model.Holding{holding("0", "GOOG", 10500, 1)})
	require.Error(t, err)

	got, err := repo.GetHoldings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, previous, got)
}
