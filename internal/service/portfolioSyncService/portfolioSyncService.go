package portfolioSyncService

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/KotFed0t/librefolio/internal/holdingValidator"
	"github.com/KotFed0t/librefolio/internal/model"
	"github.com/KotFed0t/librefolio/internal/service"
	"github.com/KotFed0t/librefolio/utils"
)

type PortfolioApi interface {
	GetStocks(ctx context.Context) ([]any, error)
}

type HoldingStore interface {
	ReplaceAll(ctx context.Context, holdings []model.Holding) error
}

type Cache interface {
	SetSyncStatus(ctx context.Context, status model.SyncStatus) error
	GetSyncStatus(ctx context.Context) (model.SyncStatus, error)
}

type PortfolioSyncService struct {
	portfolioApi PortfolioApi
	store        HoldingStore
	cache        Cache
	now          func() time.Time

	running sync.Mutex
}

func New(portfolioApi PortfolioApi, store HoldingStore, cache Cache) *PortfolioSyncService {
	return &PortfolioSyncService{
		portfolioApi: portfolioApi,
		store:        store,
		cache:        cache,
		now:          time.Now,
	}
}

// SyncHoldings runs one fetch-validate-replace cycle.
// The store is replaced only when at least one holding validated; any failure leaves it as it was.
func (s *PortfolioSyncService) SyncHoldings(ctx context.Context) (err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "PortfolioSyncService.SyncHoldings"

	if !s.running.TryLock() {
		slog.Warn("holdings sync skipped, previous cycle still running", slog.String("rqID", rqID), slog.String("op", op))
		return service.ErrSyncInProgress
	}
	defer s.running.Unlock()

	startedAt := s.now()
	holdingsCount := 0

	slog.Info("SyncHoldings start", slog.String("rqID", rqID), slog.String("op", op))
	defer func() {
		s.saveStatus(ctx, startedAt, holdingsCount, err)

		if err != nil {
			slog.Error("SyncHoldings failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Info("SyncHoldings completed", slog.String("rqID", rqID), slog.String("op", op), slog.Int("holdings", holdingsCount))
		}
	}()

	stocks, err := s.portfolioApi.GetStocks(ctx)
	if err != nil {
		return fmt.Errorf("get stocks: %w", err)
	}

	holdings := s.validateStocks(ctx, stocks)
	if len(holdings) == 0 {
		return service.ErrNoEntries
	}

	// the cycle may have been abandoned while the request was in flight
	if err = ctx.Err(); err != nil {
		return err
	}

	slog.Debug("replacing holdings", slog.String("rqID", rqID), slog.String("op", op), slog.Int("holdings", len(holdings)))

	err = s.store.ReplaceAll(ctx, holdings)
	if err != nil {
		return fmt.Errorf("replace holdings: %w", err)
	}

	holdingsCount = len(holdings)

	return nil
}

// validateStocks keeps the elements that are objects and pass validation.
// The holding id is the element's index in the stocks array.
func (s *PortfolioSyncService) validateStocks(ctx context.Context, stocks []any) []model.Holding {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "PortfolioSyncService.validateStocks"

	holdings := make([]model.Holding, 0, len(stocks))
	for i, stock := range stocks {
		holdingID := strconv.Itoa(i)

		raw, ok := stock.(map[string]any)
		if !ok {
			slog.Warn("stock is not an object, skipped", slog.String("rqID", rqID), slog.String("op", op), slog.String("holdingID", holdingID), slog.String("type", fmt.Sprintf("%T", stock)))
			continue
		}

		holding, err := holdingValidator.Validate(holdingID, raw)
		if err != nil {
			slog.Warn("stock rejected", slog.String("rqID", rqID), slog.String("op", op), slog.String("holdingID", holdingID), slog.String("err", err.Error()))
			continue
		}

		holdings = append(holdings, holding)
	}

	return holdings
}

// saveStatus records the outcome for the about screen; a cache failure does not change the outcome.
func (s *PortfolioSyncService) saveStatus(ctx context.Context, startedAt time.Time, holdingsCount int, syncErr error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "PortfolioSyncService.saveStatus"

	// the cycle context may be cancelled already
	ctx = context.WithoutCancel(ctx)

	status, err := s.cache.GetSyncStatus(ctx)
	if err != nil {
		status = model.SyncStatus{}
	}

	status.LastAttemptAt = startedAt
	if syncErr != nil {
		status.LastError = syncErr.Error()
	} else {
		status.LastSuccessAt = startedAt
		status.HoldingsCount = holdingsCount
		status.LastError = ""
	}

	if err = s.cache.SetSyncStatus(ctx, status); err != nil {
		slog.Warn("can't save sync status", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
	}
}

// LastStatus returns the outcome of the most recent cycle.
func (s *PortfolioSyncService) LastStatus(ctx context.Context) (model.SyncStatus, error) {
	return s.cache.GetSyncStatus(ctx)
}
