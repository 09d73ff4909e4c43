package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/KotFed0t/librefolio/internal/converter/dbConverter"
	"github.com/KotFed0t/librefolio/internal/model"
	"github.com/KotFed0t/librefolio/internal/model/dbModel"
	"github.com/KotFed0t/librefolio/utils"
)

// insertBatchSize keeps one insert below the postgres limit of 65535 bind parameters.
const insertBatchSize = 1000

func (p *Postgres) GetHoldings(ctx context.Context) (holdings []model.Holding, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.GetHoldings"
	query := `
		SELECT holding_id, position, ticker, name, currency, current_price_cents, quantity, current_price_timestamp
		FROM holdings
		ORDER BY position
		`

	slog.Debug("GetHoldings start", slog.String("rqID", rqID), slog.String("op", op), slog.String("query", query))
	defer func() {
		if err != nil {
			slog.Error("GetHoldings failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("GetHoldings completed", slog.String("rqID", rqID), slog.String("op", op), slog.Int("holdings", len(holdings)))
		}
	}()

	rows, err := p.txOrDb(ctx).QueryxContext(ctx, query)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	holdings = make([]model.Holding, 0)
	for rows.Next() {
		var holding dbModel.Holding
		err = rows.StructScan(&holding)
		if err != nil {
			return nil, err
		}
		holdings = append(holdings, dbConverter.ConvertHolding(holding))
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return holdings, nil
}

// ReplaceHoldings swaps the whole table content for holdings in one transaction.
// On any error the previous batch stays in place.
func (p *Postgres) ReplaceHoldings(ctx context.Context, holdings []model.Holding) (err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.ReplaceHoldings"

	slog.Debug("ReplaceHoldings start", slog.String("rqID", rqID), slog.String("op", op), slog.Int("holdings", len(holdings)))
	defer func() {
		if err != nil {
			slog.Error("ReplaceHoldings failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("ReplaceHoldings completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	return p.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := p.deleteHoldings(ctx); err != nil {
			return fmt.Errorf("delete holdings: %w", err)
		}

		if err := p.insertHoldings(ctx, holdings); err != nil {
			return fmt.Errorf("insert holdings: %w", err)
		}

		return nil
	})
}

func (p *Postgres) deleteHoldings(ctx context.Context) error {
	_, err := p.txOrDb(ctx).ExecContext(ctx, `DELETE FROM holdings`)
	return err
}

func (p *Postgres) insertHoldings(ctx context.Context, holdings []model.Holding) error {
	if len(holdings) == 0 {
		return nil
	}

	query := `
		INSERT INTO holdings (
			holding_id, position, ticker, name, currency,
			current_price_cents, quantity, current_price_timestamp
		)
		VALUES (
			:holding_id, :position, :ticker, :name, :currency,
			:current_price_cents, :quantity, :current_price_timestamp
		)`

	rows := dbConverter.ConvertHoldingsToDb(holdings)
	for start := 0; start < len(rows); start += insertBatchSize {
		end := min(start+insertBatchSize, len(rows))
		if _, err := p.txOrDb(ctx).NamedExecContext(ctx, query, rows[start:end]); err != nil {
			return fmt.Errorf("rows %d-%d: %w", start, end-1, err)
		}
	}

	return nil
}
