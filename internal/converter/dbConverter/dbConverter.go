package dbConverter

import (
	"github.com/KotFed0t/librefolio/internal/model"
	"github.com/KotFed0t/librefolio/internal/model/dbModel"
)

func ConvertHolding(dbHolding dbModel.Holding) model.Holding {
	return model.Holding{
		ID:             dbHolding.HoldingID,
		Ticker:         dbHolding.Ticker,
		Name:           dbHolding.Name,
		Currency:       dbHolding.Currency,
		PriceCents:     dbHolding.CurrentPriceCents,
		Quantity:       dbHolding.Quantity,
		PriceTimestamp: dbHolding.CurrentPriceTimestamp,
	}
}

// ConvertHoldingsToDb keeps the batch order in the position column.
func ConvertHoldingsToDb(holdings []model.Holding) []dbModel.Holding {
	res := make([]dbModel.Holding, 0, len(holdings))
	for i, h := range holdings {
		res = append(res, dbModel.Holding{
			HoldingID:             h.ID,
			Position:              i,
			Ticker:                h.Ticker,
			Name:                  h.Name,
			Currency:              h.Currency,
			CurrentPriceCents:     h.PriceCents,
			Quantity:              h.Quantity,
			CurrentPriceTimestamp: h.PriceTimestamp,
		})
	}
	return res
}
