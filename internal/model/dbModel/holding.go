package dbModel

type Holding struct {
	HoldingID             string `db:"holding_id"`
	Position              int    `db:"position"`
	Ticker                string `db:"ticker"`
	Name                  string `db:"name"`
	Currency              string `db:"currency"`
	CurrentPriceCents     int64  `db:"current_price_cents"`
	Quantity              int64  `db:"quantity"`
	CurrentPriceTimestamp int64  `db:"current_price_timestamp"`
}
