package model

// EquityCard is a holding prepared for display.
type EquityCard struct {
	Ticker               string
	Name                 string
	FormattedPrice       string // "$123.45"
	TimeAgo              string // "5 minute(s) ago" or "just now"
	AmountUnits          string // "10 Units", empty when quantity is 0
	AmountFormattedPrice string // price * quantity, empty when 0
}
