package presenter

import (
	"cmp"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/KotFed0t/librefolio/internal/model"
	"github.com/Rhymond/go-money"
)

const SupportedCurrency = "USD"

const justNow = "just now"

var timeAgoUnits = []struct {
	size time.Duration
	name string
}{
	{24 * time.Hour, "day(s)"},
	{time.Hour, "hour(s)"},
	{time.Minute, "minute(s)"},
	{time.Second, "second(s)"},
}

// BuildCards orders holdings by held value, largest first, and formats them for display.
// Holdings in other currencies than USD are left out.
func BuildCards(holdings []model.Holding, now time.Time) []model.EquityCard {
	sorted := SortByHeldValue(holdings)

	cards := make([]model.EquityCard, 0, len(sorted))
	for _, h := range sorted {
		if h.Currency != SupportedCurrency {
			slog.Warn("currency not supported yet, holding skipped", slog.String("ticker", h.Ticker), slog.String("currency", h.Currency))
			continue
		}

		cards = append(cards, model.EquityCard{
			Ticker:               h.Ticker,
			Name:                 h.Name,
			FormattedPrice:       FormatCents(h.PriceCents),
			TimeAgo:              TimeAgo(h.PriceTimestamp, now),
			AmountUnits:          amountUnits(h.Quantity),
			AmountFormattedPrice: amountFormatted(h.HeldCents()),
		})
	}

	return cards
}

// SortByHeldValue returns a copy of holdings ordered by price*quantity, largest first.
// Equal values keep their source order.
func SortByHeldValue(holdings []model.Holding) []model.Holding {
	sorted := slices.Clone(holdings)
	slices.SortStableFunc(sorted, func(a, b model.Holding) int {
		return cmp.Compare(b.HeldCents(), a.HeldCents())
	})
	return sorted
}

// FormatCents renders minor units as a dollar amount, e.g. "$1,234.50".
func FormatCents(cents int64) string {
	return money.New(cents, SupportedCurrency).Display()
}

// TimeAgo renders the largest whole unit elapsed since the unix timestamp, e.g. "5 minute(s) ago".
func TimeAgo(timestamp int64, now time.Time) string {
	elapsed := now.Sub(time.Unix(timestamp, 0))

	for _, unit := range timeAgoUnits {
		if n := int64(elapsed / unit.size); n >= 1 {
			return fmt.Sprintf("%d %s ago", n, unit.name)
		}
	}

	return justNow
}

func amountUnits(quantity int64) string {
	if quantity == 0 {
		return ""
	}
	return fmt.Sprintf("%d Units", quantity)
}

func amountFormatted(cents int64) string {
	if cents == 0 {
		return ""
	}
	return FormatCents(cents)
}
