package telebotConverter

import (
	"fmt"
	"strings"
	"time"

	"github.com/KotFed0t/librefolio/internal/model"
	"github.com/KotFed0t/librefolio/internal/model/tg/tgCallback"
	"github.com/KotFed0t/librefolio/internal/presenter"
	tele "gopkg.in/telebot.v4"
)

const (
	appName        = "LibreFolio"
	appDescription = "Shows the equity holdings of your portfolio, largest position first. Prices are in USD."
	noHoldingsText = "No holdings yet"
)

func HomeResponse(cards []model.EquityCard, notice string) (text string, markup *tele.ReplyMarkup) {
	var sb strings.Builder

	if notice != "" {
		sb.WriteString(fmt.Sprintf("ℹ️ %s\n\n", notice))
	}

	sb.WriteString(fmt.Sprintf("📊 %s\n", appName))

	if len(cards) == 0 {
		sb.WriteString(noHoldingsText)
		return sb.String(), navMarkup(model.HomeRoute)
	}

	sb.WriteString("Name | Price | Amount\n\n")

	for _, card := range cards {
		sb.WriteString(fmt.Sprintf("%s · %s\n", card.Ticker, card.Name))
		sb.WriteString(fmt.Sprintf("   ▸ %s · %s\n", card.FormattedPrice, card.TimeAgo))

		if card.AmountUnits != "" {
			sb.WriteString(fmt.Sprintf("   ▸ %s · %s\n", card.AmountUnits, card.AmountFormattedPrice))
		}

		sb.WriteString("\n")
	}

	return strings.TrimRight(sb.String(), "\n"), navMarkup(model.HomeRoute)
}

// AboutResponse renders the app description and the last sync outcome.
// found is false when no sync has been recorded yet.
func AboutResponse(status model.SyncStatus, found bool, now time.Time) (text string, markup *tele.ReplyMarkup) {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("ℹ️ %s\n%s\n\n", appName, appDescription))

	if !found {
		sb.WriteString("Last sync: never")
		return sb.String(), navMarkup(model.AboutRoute)
	}

	sb.WriteString(fmt.Sprintf("Last sync attempt: %s\n", presenter.TimeAgo(status.LastAttemptAt.Unix(), now)))

	if status.HasSucceeded() {
		sb.WriteString(fmt.Sprintf("Last successful sync: %s\n", presenter.TimeAgo(status.LastSuccessAt.Unix(), now)))
		sb.WriteString(fmt.Sprintf("Holdings synced: %d\n", status.HoldingsCount))
	} else {
		sb.WriteString("Last successful sync: never\n")
	}

	if status.LastError != "" {
		sb.WriteString(fmt.Sprintf("Last error: %s\n", status.LastError))
	}

	return strings.TrimRight(sb.String(), "\n"), navMarkup(model.AboutRoute)
}

// navMarkup links to the screen that is not shown, plus the holdings actions.
func navMarkup(route model.Route) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}

	var navBtn tele.Btn
	if route == model.AboutRoute {
		navBtn = markup.Data("📊 Holdings", tgCallback.Home)
	} else {
		navBtn = markup.Data("ℹ️ About", tgCallback.About)
	}

	markup.Inline(
		markup.Row(
			markup.Data("🔄 Refresh", tgCallback.Refresh),
			markup.Data("📄 Export", tgCallback.Export),
		),
		markup.Row(navBtn),
	)

	return markup
}
