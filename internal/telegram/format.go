package telegram

import (
	"fmt"
	"strconv"
	"strings"

	"tickersentry/internal/models"
)

// FormatOptions control the emphasis marks in announcement messages.
type FormatOptions struct {
	QuoteAsset                string
	MarkPercentThreshold      float64
	MarkDailyPercentThreshold float64
	MarkVolumeThreshold       float64
}

// formatPrice prints a price with its full natural precision, or two decimals
// for whole numbers so "42" reads as a price.
func formatPrice(p float64) string {
	s := strconv.FormatFloat(p, 'f', -1, 64)
	if strings.ContainsRune(s, '.') {
		return s
	}
	return strconv.FormatFloat(p, 'f', 2, 64)
}

// formatVolume renders a compact volume ("1.2M", "987K"), underlined and bold
// above the configured threshold.
func formatVolume(v float64, markAbove float64) string {
	compact := compactNumber(v)
	if v > markAbove {
		return "<u><b>" + compact + "</b></u>"
	}
	return compact
}

func compactNumber(v float64) string {
	switch {
	case v >= 1e12:
		return trimCompact(v/1e12) + "T"
	case v >= 1e9:
		return trimCompact(v/1e9) + "B"
	case v >= 1e6:
		return trimCompact(v/1e6) + "M"
	case v >= 1e3:
		return trimCompact(v/1e3) + "K"
	default:
		return strconv.FormatInt(int64(v), 10)
	}
}

func trimCompact(v float64) string {
	s := strconv.FormatFloat(v, 'f', 1, 64)
	return strings.TrimSuffix(s, ".0")
}

// markPercent renders a percent with one decimal, emphasized beyond the
// threshold.
func markPercent(pct float64, markAbove float64) string {
	s := strconv.FormatFloat(pct, 'f', 1, 64)
	if abs(pct) > markAbove {
		return "<u><b>" + s + "</b></u>"
	}
	return s
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// formatEvent renders one breach event as a single announcement line:
// daily direction, move direction, coin, price, move percent, daily percent,
// compact volume.
func formatEvent(event models.BreachEvent, opts FormatOptions) string {
	coin := strings.TrimSuffix(event.Symbol, strings.ToUpper(opts.QuoteAsset))

	changePct := event.ChangePercent()
	directionLocal := "🔴"
	if changePct > 0 {
		directionLocal = "🟢"
	}

	directionGlobal := "🟥"
	if event.CurrentPrice > event.OpenPrice {
		directionGlobal = "🟩"
	}

	return fmt.Sprintf("%s%s%s %s %s%% (%s%%) %s",
		directionGlobal, directionLocal, coin,
		formatPrice(event.CurrentPrice),
		markPercent(changePct, opts.MarkPercentThreshold),
		markPercent(event.DailyChangePercent(), opts.MarkDailyPercentThreshold),
		formatVolume(event.Volume, opts.MarkVolumeThreshold),
	)
}

// formatBatch renders a batch of breach events as one message body.
func formatBatch(events []models.BreachEvent, opts FormatOptions) string {
	var b strings.Builder
	for _, event := range events {
		b.WriteString(formatEvent(event, opts))
		b.WriteByte('\n')
	}
	return strings.TrimSpace(b.String())
}

// formatRows renders symbol lookup results for the bot's query command.
func formatRows(rows []models.MetricRow, opts FormatOptions) string {
	var b strings.Builder
	for _, row := range rows {
		coin := strings.TrimSuffix(row.Symbol, strings.ToUpper(opts.QuoteAsset))
		fmt.Fprintf(&b, "%s %s %s\n", coin, formatPrice(row.LastPrice), formatVolume(row.Volume, opts.MarkVolumeThreshold))
	}
	return strings.TrimSpace(b.String())
}
