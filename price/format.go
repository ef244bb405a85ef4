package price

import (
	"fmt"
	"strings"
)

// Format renders a snapshot as the full price update message. Metrics the
// source did not report show as N/A.
func Format(s Snapshot) string {
	var sb strings.Builder
	sb.WriteString("🐸 PEPU Price Update\n\n")
	sb.WriteString(fmt.Sprintf("💵 Price: %s\n", FormatUSD(s.PriceUSD)))
	sb.WriteString(fmt.Sprintf("%s 24h Change: %s\n", changeIndicator(s.PriceChange24h), formatChange(s.PriceChange24h)))
	sb.WriteString(fmt.Sprintf("🏦 Market Cap: %s\n", FormatCompactUSD(s.MarketCap)))
	sb.WriteString(fmt.Sprintf("📊 24h Volume: %s\n", FormatCompactUSD(s.Volume24h)))
	sb.WriteString(fmt.Sprintf("💧 Liquidity: %s", FormatCompactUSD(s.Liquidity)))
	return sb.String()
}

// Blurb renders the one-line price note appended to knowledge answers
// that touch the token.
func Blurb(s Snapshot) string {
	return fmt.Sprintf("💰 PEPU: %s (%s %s 24h)", FormatUSD(s.PriceUSD), changeIndicator(s.PriceChange24h), formatChange(s.PriceChange24h))
}

// FormatUSD renders a dollar amount with precision scaled to its
// magnitude, so micro-cap prices keep their leading digits.
func FormatUSD(value float64) string {
	switch {
	case value == 0:
		return "N/A"
	case value >= 1:
		return fmt.Sprintf("$%.2f", value)
	case value >= 0.01:
		return fmt.Sprintf("$%.4f", value)
	default:
		return fmt.Sprintf("$%.6f", value)
	}
}

// FormatCompactUSD renders large dollar amounts with K/M/B suffixes and
// zero as N/A.
func FormatCompactUSD(value float64) string {
	switch {
	case value <= 0:
		return "N/A"
	case value >= 1e9:
		return fmt.Sprintf("$%.2fB", value/1e9)
	case value >= 1e6:
		return fmt.Sprintf("$%.2fM", value/1e6)
	case value >= 1e3:
		return fmt.Sprintf("$%.2fK", value/1e3)
	default:
		return fmt.Sprintf("$%.2f", value)
	}
}

func changeIndicator(change float64) string {
	if change < 0 {
		return "📉"
	}
	return "📈"
}

func formatChange(change float64) string {
	return fmt.Sprintf("%.2f%%", change)
}
