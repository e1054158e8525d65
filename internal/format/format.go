package format

import (
	"math"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var grouped = message.NewPrinter(language.English)

// Price converts a base-currency amount with the locale's exchange rate,
// rounds to the nearest whole unit, and prefixes the currency symbol with
// grouped thousands separators.
// Example: Price(1234, "MX$", 17.1) => "MX$21,101".
func Price(base int64, symbol string, rate float64) string {
	return symbol + grouped.Sprintf("%d", Convert(base, rate))
}

// Convert applies just the exchange-rate multiplier, rounded to the
// nearest whole unit.
func Convert(base int64, rate float64) int64 {
	if rate <= 0 {
		rate = 1
	}
	return int64(math.Round(float64(base) * rate))
}

// Grouped renders a bare count with grouped thousands separators.
func Grouped(n int64) string {
	return grouped.Sprintf("%d", n)
}

// Date formats a batch milestone in the short form used by the hero
// timeline ("Sep 4").
func Date(t time.Time) string {
	return t.Format("Jan 2")
}
