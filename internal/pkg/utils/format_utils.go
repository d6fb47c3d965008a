package utils

import (
	"fmt"

	"golang.org/x/text/message"
)

var usdPrinter = message.NewPrinter(message.MatchLanguage("en"))

// FormatUSDValue renders a USD amount for display. Positive values
// below one cent render as "<$0.01".
func FormatUSDValue(value float64) string {
	if value > 0 && value < 0.01 {
		return "<$0.01"
	}
	return usdPrinter.Sprintf("$%.2f", value)
}

// FormatPriceChange renders a 24h percent change with an explicit sign.
func FormatPriceChange(change float64) string {
	sign := ""
	if change >= 0 {
		sign = "+"
	}
	return fmt.Sprintf("%s%.2f%%", sign, change)
}
