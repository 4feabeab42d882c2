package fare

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Locale is the display locale for amounts.
var Locale = language.Indonesian

// CurrencyCode is the ISO currency of every amount.
const CurrencyCode = "IDR"

var printer = message.NewPrinter(Locale)

// FormatCurrency renders amount as "Rp 15.000".
func FormatCurrency(amount int64) string {
	return printer.Sprintf("Rp %d", amount)
}
