package utils

import (
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// FormatRupiah formats an amount as "Rp 1,000,000"
func FormatRupiah(amount int64) string {
	return printer.Sprintf("Rp %d", amount)
}

// TransactionLabel returns the display label of a transaction id
func TransactionLabel(id int64) string {
	return fmt.Sprintf("TRX-%03d", id)
}

// PaidLabel returns the payment status label
func PaidLabel(paid bool) string {
	if paid {
		return "Lunas"
	}
	return "Belum Lunas"
}
