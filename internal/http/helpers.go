package http

import (
	"strings"

	"fintrack/internal/core"
)

// sanitizeInput removes control characters except tab and newlines, and
// trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// signClass picks the color class for a signed total.
func signClass(m core.Money) string {
	if m.IsNegative() {
		return "negative"
	}
	return "positive"
}

// typeClass colors amounts by transaction type.
func typeClass(t core.TransactionType) string {
	if t == core.Income {
		return "positive"
	}
	return "negative"
}

// signedUSD prefixes the amount with + for income and - for expenses.
func signedUSD(t core.Transaction) string {
	if t.Type == core.Income {
		return "+" + t.Amount.USD()
	}
	return "-" + t.Amount.USD()
}

// typeLabel is "Income" or "Expense".
func typeLabel(t core.TransactionType) string {
	if t == core.Income {
		return "Income"
	}
	return "Expense"
}
