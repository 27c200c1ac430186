package core

import "fmt"

var categoryPrefixes = map[Category]string{
	CategorySavings:    "SAV",
	CategoryInvestment: "INV",
	CategoryCheque:     "CHQ",
}

// FormatAccountNumber renders an account number from a category prefix and a
// per-category sequence value. Sequences are strictly increasing, so numbers
// are unique by construction and never reused.
func FormatAccountNumber(category Category, sequence int64) string {
	return fmt.Sprintf("%s%08d", categoryPrefixes[category], sequence)
}
