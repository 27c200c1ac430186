package core

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// categoryRule collects every per-category business rule in one table so the
// differences between savings, investment and cheque accounts are auditable
// in a single place.
type categoryRule struct {
	minOpeningDeposit decimal.Decimal
	canWithdraw       bool
	canDeposit        bool
	requiresEmployer  bool
	accruesInterest   bool
}

var categoryRules = map[Category]categoryRule{
	CategorySavings: {
		canWithdraw:     false,
		canDeposit:      true,
		accruesInterest: true,
	},
	CategoryInvestment: {
		minOpeningDeposit: decimal.NewFromInt(500),
		canWithdraw:       true,
		canDeposit:        true,
		accruesInterest:   true,
	},
	CategoryCheque: {
		canWithdraw:      true,
		canDeposit:       true,
		requiresEmployer: true,
	},
}

// ValidateOpen checks whether an account of the given category may be opened
// with the given initial deposit and category-specific fields.
func ValidateOpen(category Category, initialDeposit decimal.Decimal, employer, employerAddress string) error {
	rule, ok := categoryRules[category]
	if !ok {
		return fmt.Errorf("%w: unknown account category %q", ErrValidation, category)
	}

	if initialDeposit.IsNegative() {
		return fmt.Errorf("%w: initial deposit cannot be negative", ErrValidation)
	}

	if initialDeposit.LessThan(rule.minOpeningDeposit) {
		return fmt.Errorf("%w: %s accounts require an opening deposit of at least %s",
			ErrValidation, category, rule.minOpeningDeposit.StringFixed(2))
	}

	if rule.requiresEmployer {
		if strings.TrimSpace(employer) == "" {
			return fmt.Errorf("%w: %s accounts require an employer name", ErrValidation, category)
		}
		if strings.TrimSpace(employerAddress) == "" {
			return fmt.Errorf("%w: %s accounts require an employer address", ErrValidation, category)
		}
	}

	return nil
}

func CanWithdraw(category Category) bool {
	return categoryRules[category].canWithdraw
}

func CanDeposit(category Category) bool {
	return categoryRules[category].canDeposit
}

func AccruesInterest(category Category) bool {
	return categoryRules[category].accruesInterest
}

// ValidateClose permits closing only when the balance is exactly zero.
func ValidateClose(account Account) error {
	if !account.Balance.IsZero() {
		return fmt.Errorf("%w: account %s still holds %s",
			ErrValidation, account.Number, account.Balance.StringFixed(2))
	}
	return nil
}
