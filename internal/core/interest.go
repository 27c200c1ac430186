package core

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// InterestConfig exposes the periodic rates as named configuration values.
// The defaults are the documented canonical set: 2.5% savings (individual),
// 7.5% savings (company), 5% investment.
type InterestConfig struct {
	SavingsIndividualRate string `envconfig:"INTEREST_SAVINGS_INDIVIDUAL_RATE" default:"0.025"`
	SavingsCompanyRate    string `envconfig:"INTEREST_SAVINGS_COMPANY_RATE" default:"0.075"`
	InvestmentRate        string `envconfig:"INTEREST_INVESTMENT_RATE" default:"0.05"`
}

func (c InterestConfig) Rates() (InterestRates, error) {
	parse := func(name, value string) (decimal.Decimal, error) {
		rate, err := decimal.NewFromString(value)
		if err != nil {
			return decimal.Decimal{}, fmt.Errorf("invalid %s rate %q: %w", name, value, err)
		}
		if rate.IsNegative() {
			return decimal.Decimal{}, fmt.Errorf("%s rate cannot be negative", name)
		}
		return rate, nil
	}

	var rates InterestRates
	var err error
	if rates.SavingsIndividual, err = parse("savings individual", c.SavingsIndividualRate); err != nil {
		return InterestRates{}, err
	}
	if rates.SavingsCompany, err = parse("savings company", c.SavingsCompanyRate); err != nil {
		return InterestRates{}, err
	}
	if rates.Investment, err = parse("investment", c.InvestmentRate); err != nil {
		return InterestRates{}, err
	}
	return rates, nil
}

type InterestRates struct {
	SavingsIndividual decimal.Decimal
	SavingsCompany    decimal.Decimal
	Investment        decimal.Decimal
}

// InterestEngine computes periodic interest and posts it through the same
// deposit path as ordinary transactions, so interest obeys the normal ledger
// invariants rather than taking a separate code path.
type InterestEngine struct {
	registry Registry
	ledger   Service
	rates    InterestRates
	logger   Logger
}

func NewInterestEngine(registry Registry, ledger Service, rates InterestRates, logger Logger) InterestEngine {
	return InterestEngine{
		registry: registry,
		ledger:   ledger,
		rates:    rates,
		logger:   logger,
	}
}

func (e InterestEngine) rateFor(category Category, classification Classification) decimal.Decimal {
	switch category {
	case CategoryInvestment:
		return e.rates.Investment
	case CategorySavings:
		if classification == ClassificationCompany {
			return e.rates.SavingsCompany
		}
		return e.rates.SavingsIndividual
	default:
		return decimal.Zero
	}
}

// ApplyInterest credits one period's interest to the account. Cheque accounts
// and zero balances are a no-op; the second return value reports whether a
// posting was made. Interest is rounded to cents.
func (e InterestEngine) ApplyInterest(ctx context.Context, number string) (Transaction, bool, error) {
	var txn Transaction
	credited := false

	err := e.registry.Atomic(ctx, func(r Registry) error {
		account, err := r.GetAccount(ctx, number)
		if err != nil {
			return err
		}
		if !AccruesInterest(account.Category) {
			return nil
		}

		customer, err := r.GetCustomer(ctx, account.CustomerID)
		if err != nil {
			return err
		}

		interest := account.Balance.Mul(e.rateFor(account.Category, customer.Classification)).Round(2)
		if interest.Sign() <= 0 {
			return nil
		}

		txn, err = e.ledger.depositInto(ctx, r, number, interest, KindInterest, "interest credit", "")
		if err != nil {
			return err
		}

		credited = true
		return nil
	})
	if err != nil {
		return Transaction{}, false, err
	}

	return txn, credited, nil
}

// ApplyInterestToAll runs one interest period over every active account.
// Per-account failures are logged and counted as skipped; they never abort
// the batch.
func (e InterestEngine) ApplyInterestToAll(ctx context.Context) (InterestRunSummary, error) {
	accounts, err := e.registry.ListActiveAccounts(ctx)
	if err != nil {
		return InterestRunSummary{}, err
	}

	summary := InterestRunSummary{TotalInterest: decimal.Zero}
	for _, account := range accounts {
		txn, credited, err := e.ApplyInterest(ctx, account.Number)
		if err != nil {
			summary.AccountsSkipped++
			e.logger.ErrorContext(ctx, "interest posting skipped", "account", account.Number, "error", err)
			continue
		}
		if !credited {
			summary.AccountsSkipped++
			continue
		}

		summary.AccountsCredited++
		summary.TotalInterest = summary.TotalInterest.Add(txn.Amount)
	}

	return summary, nil
}
