package core_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"bank/internal/core"
	"bank/internal/memory"
)

func testRates() core.InterestRates {
	return core.InterestRates{
		SavingsIndividual: decimal.RequireFromString("0.025"),
		SavingsCompany:    decimal.RequireFromString("0.075"),
		Investment:        decimal.RequireFromString("0.05"),
	}
}

func newInterestEngine(t *testing.T) (core.InterestEngine, core.Service) {
	t.Helper()

	registry := memory.NewRegistry(time.Second)
	service := core.NewService(registry)
	engine := core.NewInterestEngine(registry, service, testRates(), slog.Default())
	return engine, service
}

func registerCompany(t *testing.T, service core.Service) core.Customer {
	t.Helper()

	customer, err := service.RegisterCustomer(context.Background(), core.RegisterCustomerInput{
		CompanyName:    "Initrode Ltd",
		Classification: core.ClassificationCompany,
	})
	require.NoError(t, err)
	return customer
}

func TestApplyInterest(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name            string
		category        core.Category
		company         bool
		balance         string
		expectCredited  bool
		expectedBalance string
		expectedAmount  string
	}{
		{
			name:            "savings_individual_2_5_percent",
			category:        core.CategorySavings,
			balance:         "1000.00",
			expectCredited:  true,
			expectedBalance: "1025.00",
			expectedAmount:  "25.00",
		},
		{
			name:            "savings_company_7_5_percent",
			category:        core.CategorySavings,
			company:         true,
			balance:         "1000.00",
			expectCredited:  true,
			expectedBalance: "1075.00",
			expectedAmount:  "75.00",
		},
		{
			name:            "investment_5_percent",
			category:        core.CategoryInvestment,
			balance:         "500.00",
			expectCredited:  true,
			expectedBalance: "525.00",
			expectedAmount:  "25.00",
		},
		{
			name:            "cheque_never_accrues",
			category:        core.CategoryCheque,
			balance:         "1000.00",
			expectedBalance: "1000.00",
		},
		{
			name:            "zero_balance_savings_no_posting",
			category:        core.CategorySavings,
			balance:         "0",
			expectedBalance: "0.00",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()

			engine, service := newInterestEngine(t)

			var customer core.Customer
			if tt.company {
				customer = registerCompany(t, service)
			} else {
				customer = registerIndividual(t, service)
			}

			input := core.OpenAccountInput{
				CustomerID:     customer.ID,
				Category:       tt.category,
				InitialDeposit: decimal.RequireFromString(tt.balance),
				Branch:         "main",
			}
			if tt.category == core.CategoryCheque {
				input.Employer = "Initech"
				input.EmployerAddress = "42 Office Park"
			}
			account, err := service.OpenAccount(ctx, input)
			require.NoError(t, err)

			txn, credited, err := engine.ApplyInterest(ctx, account.Number)
			require.NoError(t, err)
			require.Equal(t, tt.expectCredited, credited)

			balance, err := service.Balance(ctx, account.Number)
			require.NoError(t, err)
			require.Equal(t, tt.expectedBalance, balance.StringFixed(2))

			history, err := service.AccountHistory(ctx, account.Number, core.TimeRange{})
			require.NoError(t, err)

			if !tt.expectCredited {
				for _, entry := range history {
					require.NotEqual(t, core.KindInterest, entry.Kind)
				}
				return
			}

			require.Equal(t, core.KindInterest, txn.Kind)
			require.Equal(t, tt.expectedAmount, txn.Amount.StringFixed(2))
			require.Equal(t, core.KindInterest, history[0].Kind)
			require.Equal(t, tt.expectedAmount, history[0].Amount.StringFixed(2))
		})
	}
}

func TestApplyInterestUnknownAccount(t *testing.T) {
	t.Parallel()

	engine, _ := newInterestEngine(t)

	_, _, err := engine.ApplyInterest(context.Background(), "SAV99999999")
	require.ErrorIs(t, err, core.ErrNotFound)
}

func TestApplyInterestToAll(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	engine, service := newInterestEngine(t)
	individual := registerIndividual(t, service)
	company := registerCompany(t, service)

	savings := openAccount(t, service, individual.ID, core.CategorySavings, "1000.00")
	companySavings := openAccount(t, service, company.ID, core.CategorySavings, "1000.00")
	cheque := openAccount(t, service, individual.ID, core.CategoryCheque, "1000.00")
	investment := openAccount(t, service, individual.ID, core.CategoryInvestment, "2000.00")

	// A frozen account is outside the active set and must not be visited.
	frozen := openAccount(t, service, individual.ID, core.CategorySavings, "100.00")
	require.NoError(t, service.FreezeAccount(ctx, frozen.Number))

	summary, err := engine.ApplyInterestToAll(ctx)
	require.NoError(t, err)

	// savings 25.00 + company savings 75.00 + investment 100.00
	require.Equal(t, 3, summary.AccountsCredited)
	require.Equal(t, 1, summary.AccountsSkipped) // cheque
	require.Equal(t, "200.00", summary.TotalInterest.StringFixed(2))

	for number, expected := range map[string]string{
		savings.Number:        "1025.00",
		companySavings.Number: "1075.00",
		cheque.Number:         "1000.00",
		investment.Number:     "2100.00",
		frozen.Number:         "100.00",
	} {
		balance, err := service.Balance(ctx, number)
		require.NoError(t, err)
		require.Equal(t, expected, balance.StringFixed(2))
	}
}
