package core

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestValidateOpen(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name            string
		category        Category
		initialDeposit  string
		employer        string
		employerAddress string
		expectError     bool
	}{
		{
			name:           "savings_with_zero_deposit",
			category:       CategorySavings,
			initialDeposit: "0",
		},
		{
			name:           "savings_with_deposit",
			category:       CategorySavings,
			initialDeposit: "10.50",
		},
		{
			name:           "savings_negative_deposit",
			category:       CategorySavings,
			initialDeposit: "-0.01",
			expectError:    true,
		},
		{
			name:           "investment_at_minimum",
			category:       CategoryInvestment,
			initialDeposit: "500.00",
		},
		{
			name:           "investment_one_cent_below_minimum",
			category:       CategoryInvestment,
			initialDeposit: "499.99",
			expectError:    true,
		},
		{
			name:           "investment_zero_deposit",
			category:       CategoryInvestment,
			initialDeposit: "0",
			expectError:    true,
		},
		{
			name:            "cheque_with_employer",
			category:        CategoryCheque,
			initialDeposit:  "0",
			employer:        "Initech",
			employerAddress: "42 Office Park",
		},
		{
			name:            "cheque_missing_employer_name",
			category:        CategoryCheque,
			initialDeposit:  "100",
			employerAddress: "42 Office Park",
			expectError:     true,
		},
		{
			name:           "cheque_missing_employer_address",
			category:       CategoryCheque,
			initialDeposit: "100",
			employer:       "Initech",
			expectError:    true,
		},
		{
			name:            "cheque_blank_employer_name",
			category:        CategoryCheque,
			initialDeposit:  "100",
			employer:        "   ",
			employerAddress: "42 Office Park",
			expectError:     true,
		},
		{
			name:           "unknown_category",
			category:       Category("bitcoin"),
			initialDeposit: "100",
			expectError:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			deposit, err := decimal.NewFromString(tt.initialDeposit)
			require.NoError(t, err)

			err = ValidateOpen(tt.category, deposit, tt.employer, tt.employerAddress)

			if tt.expectError {
				require.ErrorIs(t, err, ErrValidation)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestCategoryPermissions(t *testing.T) {
	t.Parallel()

	require.False(t, CanWithdraw(CategorySavings))
	require.True(t, CanWithdraw(CategoryInvestment))
	require.True(t, CanWithdraw(CategoryCheque))

	require.True(t, CanDeposit(CategorySavings))
	require.True(t, CanDeposit(CategoryInvestment))
	require.True(t, CanDeposit(CategoryCheque))

	require.True(t, AccruesInterest(CategorySavings))
	require.True(t, AccruesInterest(CategoryInvestment))
	require.False(t, AccruesInterest(CategoryCheque))
}

func TestValidateClose(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		balance     string
		expectError bool
	}{
		{
			name:    "zero_balance_closes",
			balance: "0",
		},
		{
			name:        "positive_balance_rejected",
			balance:     "0.01",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			balance, err := decimal.NewFromString(tt.balance)
			require.NoError(t, err)

			err = ValidateClose(Account{Number: "SAV00000001", Balance: balance})

			if tt.expectError {
				require.ErrorIs(t, err, ErrValidation)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestFormatAccountNumber(t *testing.T) {
	t.Parallel()

	require.Equal(t, "SAV00000001", FormatAccountNumber(CategorySavings, 1))
	require.Equal(t, "INV00000042", FormatAccountNumber(CategoryInvestment, 42))
	require.Equal(t, "CHQ12345678", FormatAccountNumber(CategoryCheque, 12345678))
}
