package integration

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"bank/internal/core"
)

func TestRegistryStore_GetAccount(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	suite := NewTestSuite(t)
	defer suite.Teardown()

	suite.SeedCustomer(t, "cust-1", core.ClassificationIndividual)
	suite.SeedAccount(t, "CHQ00000001", "cust-1", core.CategoryCheque, "1234.56")

	account, err := suite.Store.GetAccount(ctx, "CHQ00000001")
	require.NoError(t, err)
	require.Equal(t, "CHQ00000001", account.Number)
	require.Equal(t, core.CategoryCheque, account.Category)
	require.Equal(t, core.StatusActive, account.Status)
	require.True(t, account.Balance.Equal(decimal.RequireFromString("1234.56")))

	_, err = suite.Store.GetAccount(ctx, "CHQ99999999")
	require.ErrorIs(t, err, core.ErrNotFound)
}

func TestRegistryStore_MutateBalancePersistsExactDecimals(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	suite := NewTestSuite(t)
	defer suite.Teardown()

	suite.SeedCustomer(t, "cust-1", core.ClassificationIndividual)
	suite.SeedAccount(t, "INV00000001", "cust-1", core.CategoryInvestment, "0.10")

	err := suite.Store.Atomic(ctx, func(r core.Registry) error {
		balance, err := r.MutateBalance(ctx, "INV00000001", decimal.RequireFromString("0.20"))
		if err != nil {
			return err
		}
		require.True(t, balance.Equal(decimal.RequireFromString("0.30")))
		return nil
	})
	require.NoError(t, err)

	// 0.1 + 0.2 stays 0.3, not 0.30000000000000004.
	require.Equal(t, "0.3", suite.GetStoredBalance(t, "INV00000001"))
}

func TestRegistryStore_AtomicRollsBackOnError(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	suite := NewTestSuite(t)
	defer suite.Teardown()

	suite.SeedCustomer(t, "cust-1", core.ClassificationIndividual)
	suite.SeedAccount(t, "CHQ00000001", "cust-1", core.CategoryCheque, "100")

	boom := errors.New("boom")
	err := suite.Store.Atomic(ctx, func(r core.Registry) error {
		if _, err := r.MutateBalance(ctx, "CHQ00000001", decimal.RequireFromString("-40")); err != nil {
			return err
		}
		if err := r.AppendTransaction(ctx, core.Transaction{
			ID:            "t1",
			AccountNumber: "CHQ00000001",
			Kind:          core.KindWithdrawal,
			Amount:        decimal.RequireFromString("40"),
			BalanceAfter:  decimal.RequireFromString("60"),
		}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	require.Equal(t, "100", suite.GetStoredBalance(t, "CHQ00000001"))
	require.Zero(t, suite.CountTransactions(t, "CHQ00000001"))
}

func TestRegistryStore_DuplicateAccountNumber(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	suite := NewTestSuite(t)
	defer suite.Teardown()

	suite.SeedCustomer(t, "cust-1", core.ClassificationIndividual)
	suite.SeedAccount(t, "SAV00000001", "cust-1", core.CategorySavings, "0")

	err := suite.Store.Atomic(ctx, func(r core.Registry) error {
		return r.CreateAccount(ctx, core.Account{
			Number:     "SAV00000001",
			CustomerID: "cust-1",
			Category:   core.CategorySavings,
			Balance:    decimal.Zero,
			Status:     core.StatusActive,
		})
	})
	require.ErrorIs(t, err, core.ErrDuplicateKey)
}

func TestRegistryStore_NextAccountNumberMonotonic(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	suite := NewTestSuite(t)
	defer suite.Teardown()

	var numbers []string
	err := suite.Store.Atomic(ctx, func(r core.Registry) error {
		for i := 0; i < 3; i++ {
			number, err := r.NextAccountNumber(ctx, core.CategorySavings)
			if err != nil {
				return err
			}
			numbers = append(numbers, number)
		}
		cheque, err := r.NextAccountNumber(ctx, core.CategoryCheque)
		if err != nil {
			return err
		}
		numbers = append(numbers, cheque)
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, []string{"SAV00000001", "SAV00000002", "SAV00000003", "CHQ00000001"}, numbers)
}

func TestLedgerService_EndToEndOverSQLite(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	suite := NewTestSuite(t)
	defer suite.Teardown()

	service := core.NewService(suite.Store)

	customer, err := service.RegisterCustomer(ctx, core.RegisterCustomerInput{
		FirstName:      "Grace",
		Surname:        "Hopper",
		Classification: core.ClassificationIndividual,
	})
	require.NoError(t, err)

	source, err := service.OpenAccount(ctx, core.OpenAccountInput{
		CustomerID:     customer.ID,
		Category:       core.CategoryInvestment,
		InitialDeposit: decimal.RequireFromString("1000.00"),
		Branch:         "main",
	})
	require.NoError(t, err)
	require.Equal(t, "INV00000001", source.Number)

	dest, err := service.OpenAccount(ctx, core.OpenAccountInput{
		CustomerID:     customer.ID,
		Category:       core.CategorySavings,
		InitialDeposit: decimal.Zero,
		Branch:         "main",
	})
	require.NoError(t, err)
	require.Equal(t, "SAV00000001", dest.Number)

	result, err := service.Transfer(ctx, source.Number, dest.Number, decimal.RequireFromString("250.75"), "sweep")
	require.NoError(t, err)
	require.True(t, result.Out.BalanceAfter.Equal(decimal.RequireFromString("749.25")))
	require.True(t, result.In.BalanceAfter.Equal(decimal.RequireFromString("250.75")))

	// Mirror legs landed on both sides.
	require.Equal(t, 2, suite.CountTransactions(t, source.Number))
	require.Equal(t, 1, suite.CountTransactions(t, dest.Number))

	history, err := service.AccountHistory(ctx, source.Number, core.TimeRange{})
	require.NoError(t, err)
	require.Len(t, history, 2)
	require.Equal(t, core.KindTransferOut, history[0].Kind)
	require.Equal(t, dest.Number, history[0].ReferenceAccount)
	require.Equal(t, core.KindDeposit, history[1].Kind)

	all, err := service.CustomerHistory(ctx, customer.ID, core.TimeRange{})
	require.NoError(t, err)
	require.Len(t, all, 3)

	// Failed transfer leaves no partial state behind.
	_, err = service.Transfer(ctx, source.Number, dest.Number, decimal.RequireFromString("10000.00"), "too much")
	require.ErrorIs(t, err, core.ErrInsufficientFunds)
	require.Equal(t, "749.25", suite.GetStoredBalance(t, source.Number))
	require.Equal(t, 2, suite.CountTransactions(t, source.Number))

	// Withdrawals from savings stay forbidden on the durable store too.
	_, err = service.Withdraw(ctx, dest.Number, decimal.RequireFromString("1.00"), "no")
	require.ErrorIs(t, err, core.ErrOperationNotPermitted)
}

func TestInterestEngine_OverSQLite(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	suite := NewTestSuite(t)
	defer suite.Teardown()

	service := core.NewService(suite.Store)

	rates := core.InterestRates{
		SavingsIndividual: decimal.RequireFromString("0.025"),
		SavingsCompany:    decimal.RequireFromString("0.075"),
		Investment:        decimal.RequireFromString("0.05"),
	}
	engine := core.NewInterestEngine(suite.Store, service, rates, discardLogger{})

	suite.SeedCustomer(t, "cust-ind", core.ClassificationIndividual)
	suite.SeedCustomer(t, "cust-com", core.ClassificationCompany)
	suite.SeedAccount(t, "SAV00000001", "cust-ind", core.CategorySavings, "1000")
	suite.SeedAccount(t, "SAV00000002", "cust-com", core.CategorySavings, "1000")
	suite.SeedAccount(t, "CHQ00000001", "cust-ind", core.CategoryCheque, "1000")

	summary, err := engine.ApplyInterestToAll(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, summary.AccountsCredited)
	require.Equal(t, 1, summary.AccountsSkipped)
	require.Equal(t, "100.00", summary.TotalInterest.StringFixed(2))

	require.Equal(t, "1025", suite.GetStoredBalance(t, "SAV00000001"))
	require.Equal(t, "1075", suite.GetStoredBalance(t, "SAV00000002"))
	require.Equal(t, "1000", suite.GetStoredBalance(t, "CHQ00000001"))
	require.Equal(t, 1, suite.CountTransactions(t, "SAV00000001"))
}

type discardLogger struct{}

func (discardLogger) InfoContext(context.Context, string, ...any)  {}
func (discardLogger) ErrorContext(context.Context, string, ...any) {}
