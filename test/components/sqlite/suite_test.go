package integration

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"bank/internal/core"
	"bank/internal/sqlite"
)

type TestSuite struct {
	DB       *sql.DB
	DBPath   string
	Client   *sqlite.Client
	Store    sqlite.RegistryStore
	teardown func()
}

func NewTestSuite(t *testing.T) *TestSuite {
	t.Helper()

	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test_bank.db")

	config := sqlite.Config{
		DatabasePath: dbPath,
		MaxOpenConns: 10,
		MaxIdleConns: 5,
		BusyTimeout:  30 * time.Second,
		EnableWAL:    true,
	}

	client, err := sqlite.NewClient(config)
	require.NoError(t, err, "failed to create test client")

	require.NoError(t, client.EnsureSchema(), "failed to create schema")

	suite := &TestSuite{
		DB:     client.DB(),
		DBPath: dbPath,
		Client: client,
		Store:  sqlite.NewRegistryStore(client.DB()),
		teardown: func() {
			client.Close()
		},
	}

	return suite
}

func (s *TestSuite) Teardown() {
	s.teardown()
}

func (s *TestSuite) SeedCustomer(t *testing.T, id string, classification core.Classification) {
	t.Helper()

	err := s.Store.Atomic(context.Background(), func(r core.Registry) error {
		return r.CreateCustomer(context.Background(), core.Customer{
			ID:             id,
			FirstName:      "Test",
			Surname:        "Customer",
			CompanyName:    "Test Co",
			Classification: classification,
			CreatedAt:      time.Now().UTC(),
		})
	})
	require.NoError(t, err, "failed to seed customer")
}

func (s *TestSuite) SeedAccount(t *testing.T, number, customerID string, category core.Category, balance string) {
	t.Helper()

	err := s.Store.Atomic(context.Background(), func(r core.Registry) error {
		return r.CreateAccount(context.Background(), core.Account{
			Number:     number,
			CustomerID: customerID,
			Category:   category,
			Balance:    decimal.RequireFromString(balance),
			Branch:     "main",
			Status:     core.StatusActive,
			OpenedAt:   time.Now().UTC(),
		})
	})
	require.NoError(t, err, "failed to seed account")
}

func (s *TestSuite) GetStoredBalance(t *testing.T, number string) string {
	t.Helper()

	var balance string
	err := s.DB.QueryRow("SELECT balance FROM accounts WHERE number = ?", number).Scan(&balance)
	require.NoError(t, err, "failed to get account balance")

	return balance
}

func (s *TestSuite) CountTransactions(t *testing.T, number string) int {
	t.Helper()

	var count int
	err := s.DB.QueryRow("SELECT COUNT(*) FROM transactions WHERE account_number = ?", number).Scan(&count)
	require.NoError(t, err, "failed to count transactions")

	return count
}
