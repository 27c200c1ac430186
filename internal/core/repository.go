package core

import (
	"context"

	"github.com/shopspring/decimal"
)

//go:generate go tool go.uber.org/mock/mockgen -source=repository.go -destination=repository_mock.go -package=core

// Registry owns the current state of all accounts and customers and the
// append-only transaction log. It is the only component allowed to change a
// balance. Mutating methods must be called inside Atomic; an implementation
// rolls back every mutation of the callback when it returns an error.
type Registry interface {
	GetAccount(ctx context.Context, number string) (Account, error)
	GetCustomer(ctx context.Context, id string) (Customer, error)
	CreateCustomer(ctx context.Context, customer Customer) error
	UpdateCustomerContact(ctx context.Context, id, email, phone string) error
	CreateAccount(ctx context.Context, account Account) error

	// NextAccountNumber allocates a fresh account number from a strictly
	// monotonic per-category sequence. Numbers are never reused, so no
	// collision retry is required.
	NextAccountNumber(ctx context.Context, category Category) (string, error)

	// MutateBalance is the single authorized path to change a balance. It
	// applies delta and returns the resulting balance. The caller must have
	// already established that the result stays non-negative.
	MutateBalance(ctx context.Context, number string, delta decimal.Decimal) (decimal.Decimal, error)

	SetStatus(ctx context.Context, number string, status Status) error

	AppendTransaction(ctx context.Context, txn Transaction) error
	AccountTransactions(ctx context.Context, number string, within TimeRange) ([]Transaction, error)
	CustomerTransactions(ctx context.Context, customerID string, within TimeRange) ([]Transaction, error)

	ListActiveAccounts(ctx context.Context) ([]Account, error)

	Atomic(ctx context.Context, cb func(r Registry) error) error
}
