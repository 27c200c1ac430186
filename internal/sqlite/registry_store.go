package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"bank/internal/core"
)

// RegistryStore implements core.Registry on SQLite. Reads work on the pool
// directly; every mutation must run inside Atomic, which hands the callback a
// transaction-bound copy of the store.
type RegistryStore struct {
	db *sql.DB
	tx *sql.Tx
}

func NewRegistryStore(db *sql.DB) RegistryStore {
	return RegistryStore{
		db: db,
	}
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s RegistryStore) q() querier {
	if s.tx != nil {
		return s.tx
	}
	return s.db
}

// mapErr translates driver-level failures into the core taxonomy: lock
// contention becomes ErrBusy, constraint violations become ErrDuplicateKey.
func mapErr(err error) error {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		if sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked {
			return fmt.Errorf("%w: %v", core.ErrBusy, err)
		}
		if sqliteErr.Code == sqlite3.ErrConstraint {
			return fmt.Errorf("%w: %v", core.ErrDuplicateKey, err)
		}
	}
	return err
}

func (s RegistryStore) Atomic(ctx context.Context, cb func(core.Registry) error) error {
	if s.tx != nil {
		return errors.New("nested Atomic transactions are not supported")
	}

	// BEGIN IMMEDIATE (configured via _txlock=immediate in the DSN) acquires
	// the reserved lock up front, so there is no race window between the
	// validation reads and the balance updates of one operation.
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{
		Isolation: sql.LevelDefault,
	})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", mapErr(err))
	}

	txStore := RegistryStore{
		tx: tx,
	}

	if err = cb(txStore); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("transaction error: %w, rollback error: %w", err, rbErr)
		}
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", mapErr(err))
	}

	return nil
}

func (s RegistryStore) GetAccount(ctx context.Context, number string) (core.Account, error) {
	query := `
		SELECT number, customer_id, category, balance, branch, status, opened_at, employer, employer_address
		FROM accounts
		WHERE number = ?
	`

	account, err := scanAccount(s.q().QueryRowContext(ctx, query, number))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Account{}, core.ErrNotFound
		}
		return core.Account{}, fmt.Errorf("failed to get account: %w", mapErr(err))
	}

	return account, nil
}

func (s RegistryStore) GetCustomer(ctx context.Context, id string) (core.Customer, error) {
	query := `
		SELECT id, first_name, surname, company_name, classification, email, phone, created_at
		FROM customers
		WHERE id = ?
	`

	var customer core.Customer
	err := s.q().QueryRowContext(ctx, query, id).Scan(
		&customer.ID,
		&customer.FirstName,
		&customer.Surname,
		&customer.CompanyName,
		&customer.Classification,
		&customer.Email,
		&customer.Phone,
		&customer.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Customer{}, core.ErrCustomerNotFound
		}
		return core.Customer{}, fmt.Errorf("failed to get customer: %w", mapErr(err))
	}

	return customer, nil
}

func (s RegistryStore) CreateCustomer(ctx context.Context, customer core.Customer) error {
	if s.tx == nil {
		return errors.New("CreateCustomer must be called within Atomic transaction")
	}

	query := `
		INSERT INTO customers (id, first_name, surname, company_name, classification, email, phone, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.tx.ExecContext(ctx, query,
		customer.ID,
		customer.FirstName,
		customer.Surname,
		customer.CompanyName,
		string(customer.Classification),
		customer.Email,
		customer.Phone,
		customer.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert customer: %w", mapErr(err))
	}

	return nil
}

func (s RegistryStore) UpdateCustomerContact(ctx context.Context, id, email, phone string) error {
	if s.tx == nil {
		return errors.New("UpdateCustomerContact must be called within Atomic transaction")
	}

	result, err := s.tx.ExecContext(ctx,
		`UPDATE customers SET email = ?, phone = ? WHERE id = ?`, email, phone, id)
	if err != nil {
		return fmt.Errorf("failed to update customer: %w", mapErr(err))
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return core.ErrCustomerNotFound
	}

	return nil
}

func (s RegistryStore) CreateAccount(ctx context.Context, account core.Account) error {
	if s.tx == nil {
		return errors.New("CreateAccount must be called within Atomic transaction")
	}

	query := `
		INSERT INTO accounts (number, customer_id, category, balance, branch, status, opened_at, employer, employer_address)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.tx.ExecContext(ctx, query,
		account.Number,
		account.CustomerID,
		string(account.Category),
		account.Balance.String(),
		account.Branch,
		string(account.Status),
		account.OpenedAt,
		account.Employer,
		account.EmployerAddress,
	)
	if err != nil {
		return fmt.Errorf("failed to insert account: %w", mapErr(err))
	}

	return nil
}

func (s RegistryStore) NextAccountNumber(ctx context.Context, category core.Category) (string, error) {
	if s.tx == nil {
		return "", errors.New("NextAccountNumber must be called within Atomic transaction")
	}

	query := `
		INSERT INTO account_sequences (category, next_value) VALUES (?, 1)
		ON CONFLICT(category) DO UPDATE SET next_value = next_value + 1
		RETURNING next_value
	`

	var sequence int64
	if err := s.tx.QueryRowContext(ctx, query, string(category)).Scan(&sequence); err != nil {
		return "", fmt.Errorf("failed to advance account sequence: %w", mapErr(err))
	}

	return core.FormatAccountNumber(category, sequence), nil
}

func (s RegistryStore) MutateBalance(ctx context.Context, number string, delta decimal.Decimal) (decimal.Decimal, error) {
	if s.tx == nil {
		return decimal.Decimal{}, errors.New("MutateBalance must be called within Atomic transaction")
	}

	var stored string
	err := s.tx.QueryRowContext(ctx, `SELECT balance FROM accounts WHERE number = ?`, number).Scan(&stored)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return decimal.Decimal{}, core.ErrNotFound
		}
		return decimal.Decimal{}, fmt.Errorf("failed to read balance: %w", mapErr(err))
	}

	balance, err := decimal.NewFromString(stored)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("corrupt balance %q for account %s: %w", stored, number, err)
	}

	balance = balance.Add(delta)

	if _, err = s.tx.ExecContext(ctx,
		`UPDATE accounts SET balance = ? WHERE number = ?`, balance.String(), number); err != nil {
		return decimal.Decimal{}, fmt.Errorf("failed to update balance: %w", mapErr(err))
	}

	return balance, nil
}

func (s RegistryStore) SetStatus(ctx context.Context, number string, status core.Status) error {
	if s.tx == nil {
		return errors.New("SetStatus must be called within Atomic transaction")
	}

	result, err := s.tx.ExecContext(ctx,
		`UPDATE accounts SET status = ? WHERE number = ?`, string(status), number)
	if err != nil {
		return fmt.Errorf("failed to update status: %w", mapErr(err))
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return core.ErrNotFound
	}

	return nil
}

func (s RegistryStore) AppendTransaction(ctx context.Context, txn core.Transaction) error {
	if s.tx == nil {
		return errors.New("AppendTransaction must be called within Atomic transaction")
	}

	query := `
		INSERT INTO transactions (id, account_number, kind, amount, balance_after, timestamp, description, reference_account)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	var reference any
	if txn.ReferenceAccount != "" {
		reference = txn.ReferenceAccount
	}

	_, err := s.tx.ExecContext(ctx, query,
		txn.ID,
		txn.AccountNumber,
		string(txn.Kind),
		txn.Amount.String(),
		txn.BalanceAfter.String(),
		txn.Timestamp,
		txn.Description,
		reference,
	)
	if err != nil {
		return fmt.Errorf("failed to append transaction: %w", mapErr(err))
	}

	return nil
}

func (s RegistryStore) AccountTransactions(ctx context.Context, number string, within core.TimeRange) ([]core.Transaction, error) {
	query := `
		SELECT id, account_number, kind, amount, balance_after, timestamp, description, reference_account
		FROM transactions
		WHERE account_number = ?
	`
	args := []any{number}
	query, args = appendRange(query, args, within)
	query += ` ORDER BY timestamp DESC, rowid DESC`

	return s.queryTransactions(ctx, query, args...)
}

func (s RegistryStore) CustomerTransactions(ctx context.Context, customerID string, within core.TimeRange) ([]core.Transaction, error) {
	query := `
		SELECT t.id, t.account_number, t.kind, t.amount, t.balance_after, t.timestamp, t.description, t.reference_account
		FROM transactions t
		JOIN accounts a ON a.number = t.account_number
		WHERE a.customer_id = ?
	`
	args := []any{customerID}
	query, args = appendRange(query, args, within)
	query += ` ORDER BY t.timestamp DESC, t.rowid DESC`

	return s.queryTransactions(ctx, query, args...)
}

func appendRange(query string, args []any, within core.TimeRange) (string, []any) {
	if !within.From.IsZero() {
		query += ` AND timestamp >= ?`
		args = append(args, within.From.UTC())
	}
	if !within.To.IsZero() {
		query += ` AND timestamp <= ?`
		args = append(args, within.To.UTC())
	}
	return query, args
}

func (s RegistryStore) queryTransactions(ctx context.Context, query string, args ...any) ([]core.Transaction, error) {
	rows, err := s.q().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", mapErr(err))
	}
	defer rows.Close()

	var transactions []core.Transaction
	for rows.Next() {
		var txn core.Transaction
		var amount, balanceAfter string
		var reference sql.NullString
		err = rows.Scan(
			&txn.ID,
			&txn.AccountNumber,
			&txn.Kind,
			&amount,
			&balanceAfter,
			&txn.Timestamp,
			&txn.Description,
			&reference,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}

		if txn.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("corrupt amount %q: %w", amount, err)
		}
		if txn.BalanceAfter, err = decimal.NewFromString(balanceAfter); err != nil {
			return nil, fmt.Errorf("corrupt balance_after %q: %w", balanceAfter, err)
		}
		txn.ReferenceAccount = reference.String

		transactions = append(transactions, txn)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}

	return transactions, nil
}

func (s RegistryStore) ListActiveAccounts(ctx context.Context) ([]core.Account, error) {
	query := `
		SELECT number, customer_id, category, balance, branch, status, opened_at, employer, employer_address
		FROM accounts
		WHERE status = ?
		ORDER BY number
	`

	rows, err := s.q().QueryContext(ctx, query, string(core.StatusActive))
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", mapErr(err))
	}
	defer rows.Close()

	var accounts []core.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, account)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating accounts: %w", err)
	}

	return accounts, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (core.Account, error) {
	var account core.Account
	var balance string
	err := row.Scan(
		&account.Number,
		&account.CustomerID,
		&account.Category,
		&balance,
		&account.Branch,
		&account.Status,
		&account.OpenedAt,
		&account.Employer,
		&account.EmployerAddress,
	)
	if err != nil {
		return core.Account{}, err
	}

	if account.Balance, err = decimal.NewFromString(balance); err != nil {
		return core.Account{}, fmt.Errorf("corrupt balance %q: %w", balance, err)
	}

	return account, nil
}
