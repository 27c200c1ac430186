package sqlite

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

type Client struct {
	db     *sql.DB
	config Config
}

func NewClient(config Config) (*Client, error) {
	dsn := buildDSN(config)

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)
	db.SetConnMaxLifetime(config.ConnMaxLifetime)
	db.SetConnMaxIdleTime(config.ConnMaxIdleTime)

	return &Client{
		db:     db,
		config: config,
	}, nil
}

func buildDSN(config Config) string {
	dsn := fmt.Sprintf("file:%s?", config.DatabasePath)

	dsn += fmt.Sprintf("_busy_timeout=%d", int(config.BusyTimeout.Milliseconds()))

	// Use IMMEDIATE transactions by default to acquire reserved lock immediately
	// This prevents race conditions while still allowing concurrent reads
	dsn += "&_txlock=immediate"

	dsn += "&_foreign_keys=on"

	if config.EnableWAL {
		dsn += "&_journal_mode=WAL"
	}

	return dsn
}

const schema = `
	CREATE TABLE IF NOT EXISTS customers (
		id TEXT PRIMARY KEY,
		first_name TEXT NOT NULL DEFAULT '',
		surname TEXT NOT NULL DEFAULT '',
		company_name TEXT NOT NULL DEFAULT '',
		classification TEXT NOT NULL,
		email TEXT NOT NULL DEFAULT '',
		phone TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS accounts (
		number TEXT PRIMARY KEY,
		customer_id TEXT NOT NULL REFERENCES customers(id),
		category TEXT NOT NULL,
		balance TEXT NOT NULL,
		branch TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		opened_at TIMESTAMP NOT NULL,
		employer TEXT NOT NULL DEFAULT '',
		employer_address TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS transactions (
		id TEXT PRIMARY KEY,
		account_number TEXT NOT NULL REFERENCES accounts(number),
		kind TEXT NOT NULL,
		amount TEXT NOT NULL,
		balance_after TEXT NOT NULL,
		timestamp TIMESTAMP NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		reference_account TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_transactions_account ON transactions(account_number);
	CREATE INDEX IF NOT EXISTS idx_accounts_customer ON accounts(customer_id);

	CREATE TABLE IF NOT EXISTS account_sequences (
		category TEXT PRIMARY KEY,
		next_value INTEGER NOT NULL
	);
`

// EnsureSchema creates the tables if they do not exist. The DDL is
// idempotent, so it is safe to run at every startup.
func (c *Client) EnsureSchema() error {
	if _, err := c.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

func (c *Client) DB() *sql.DB {
	return c.db
}

func (c *Client) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}
