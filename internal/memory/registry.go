package memory

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"bank/internal/core"
)

// Registry is an in-memory implementation of core.Registry. One exclusive
// lock serializes all state changes, so a transfer touching two accounts is
// trivially atomic. Atomic snapshots the state up front and restores it when
// the callback fails, giving the same rollback guarantee as a database
// transaction.
type Registry struct {
	lockc       chan struct{}
	lockTimeout time.Duration
	state       *state
	inTx        bool
}

type state struct {
	customers    map[string]core.Customer
	accounts     map[string]core.Account
	transactions []core.Transaction
	sequences    map[core.Category]int64
}

func newState() *state {
	return &state{
		customers: make(map[string]core.Customer),
		accounts:  make(map[string]core.Account),
		sequences: make(map[core.Category]int64),
	}
}

func (s *state) clone() *state {
	cp := &state{
		customers:    make(map[string]core.Customer, len(s.customers)),
		accounts:     make(map[string]core.Account, len(s.accounts)),
		transactions: make([]core.Transaction, len(s.transactions)),
		sequences:    make(map[core.Category]int64, len(s.sequences)),
	}
	for id, c := range s.customers {
		cp.customers[id] = c
	}
	for number, a := range s.accounts {
		cp.accounts[number] = a
	}
	copy(cp.transactions, s.transactions)
	for category, seq := range s.sequences {
		cp.sequences[category] = seq
	}
	return cp
}

func NewRegistry(lockTimeout time.Duration) *Registry {
	return &Registry{
		lockc:       make(chan struct{}, 1),
		lockTimeout: lockTimeout,
		state:       newState(),
	}
}

func (r *Registry) acquire(ctx context.Context) error {
	if r.inTx {
		return nil
	}

	timer := time.NewTimer(r.lockTimeout)
	defer timer.Stop()

	select {
	case r.lockc <- struct{}{}:
		return nil
	case <-timer.C:
		return core.ErrBusy
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Registry) release() {
	if !r.inTx {
		<-r.lockc
	}
}

func (r *Registry) Atomic(ctx context.Context, cb func(core.Registry) error) error {
	if r.inTx {
		return errors.New("nested Atomic transactions are not supported")
	}

	if err := r.acquire(ctx); err != nil {
		return err
	}
	defer r.release()

	snapshot := r.state.clone()
	tx := &Registry{state: r.state, inTx: true}

	if err := cb(tx); err != nil {
		*r.state = *snapshot
		return err
	}

	return nil
}

func (r *Registry) GetAccount(ctx context.Context, number string) (core.Account, error) {
	if err := r.acquire(ctx); err != nil {
		return core.Account{}, err
	}
	defer r.release()

	account, ok := r.state.accounts[number]
	if !ok {
		return core.Account{}, core.ErrNotFound
	}
	return account, nil
}

func (r *Registry) GetCustomer(ctx context.Context, id string) (core.Customer, error) {
	if err := r.acquire(ctx); err != nil {
		return core.Customer{}, err
	}
	defer r.release()

	customer, ok := r.state.customers[id]
	if !ok {
		return core.Customer{}, core.ErrCustomerNotFound
	}
	return customer, nil
}

func (r *Registry) CreateCustomer(_ context.Context, customer core.Customer) error {
	if !r.inTx {
		return errors.New("CreateCustomer must be called within Atomic transaction")
	}

	if _, exists := r.state.customers[customer.ID]; exists {
		return core.ErrDuplicateKey
	}
	r.state.customers[customer.ID] = customer
	return nil
}

func (r *Registry) UpdateCustomerContact(_ context.Context, id, email, phone string) error {
	if !r.inTx {
		return errors.New("UpdateCustomerContact must be called within Atomic transaction")
	}

	customer, ok := r.state.customers[id]
	if !ok {
		return core.ErrCustomerNotFound
	}
	customer.Email = email
	customer.Phone = phone
	r.state.customers[id] = customer
	return nil
}

func (r *Registry) CreateAccount(_ context.Context, account core.Account) error {
	if !r.inTx {
		return errors.New("CreateAccount must be called within Atomic transaction")
	}

	if _, exists := r.state.accounts[account.Number]; exists {
		return core.ErrDuplicateKey
	}
	r.state.accounts[account.Number] = account
	return nil
}

func (r *Registry) NextAccountNumber(_ context.Context, category core.Category) (string, error) {
	if !r.inTx {
		return "", errors.New("NextAccountNumber must be called within Atomic transaction")
	}

	r.state.sequences[category]++
	return core.FormatAccountNumber(category, r.state.sequences[category]), nil
}

func (r *Registry) MutateBalance(_ context.Context, number string, delta decimal.Decimal) (decimal.Decimal, error) {
	if !r.inTx {
		return decimal.Decimal{}, errors.New("MutateBalance must be called within Atomic transaction")
	}

	account, ok := r.state.accounts[number]
	if !ok {
		return decimal.Decimal{}, core.ErrNotFound
	}
	account.Balance = account.Balance.Add(delta)
	r.state.accounts[number] = account
	return account.Balance, nil
}

func (r *Registry) SetStatus(_ context.Context, number string, status core.Status) error {
	if !r.inTx {
		return errors.New("SetStatus must be called within Atomic transaction")
	}

	account, ok := r.state.accounts[number]
	if !ok {
		return core.ErrNotFound
	}
	account.Status = status
	r.state.accounts[number] = account
	return nil
}

func (r *Registry) AppendTransaction(_ context.Context, txn core.Transaction) error {
	if !r.inTx {
		return errors.New("AppendTransaction must be called within Atomic transaction")
	}

	r.state.transactions = append(r.state.transactions, txn)
	return nil
}

func (r *Registry) AccountTransactions(ctx context.Context, number string, within core.TimeRange) ([]core.Transaction, error) {
	if err := r.acquire(ctx); err != nil {
		return nil, err
	}
	defer r.release()

	return r.collect(within, func(txn core.Transaction) bool {
		return txn.AccountNumber == number
	}), nil
}

func (r *Registry) CustomerTransactions(ctx context.Context, customerID string, within core.TimeRange) ([]core.Transaction, error) {
	if err := r.acquire(ctx); err != nil {
		return nil, err
	}
	defer r.release()

	return r.collect(within, func(txn core.Transaction) bool {
		account, ok := r.state.accounts[txn.AccountNumber]
		return ok && account.CustomerID == customerID
	}), nil
}

// collect filters the append-only log and returns matches newest first.
func (r *Registry) collect(within core.TimeRange, match func(core.Transaction) bool) []core.Transaction {
	var out []core.Transaction
	for i := len(r.state.transactions) - 1; i >= 0; i-- {
		txn := r.state.transactions[i]
		if match(txn) && within.Contains(txn.Timestamp) {
			out = append(out, txn)
		}
	}
	return out
}

func (r *Registry) ListActiveAccounts(ctx context.Context) ([]core.Account, error) {
	if err := r.acquire(ctx); err != nil {
		return nil, err
	}
	defer r.release()

	var out []core.Account
	for _, account := range r.state.accounts {
		if account.Status == core.StatusActive {
			out = append(out, account)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}
