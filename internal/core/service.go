package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Service orchestrates every balance-affecting operation. Each operation is
// one atomic unit: validation happens before any mutation, and the balance
// change plus its transaction records commit together or not at all.
type Service struct {
	registry Registry
}

func NewService(registry Registry) Service {
	return Service{
		registry: registry,
	}
}

type RegisterCustomerInput struct {
	FirstName      string
	Surname        string
	CompanyName    string
	Classification Classification
	Email          string
	Phone          string
}

func (s Service) RegisterCustomer(ctx context.Context, input RegisterCustomerInput) (Customer, error) {
	switch input.Classification {
	case ClassificationIndividual:
		if strings.TrimSpace(input.FirstName) == "" || strings.TrimSpace(input.Surname) == "" {
			return Customer{}, fmt.Errorf("%w: individual customers require a first name and surname", ErrValidation)
		}
	case ClassificationCompany:
		if strings.TrimSpace(input.CompanyName) == "" {
			return Customer{}, fmt.Errorf("%w: company customers require a company name", ErrValidation)
		}
	default:
		return Customer{}, fmt.Errorf("%w: unknown classification %q", ErrValidation, input.Classification)
	}

	customer := Customer{
		ID:             uuid.NewString(),
		FirstName:      input.FirstName,
		Surname:        input.Surname,
		CompanyName:    input.CompanyName,
		Classification: input.Classification,
		Email:          input.Email,
		Phone:          input.Phone,
		CreatedAt:      time.Now().UTC(),
	}

	err := s.registry.Atomic(ctx, func(r Registry) error {
		return r.CreateCustomer(ctx, customer)
	})
	if err != nil {
		return Customer{}, err
	}

	return customer, nil
}

// UpdateCustomerContact edits the mutable contact fields. Identity and
// classification are immutable after onboarding.
func (s Service) UpdateCustomerContact(ctx context.Context, customerID, email, phone string) error {
	return s.registry.Atomic(ctx, func(r Registry) error {
		return r.UpdateCustomerContact(ctx, customerID, email, phone)
	})
}

type OpenAccountInput struct {
	CustomerID      string
	Category        Category
	InitialDeposit  decimal.Decimal
	Branch          string
	Employer        string
	EmployerAddress string
}

func (s Service) OpenAccount(ctx context.Context, input OpenAccountInput) (Account, error) {
	if err := ValidateOpen(input.Category, input.InitialDeposit, input.Employer, input.EmployerAddress); err != nil {
		return Account{}, err
	}

	var account Account
	err := s.registry.Atomic(ctx, func(r Registry) error {
		if _, err := r.GetCustomer(ctx, input.CustomerID); err != nil {
			return err
		}

		number, err := r.NextAccountNumber(ctx, input.Category)
		if err != nil {
			return err
		}

		account = Account{
			Number:          number,
			CustomerID:      input.CustomerID,
			Category:        input.Category,
			Balance:         input.InitialDeposit,
			Branch:          input.Branch,
			Status:          StatusActive,
			OpenedAt:        time.Now().UTC(),
			Employer:        input.Employer,
			EmployerAddress: input.EmployerAddress,
		}

		if err = r.CreateAccount(ctx, account); err != nil {
			return err
		}

		if input.InitialDeposit.IsPositive() {
			txn := newTransaction(account.Number, KindDeposit, input.InitialDeposit, input.InitialDeposit, "opening deposit", "")
			if err = r.AppendTransaction(ctx, txn); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return Account{}, err
	}

	return account, nil
}

func (s Service) Deposit(ctx context.Context, number string, amount decimal.Decimal, description string) (Transaction, error) {
	var txn Transaction
	err := s.registry.Atomic(ctx, func(r Registry) error {
		var err error
		txn, err = s.depositInto(ctx, r, number, amount, KindDeposit, description, "")
		return err
	})
	return txn, err
}

// depositInto applies the full deposit rule set inside an existing atomic
// unit. Interest postings reuse it with an overridden kind so they obey the
// same invariants as ordinary deposits.
func (s Service) depositInto(ctx context.Context, r Registry, number string, amount decimal.Decimal, kind TransactionKind, description, reference string) (Transaction, error) {
	if amount.Sign() <= 0 {
		return Transaction{}, ErrInvalidAmount
	}

	account, err := r.GetAccount(ctx, number)
	if err != nil {
		return Transaction{}, err
	}
	if account.Status != StatusActive {
		return Transaction{}, ErrAccountNotActive
	}
	if !CanDeposit(account.Category) {
		return Transaction{}, ErrOperationNotPermitted
	}

	return s.credit(ctx, r, number, amount, kind, description, reference)
}

func (s Service) Withdraw(ctx context.Context, number string, amount decimal.Decimal, description string) (Transaction, error) {
	if amount.Sign() <= 0 {
		return Transaction{}, ErrInvalidAmount
	}

	var txn Transaction
	err := s.registry.Atomic(ctx, func(r Registry) error {
		account, err := r.GetAccount(ctx, number)
		if err != nil {
			return err
		}
		if account.Status != StatusActive {
			return ErrAccountNotActive
		}
		if !CanWithdraw(account.Category) {
			return ErrOperationNotPermitted
		}
		if amount.GreaterThan(account.Balance) {
			return ErrInsufficientFunds
		}

		txn, err = s.debit(ctx, r, number, amount, KindWithdrawal, description, "")
		return err
	})
	return txn, err
}

// Transfer debits the source and credits the destination as one atomic unit,
// recording a mirrored pair of transaction legs. The combined balance of the
// two accounts is unchanged; no partial transfer is ever observable.
func (s Service) Transfer(ctx context.Context, fromNumber, toNumber string, amount decimal.Decimal, description string) (TransferResult, error) {
	if amount.Sign() <= 0 {
		return TransferResult{}, ErrInvalidAmount
	}
	if fromNumber == toNumber {
		return TransferResult{}, ErrSameAccount
	}

	var result TransferResult
	err := s.registry.Atomic(ctx, func(r Registry) error {
		source, err := r.GetAccount(ctx, fromNumber)
		if err != nil {
			return err
		}
		dest, err := r.GetAccount(ctx, toNumber)
		if err != nil {
			return err
		}

		if source.Status != StatusActive || dest.Status != StatusActive {
			return ErrAccountNotActive
		}
		if !CanWithdraw(source.Category) || !CanDeposit(dest.Category) {
			return ErrOperationNotPermitted
		}
		if amount.GreaterThan(source.Balance) {
			return ErrInsufficientFunds
		}

		result.Out, err = s.debit(ctx, r, fromNumber, amount, KindTransferOut, description, toNumber)
		if err != nil {
			return err
		}
		result.In, err = s.credit(ctx, r, toNumber, amount, KindTransferIn, description, fromNumber)
		return err
	})
	if err != nil {
		return TransferResult{}, err
	}

	return result, nil
}

// ChargeFee posts an administrative debit. Fees are not customer withdrawals,
// so the category withdrawal rule does not apply, but the account must be
// active and the balance stays non-negative.
func (s Service) ChargeFee(ctx context.Context, number string, amount decimal.Decimal, description string) (Transaction, error) {
	if amount.Sign() <= 0 {
		return Transaction{}, ErrInvalidAmount
	}

	var txn Transaction
	err := s.registry.Atomic(ctx, func(r Registry) error {
		account, err := r.GetAccount(ctx, number)
		if err != nil {
			return err
		}
		if account.Status != StatusActive {
			return ErrAccountNotActive
		}
		if amount.GreaterThan(account.Balance) {
			return ErrInsufficientFunds
		}

		txn, err = s.debit(ctx, r, number, amount, KindFee, description, "")
		return err
	})
	return txn, err
}

// CloseAccount moves an account to its soft terminal state. The record and
// its transaction history are retained forever.
func (s Service) CloseAccount(ctx context.Context, number string) error {
	return s.registry.Atomic(ctx, func(r Registry) error {
		account, err := r.GetAccount(ctx, number)
		if err != nil {
			return err
		}
		if account.Status != StatusActive {
			return ErrAccountNotActive
		}
		if err = ValidateClose(account); err != nil {
			return err
		}
		return r.SetStatus(ctx, number, StatusClosed)
	})
}

func (s Service) FreezeAccount(ctx context.Context, number string) error {
	return s.setStatusFrom(ctx, number, StatusActive, StatusFrozen)
}

func (s Service) UnfreezeAccount(ctx context.Context, number string) error {
	return s.setStatusFrom(ctx, number, StatusFrozen, StatusActive)
}

func (s Service) setStatusFrom(ctx context.Context, number string, from, to Status) error {
	return s.registry.Atomic(ctx, func(r Registry) error {
		account, err := r.GetAccount(ctx, number)
		if err != nil {
			return err
		}
		if account.Status != from {
			return ErrAccountNotActive
		}
		return r.SetStatus(ctx, number, to)
	})
}

func (s Service) Balance(ctx context.Context, number string) (decimal.Decimal, error) {
	account, err := s.registry.GetAccount(ctx, number)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return account.Balance, nil
}

func (s Service) GetAccount(ctx context.Context, number string) (Account, error) {
	return s.registry.GetAccount(ctx, number)
}

func (s Service) GetCustomer(ctx context.Context, id string) (Customer, error) {
	return s.registry.GetCustomer(ctx, id)
}

// AccountHistory returns the account's transactions, newest first.
func (s Service) AccountHistory(ctx context.Context, number string, within TimeRange) ([]Transaction, error) {
	if _, err := s.registry.GetAccount(ctx, number); err != nil {
		return nil, err
	}
	return s.registry.AccountTransactions(ctx, number, within)
}

// CustomerHistory returns transactions across all of the customer's
// accounts, newest first.
func (s Service) CustomerHistory(ctx context.Context, customerID string, within TimeRange) ([]Transaction, error) {
	if _, err := s.registry.GetCustomer(ctx, customerID); err != nil {
		return nil, err
	}
	return s.registry.CustomerTransactions(ctx, customerID, within)
}

func (s Service) credit(ctx context.Context, r Registry, number string, amount decimal.Decimal, kind TransactionKind, description, reference string) (Transaction, error) {
	balance, err := r.MutateBalance(ctx, number, amount)
	if err != nil {
		return Transaction{}, err
	}

	txn := newTransaction(number, kind, amount, balance, description, reference)
	if err = r.AppendTransaction(ctx, txn); err != nil {
		return Transaction{}, err
	}

	return txn, nil
}

func (s Service) debit(ctx context.Context, r Registry, number string, amount decimal.Decimal, kind TransactionKind, description, reference string) (Transaction, error) {
	balance, err := r.MutateBalance(ctx, number, amount.Neg())
	if err != nil {
		return Transaction{}, err
	}

	txn := newTransaction(number, kind, amount, balance, description, reference)
	if err = r.AppendTransaction(ctx, txn); err != nil {
		return Transaction{}, err
	}

	return txn, nil
}

func newTransaction(number string, kind TransactionKind, amount, balanceAfter decimal.Decimal, description, reference string) Transaction {
	return Transaction{
		ID:               uuid.NewString(),
		AccountNumber:    number,
		Kind:             kind,
		Amount:           amount,
		BalanceAfter:     balanceAfter,
		Timestamp:        time.Now().UTC(),
		Description:      description,
		ReferenceAccount: reference,
	}
}
